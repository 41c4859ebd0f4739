// Package session drives a quiz session through its states:
// concept intro (optional) -> awaiting answer -> submitted, repeated per
// question, ending in completed. Sessions live only in memory and are
// discarded the moment they complete.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/deenlabs/iqra/internal/content"
	"github.com/deenlabs/iqra/internal/domain"
	"github.com/deenlabs/iqra/internal/errors"
	"github.com/deenlabs/iqra/internal/evaluate"
	"github.com/deenlabs/iqra/internal/event"
	"github.com/deenlabs/iqra/internal/shuffle"
)

type State string

const (
	StateConceptIntro   State = "concept-intro"
	StateAwaitingAnswer State = "awaiting-answer"
	StateSubmitted      State = "submitted"
	StateCompleted      State = "completed"
)

const (
	pointsPerCorrect = 10
	streakMilestone  = 3
)

type Config struct {
	EventBus *event.Bus
	Content  *content.Library

	// NewEngineFunc overrides shuffle engine construction, so tests can
	// pin the permutation seed.
	NewEngineFunc func() *shuffle.Engine
}

type Service struct {
	eb        *event.Bus
	content   *content.Library
	newEngine func() *shuffle.Engine

	mu       sync.Mutex
	sessions map[string]*quiz
}

func NewService(c Config) *Service {
	ne := c.NewEngineFunc
	if ne == nil {
		ne = shuffle.NewEngine
	}

	return &Service{
		eb:        c.EventBus,
		content:   c.Content,
		newEngine: ne,
		sessions:  make(map[string]*quiz),
	}
}

// quiz is the full per-session state. The current question pointer only
// moves forward; results is append-only.
type quiz struct {
	id       string
	username string
	sourceID string

	concepts   []domain.ConceptCard
	conceptIdx int

	questions []domain.Question
	engine    *shuffle.Engine

	state   State
	idx     int
	attempt *evaluate.Attempt
	verdict bool

	score   int
	streak  int
	results []domain.Result
}

// StartQuizRequest starts a session from a lesson or a module, exactly one
// of which must be set.
type StartQuizRequest struct {
	Username string
	LessonID string
	ModuleID string
}

// StartQuiz creates a new session, building one shuffle permutation per
// option-bearing question up front. A unit with no questions is reported as
// not ready rather than entering the question loop.
func (s *Service) StartQuiz(_ context.Context, req StartQuizRequest) (*Snapshot, error) {
	if req.Username == "" {
		return nil, errors.New(errors.CodeInvalidArgument, errors.WithMessagef("username is required"))
	}
	if (req.LessonID == "") == (req.ModuleID == "") {
		return nil, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("exactly one of lesson_id or module_id is required"))
	}

	var (
		sourceID  string
		concepts  []domain.ConceptCard
		questions []domain.Question
	)

	if req.LessonID != "" {
		l, err := s.content.Lesson(req.LessonID)
		if err != nil {
			return nil, err
		}
		sourceID, questions = l.LessonID, l.Questions
	} else {
		m, err := s.content.Module(req.ModuleID)
		if err != nil {
			return nil, err
		}
		sourceID, concepts, questions = m.ModuleID, m.Concepts, m.Questions
	}

	if len(questions) == 0 {
		return nil, errors.New(errors.CodeUnavailable,
			errors.WithMessagef("%s is not available yet", sourceID))
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate session ID: %w", err)
	}

	q := &quiz{
		id:        id.String(),
		username:  req.Username,
		sourceID:  sourceID,
		concepts:  concepts,
		questions: questions,
		engine:    s.newEngine(),
		state:     StateAwaitingAnswer,
	}
	if len(concepts) > 0 {
		q.state = StateConceptIntro
	}

	for _, qq := range questions {
		if qq.HasOptions() {
			q.engine.Add(qq.QuestionID, len(qq.Options))
		}
	}
	q.attempt = evaluate.NewAttempt(questions[0], q.engine.Lookup(questions[0].QuestionID))

	s.mu.Lock()
	s.sessions[q.id] = q
	s.mu.Unlock()

	return q.snapshot(), nil
}

type SessionRequest struct {
	SessionID string
}

// GetState returns the view-layer snapshot of a session.
func (s *Service) GetState(_ context.Context, req SessionRequest) (*Snapshot, error) {
	var snap *Snapshot
	err := s.withSession(req.SessionID, func(q *quiz) error {
		snap = q.snapshot()
		return nil
	})
	return snap, err
}

// AdvanceIntro moves to the next concept card; past the last card the
// session enters the first question.
func (s *Service) AdvanceIntro(_ context.Context, req SessionRequest) (*Snapshot, error) {
	return s.update(req.SessionID, func(q *quiz) error {
		if q.state != StateConceptIntro {
			return wrongState(q.state, StateConceptIntro)
		}

		q.conceptIdx++
		if q.conceptIdx >= len(q.concepts) {
			q.state = StateAwaitingAnswer
		}
		return nil
	})
}

// SkipIntro jumps straight to the first question from anywhere in the
// concept intro.
func (s *Service) SkipIntro(_ context.Context, req SessionRequest) (*Snapshot, error) {
	return s.update(req.SessionID, func(q *quiz) error {
		if q.state != StateConceptIntro {
			return wrongState(q.state, StateConceptIntro)
		}

		q.conceptIdx = len(q.concepts)
		q.state = StateAwaitingAnswer
		return nil
	})
}

type SelectOptionRequest struct {
	SessionID string
	// Option is a display-space index.
	Option int
}

func (s *Service) SelectOption(_ context.Context, req SelectOptionRequest) (*Snapshot, error) {
	return s.mutateAttempt(req.SessionID, func(a *evaluate.Attempt) {
		a.Select(req.Option)
	})
}

type PlaceWordRequest struct {
	SessionID string
	Slot      int
	Word      string
}

func (s *Service) PlaceWord(_ context.Context, req PlaceWordRequest) (*Snapshot, error) {
	return s.mutateAttempt(req.SessionID, func(a *evaluate.Attempt) {
		a.Place(req.Slot, req.Word)
	})
}

type ClearSlotRequest struct {
	SessionID string
	Slot      int
}

func (s *Service) ClearSlot(_ context.Context, req ClearSlotRequest) (*Snapshot, error) {
	return s.mutateAttempt(req.SessionID, func(a *evaluate.Attempt) {
		a.ClearSlot(req.Slot)
	})
}

type AssignItemRequest struct {
	SessionID string
	Item      string
	Column    string
}

func (s *Service) AssignItem(_ context.Context, req AssignItemRequest) (*Snapshot, error) {
	return s.mutateAttempt(req.SessionID, func(a *evaluate.Attempt) {
		a.Assign(req.Item, req.Column)
	})
}

type UnassignItemRequest struct {
	SessionID string
	Item      string
}

func (s *Service) UnassignItem(_ context.Context, req UnassignItemRequest) (*Snapshot, error) {
	return s.mutateAttempt(req.SessionID, func(a *evaluate.Attempt) {
		a.Unassign(req.Item)
	})
}

// Submit locks in the current attempt. It is gated on the attempt being
// well-formed; a correct answer adds points and extends the streak, a wrong
// one resets the streak. Every third consecutive correct answer publishes a
// celebratory milestone event.
func (s *Service) Submit(ctx context.Context, req SessionRequest) (*Snapshot, error) {
	var milestone *domain.EventStreakMilestone

	snap, err := s.update(req.SessionID, func(q *quiz) error {
		if q.state != StateAwaitingAnswer {
			return wrongState(q.state, StateAwaitingAnswer)
		}
		if !q.attempt.Ready() {
			return errors.New(errors.CodeFailedPrecondition,
				errors.WithMessagef("answer is incomplete"))
		}

		q.verdict = q.attempt.Correct()
		cur := q.questions[q.idx]
		q.results = append(q.results, domain.Result{
			Prompt:      cur.Prompt,
			Correct:     q.verdict,
			Explanation: cur.Explanation,
		})

		if q.verdict {
			q.score += pointsPerCorrect
			q.streak++
			if q.streak%streakMilestone == 0 {
				milestone = &domain.EventStreakMilestone{
					SessionID: q.id,
					Username:  q.username,
					Streak:    q.streak,
				}
			}
		} else {
			q.streak = 0
		}

		q.state = StateSubmitted
		return nil
	})
	if err != nil {
		return nil, err
	}

	if milestone != nil {
		s.eb.Publish(ctx, *milestone)
	}

	return snap, nil
}

// Advance moves past a submitted question: attempt state is cleared and the
// next question becomes current, or the session completes. Completion
// publishes the summary exactly once and discards the session.
func (s *Service) Advance(ctx context.Context, req SessionRequest) (*Snapshot, error) {
	var completed *domain.EventQuizCompleted

	snap, err := s.update(req.SessionID, func(q *quiz) error {
		if q.state != StateSubmitted {
			return wrongState(q.state, StateSubmitted)
		}

		if q.idx == len(q.questions)-1 {
			q.state = StateCompleted
			completed = &domain.EventQuizCompleted{Summary: domain.Summary{
				SessionID: q.id,
				Username:  q.username,
				SourceID:  q.sourceID,
				Score:     q.score,
				Results:   append([]domain.Result(nil), q.results...),
			}}
			return nil
		}

		q.idx++
		next := q.questions[q.idx]
		q.attempt = evaluate.NewAttempt(next, q.engine.Lookup(next.QuestionID))
		q.state = StateAwaitingAnswer
		return nil
	})
	if err != nil {
		return nil, err
	}

	if completed != nil {
		s.mu.Lock()
		delete(s.sessions, req.SessionID)
		s.mu.Unlock()

		s.eb.Publish(ctx, *completed)
	}

	return snap, nil
}

// Exit discards a session before completion, e.g. when the user navigates
// home. No rewards are granted.
func (s *Service) Exit(_ context.Context, req SessionRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[req.SessionID]; !ok {
		return sessionNotFound(req.SessionID)
	}
	delete(s.sessions, req.SessionID)
	return nil
}

func (s *Service) update(id string, fn func(q *quiz) error) (*Snapshot, error) {
	var snap *Snapshot
	err := s.withSession(id, func(q *quiz) error {
		if err := fn(q); err != nil {
			return err
		}
		snap = q.snapshot()
		return nil
	})
	return snap, err
}

func (s *Service) mutateAttempt(id string, fn func(a *evaluate.Attempt)) (*Snapshot, error) {
	return s.update(id, func(q *quiz) error {
		if q.state != StateAwaitingAnswer {
			return wrongState(q.state, StateAwaitingAnswer)
		}
		fn(q.attempt)
		return nil
	})
}

func (s *Service) withSession(id string, fn func(q *quiz) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.sessions[id]
	if !ok {
		return sessionNotFound(id)
	}
	return fn(q)
}

func wrongState(got, want State) error {
	return errors.New(errors.CodeFailedPrecondition,
		errors.WithMessagef("session is %s, expected %s", got, want))
}

func sessionNotFound(id string) error {
	return errors.New(errors.CodeNotFound,
		errors.WithMessagef("session not found: %s", id))
}
