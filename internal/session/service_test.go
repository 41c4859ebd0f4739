package session_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deenlabs/iqra/internal/content"
	"github.com/deenlabs/iqra/internal/domain"
	"github.com/deenlabs/iqra/internal/errors"
	"github.com/deenlabs/iqra/internal/event"
	"github.com/deenlabs/iqra/internal/session"
)

func testQuestions() []domain.Question {
	return []domain.Question{
		{
			QuestionID:  "q1",
			Type:        domain.QuestionMultipleChoice,
			Prompt:      "first",
			Explanation: "one",
			Options:     []string{"right", "wrong-a", "wrong-b"},
			Correct:     0,
		},
		{
			QuestionID:  "q2",
			Type:        domain.QuestionMultipleChoice,
			Prompt:      "second",
			Explanation: "two",
			Options:     []string{"wrong-a", "right", "wrong-b"},
			Correct:     1,
		},
		{
			QuestionID:  "q3",
			Type:        domain.QuestionMultipleChoice,
			Prompt:      "third",
			Explanation: "three",
			Options:     []string{"wrong-a", "wrong-b", "right"},
			Correct:     2,
		},
		{
			QuestionID:   "q4",
			Type:         domain.QuestionDragDrop,
			Prompt:       "fourth",
			Explanation:  "four",
			Template:     "___ and ___",
			WordBank:     []string{"X", "Y", "Z"},
			CorrectWords: []string{"X", "Y"},
		},
	}
}

func makeService(t *testing.T, opts ...option) *session.Service {
	t.Helper()

	lib, err := content.New(
		[]domain.Lesson{
			{LessonID: "l1", Title: "Lesson", Questions: testQuestions()},
			{LessonID: "empty", Title: "Coming soon"},
		},
		[]domain.Module{
			{
				ModuleID: "m1",
				Title:    "Module",
				Concepts: []domain.ConceptCard{
					{Title: "c1", Body: "first card"},
					{Title: "c2", Body: "second card"},
				},
				Questions: testQuestions()[:1],
			},
		},
		nil,
	)
	require.NoError(t, err)

	c := session.Config{
		EventBus: event.NewBus(),
		Content:  lib,
	}
	for _, opt := range opts {
		opt(&c)
	}

	return session.NewService(c)
}

type option func(*session.Config)

func withEventBus(eb *event.Bus) option {
	return func(c *session.Config) {
		c.EventBus = eb
	}
}

// selectCorrect finds the display index of the canonical correct option and
// selects it, so tests hold under any permutation.
func selectCorrect(t *testing.T, s *session.Service, snap *session.Snapshot, correctText string) *session.Snapshot {
	t.Helper()

	require.NotNil(t, snap.Question)
	display := -1
	for i, o := range snap.Question.Options {
		if o == correctText {
			display = i
		}
	}
	require.GreaterOrEqual(t, display, 0, "correct option not displayed")

	out, err := s.SelectOption(context.Background(), session.SelectOptionRequest{
		SessionID: snap.SessionID,
		Option:    display,
	})
	require.NoError(t, err)
	return out
}

func selectWrong(t *testing.T, s *session.Service, snap *session.Snapshot, correctText string) {
	t.Helper()

	for i, o := range snap.Question.Options {
		if o != correctText {
			_, err := s.SelectOption(context.Background(), session.SelectOptionRequest{
				SessionID: snap.SessionID,
				Option:    i,
			})
			require.NoError(t, err)
			return
		}
	}
	t.Fatal("no wrong option displayed")
}

func TestStartQuiz(t *testing.T) {
	t.Parallel()

	s := makeService(t)
	ctx := context.Background()

	t.Run("lesson starts awaiting the first question", func(t *testing.T) {
		snap, err := s.StartQuiz(ctx, session.StartQuizRequest{Username: "amina", LessonID: "l1"})
		require.NoError(t, err)

		assert.Equal(t, session.StateAwaitingAnswer, snap.State)
		assert.Equal(t, 0, snap.QuestionIndex)
		assert.Equal(t, 4, snap.QuestionCount)
		require.NotNil(t, snap.Question)
		assert.ElementsMatch(t, []string{"right", "wrong-a", "wrong-b"}, snap.Question.Options)
	})

	t.Run("module starts in concept intro", func(t *testing.T) {
		snap, err := s.StartQuiz(ctx, session.StartQuizRequest{Username: "amina", ModuleID: "m1"})
		require.NoError(t, err)

		assert.Equal(t, session.StateConceptIntro, snap.State)
		require.NotNil(t, snap.Concept)
		assert.Equal(t, "c1", snap.Concept.Title)
		assert.Equal(t, 2, snap.ConceptCount)
	})

	t.Run("empty question list is reported as not ready", func(t *testing.T) {
		_, err := s.StartQuiz(ctx, session.StartQuizRequest{Username: "amina", LessonID: "empty"})
		require.Error(t, err)
		assert.Equal(t, errors.CodeUnavailable, errors.Convert(err).Code)
	})

	t.Run("lesson and module are mutually exclusive", func(t *testing.T) {
		_, err := s.StartQuiz(ctx, session.StartQuizRequest{Username: "amina", LessonID: "l1", ModuleID: "m1"})
		require.Error(t, err)
		assert.Equal(t, errors.CodeInvalidArgument, errors.Convert(err).Code)
	})

	t.Run("unknown lesson is not found", func(t *testing.T) {
		_, err := s.StartQuiz(ctx, session.StartQuizRequest{Username: "amina", LessonID: "nope"})
		require.Error(t, err)
		assert.Equal(t, errors.CodeNotFound, errors.Convert(err).Code)
	})
}

func TestConceptIntro(t *testing.T) {
	t.Parallel()

	s := makeService(t)
	ctx := context.Background()

	t.Run("advances card by card into the first question", func(t *testing.T) {
		snap, err := s.StartQuiz(ctx, session.StartQuizRequest{Username: "amina", ModuleID: "m1"})
		require.NoError(t, err)

		snap, err = s.AdvanceIntro(ctx, session.SessionRequest{SessionID: snap.SessionID})
		require.NoError(t, err)
		assert.Equal(t, session.StateConceptIntro, snap.State)
		assert.Equal(t, "c2", snap.Concept.Title)

		snap, err = s.AdvanceIntro(ctx, session.SessionRequest{SessionID: snap.SessionID})
		require.NoError(t, err)
		assert.Equal(t, session.StateAwaitingAnswer, snap.State)
		assert.Equal(t, 0, snap.QuestionIndex)
	})

	t.Run("skip jumps straight to the first question", func(t *testing.T) {
		snap, err := s.StartQuiz(ctx, session.StartQuizRequest{Username: "amina", ModuleID: "m1"})
		require.NoError(t, err)

		snap, err = s.SkipIntro(ctx, session.SessionRequest{SessionID: snap.SessionID})
		require.NoError(t, err)
		assert.Equal(t, session.StateAwaitingAnswer, snap.State)
	})

	t.Run("intro operations are rejected once past the intro", func(t *testing.T) {
		snap, err := s.StartQuiz(ctx, session.StartQuizRequest{Username: "amina", LessonID: "l1"})
		require.NoError(t, err)

		_, err = s.AdvanceIntro(ctx, session.SessionRequest{SessionID: snap.SessionID})
		require.Error(t, err)
		assert.Equal(t, errors.CodeFailedPrecondition, errors.Convert(err).Code)
	})
}

func TestSubmitAndAdvance(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("score and streak track consecutive correct answers", func(t *testing.T) {
		t.Parallel()

		s := makeService(t)
		snap, err := s.StartQuiz(ctx, session.StartQuizRequest{Username: "amina", LessonID: "l1"})
		require.NoError(t, err)
		id := snap.SessionID

		// q1..q3 correct: streak == k after k correct answers.
		for i := 1; i <= 3; i++ {
			snap = selectCorrect(t, s, snap, "right")
			snap, err = s.Submit(ctx, session.SessionRequest{SessionID: id})
			require.NoError(t, err)

			assert.Equal(t, session.StateSubmitted, snap.State)
			require.NotNil(t, snap.Verdict)
			assert.True(t, snap.Verdict.Correct)
			assert.Equal(t, 10*i, snap.Score)
			assert.Equal(t, i, snap.Streak)

			snap, err = s.Advance(ctx, session.SessionRequest{SessionID: id})
			require.NoError(t, err)
		}

		// q4 wrong: streak resets, score holds.
		_, err = s.PlaceWord(ctx, session.PlaceWordRequest{SessionID: id, Slot: 0, Word: "Z"})
		require.NoError(t, err)
		_, err = s.PlaceWord(ctx, session.PlaceWordRequest{SessionID: id, Slot: 1, Word: "X"})
		require.NoError(t, err)

		snap, err = s.Submit(ctx, session.SessionRequest{SessionID: id})
		require.NoError(t, err)
		assert.False(t, snap.Verdict.Correct)
		assert.Equal(t, 30, snap.Score)
		assert.Equal(t, 0, snap.Streak)
	})

	t.Run("submit is gated until the attempt is well-formed", func(t *testing.T) {
		t.Parallel()

		s := makeService(t)
		snap, err := s.StartQuiz(ctx, session.StartQuizRequest{Username: "amina", LessonID: "l1"})
		require.NoError(t, err)

		_, err = s.Submit(ctx, session.SessionRequest{SessionID: snap.SessionID})
		require.Error(t, err)
		assert.Equal(t, errors.CodeFailedPrecondition, errors.Convert(err).Code)
	})

	t.Run("attempt mutations are rejected after submission", func(t *testing.T) {
		t.Parallel()

		s := makeService(t)
		snap, err := s.StartQuiz(ctx, session.StartQuizRequest{Username: "amina", LessonID: "l1"})
		require.NoError(t, err)
		id := snap.SessionID

		snap = selectCorrect(t, s, snap, "right")
		_, err = s.Submit(ctx, session.SessionRequest{SessionID: id})
		require.NoError(t, err)

		_, err = s.SelectOption(ctx, session.SelectOptionRequest{SessionID: id, Option: 0})
		require.Error(t, err)
		assert.Equal(t, errors.CodeFailedPrecondition, errors.Convert(err).Code)
	})

	t.Run("double submit is rejected", func(t *testing.T) {
		t.Parallel()

		s := makeService(t)
		snap, err := s.StartQuiz(ctx, session.StartQuizRequest{Username: "amina", LessonID: "l1"})
		require.NoError(t, err)
		id := snap.SessionID

		selectCorrect(t, s, snap, "right")
		_, err = s.Submit(ctx, session.SessionRequest{SessionID: id})
		require.NoError(t, err)

		_, err = s.Submit(ctx, session.SessionRequest{SessionID: id})
		require.Error(t, err)
		assert.Equal(t, errors.CodeFailedPrecondition, errors.Convert(err).Code)
	})
}

func TestStreakMilestone(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	eb := event.NewBus()

	var (
		mu         sync.Mutex
		milestones []domain.EventStreakMilestone
	)
	eb.Subscribe(domain.EventNameStreakMilestone, func(ctx context.Context, e event.Event) error {
		mu.Lock()
		milestones = append(milestones, e.(domain.EventStreakMilestone))
		mu.Unlock()
		return nil
	})

	s := makeService(t, withEventBus(eb))
	snap, err := s.StartQuiz(ctx, session.StartQuizRequest{Username: "amina", LessonID: "l1"})
	require.NoError(t, err)
	id := snap.SessionID

	for i := 0; i < 3; i++ {
		snap = selectCorrect(t, s, snap, "right")
		_, err = s.Submit(ctx, session.SessionRequest{SessionID: id})
		require.NoError(t, err)
		snap, err = s.Advance(ctx, session.SessionRequest{SessionID: id})
		require.NoError(t, err)
	}

	eb.Stop()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, milestones, 1, "every 3rd consecutive correct answer celebrates once")
	assert.Equal(t, 3, milestones[0].Streak)
	assert.Equal(t, "amina", milestones[0].Username)
}

func TestCompletion(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	eb := event.NewBus()

	var (
		mu        sync.Mutex
		completed []domain.EventQuizCompleted
	)
	eb.Subscribe(domain.EventNameQuizCompleted, func(ctx context.Context, e event.Event) error {
		mu.Lock()
		completed = append(completed, e.(domain.EventQuizCompleted))
		mu.Unlock()
		return nil
	})

	s := makeService(t, withEventBus(eb))
	snap, err := s.StartQuiz(ctx, session.StartQuizRequest{Username: "amina", ModuleID: "m1"})
	require.NoError(t, err)
	id := snap.SessionID

	snap, err = s.SkipIntro(ctx, session.SessionRequest{SessionID: id})
	require.NoError(t, err)

	snap = selectCorrect(t, s, snap, "right")
	_, err = s.Submit(ctx, session.SessionRequest{SessionID: id})
	require.NoError(t, err)

	snap, err = s.Advance(ctx, session.SessionRequest{SessionID: id})
	require.NoError(t, err)

	assert.Equal(t, session.StateCompleted, snap.State)
	require.Len(t, snap.Results, 1)
	assert.Equal(t, "first", snap.Results[0].Prompt)
	assert.True(t, snap.Results[0].Correct)
	assert.Equal(t, "one", snap.Results[0].Explanation)

	// The session is discarded on completion.
	_, err = s.GetState(ctx, session.SessionRequest{SessionID: id})
	require.Error(t, err)
	assert.Equal(t, errors.CodeNotFound, errors.Convert(err).Code)

	eb.Stop()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, completed, 1, "completion publishes the summary exactly once")
	sum := completed[0].Summary
	assert.Equal(t, "m1", sum.SourceID)
	assert.Equal(t, 10, sum.Score)
	assert.Equal(t, "amina", sum.Username)
}

func TestExit(t *testing.T) {
	t.Parallel()

	s := makeService(t)
	ctx := context.Background()

	snap, err := s.StartQuiz(ctx, session.StartQuizRequest{Username: "amina", LessonID: "l1"})
	require.NoError(t, err)

	require.NoError(t, s.Exit(ctx, session.SessionRequest{SessionID: snap.SessionID}))

	_, err = s.GetState(ctx, session.SessionRequest{SessionID: snap.SessionID})
	require.Error(t, err)
	assert.Equal(t, errors.CodeNotFound, errors.Convert(err).Code)
}
