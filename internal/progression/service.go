// Package progression converts quiz outcomes into a user's process-lifetime
// stats: points, XP, levels, coins, daily streak and the set of completed
// lessons and modules.
package progression

import (
	"context"
	"sync"
	"time"

	"github.com/deenlabs/iqra/internal/domain"
	"github.com/deenlabs/iqra/internal/errors"
	"github.com/deenlabs/iqra/internal/event"
)

const (
	xpPerPoint     = 2
	coinsPerPoints = 2 // coins = score / coinsPerPoints
	xpPerLevelStep = 100
	startLevel     = 1
)

type Config struct {
	EventBus *event.Bus

	// NowFunc overrides the clock for daily streak computation.
	NowFunc func() time.Time
}

type Service struct {
	eb  *event.Bus
	now func() time.Time

	mu       sync.Mutex
	profiles map[string]*domain.Profile
}

func NewService(c Config) *Service {
	now := c.NowFunc
	if now == nil {
		now = time.Now
	}

	s := &Service{
		eb:       c.EventBus,
		now:      now,
		profiles: make(map[string]*domain.Profile),
	}

	s.eb.Subscribe(domain.EventNameQuizCompleted, func(ctx context.Context, e event.Event) error {
		return s.RecordCompletion(ctx, e.(domain.EventQuizCompleted))
	})

	return s
}

type GetProfileRequest struct {
	Username string
}

// GetProfile returns the user's current stats.
func (s *Service) GetProfile(_ context.Context, req GetProfileRequest) (*domain.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[req.Username]
	if !ok {
		return nil, errors.New(errors.CodeNotFound,
			errors.WithMessagef("profile not found: %s", req.Username))
	}

	cp := *p
	cp.Completed = append([]string(nil), p.Completed...)
	return &cp, nil
}

// RecordCompletion applies a finished quiz to the user's profile:
// xp += score*2, coins += score/2, points += score, with level-ups carrying
// the XP remainder past each level*100 threshold so no XP is ever lost.
// The completion set is idempotent, but rewards are granted again on replay.
func (s *Service) RecordCompletion(ctx context.Context, e domain.EventQuizCompleted) error {
	sum := e.Summary

	s.mu.Lock()
	p, ok := s.profiles[sum.Username]
	if !ok {
		p = &domain.Profile{Username: sum.Username, Level: startLevel}
		s.profiles[sum.Username] = p
	}

	p.Points += sum.Score
	p.XP += sum.Score * xpPerPoint
	p.Coins += sum.Score / coinsPerPoints

	for p.XP >= p.Level*xpPerLevelStep {
		p.XP -= p.Level * xpPerLevelStep
		p.Level++
	}

	if !p.HasCompleted(sum.SourceID) {
		p.Completed = append(p.Completed, sum.SourceID)
	}

	s.bumpDailyStreak(p)

	cp := *p
	cp.Completed = append([]string(nil), p.Completed...)
	s.mu.Unlock()

	s.eb.Publish(ctx, domain.EventProfileUpdated{Profile: cp})
	return nil
}

// bumpDailyStreak increments the streak on the first completion of a new
// day, resets it after a missed day, and ignores repeat completions within
// the same day.
func (s *Service) bumpDailyStreak(p *domain.Profile) {
	now := s.now()

	switch {
	case p.LastCompleted.IsZero():
		p.DailyStreak = 1
	case sameDay(p.LastCompleted, now):
		// already counted today
	case sameDay(p.LastCompleted.AddDate(0, 0, 1), now):
		p.DailyStreak++
	default:
		p.DailyStreak = 1
	}

	p.LastCompleted = now
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
