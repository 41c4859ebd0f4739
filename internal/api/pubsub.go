package api

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/deenlabs/iqra/internal/domain"
)

const maxConcurrent = 100

type (
	Notification struct {
		Event string `json:"event"`
		Data  any    `json:"data"`
	}

	StreakMilestone struct {
		SessionID string `json:"session_id"`
		Username  string `json:"username"`
		Streak    int    `json:"streak"`
	}

	QuizCompleted struct {
		SessionID string   `json:"session_id"`
		SourceID  string   `json:"source_id"`
		Score     int      `json:"score"`
		Correct   int      `json:"correct"`
		Total     int      `json:"total"`
		Results   []Result `json:"results"`
	}

	Result struct {
		Prompt      string `json:"prompt"`
		Correct     bool   `json:"correct"`
		Explanation string `json:"explanation"`
	}

	Profile struct {
		Username    string `json:"username"`
		Coins       int    `json:"coins"`
		Points      int    `json:"points"`
		XP          int    `json:"xp"`
		Level       int    `json:"level"`
		DailyStreak int    `json:"daily_streak"`
	}
)

func profileView(p domain.Profile) Profile {
	return Profile{
		Username:    p.Username,
		Coins:       p.Coins,
		Points:      p.Points,
		XP:          p.XP,
		Level:       p.Level,
		DailyStreak: p.DailyStreak,
	}
}

// PublishStreakMilestone pushes the purely cosmetic celebration signal to
// the user's channel.
func (a *API) PublishStreakMilestone(ctx context.Context, e domain.EventStreakMilestone) error {
	return a.publishNotification(ctx, e.Username, e.Name(), StreakMilestone{
		SessionID: e.SessionID,
		Username:  e.Username,
		Streak:    e.Streak,
	})
}

// PublishQuizCompleted pushes the end-of-quiz summary used by the review
// screen.
func (a *API) PublishQuizCompleted(ctx context.Context, e domain.EventQuizCompleted) error {
	sum := e.Summary

	data := QuizCompleted{
		SessionID: sum.SessionID,
		SourceID:  sum.SourceID,
		Score:     sum.Score,
		Total:     len(sum.Results),
		Results:   make([]Result, 0, len(sum.Results)),
	}
	for _, r := range sum.Results {
		if r.Correct {
			data.Correct++
		}
		data.Results = append(data.Results, Result{
			Prompt:      r.Prompt,
			Correct:     r.Correct,
			Explanation: r.Explanation,
		})
	}

	return a.publishNotification(ctx, sum.Username, e.Name(), data)
}

// PublishProfileUpdated pushes refreshed stats to the user's channel and the
// shared home feed.
func (a *API) PublishProfileUpdated(ctx context.Context, e domain.EventProfileUpdated) error {
	data := profileView(e.Profile)

	channels := []string{
		a.userChannel(e.Profile.Username),
		fmt.Sprintf("%s:home", a.prefix),
	}

	var eg errgroup.Group
	eg.SetLimit(maxConcurrent)

	for _, ch := range channels {
		eg.Go(func() error {
			return a.publish(ctx, ch, e.Name(), data)
		})
	}

	return eg.Wait()
}

func (a *API) publishNotification(ctx context.Context, user, event string, data any) error {
	return a.publish(ctx, a.userChannel(user), event, data)
}

func (a *API) publish(ctx context.Context, channel, event string, data any) error {
	n := Notification{
		Event: event,
		Data:  data,
	}

	b, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("pubsub: marshal %s: %v", event, err)
	}

	return a.redis.Publish(ctx, channel, b).Err()
}

func (a *API) userChannel(user string) string {
	return fmt.Sprintf("%s:user:%s", a.prefix, user)
}
