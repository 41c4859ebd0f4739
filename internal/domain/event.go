package domain

const (
	EventNameQuizCompleted   = "quiz.completed"
	EventNameStreakMilestone = "streak.milestone"
	EventNameProfileUpdated  = "profile.updated"
)

type EventQuizCompleted struct {
	Summary Summary
}

func (EventQuizCompleted) Name() string { return EventNameQuizCompleted }

type EventStreakMilestone struct {
	SessionID string
	Username  string
	Streak    int
}

func (EventStreakMilestone) Name() string { return EventNameStreakMilestone }

type EventProfileUpdated struct {
	Profile Profile
}

func (EventProfileUpdated) Name() string { return EventNameProfileUpdated }
