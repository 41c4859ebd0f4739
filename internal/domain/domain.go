package domain

import "time"

// QuestionType discriminates the question tagged union. The evaluator
// switches exhaustively over these values.
type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple-choice"
	QuestionMultiSelect    QuestionType = "multi-select"
	QuestionDragDrop       QuestionType = "drag-drop"
	QuestionColumnSort     QuestionType = "column-sort"
)

// Question is a single quiz question. Which fields are meaningful depends on
// Type; content validation guarantees the active variant is well-formed.
//
// Correct indices for the choice variants always refer to the canonical
// (authoring-time) option order, never the shuffled display order.
type Question struct {
	QuestionID  string       `yaml:"id"`
	Type        QuestionType `yaml:"type"`
	Prompt      string       `yaml:"prompt"`
	Explanation string       `yaml:"explanation"`

	// multiple-choice, multi-select
	Options    []string `yaml:"options,omitempty"`
	Correct    int      `yaml:"correct,omitempty"`
	CorrectSet []int    `yaml:"correct_set,omitempty"`

	// drag-drop: Template contains one "___" per blank.
	Template     string   `yaml:"template,omitempty"`
	WordBank     []string `yaml:"word_bank,omitempty"`
	CorrectWords []string `yaml:"correct_words,omitempty"`

	// column-sort
	Items   []string `yaml:"items,omitempty"`
	Columns []Column `yaml:"columns,omitempty"`
}

// HasOptions reports whether the question carries an ordered option list
// that is shuffled for display.
func (q Question) HasOptions() bool {
	return q.Type == QuestionMultipleChoice || q.Type == QuestionMultiSelect
}

// Column is one bucket of a column-sort question. Items is the set of
// statements that belong in this column; across all columns of a question
// the Items sets partition the question's item list exactly.
type Column struct {
	ColumnID string   `yaml:"id"`
	Label    string   `yaml:"label"`
	Items    []string `yaml:"items"`
}

// ConceptCard is a pre-quiz teaching card shown before the first question.
type ConceptCard struct {
	Title string `yaml:"title"`
	Body  string `yaml:"body"`
}

// Lesson is a standalone quiz unit.
type Lesson struct {
	LessonID  string     `yaml:"id"`
	Title     string     `yaml:"title"`
	Topic     string     `yaml:"topic"`
	Questions []Question `yaml:"questions"`
}

// Module is a larger unit that opens with concept cards before its quiz.
type Module struct {
	ModuleID  string        `yaml:"id"`
	Title     string        `yaml:"title"`
	Concepts  []ConceptCard `yaml:"concepts"`
	Questions []Question    `yaml:"questions"`
}

// GlossaryEntry maps a domain term to its definition.
type GlossaryEntry struct {
	Term       string `yaml:"term"`
	Definition string `yaml:"definition"`
}

// Result is one entry of a session's append-only results log.
type Result struct {
	Prompt      string
	Correct     bool
	Explanation string
}

// Summary is the record handed to the progression ledger when a session
// reaches the completed state.
type Summary struct {
	SessionID string
	Username  string
	// SourceID is the lesson or module the session was started from.
	SourceID string
	Score    int
	Results  []Result
}

// Profile is a user's process-lifetime aggregate state. It is mutated only
// at quiz completion, never per question.
type Profile struct {
	Username    string
	Coins       int
	Points      int
	XP          int
	Level       int
	DailyStreak int
	// Completed holds lesson/module IDs with set semantics: an ID is either
	// complete or not.
	Completed []string

	LastCompleted time.Time
}

// HasCompleted reports whether id is in the completed set.
func (p Profile) HasCompleted(id string) bool {
	for _, c := range p.Completed {
		if c == id {
			return true
		}
	}
	return false
}
