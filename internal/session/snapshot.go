package session

import "github.com/deenlabs/iqra/internal/domain"

// Snapshot is the read model handed to the view layer. Everything the
// renderer needs is here; nothing in it can mutate the session.
type Snapshot struct {
	SessionID string `json:"session_id"`
	Username  string `json:"username"`
	SourceID  string `json:"source_id"`
	State     State  `json:"state"`

	Concept      *domain.ConceptCard `json:"concept,omitempty"`
	ConceptIndex int                 `json:"concept_index,omitempty"`
	ConceptCount int                 `json:"concept_count,omitempty"`

	QuestionIndex int           `json:"question_index"`
	QuestionCount int           `json:"question_count"`
	Question      *QuestionView `json:"question,omitempty"`

	Score  int `json:"score"`
	Streak int `json:"streak"`

	// Verdict is set once the current question is submitted.
	Verdict *Verdict `json:"verdict,omitempty"`

	// Results is the full log, exposed on completion for the review screen.
	Results []domain.Result `json:"results,omitempty"`
}

// QuestionView is the current question in display space: options are in
// shuffled order and all indices refer to that order.
type QuestionView struct {
	QuestionID string              `json:"question_id"`
	Type       domain.QuestionType `json:"type"`
	Prompt     string              `json:"prompt"`

	Options  []string `json:"options,omitempty"`
	Selected []int    `json:"selected,omitempty"`

	Template string   `json:"template,omitempty"`
	Slots    []string `json:"slots,omitempty"`
	Bank     []string `json:"bank,omitempty"`

	Items       []string          `json:"items,omitempty"`
	Columns     []ColumnView      `json:"columns,omitempty"`
	Assignments map[string]string `json:"assignments,omitempty"`
	Pool        []string          `json:"pool,omitempty"`

	// Ready mirrors the submission gate so the view can enable the button.
	Ready bool `json:"ready"`
}

type ColumnView struct {
	ColumnID string `json:"column_id"`
	Label    string `json:"label"`
}

type Verdict struct {
	Correct     bool   `json:"correct"`
	Explanation string `json:"explanation"`
}

func (q *quiz) snapshot() *Snapshot {
	snap := &Snapshot{
		SessionID:     q.id,
		Username:      q.username,
		SourceID:      q.sourceID,
		State:         q.state,
		QuestionIndex: q.idx,
		QuestionCount: len(q.questions),
		Score:         q.score,
		Streak:        q.streak,
	}

	switch q.state {
	case StateConceptIntro:
		card := q.concepts[q.conceptIdx]
		snap.Concept = &card
		snap.ConceptIndex = q.conceptIdx
		snap.ConceptCount = len(q.concepts)

	case StateAwaitingAnswer:
		snap.Question = q.questionView()

	case StateSubmitted:
		snap.Question = q.questionView()
		cur := q.questions[q.idx]
		snap.Verdict = &Verdict{
			Correct:     q.verdict,
			Explanation: cur.Explanation,
		}

	case StateCompleted:
		snap.Results = append([]domain.Result(nil), q.results...)
	}

	return snap
}

func (q *quiz) questionView() *QuestionView {
	cur := q.questions[q.idx]
	v := &QuestionView{
		QuestionID: cur.QuestionID,
		Type:       cur.Type,
		Prompt:     cur.Prompt,
		Ready:      q.attempt.Ready(),
	}

	switch cur.Type {
	case domain.QuestionMultipleChoice, domain.QuestionMultiSelect:
		v.Options = q.attempt.Options()
		for i := range v.Options {
			if q.attempt.Selected(i) {
				v.Selected = append(v.Selected, i)
			}
		}

	case domain.QuestionDragDrop:
		v.Template = cur.Template
		v.Slots = q.attempt.Slots()
		v.Bank = q.attempt.Bank()

	case domain.QuestionColumnSort:
		v.Items = cur.Items
		for _, c := range cur.Columns {
			v.Columns = append(v.Columns, ColumnView{ColumnID: c.ColumnID, Label: c.Label})
		}
		v.Assignments = q.attempt.Assignments()
		v.Pool = q.attempt.Pool()
	}

	return v
}
