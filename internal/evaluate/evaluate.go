// Package evaluate holds the per-question attempt state and the correctness
// rules for every question type. An Attempt lives in display space (what the
// user sees); verdicts are computed in canonical space through the question's
// shuffle map so option order never affects correctness.
package evaluate

import (
	"github.com/deenlabs/iqra/internal/domain"
	"github.com/deenlabs/iqra/internal/shuffle"
)

// Attempt is the mutable in-progress input for one displayed question.
// Mutations never fail loudly: ill-formed input just keeps Ready false so
// submission stays gated.
type Attempt struct {
	question domain.Question
	perm     shuffle.Map

	// choice questions; keys are display indices
	selected map[int]bool

	// drag-drop; empty string marks an unfilled slot
	slots []string
	bank  []string

	// column-sort; item -> column ID, absent means pooled
	placement map[string]string
}

// NewAttempt builds the empty attempt state for a question under a display
// permutation. A nil perm is the identity.
func NewAttempt(q domain.Question, perm shuffle.Map) *Attempt {
	a := &Attempt{question: q, perm: perm}
	a.Reset()
	return a
}

// Reset clears all in-progress input, used when advancing to the next
// question.
func (a *Attempt) Reset() {
	a.selected = make(map[int]bool)
	a.slots = make([]string, len(a.question.CorrectWords))
	a.bank = append([]string(nil), a.question.WordBank...)
	a.placement = make(map[string]string)
}

// Options returns the question's options in display order.
func (a *Attempt) Options() []string {
	return a.perm.Apply(a.question.Options)
}

// Select records a choice at a display index. For multiple-choice it
// replaces any previous selection; for multi-select it toggles. Indices
// outside the option list are ignored.
func (a *Attempt) Select(display int) {
	if display < 0 || display >= len(a.question.Options) {
		return
	}

	switch a.question.Type {
	case domain.QuestionMultipleChoice:
		a.selected = map[int]bool{display: true}
	case domain.QuestionMultiSelect:
		if a.selected[display] {
			delete(a.selected, display)
		} else {
			a.selected[display] = true
		}
	}
}

// Selected reports whether the display index is currently selected.
func (a *Attempt) Selected(display int) bool {
	return a.selected[display]
}

// Place moves a word from the bank into a slot. If the slot is occupied the
// previous occupant is returned to the bank first, so at all times
// len(bank) + filled slots == len(wordBank).
func (a *Attempt) Place(slot int, word string) {
	if slot < 0 || slot >= len(a.slots) {
		return
	}

	bi := -1
	for i, w := range a.bank {
		if w == word {
			bi = i
			break
		}
	}
	if bi < 0 {
		return
	}

	if prev := a.slots[slot]; prev != "" {
		a.bank = append(a.bank, prev)
	}
	a.bank = append(a.bank[:bi], a.bank[bi+1:]...)
	a.slots[slot] = word
}

// ClearSlot returns a slot's word to the bank.
func (a *Attempt) ClearSlot(slot int) {
	if slot < 0 || slot >= len(a.slots) || a.slots[slot] == "" {
		return
	}

	a.bank = append(a.bank, a.slots[slot])
	a.slots[slot] = ""
}

// Slots returns the current slot contents in order.
func (a *Attempt) Slots() []string {
	return append([]string(nil), a.slots...)
}

// Bank returns the words not yet placed in a slot.
func (a *Attempt) Bank() []string {
	return append([]string(nil), a.bank...)
}

// Assign moves an item into a column. Items already in another column are
// moved; unknown items or columns are ignored.
func (a *Attempt) Assign(item, columnID string) {
	if !a.knownItem(item) || !a.knownColumn(columnID) {
		return
	}
	a.placement[item] = columnID
}

// Unassign returns an item to the pool.
func (a *Attempt) Unassign(item string) {
	delete(a.placement, item)
}

// Assignments returns the current item -> column mapping.
func (a *Attempt) Assignments() map[string]string {
	out := make(map[string]string, len(a.placement))
	for k, v := range a.placement {
		out[k] = v
	}
	return out
}

// Pool returns the items not yet assigned to any column, in item order.
func (a *Attempt) Pool() []string {
	var pool []string
	for _, item := range a.question.Items {
		if _, ok := a.placement[item]; !ok {
			pool = append(pool, item)
		}
	}
	return pool
}

// Ready reports whether the attempt is well-formed enough to submit:
// exactly one selection for multiple-choice, at least one for multi-select,
// every slot filled for drag-drop, every item assigned for column-sort.
func (a *Attempt) Ready() bool {
	switch a.question.Type {
	case domain.QuestionMultipleChoice:
		return len(a.selected) == 1
	case domain.QuestionMultiSelect:
		return len(a.selected) >= 1
	case domain.QuestionDragDrop:
		for _, s := range a.slots {
			if s == "" {
				return false
			}
		}
		return true
	case domain.QuestionColumnSort:
		return len(a.placement) == len(a.question.Items)
	}
	return false
}

// Correct returns the verdict for the current attempt state. It is pure
// given (question, state) and assumes Ready.
func (a *Attempt) Correct() bool {
	switch a.question.Type {
	case domain.QuestionMultipleChoice:
		for display := range a.selected {
			return a.perm.ToOriginal(display) == a.question.Correct
		}
		return false

	case domain.QuestionMultiSelect:
		// Exact set equality in canonical space; partial overlap is wrong.
		if len(a.selected) != len(a.question.CorrectSet) {
			return false
		}
		want := make(map[int]bool, len(a.question.CorrectSet))
		for _, c := range a.question.CorrectSet {
			want[c] = true
		}
		for display := range a.selected {
			if !want[a.perm.ToOriginal(display)] {
				return false
			}
		}
		return true

	case domain.QuestionDragDrop:
		for i, w := range a.slots {
			if w != a.question.CorrectWords[i] {
				return false
			}
		}
		return true

	case domain.QuestionColumnSort:
		for _, col := range a.question.Columns {
			for _, item := range col.Items {
				if a.placement[item] != col.ColumnID {
					return false
				}
			}
			// No extras: anything assigned here must belong here.
			for item, c := range a.placement {
				if c == col.ColumnID && !contains(col.Items, item) {
					return false
				}
			}
		}
		return true
	}

	return false
}

func (a *Attempt) knownItem(item string) bool {
	return contains(a.question.Items, item)
}

func (a *Attempt) knownColumn(id string) bool {
	for _, c := range a.question.Columns {
		if c.ColumnID == id {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
