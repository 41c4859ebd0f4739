package content_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deenlabs/iqra/internal/content"
	"github.com/deenlabs/iqra/internal/domain"
)

func TestLoadDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	pack := `
lessons:
  - id: l1
    title: Lesson One
    topic: finance
    questions:
      - id: q1
        type: multiple-choice
        prompt: Pick one
        explanation: Because.
        options: [a, b, c]
        correct: 2
glossary:
  - term: Riba
    definition: interest
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pack.yaml"), []byte(pack), 0o644))

	lib, err := content.LoadDir(dir)
	require.NoError(t, err)

	l, err := lib.Lesson("l1")
	require.NoError(t, err)
	assert.Equal(t, "Lesson One", l.Title)
	require.Len(t, l.Questions, 1)
	assert.Equal(t, domain.QuestionMultipleChoice, l.Questions[0].Type)

	require.Len(t, lib.Glossary(), 1)

	_, err = lib.Lesson("missing")
	assert.Error(t, err)
}

func TestValidation(t *testing.T) {
	valid := func() domain.Question {
		return domain.Question{
			QuestionID: "q",
			Type:       domain.QuestionMultipleChoice,
			Options:    []string{"a", "b"},
			Correct:    0,
		}
	}

	tests := map[string]struct {
		mutate  func(q *domain.Question)
		wantErr bool
	}{
		"valid multiple-choice passes": {
			mutate: func(q *domain.Question) {},
		},
		"correct index out of range": {
			mutate:  func(q *domain.Question) { q.Correct = 2 },
			wantErr: true,
		},
		"unknown question type": {
			mutate:  func(q *domain.Question) { q.Type = "true-false" },
			wantErr: true,
		},
		"multi-select with duplicate correct indices": {
			mutate: func(q *domain.Question) {
				q.Type = domain.QuestionMultiSelect
				q.CorrectSet = []int{0, 0}
			},
			wantErr: true,
		},
		"multi-select with valid set passes": {
			mutate: func(q *domain.Question) {
				q.Type = domain.QuestionMultiSelect
				q.CorrectSet = []int{0, 1}
			},
		},
		"drag-drop bank missing a correct word": {
			mutate: func(q *domain.Question) {
				*q = domain.Question{
					QuestionID:   "q",
					Type:         domain.QuestionDragDrop,
					Template:     "___ and ___",
					WordBank:     []string{"x"},
					CorrectWords: []string{"x", "y"},
				}
			},
			wantErr: true,
		},
		"drag-drop blank count mismatch": {
			mutate: func(q *domain.Question) {
				*q = domain.Question{
					QuestionID:   "q",
					Type:         domain.QuestionDragDrop,
					Template:     "only ___ here",
					WordBank:     []string{"x", "y"},
					CorrectWords: []string{"x", "y"},
				}
			},
			wantErr: true,
		},
		"drag-drop with decoys passes": {
			mutate: func(q *domain.Question) {
				*q = domain.Question{
					QuestionID:   "q",
					Type:         domain.QuestionDragDrop,
					Template:     "___ and ___",
					WordBank:     []string{"x", "y", "decoy"},
					CorrectWords: []string{"x", "y"},
				}
			},
		},
		"column-sort item claimed twice": {
			mutate: func(q *domain.Question) {
				*q = domain.Question{
					QuestionID: "q",
					Type:       domain.QuestionColumnSort,
					Items:      []string{"i1", "i2"},
					Columns: []domain.Column{
						{ColumnID: "a", Items: []string{"i1", "i2"}},
						{ColumnID: "b", Items: []string{"i2"}},
					},
				}
			},
			wantErr: true,
		},
		"column-sort item unclaimed": {
			mutate: func(q *domain.Question) {
				*q = domain.Question{
					QuestionID: "q",
					Type:       domain.QuestionColumnSort,
					Items:      []string{"i1", "i2"},
					Columns: []domain.Column{
						{ColumnID: "a", Items: []string{"i1"}},
						{ColumnID: "b", Items: nil},
					},
				}
			},
			wantErr: true,
		},
		"column-sort exact partition passes": {
			mutate: func(q *domain.Question) {
				*q = domain.Question{
					QuestionID: "q",
					Type:       domain.QuestionColumnSort,
					Items:      []string{"i1", "i2"},
					Columns: []domain.Column{
						{ColumnID: "a", Items: []string{"i1"}},
						{ColumnID: "b", Items: []string{"i2"}},
					},
				}
			},
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			q := valid()
			tt.mutate(&q)

			_, err := content.New([]domain.Lesson{{
				LessonID:  "l1",
				Questions: []domain.Question{q},
			}}, nil, nil)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEmptyQuestionListIsValid(t *testing.T) {
	t.Parallel()

	lib, err := content.New([]domain.Lesson{{LessonID: "soon", Title: "Coming soon"}}, nil, nil)
	require.NoError(t, err)

	l, err := lib.Lesson("soon")
	require.NoError(t, err)
	assert.Empty(t, l.Questions)
}
