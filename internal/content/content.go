// Package content loads lesson, module and glossary packs from YAML files
// and validates the question invariants before anything reaches a session.
package content

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/deenlabs/iqra/internal/domain"
	"github.com/deenlabs/iqra/internal/errors"
)

const blankMarker = "___"

// Library is the read-only content catalog, loaded once at startup.
type Library struct {
	lessons  []domain.Lesson
	modules  []domain.Module
	glossary []domain.GlossaryEntry
}

type pack struct {
	Lessons  []domain.Lesson        `yaml:"lessons"`
	Modules  []domain.Module        `yaml:"modules"`
	Glossary []domain.GlossaryEntry `yaml:"glossary"`
}

// LoadDir reads every .yaml/.yml file under dir and merges them into one
// library. Invalid content fails the load; an empty question list is valid
// ("not yet available") and only rejected at quiz start.
func LoadDir(dir string) (*Library, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("content: read dir %s: %w", dir, err)
	}

	lib := &Library{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		b, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("content: read %s: %w", e.Name(), err)
		}

		var p pack
		if err := yaml.Unmarshal(b, &p); err != nil {
			return nil, fmt.Errorf("content: parse %s: %w", e.Name(), err)
		}

		lib.lessons = append(lib.lessons, p.Lessons...)
		lib.modules = append(lib.modules, p.Modules...)
		lib.glossary = append(lib.glossary, p.Glossary...)
	}

	if err := lib.validate(); err != nil {
		return nil, err
	}

	return lib, nil
}

// New builds a library directly from parsed content, mainly for tests.
func New(lessons []domain.Lesson, modules []domain.Module, glossary []domain.GlossaryEntry) (*Library, error) {
	lib := &Library{lessons: lessons, modules: modules, glossary: glossary}
	if err := lib.validate(); err != nil {
		return nil, err
	}
	return lib, nil
}

func (l *Library) Lessons() []domain.Lesson { return l.lessons }

func (l *Library) Modules() []domain.Module { return l.modules }

func (l *Library) Glossary() []domain.GlossaryEntry { return l.glossary }

// Lesson returns the lesson with the given ID.
func (l *Library) Lesson(id string) (domain.Lesson, error) {
	for _, ls := range l.lessons {
		if ls.LessonID == id {
			return ls, nil
		}
	}
	return domain.Lesson{}, errors.New(errors.CodeNotFound,
		errors.WithMessagef("lesson not found: %s", id))
}

// Module returns the module with the given ID.
func (l *Library) Module(id string) (domain.Module, error) {
	for _, m := range l.modules {
		if m.ModuleID == id {
			return m, nil
		}
	}
	return domain.Module{}, errors.New(errors.CodeNotFound,
		errors.WithMessagef("module not found: %s", id))
}

func (l *Library) validate() error {
	for _, ls := range l.lessons {
		for _, q := range ls.Questions {
			if err := validateQuestion(q); err != nil {
				return fmt.Errorf("lesson %s: %w", ls.LessonID, err)
			}
		}
	}
	for _, m := range l.modules {
		for _, q := range m.Questions {
			if err := validateQuestion(q); err != nil {
				return fmt.Errorf("module %s: %w", m.ModuleID, err)
			}
		}
	}
	return nil
}

func validateQuestion(q domain.Question) error {
	invalid := func(format string, args ...any) error {
		return errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("question %s: %s", q.QuestionID, fmt.Sprintf(format, args...)))
	}

	switch q.Type {
	case domain.QuestionMultipleChoice:
		if len(q.Options) < 2 {
			return invalid("needs at least 2 options")
		}
		if q.Correct < 0 || q.Correct >= len(q.Options) {
			return invalid("correct index %d out of range", q.Correct)
		}

	case domain.QuestionMultiSelect:
		if len(q.Options) < 2 {
			return invalid("needs at least 2 options")
		}
		if len(q.CorrectSet) == 0 {
			return invalid("empty correct set")
		}
		seen := make(map[int]bool)
		for _, c := range q.CorrectSet {
			if c < 0 || c >= len(q.Options) {
				return invalid("correct index %d out of range", c)
			}
			if seen[c] {
				return invalid("duplicate correct index %d", c)
			}
			seen[c] = true
		}

	case domain.QuestionDragDrop:
		if len(q.CorrectWords) == 0 {
			return invalid("no blanks")
		}
		if n := strings.Count(q.Template, blankMarker); n != len(q.CorrectWords) {
			return invalid("template has %d blanks, expected %d", n, len(q.CorrectWords))
		}
		// The bank must cover the correct words, counting duplicates.
		bank := make(map[string]int)
		for _, w := range q.WordBank {
			bank[w]++
		}
		for _, w := range q.CorrectWords {
			bank[w]--
			if bank[w] < 0 {
				return invalid("word bank missing %q", w)
			}
		}

	case domain.QuestionColumnSort:
		if len(q.Columns) < 2 {
			return invalid("needs at least 2 columns")
		}
		// The columns' correct sets must partition the item list exactly.
		owner := make(map[string]string)
		for _, col := range q.Columns {
			for _, item := range col.Items {
				if prev, ok := owner[item]; ok {
					return invalid("item %q in both %q and %q", item, prev, col.ColumnID)
				}
				owner[item] = col.ColumnID
			}
		}
		if len(owner) != len(q.Items) {
			return invalid("columns cover %d items, expected %d", len(owner), len(q.Items))
		}
		for _, item := range q.Items {
			if _, ok := owner[item]; !ok {
				return invalid("item %q not claimed by any column", item)
			}
		}

	default:
		return invalid("unknown type %q", q.Type)
	}

	return nil
}
