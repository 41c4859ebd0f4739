package glossary

import (
	"strings"

	"github.com/deenlabs/iqra/internal/domain"
)

// Segment is one run of annotated text. Plain runs carry only Text; matched
// runs also carry the Term (equal to Text) and its Definition.
type Segment struct {
	Text       string `json:"text"`
	Term       string `json:"term,omitempty"`
	Definition string `json:"definition,omitempty"`
}

// Matcher annotates prose with a fixed term dictionary.
type Matcher struct {
	entries []domain.GlossaryEntry
}

func NewMatcher(entries []domain.GlossaryEntry) *Matcher {
	return &Matcher{entries: entries}
}

// Annotate splits text into plain and annotated segments such that
// concatenating every segment's Text reproduces text exactly.
//
// Matching is leftmost-longest greedy: the earliest occurrence of any term
// wins, and among terms starting at the same position the longest wins, so
// a multi-word term beats a single-word term that prefixes it. Matching is
// case-sensitive with no word-boundary awareness.
func (m *Matcher) Annotate(text string) []Segment {
	if text == "" {
		return nil
	}

	var segs []Segment
	rest := text

	for rest != "" {
		entry, pos := m.earliest(rest)
		if pos < 0 {
			segs = append(segs, Segment{Text: rest})
			break
		}

		if pos > 0 {
			segs = append(segs, Segment{Text: rest[:pos]})
		}
		segs = append(segs, Segment{
			Text:       entry.Term,
			Term:       entry.Term,
			Definition: entry.Definition,
		})
		rest = rest[pos+len(entry.Term):]
	}

	return segs
}

// earliest finds the leftmost occurrence of any dictionary term in s,
// preferring the longest term on position ties. Returns pos -1 when no term
// occurs.
func (m *Matcher) earliest(s string) (domain.GlossaryEntry, int) {
	best := domain.GlossaryEntry{}
	bestPos := -1

	for _, e := range m.entries {
		if e.Term == "" {
			continue
		}

		pos := strings.Index(s, e.Term)
		if pos < 0 {
			continue
		}

		if bestPos < 0 || pos < bestPos || (pos == bestPos && len(e.Term) > len(best.Term)) {
			best, bestPos = e, pos
		}
	}

	return best, bestPos
}
