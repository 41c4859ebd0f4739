package glossary_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deenlabs/iqra/internal/domain"
	"github.com/deenlabs/iqra/internal/glossary"
)

var dict = []domain.GlossaryEntry{
	{Term: "Zakat", Definition: "obligatory charity"},
	{Term: "Zakat al-Fitr", Definition: "charity due at the end of Ramadan"},
	{Term: "Riba", Definition: "interest"},
	{Term: "Gharar", Definition: "excessive uncertainty"},
}

func TestMatcher_Annotate(t *testing.T) {
	type (
		inputs struct {
			text string
		}

		outputs struct {
			segments []glossary.Segment
		}
	)

	tests := map[string]struct {
		arrange func() inputs
		assert  func(t *testing.T, out outputs)
	}{
		"empty text produces no segments": {
			arrange: func() inputs {
				return inputs{text: ""}
			},
			assert: func(t *testing.T, out outputs) {
				assert.Empty(t, out.segments)
			},
		},

		"text without terms is one plain segment": {
			arrange: func() inputs {
				return inputs{text: "no matching words here"}
			},
			assert: func(t *testing.T, out outputs) {
				require.Len(t, out.segments, 1)
				assert.Equal(t, "no matching words here", out.segments[0].Text)
				assert.Empty(t, out.segments[0].Term)
			},
		},

		"single term is annotated with surrounding plain runs": {
			arrange: func() inputs {
				return inputs{text: "Avoiding Riba is obligatory."}
			},
			assert: func(t *testing.T, out outputs) {
				require.Len(t, out.segments, 3)
				assert.Equal(t, "Avoiding ", out.segments[0].Text)
				assert.Equal(t, "Riba", out.segments[1].Term)
				assert.Equal(t, "interest", out.segments[1].Definition)
				assert.Equal(t, " is obligatory.", out.segments[2].Text)
			},
		},

		"longest term wins when two start at the same position": {
			arrange: func() inputs {
				return inputs{text: "Pay Zakat al-Fitr before Eid."}
			},
			assert: func(t *testing.T, out outputs) {
				require.Len(t, out.segments, 3)
				assert.Equal(t, "Zakat al-Fitr", out.segments[1].Term)
			},
		},

		"earlier term wins over a longer later one": {
			arrange: func() inputs {
				return inputs{text: "Riba and Zakat al-Fitr"}
			},
			assert: func(t *testing.T, out outputs) {
				require.Len(t, out.segments, 3)
				assert.Equal(t, "Riba", out.segments[0].Term)
				assert.Equal(t, "Zakat al-Fitr", out.segments[2].Term)
			},
		},

		"matching is case-sensitive": {
			arrange: func() inputs {
				return inputs{text: "riba is not matched"}
			},
			assert: func(t *testing.T, out outputs) {
				require.Len(t, out.segments, 1)
				assert.Empty(t, out.segments[0].Term)
			},
		},

		"repeated terms are each annotated": {
			arrange: func() inputs {
				return inputs{text: "Gharar here, Gharar there"}
			},
			assert: func(t *testing.T, out outputs) {
				var terms []string
				for _, s := range out.segments {
					if s.Term != "" {
						terms = append(terms, s.Term)
					}
				}
				assert.Equal(t, []string{"Gharar", "Gharar"}, terms)
			},
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			in := tt.arrange()
			m := glossary.NewMatcher(dict)

			segs := m.Annotate(in.text)

			// Round trip: concatenated segment text always reconstructs the
			// input exactly.
			var b strings.Builder
			for _, s := range segs {
				b.WriteString(s.Text)
			}
			require.Equal(t, in.text, b.String())

			tt.assert(t, outputs{segments: segs})
		})
	}
}
