package shuffle

import "math/rand/v2"

// Map is a per-question display permutation: Map[shuffledIndex] is the
// canonical option index shown at that display position. A nil Map behaves
// as the identity, so lookups for questions without a cached permutation
// are always safe.
type Map []int

// ToOriginal maps a display index back to the canonical index.
func (m Map) ToOriginal(shuffled int) int {
	if shuffled < 0 || shuffled >= len(m) {
		return shuffled
	}
	return m[shuffled]
}

// ToShuffled maps a canonical index to its display position.
func (m Map) ToShuffled(canonical int) int {
	for s, c := range m {
		if c == canonical {
			return s
		}
	}
	return canonical
}

// Apply reorders canonical options into display order. Options whose length
// does not match the permutation pass through untouched.
func (m Map) Apply(options []string) []string {
	if len(m) != len(options) {
		return options
	}

	out := make([]string, len(options))
	for s, c := range m {
		out[s] = options[c]
	}
	return out
}

// Engine holds one permutation per option-bearing question for the lifetime
// of a quiz session. Permutations are built exactly once at session start;
// rebuilding them mid-session would invalidate in-progress selections.
type Engine struct {
	maps map[string]Map
	rnd  *rand.Rand
}

// NewEngine builds an engine with its own PCG source.
func NewEngine() *Engine {
	return NewEngineWithRand(rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())))
}

// NewEngineWithRand builds an engine using r, so tests can fix the seed.
func NewEngineWithRand(r *rand.Rand) *Engine {
	return &Engine{
		maps: make(map[string]Map),
		rnd:  r,
	}
}

// Add generates and caches a uniform permutation of n positions for the
// question. Questions without options (n <= 1) are skipped.
func (e *Engine) Add(questionID string, n int) {
	if n <= 1 {
		return
	}
	e.maps[questionID] = Map(e.rnd.Perm(n))
}

// Lookup returns the cached permutation for a question, or the identity Map
// when none was generated.
func (e *Engine) Lookup(questionID string) Map {
	return e.maps[questionID]
}
