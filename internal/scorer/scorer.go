// Package scorer maps case types to scoring functions.
package scorer

import (
	"math"
	"sort"

	"github.com/giantswarm/prompt-lab/internal/promptset"
)

// Score is the outcome of scoring one model output against one case.
// Metrics holds the type-specific sub-scores; Total is the unified score
// in [0,1], rounded to 3 decimals.
type Score struct {
	Metrics map[string]any
	Total   float64
}

// Func scores a raw model output against a case. Implementations must be
// pure and must degrade malformed cases to zero sub-scores instead of
// failing: one bad case must not void the rest of a run.
type Func func(output string, c promptset.Case) Score

// Registry dispatches case types to scoring functions. New case types are
// added by registration, not by modifying the pipeline.
type Registry struct {
	funcs map[string]Func
}

// NewRegistry returns a registry with the built-in summarize and classify
// scorers registered.
func NewRegistry() *Registry {
	r := &Registry{funcs: make(map[string]Func)}
	r.Register("summarize", ScoreSummarize)
	r.Register("classify", ScoreClassify)
	return r
}

// Register adds or replaces the scorer for a case type.
func (r *Registry) Register(caseType string, fn Func) {
	r.funcs[caseType] = fn
}

// Lookup returns the scorer for a case type, if one is registered.
func (r *Registry) Lookup(caseType string) (Func, bool) {
	fn, ok := r.funcs[caseType]
	return fn, ok
}

// Types returns the registered case types in sorted order.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.funcs))
	for t := range r.funcs {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
