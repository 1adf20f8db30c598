// ABOUTME: Suggestion ranking for formula autocomplete: tiered matching over visible symbols.
// ABOUTME: Candidates are ephemeral; callers rebuild them each keystroke from scope and the catalog.
package suggest

import (
	"sort"
	"strings"

	"github.com/2389-research/galton/formula"
	"github.com/2389-research/galton/scope"
)

// Result caps for the two dropdown layouts.
const (
	DefaultMaxResults = 10
	CompactMaxResults = 6
)

// Suggestion is one completion candidate. Score is filled in by Rank.
type Suggestion struct {
	Kind    scope.SymbolKind `json:"kind"`
	ID      string           `json:"id,omitempty"`
	Display string           `json:"display"`
	Detail  string           `json:"detail,omitempty"`
	Insert  string           `json:"insert"`
	Score   float64          `json:"score"`
}

// FromSymbols converts resolved scope symbols into candidates.
func FromSymbols(syms []scope.Symbol) []Suggestion {
	out := make([]Suggestion, 0, len(syms))
	for _, s := range syms {
		out = append(out, Suggestion{
			Kind:    s.Kind,
			ID:      s.NodeID,
			Display: s.Name,
			Detail:  s.Detail,
			Insert:  s.Name,
		})
	}
	return out
}

// FunctionCandidates converts the built-in catalog into candidates. The
// insert text opens the call so the cursor lands inside the parentheses.
func FunctionCandidates() []Suggestion {
	fns := formula.Functions()
	out := make([]Suggestion, 0, len(fns))
	for _, fn := range fns {
		out = append(out, Suggestion{
			Kind:    scope.KindFunction,
			Display: fn.Name,
			Detail:  fn.Signature + ": " + fn.Summary,
			Insert:  fn.Name + "(",
		})
	}
	return out
}

// Score computes the tiered, case-insensitive match score of query
// against name. Negative means excluded. Shorter names outrank longer
// ones within a tier, so the normalization term uses the length ratio.
func Score(query, name string) float64 {
	q := strings.ToLower(query)
	c := strings.ToLower(name)
	if q == "" || c == "" {
		return -1
	}

	lq := float64(len(q))
	lc := float64(len(c))
	switch {
	case q == c:
		return 100
	case strings.HasPrefix(c, q):
		return 80 + 20*lq/lc
	case strings.Contains(c, q):
		return 40 + 20*lq/lc
	case isSubsequence(q, c):
		return 20 + 10*lq/lc
	default:
		return -1
	}
}

// Rank scores candidates against query, drops non-matches, orders by
// score, kind precedence, then display name, and truncates to max.
// max <= 0 means unlimited. An empty query yields nothing.
func Rank(query string, candidates []Suggestion, max int) []Suggestion {
	if strings.TrimSpace(query) == "" {
		return nil
	}

	var out []Suggestion
	for _, cand := range candidates {
		score := Score(query, cand.Display)
		if score < 0 {
			continue
		}
		cand.Score = score
		out = append(out, cand)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		ri, rj := kindRank(out[i].Kind), kindRank(out[j].Kind)
		if ri != rj {
			return ri < rj
		}
		return out[i].Display < out[j].Display
	})

	if max > 0 && len(out) > max {
		out = out[:max]
	}
	return out
}

// kindRank orders equal-score candidates: the user's own nodes first,
// then context and constants, then built-in functions.
func kindRank(k scope.SymbolKind) int {
	switch k {
	case scope.KindNode:
		return 0
	case scope.KindContext, scope.KindConstant:
		return 1
	default:
		return 2
	}
}

// isSubsequence reports whether every rune of q appears in c in order,
// not necessarily contiguously.
func isSubsequence(q, c string) bool {
	qr := []rune(q)
	i := 0
	for _, r := range c {
		if i < len(qr) && r == qr[i] {
			i++
		}
	}
	return i == len(qr)
}
