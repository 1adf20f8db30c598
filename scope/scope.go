// ABOUTME: Scope resolution for formula editing: the symbols a node's formula may reference.
// ABOUTME: Direct parents plus context variables plus constants; ancestors never leak through.
package scope

import (
	"fmt"
	"sort"

	"github.com/2389-research/galton/model"
)

// SymbolKind classifies a visible symbol.
type SymbolKind string

const (
	KindNode     SymbolKind = "node"
	KindContext  SymbolKind = "context"
	KindConstant SymbolKind = "constant"
	// KindFunction marks built-in catalog entries in the suggestion
	// layer; Resolve itself never emits it.
	KindFunction SymbolKind = "function"
)

// Symbol is one name visible to a formula.
type Symbol struct {
	Name   string     `json:"name"`
	Kind   SymbolKind `json:"kind"`
	NodeID string     `json:"node_id,omitempty"`
	Detail string     `json:"detail,omitempty"`
}

// constants are visible in every scope and matched case-sensitively.
var constants = []Symbol{
	{Name: "PI", Kind: KindConstant, Detail: "circle constant, 3.14159..."},
	{Name: "E", Kind: KindConstant, Detail: "Euler's number, 2.71828..."},
	{Name: "TRUE", Kind: KindConstant, Detail: "boolean true"},
	{Name: "FALSE", Kind: KindConstant, Detail: "boolean false"},
}

// Constants returns the constant symbols present in every scope.
func Constants() []Symbol {
	out := make([]Symbol, len(constants))
	copy(out, constants)
	return out
}

// Resolve returns every symbol visible to nodeID's formulas: direct
// parents in first-seen edge order, then context keys in sorted order,
// then the constants. Only direct parents are visible; a grandparent
// must be wired through an intermediate node to be referenced.
func Resolve(m *model.Model, nodeID string, contextKeys []string) []Symbol {
	var syms []Symbol

	for _, p := range m.Parents(nodeID) {
		syms = append(syms, Symbol{
			Name:   p.EffectiveName(),
			Kind:   KindNode,
			NodeID: p.ID,
			Detail: nodeDetail(p),
		})
	}

	keys := append([]string(nil), contextKeys...)
	sort.Strings(keys)
	prev := ""
	for i, k := range keys {
		if k == "" || (i > 0 && k == prev) {
			continue
		}
		prev = k
		syms = append(syms, Symbol{
			Name:   k,
			Kind:   KindContext,
			Detail: "context variable",
		})
	}

	syms = append(syms, constants...)
	return syms
}

// NameSet folds symbols into the membership set used by reference
// validation.
func NameSet(syms []Symbol) map[string]bool {
	set := make(map[string]bool, len(syms))
	for _, s := range syms {
		set[s.Name] = true
	}
	return set
}

// nodeDetail renders the one-line description shown next to a parent
// symbol in suggestion dropdowns.
func nodeDetail(n *model.Node) string {
	label := n.Label
	if label == "" {
		label = n.EffectiveName()
	}
	if n.Kind == model.KindStochastic && n.Dist != nil {
		return fmt.Sprintf("stochastic node %q (%s)", label, n.Dist.Type)
	}
	return fmt.Sprintf("%s node %q", n.Kind, label)
}
