// ABOUTME: Structural lint rules for model graphs: endpoints, cycles, names, distributions, references.
// ABOUTME: Provides Lint(m) running every rule and returning the accumulated diagnostics.
package model

import (
	"fmt"
	"sort"
	"strings"

	"github.com/2389-research/galton/formula"
)

// Diagnostic is one lint finding tied to a node or edge.
type Diagnostic struct {
	Severity string `json:"severity"` // "error" or "warning"
	Message  string `json:"message"`
	NodeID   string `json:"node_id,omitempty"`
	EdgeID   string `json:"edge_id,omitempty"`
	Rule     string `json:"rule"`
}

// Lint runs every structural rule on the model and returns any
// diagnostics found. Rules never mutate the model.
func Lint(m *Model) []Diagnostic {
	var diags []Diagnostic

	diags = append(diags, checkEdgeEndpoints(m)...)
	diags = append(diags, checkSelfLoops(m)...)
	diags = append(diags, checkDuplicateEdges(m)...)
	diags = append(diags, checkCycles(m)...)
	diags = append(diags, checkKinds(m)...)
	diags = append(diags, checkLabels(m)...)
	diags = append(diags, checkDuplicateNames(m)...)
	diags = append(diags, checkContextShadowing(m)...)
	diags = append(diags, checkReservedNames(m)...)
	diags = append(diags, checkFormulas(m)...)
	diags = append(diags, checkDistributions(m)...)

	return diags
}

// checkEdgeEndpoints flags edges whose source or target is not a node in
// the document.
func checkEdgeEndpoints(m *Model) []Diagnostic {
	var diags []Diagnostic
	for _, e := range m.Edges {
		for _, end := range []string{e.Source, e.Target} {
			if m.FindNode(end) == nil {
				diags = append(diags, Diagnostic{
					Severity: "error",
					Message:  fmt.Sprintf("edge references unknown node %q", end),
					EdgeID:   e.String(),
					Rule:     "edge_endpoints",
				})
			}
		}
	}
	return diags
}

// checkSelfLoops flags edges from a node to itself.
func checkSelfLoops(m *Model) []Diagnostic {
	var diags []Diagnostic
	for _, e := range m.Edges {
		if e.Source == e.Target {
			diags = append(diags, Diagnostic{
				Severity: "error",
				Message:  fmt.Sprintf("node %q depends on itself", e.Source),
				NodeID:   e.Source,
				EdgeID:   e.String(),
				Rule:     "self_loop",
			})
		}
	}
	return diags
}

// checkDuplicateEdges flags repeated source->target pairs.
func checkDuplicateEdges(m *Model) []Diagnostic {
	var diags []Diagnostic
	seen := map[string]bool{}
	for _, e := range m.Edges {
		key := e.String()
		if seen[key] {
			diags = append(diags, Diagnostic{
				Severity: "warning",
				Message:  fmt.Sprintf("duplicate edge %s", key),
				EdgeID:   key,
				Rule:     "duplicate_edge",
			})
			continue
		}
		seen[key] = true
	}
	return diags
}

// checkCycles runs a depth-first scan over the dependency edges and
// reports the first cycle found. Self-loops and edges with missing
// endpoints are covered by their own rules and skipped here.
func checkCycles(m *Model) []Diagnostic {
	adj := map[string][]string{}
	for _, e := range m.Edges {
		if e.Source == e.Target {
			continue
		}
		if m.FindNode(e.Source) == nil || m.FindNode(e.Target) == nil {
			continue
		}
		adj[e.Source] = append(adj[e.Source], e.Target)
	}

	const (
		white = iota
		gray
		black
	)
	color := map[string]int{}
	var diags []Diagnostic

	var visit func(id string) bool
	visit = func(id string) bool {
		color[id] = gray
		for _, next := range adj[id] {
			switch color[next] {
			case gray:
				diags = append(diags, Diagnostic{
					Severity: "error",
					Message:  fmt.Sprintf("dependency cycle through node %q", next),
					NodeID:   next,
					Rule:     "cycle",
				})
				return true
			case white:
				if visit(next) {
					return true
				}
			}
		}
		color[id] = black
		return false
	}

	for _, n := range m.Nodes {
		if color[n.ID] == white && visit(n.ID) {
			break
		}
	}
	return diags
}

// checkKinds flags nodes whose kind is neither deterministic nor
// stochastic.
func checkKinds(m *Model) []Diagnostic {
	var diags []Diagnostic
	for _, n := range m.Nodes {
		if n.Kind != KindDeterministic && n.Kind != KindStochastic {
			diags = append(diags, Diagnostic{
				Severity: "error",
				Message:  fmt.Sprintf("node %q has unknown kind %q", n.ID, n.Kind),
				NodeID:   n.ID,
				Rule:     "unknown_kind",
			})
		}
	}
	return diags
}

// checkLabels flags nodes with neither a label nor a custom name.
func checkLabels(m *Model) []Diagnostic {
	var diags []Diagnostic
	for _, n := range m.Nodes {
		if strings.TrimSpace(n.Label) == "" && n.CustomName == "" {
			diags = append(diags, Diagnostic{
				Severity: "warning",
				Message:  fmt.Sprintf("node %q has no label or custom name", n.ID),
				NodeID:   n.ID,
				Rule:     "unlabeled",
			})
		}
	}
	return diags
}

// checkDuplicateNames flags effective names claimed by more than one node.
func checkDuplicateNames(m *Model) []Diagnostic {
	byName := map[string][]string{}
	for _, n := range m.Nodes {
		name := n.EffectiveName()
		byName[name] = append(byName[name], n.ID)
	}

	var dupes []string
	for name, ids := range byName {
		if len(ids) > 1 {
			dupes = append(dupes, name)
		}
	}
	sort.Strings(dupes)

	var diags []Diagnostic
	for _, name := range dupes {
		ids := byName[name]
		diags = append(diags, Diagnostic{
			Severity: "error",
			Message:  fmt.Sprintf("name %q is used by %d nodes: %s", name, len(ids), strings.Join(ids, ", ")),
			NodeID:   ids[0],
			Rule:     "duplicate_name",
		})
	}
	return diags
}

// checkContextShadowing flags context keys hidden behind a node of the
// same name. Node names win during formula translation.
func checkContextShadowing(m *Model) []Diagnostic {
	names := map[string]bool{}
	for _, n := range m.Nodes {
		names[n.EffectiveName()] = true
	}

	keys := make([]string, 0, len(m.Context))
	for k := range m.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var diags []Diagnostic
	for _, k := range keys {
		if names[k] {
			diags = append(diags, Diagnostic{
				Severity: "warning",
				Message:  fmt.Sprintf("context key %q is shadowed by a node with the same name", k),
				Rule:     "context_shadow",
			})
		}
	}
	return diags
}

// checkReservedNames flags effective names that collide with built-in
// functions or keywords.
func checkReservedNames(m *Model) []Diagnostic {
	var diags []Diagnostic
	for _, n := range m.Nodes {
		name := n.EffectiveName()
		if formula.IsReserved(name) {
			diags = append(diags, Diagnostic{
				Severity: "warning",
				Message:  fmt.Sprintf("node name %q shadows a built-in function or keyword", name),
				NodeID:   n.ID,
				Rule:     "reserved_name",
			})
		}
	}
	return diags
}

// checkFormulas flags empty deterministic formulas and stored references
// that point outside the node's direct parents.
func checkFormulas(m *Model) []Diagnostic {
	var diags []Diagnostic
	for _, n := range m.Nodes {
		if n.Kind == KindDeterministic && strings.TrimSpace(n.Formula) == "" {
			diags = append(diags, Diagnostic{
				Severity: "warning",
				Message:  fmt.Sprintf("deterministic node %q has no formula", n.ID),
				NodeID:   n.ID,
				Rule:     "empty_formula",
			})
		}

		parents := map[string]bool{}
		for _, p := range m.Parents(n.ID) {
			parents[p.ID] = true
		}

		for _, src := range formulaSources(n) {
			seen := map[string]bool{}
			for _, id := range formula.ReferencedIDs(src) {
				if seen[id] {
					continue
				}
				seen[id] = true
				switch {
				case m.FindNode(id) == nil:
					diags = append(diags, Diagnostic{
						Severity: "error",
						Message:  fmt.Sprintf("node %q references missing node %q", n.ID, id),
						NodeID:   n.ID,
						Rule:     "missing_ref",
					})
				case !parents[id]:
					diags = append(diags, Diagnostic{
						Severity: "error",
						Message:  fmt.Sprintf("node %q references %q, which is not a direct parent", n.ID, id),
						NodeID:   n.ID,
						Rule:     "non_parent_ref",
					})
				}
			}
		}
	}
	return diags
}

// formulaSources returns every stored canonical formula on n: the node
// formula plus distribution parameters in sorted-name order.
func formulaSources(n *Node) []string {
	var srcs []string
	if n.Formula != "" {
		srcs = append(srcs, n.Formula)
	}
	if n.Dist != nil && len(n.Dist.Params) > 0 {
		names := make([]string, 0, len(n.Dist.Params))
		for name := range n.Dist.Params {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			srcs = append(srcs, n.Dist.Params[name])
		}
	}
	return srcs
}

// checkDistributions flags stochastic nodes with missing or malformed
// distributions, and deterministic nodes carrying one.
func checkDistributions(m *Model) []Diagnostic {
	var diags []Diagnostic
	for _, n := range m.Nodes {
		if n.Kind == KindDeterministic && n.Dist != nil {
			diags = append(diags, Diagnostic{
				Severity: "warning",
				Message:  fmt.Sprintf("deterministic node %q carries a distribution", n.ID),
				NodeID:   n.ID,
				Rule:     "stray_dist",
			})
		}
		if n.Kind != KindStochastic {
			continue
		}

		if n.Dist == nil {
			diags = append(diags, Diagnostic{
				Severity: "error",
				Message:  fmt.Sprintf("stochastic node %q has no distribution", n.ID),
				NodeID:   n.ID,
				Rule:     "missing_dist",
			})
			continue
		}

		required := DistributionParams(n.Dist.Type)
		if required == nil {
			diags = append(diags, Diagnostic{
				Severity: "error",
				Message:  fmt.Sprintf("node %q has unknown distribution type %q", n.ID, n.Dist.Type),
				NodeID:   n.ID,
				Rule:     "unknown_dist",
			})
			continue
		}

		for _, p := range required {
			if strings.TrimSpace(n.Dist.Params[p]) == "" {
				diags = append(diags, Diagnostic{
					Severity: "error",
					Message:  fmt.Sprintf("distribution %q on node %q is missing parameter %q", n.Dist.Type, n.ID, p),
					NodeID:   n.ID,
					Rule:     "missing_param",
				})
			}
		}

		requiredSet := map[string]bool{}
		for _, p := range required {
			requiredSet[p] = true
		}
		extras := make([]string, 0, len(n.Dist.Params))
		for p := range n.Dist.Params {
			if !requiredSet[p] {
				extras = append(extras, p)
			}
		}
		sort.Strings(extras)
		for _, p := range extras {
			diags = append(diags, Diagnostic{
				Severity: "warning",
				Message:  fmt.Sprintf("distribution %q on node %q does not use parameter %q", n.Dist.Type, n.ID, p),
				NodeID:   n.ID,
				Rule:     "extra_param",
			})
		}
	}
	return diags
}
