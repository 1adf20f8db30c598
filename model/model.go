// ABOUTME: Core document types for stochastic model graphs: model, node, edge, distribution.
// ABOUTME: Nodes keep document order; adjacency is derived from the edge list on demand.
package model

import "sort"

// NodeKind distinguishes deterministic formula nodes from stochastic ones.
type NodeKind string

const (
	KindDeterministic NodeKind = "deterministic"
	KindStochastic    NodeKind = "stochastic"
)

// Distribution describes the stochastic shape of a node. Params hold one
// formula per parameter, stored in canonical form like node formulas.
type Distribution struct {
	Type   string            `json:"type" yaml:"type"`
	Params map[string]string `json:"params,omitempty" yaml:"params,omitempty"`
}

// distributionParams maps each supported distribution type to its
// required parameter names.
var distributionParams = map[string][]string{
	"normal":     {"mean", "stddev"},
	"lognormal":  {"mu", "sigma"},
	"uniform":    {"min", "max"},
	"triangular": {"min", "mode", "max"},
	"beta":       {"alpha", "beta"},
	"bernoulli":  {"p"},
}

// DistributionTypes returns the supported distribution type names, sorted.
func DistributionTypes() []string {
	types := make([]string, 0, len(distributionParams))
	for t := range distributionParams {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// DistributionParams returns the required parameter names for distType,
// or nil when the type is unknown.
func DistributionParams(distType string) []string {
	params, ok := distributionParams[distType]
	if !ok {
		return nil
	}
	out := make([]string, len(params))
	copy(out, params)
	return out
}

// KnownDistribution reports whether distType is supported.
func KnownDistribution(distType string) bool {
	_, ok := distributionParams[distType]
	return ok
}

// Node is one vertex of the model graph. ID is permanent; Label and
// CustomName may change at any time without touching stored formulas,
// which reference nodes by id.
type Node struct {
	ID         string        `json:"id" yaml:"id"`
	Label      string        `json:"label" yaml:"label"`
	CustomName string        `json:"custom_name,omitempty" yaml:"custom_name,omitempty"`
	Kind       NodeKind      `json:"kind" yaml:"kind"`
	Formula    string        `json:"formula,omitempty" yaml:"formula,omitempty"`
	Dist       *Distribution `json:"dist,omitempty" yaml:"dist,omitempty"`
}

// Edge is a directed dependency from Source to Target: the target's
// formulas may reference the source.
type Edge struct {
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`
}

// String renders the edge in source->target form, used as its identity
// in diagnostics.
func (e *Edge) String() string {
	return e.Source + "->" + e.Target
}

// Model is one model document.
type Model struct {
	ID      string            `json:"id" yaml:"id"`
	Name    string            `json:"name" yaml:"name"`
	Context map[string]string `json:"context,omitempty" yaml:"context,omitempty"`
	Nodes   []*Node           `json:"nodes" yaml:"nodes"`
	Edges   []*Edge           `json:"edges" yaml:"edges"`
}

// New creates an empty model with a fresh id.
func New(name string) *Model {
	return &Model{
		ID:      NewModelID(),
		Name:    name,
		Context: map[string]string{},
	}
}

// FindNode returns the node with the given id, or nil.
func (m *Model) FindNode(id string) *Node {
	for _, n := range m.Nodes {
		if n.ID == id {
			return n
		}
	}
	return nil
}

// AddNode appends a node to the document.
func (m *Model) AddNode(n *Node) {
	m.Nodes = append(m.Nodes, n)
}

// RemoveNode deletes the node with the given id and every edge touching
// it. Stored formulas that referenced the node keep their dangling ids;
// the linter and display translation surface those.
func (m *Model) RemoveNode(id string) bool {
	idx := -1
	for i, n := range m.Nodes {
		if n.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	m.Nodes = append(m.Nodes[:idx], m.Nodes[idx+1:]...)

	kept := m.Edges[:0]
	for _, e := range m.Edges {
		if e.Source != id && e.Target != id {
			kept = append(kept, e)
		}
	}
	m.Edges = kept
	return true
}

// HasEdge reports whether an edge from source to target exists.
func (m *Model) HasEdge(source, target string) bool {
	for _, e := range m.Edges {
		if e.Source == source && e.Target == target {
			return true
		}
	}
	return false
}

// AddEdge appends a dependency edge.
func (m *Model) AddEdge(source, target string) *Edge {
	e := &Edge{Source: source, Target: target}
	m.Edges = append(m.Edges, e)
	return e
}

// RemoveEdge deletes the first edge from source to target.
func (m *Model) RemoveEdge(source, target string) bool {
	for i, e := range m.Edges {
		if e.Source == source && e.Target == target {
			m.Edges = append(m.Edges[:i], m.Edges[i+1:]...)
			return true
		}
	}
	return false
}

// Parents returns the distinct direct parents of nodeID in first-seen
// edge order. Only direct parents are in scope for the node's formulas.
func (m *Model) Parents(nodeID string) []*Node {
	var parents []*Node
	seen := map[string]bool{}
	for _, e := range m.Edges {
		if e.Target != nodeID || seen[e.Source] {
			continue
		}
		seen[e.Source] = true
		if n := m.FindNode(e.Source); n != nil {
			parents = append(parents, n)
		}
	}
	return parents
}

// Children returns the distinct direct children of nodeID in first-seen
// edge order.
func (m *Model) Children(nodeID string) []*Node {
	var children []*Node
	seen := map[string]bool{}
	for _, e := range m.Edges {
		if e.Source != nodeID || seen[e.Target] {
			continue
		}
		seen[e.Target] = true
		if n := m.FindNode(e.Target); n != nil {
			children = append(children, n)
		}
	}
	return children
}

// NameToID maps every effective node name to its node id. When two nodes
// collide on a name (a lint error) the first in document order wins, so
// translation stays deterministic.
func (m *Model) NameToID() map[string]string {
	out := make(map[string]string, len(m.Nodes))
	for _, n := range m.Nodes {
		name := n.EffectiveName()
		if _, exists := out[name]; !exists {
			out[name] = n.ID
		}
	}
	return out
}

// IDToName maps every node id to its effective name.
func (m *Model) IDToName() map[string]string {
	out := make(map[string]string, len(m.Nodes))
	for _, n := range m.Nodes {
		out[n.ID] = n.EffectiveName()
	}
	return out
}
