// ABOUTME: YAML codec for model documents, the on-disk and store wire format.
// ABOUTME: Parse enforces structural basics; semantic findings belong to the linter.
package model

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ParseYAML decodes a model document. It enforces just enough structure
// to be safe to operate on: nodes present with non-empty unique ids and
// edges with both endpoints named. Everything semantic is Lint's job.
func ParseYAML(data []byte) (*Model, error) {
	var m Model
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse model yaml: %w", err)
	}

	if m.Context == nil {
		m.Context = map[string]string{}
	}
	if m.ID == "" {
		m.ID = NewModelID()
	}

	seen := map[string]bool{}
	for i, n := range m.Nodes {
		if n == nil {
			return nil, fmt.Errorf("node %d is empty", i)
		}
		if n.ID == "" {
			return nil, fmt.Errorf("node %d has no id", i)
		}
		if seen[n.ID] {
			return nil, fmt.Errorf("duplicate node id %q", n.ID)
		}
		seen[n.ID] = true
		if n.Kind == "" {
			n.Kind = KindDeterministic
		}
	}

	for i, e := range m.Edges {
		if e == nil || e.Source == "" || e.Target == "" {
			return nil, fmt.Errorf("edge %d is missing an endpoint", i)
		}
	}

	return &m, nil
}

// EncodeYAML renders m as a YAML document.
func EncodeYAML(m *Model) ([]byte, error) {
	out, err := yaml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode model yaml: %w", err)
	}
	return out, nil
}

// LoadFile reads and parses a model document from disk.
func LoadFile(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model file: %w", err)
	}
	return ParseYAML(data)
}
