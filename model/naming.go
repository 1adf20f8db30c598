// ABOUTME: Node naming rules: label normalization, custom-name validation, effective names.
// ABOUTME: Effective names feed the scope resolver and the display/canonical translator.
package model

import (
	"regexp"
	"strings"
	"unicode"
)

// customNamePattern is the shape every custom name must match.
var customNamePattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// NormalizeIdentifier derives a formula identifier from a free-text label:
// lowercase, runs of whitespace or hyphens separate words, any other
// character outside [a-z0-9] is dropped, words join with underscores,
// a "_" prefix when the result starts with a digit, and the literal
// "var" when nothing survives.
func NormalizeIdentifier(label string) string {
	words := strings.FieldsFunc(strings.ToLower(label), func(r rune) bool {
		return unicode.IsSpace(r) || r == '-'
	})

	parts := make([]string, 0, len(words))
	for _, w := range words {
		var b strings.Builder
		b.Grow(len(w))
		for _, r := range w {
			if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
				b.WriteRune(r)
			}
		}
		if b.Len() > 0 {
			parts = append(parts, b.String())
		}
	}

	out := strings.Join(parts, "_")
	if out == "" {
		return "var"
	}
	if out[0] >= '0' && out[0] <= '9' {
		out = "_" + out
	}
	return out
}

// ValidCustomName reports whether name may be stored as a custom name.
func ValidCustomName(name string) bool {
	return customNamePattern.MatchString(name)
}

// EffectiveName returns the identifier other formulas use to reference n:
// the custom name when set, otherwise the normalized label.
func (n *Node) EffectiveName() string {
	if n.CustomName != "" {
		return n.CustomName
	}
	return NormalizeIdentifier(n.Label)
}

// NameTaken reports whether a node other than excludeID already answers
// to name as its effective name.
func (m *Model) NameTaken(name, excludeID string) bool {
	for _, n := range m.Nodes {
		if n.ID == excludeID {
			continue
		}
		if n.EffectiveName() == name {
			return true
		}
	}
	return false
}
