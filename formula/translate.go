// ABOUTME: Translation between display formulas (names) and canonical formulas (node ids).
// ABOUTME: Substitution is whole-token; node references use the node("<id>") wire pattern.
package formula

import (
	"regexp"
	"strings"
)

// nodeRefPattern matches one canonical node reference and captures the id.
var nodeRefPattern = regexp.MustCompile(`node\("([^"]+)"\)`)

// NodeRef renders id as a canonical reference token.
func NodeRef(id string) string {
	return `node("` + id + `")`
}

// ToCanonical rewrites display text into canonical form by replacing each
// whole identifier token present in nameToID with node("<id>"). Function
// heads are left alone, and everything else passes through byte for byte,
// so spacing and unmapped names survive untouched.
func ToCanonical(display string, nameToID map[string]string) string {
	if len(nameToID) == 0 {
		return display
	}

	tokens := Tokenize(display)
	var b strings.Builder
	b.Grow(len(display))
	for i, tok := range tokens {
		if tok.Kind == TokenWord && !IsCallHead(tokens, i) {
			if id, ok := nameToID[tok.Text]; ok {
				b.WriteString(NodeRef(id))
				continue
			}
		}
		b.WriteString(tok.Text)
	}
	return b.String()
}

// ToDisplay rewrites canonical text into display form by replacing each
// node("<id>") with the node's current name. Ids with no mapping (deleted
// nodes) degrade to the raw id so the reference stays visible.
func ToDisplay(canonical string, idToName map[string]string) string {
	return nodeRefPattern.ReplaceAllStringFunc(canonical, func(match string) string {
		id := nodeRefPattern.FindStringSubmatch(match)[1]
		if name, ok := idToName[id]; ok {
			return name
		}
		return id
	})
}

// ReferencedIDs returns every node id referenced by canonical, in order of
// appearance, duplicates preserved.
func ReferencedIDs(canonical string) []string {
	matches := nodeRefPattern.FindAllStringSubmatch(canonical, -1)
	if len(matches) == 0 {
		return nil
	}
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m[1])
	}
	return ids
}
