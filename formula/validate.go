// ABOUTME: Reference validation for formulas plus the Issue type shared by every check.
// ABOUTME: Bare identifiers resolve against visible names first, then reserved words.
package formula

import (
	"fmt"
	"strings"
)

// IssueKind classifies a validation finding.
type IssueKind string

const (
	// IssueSyntax marks lexical and structural problems.
	IssueSyntax IssueKind = "syntax"
	// IssueReference marks identifiers that resolve to nothing visible.
	IssueReference IssueKind = "reference"
)

// Issue is one validation finding. Issues are plain data: user-typed
// formulas never produce Go errors, only issue lists.
type Issue struct {
	Kind    IssueKind `json:"kind" yaml:"kind"`
	Message string    `json:"message" yaml:"message"`
}

// CheckReferences resolves every bare identifier in src against the
// visible name set (case-sensitive), then against the reserved words
// (case-insensitive). Identifiers immediately followed by '(' are
// function heads and are not checked. Every unresolved name is folded
// into one issue, first-seen order, deduplicated.
func CheckReferences(src string, visible map[string]bool) []Issue {
	tokens := Tokenize(src)
	var unknown []string
	seen := map[string]bool{}

	for i, tok := range tokens {
		if tok.Kind != TokenWord {
			continue
		}
		if IsCallHead(tokens, i) {
			continue
		}
		if visible[tok.Text] {
			continue
		}
		if IsReserved(tok.Text) {
			continue
		}
		if !seen[tok.Text] {
			seen[tok.Text] = true
			unknown = append(unknown, tok.Text)
		}
	}

	if len(unknown) == 0 {
		return nil
	}
	return []Issue{{
		Kind:    IssueReference,
		Message: fmt.Sprintf("Unknown variable(s): %s", strings.Join(unknown, ", ")),
	}}
}

// Check runs the full validation pass: syntax checks always, reference
// checks when the formula is non-empty.
func Check(src string, visible map[string]bool) []Issue {
	issues := CheckSyntax(src)
	if strings.TrimSpace(src) == "" {
		return issues
	}
	return append(issues, CheckReferences(src, visible)...)
}
