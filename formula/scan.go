// ABOUTME: Lexical and structural formula checks: brackets, operator placement, empty groups.
// ABOUTME: Single-pass rune scans with counters; findings accumulate instead of stopping early.
package formula

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// arithmeticOps are the operator characters the placement checks apply to.
const arithmeticOps = "+-*/%"

// CheckSyntax runs the lexical checks on src and returns every issue
// found. A nil result means the formula is lexically sound.
func CheckSyntax(src string) []Issue {
	if strings.TrimSpace(src) == "" {
		return []Issue{{Kind: IssueSyntax, Message: "formula is empty"}}
	}

	var issues []Issue
	issues = append(issues, checkBrackets(src)...)
	issues = append(issues, checkOperatorPlacement(src)...)
	issues = append(issues, checkOperatorRuns(src)...)
	issues = append(issues, checkEmptyGroups(src)...)
	return issues
}

// bracketPair describes one bracket family tracked by checkBrackets.
type bracketPair struct {
	open  rune
	close rune
	name  string
}

var bracketPairs = []bracketPair{
	{'(', ')', "parenthesis"},
	{'{', '}', "brace"},
	{'[', ']', "bracket"},
}

// checkBrackets keeps an independent counter per bracket family. A counter
// that dips negative before the last character means an out-of-order pair
// and stops the scan; imbalances still standing at the end are reported as
// unclosed or extra.
func checkBrackets(src string) []Issue {
	runes := []rune(src)
	counts := make([]int, len(bracketPairs))

	for i, r := range runes {
		for p, pair := range bracketPairs {
			switch r {
			case pair.open:
				counts[p]++
			case pair.close:
				counts[p]--
			}
			if counts[p] < 0 && i < len(runes)-1 {
				return []Issue{{Kind: IssueSyntax, Message: "mismatched brackets"}}
			}
		}
	}

	var issues []Issue
	for p, pair := range bracketPairs {
		switch {
		case counts[p] > 0:
			issues = append(issues, Issue{Kind: IssueSyntax, Message: "unclosed opening " + pair.name})
		case counts[p] < 0:
			issues = append(issues, Issue{Kind: IssueSyntax, Message: "extra closing " + pair.name})
		}
	}
	return issues
}

// checkOperatorPlacement flags formulas that end on any arithmetic
// operator or start on one that cannot be unary.
func checkOperatorPlacement(src string) []Issue {
	var issues []Issue

	trimmed := strings.TrimRightFunc(src, unicode.IsSpace)
	if trimmed != "" {
		last, _ := utf8.DecodeLastRuneInString(trimmed)
		if strings.ContainsRune(arithmeticOps, last) {
			issues = append(issues, Issue{
				Kind:    IssueSyntax,
				Message: fmt.Sprintf("formula ends with operator %q", last),
			})
		}
	}

	lead := strings.TrimLeftFunc(src, unicode.IsSpace)
	if lead != "" {
		first, _ := utf8.DecodeRuneInString(lead)
		// Leading + and - are unary signs and stay legal.
		if strings.ContainsRune("*/%", first) {
			issues = append(issues, Issue{
				Kind:    IssueSyntax,
				Message: fmt.Sprintf("formula starts with operator %q", first),
			})
		}
	}

	return issues
}

// checkOperatorRuns flags adjacent runs of two or more arithmetic operator
// characters. The power operator ** is the one permitted run; whitespace
// breaks a run, so "x + -1" stays legal.
func checkOperatorRuns(src string) []Issue {
	var issues []Issue
	var run []rune

	flush := func() {
		if len(run) >= 2 && string(run) != "**" {
			issues = append(issues, Issue{
				Kind:    IssueSyntax,
				Message: fmt.Sprintf("consecutive operators %q", string(run)),
			})
		}
		run = run[:0]
	}

	for _, r := range src {
		if strings.ContainsRune(arithmeticOps, r) {
			run = append(run, r)
			continue
		}
		flush()
	}
	flush()
	return issues
}

// checkEmptyGroups flags every opening parenthesis whose group holds only
// whitespace. None of the built-in functions take zero arguments.
func checkEmptyGroups(src string) []Issue {
	runes := []rune(src)
	var issues []Issue

	for i, r := range runes {
		if r != '(' {
			continue
		}
		j := i + 1
		for j < len(runes) && unicode.IsSpace(runes[j]) {
			j++
		}
		if j < len(runes) && runes[j] == ')' {
			issues = append(issues, Issue{Kind: IssueSyntax, Message: "empty parentheses"})
		}
	}
	return issues
}
