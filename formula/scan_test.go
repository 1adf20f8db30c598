// ABOUTME: Tests for the lexical formula checks.
// ABOUTME: Covers empty input, bracket balance, operator placement, operator runs, and empty groups.
package formula

import (
	"strings"
	"testing"
)

// hasMessage reports whether any issue message contains substr.
func hasMessage(issues []Issue, substr string) bool {
	for _, is := range issues {
		if strings.Contains(is.Message, substr) {
			return true
		}
	}
	return false
}

func TestCheckSyntaxEmpty(t *testing.T) {
	for _, input := range []string{"", "   ", "\t\n"} {
		t.Run("blank", func(t *testing.T) {
			issues := CheckSyntax(input)
			if len(issues) != 1 {
				t.Fatalf("CheckSyntax(%q) returned %d issues, want 1", input, len(issues))
			}
			if issues[0].Message != "formula is empty" {
				t.Errorf("message = %q, want %q", issues[0].Message, "formula is empty")
			}
			if issues[0].Kind != IssueSyntax {
				t.Errorf("kind = %q, want %q", issues[0].Kind, IssueSyntax)
			}
		})
	}
}

func TestCheckSyntaxBrackets(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"(x + 1", "unclosed opening parenthesis"},
		{"x + 1)", "extra closing parenthesis"},
		{"x) + (1", "mismatched brackets"},
		{"{x", "unclosed opening brace"},
		{"x}", "extra closing brace"},
		{"[x", "unclosed opening bracket"},
		{"x]", "extra closing bracket"},
		{"((a + b) * c", "unclosed opening parenthesis"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			issues := CheckSyntax(tt.input)
			if !hasMessage(issues, tt.want) {
				t.Errorf("CheckSyntax(%q) = %v, want an issue containing %q", tt.input, issues, tt.want)
			}
		})
	}
}

func TestCheckSyntaxMismatchReportedOnce(t *testing.T) {
	issues := CheckSyntax("x) + (1")
	count := 0
	for _, is := range issues {
		if strings.Contains(is.Message, "bracket") || strings.Contains(is.Message, "parenthesis") {
			count++
		}
	}
	if count != 1 {
		t.Errorf("CheckSyntax(%q) reported %d bracket issues, want 1: %v", "x) + (1", count, issues)
	}
}

func TestCheckSyntaxOperatorPlacement(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"x +", "ends with operator"},
		{"x *  ", "ends with operator"},
		{"* x", "starts with operator"},
		{"/ x", "starts with operator"},
		{"% x", "starts with operator"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if !hasMessage(CheckSyntax(tt.input), tt.want) {
				t.Errorf("CheckSyntax(%q) missing issue containing %q", tt.input, tt.want)
			}
		})
	}

	for _, ok := range []string{"-x", "+x", "  - x + y"} {
		t.Run(ok, func(t *testing.T) {
			if issues := CheckSyntax(ok); len(issues) != 0 {
				t.Errorf("CheckSyntax(%q) = %v, want no issues", ok, issues)
			}
		})
	}
}

func TestCheckSyntaxOperatorRuns(t *testing.T) {
	tests := []struct {
		input string
		bad   bool
	}{
		{"x ++ y", true},
		{"x **/ y", true},
		{"x */ y", true},
		{"x ** y", false},
		{"x + -1", false},
		{"x+y-z", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := hasMessage(CheckSyntax(tt.input), "consecutive operators")
			if got != tt.bad {
				t.Errorf("CheckSyntax(%q) consecutive-operator issue = %v, want %v", tt.input, got, tt.bad)
			}
		})
	}
}

func TestCheckSyntaxEmptyParens(t *testing.T) {
	tests := []struct {
		input string
		bad   bool
	}{
		{"f()", true},
		{"( )", true},
		{"(   )", true},
		{"(x)", false},
		{"f(x)", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := hasMessage(CheckSyntax(tt.input), "empty parentheses")
			if got != tt.bad {
				t.Errorf("CheckSyntax(%q) empty-paren issue = %v, want %v", tt.input, got, tt.bad)
			}
		})
	}
}

func TestCheckSyntaxCleanFormula(t *testing.T) {
	clean := []string{
		"price * (1 + tax_rate)",
		"sqrt(variance) / n",
		"base ** 2 + offset",
		"clamp(x, 0, 100)",
	}
	for _, input := range clean {
		t.Run(input, func(t *testing.T) {
			if issues := CheckSyntax(input); len(issues) != 0 {
				t.Errorf("CheckSyntax(%q) = %v, want no issues", input, issues)
			}
		})
	}
}

func TestCheckSyntaxAccumulatesIssues(t *testing.T) {
	// One formula, several independent findings.
	issues := CheckSyntax("(x ++ y")
	if !hasMessage(issues, "unclosed opening parenthesis") {
		t.Errorf("missing bracket issue in %v", issues)
	}
	if !hasMessage(issues, "consecutive operators") {
		t.Errorf("missing operator-run issue in %v", issues)
	}
}
