// ABOUTME: Built-in function catalog and keyword set for validation, suggestions, and docs.
// ABOUTME: Reserved-word matching is case-insensitive; the sets are built once and never mutated.
package formula

import "strings"

// FuncSpec describes one built-in function for suggestions and the docs page.
type FuncSpec struct {
	Name      string `json:"name"`
	Signature string `json:"signature"`
	Summary   string `json:"summary"`
}

// functionCatalog lists every built-in in display order.
var functionCatalog = []FuncSpec{
	{"abs", "abs(x)", "absolute value of x"},
	{"min", "min(a, b)", "smaller of a and b"},
	{"max", "max(a, b)", "larger of a and b"},
	{"sqrt", "sqrt(x)", "square root of x"},
	{"pow", "pow(base, exp)", "base raised to exp"},
	{"exp", "exp(x)", "e raised to x"},
	{"log", "log(x)", "natural logarithm of x"},
	{"log10", "log10(x)", "base-10 logarithm of x"},
	{"sin", "sin(x)", "sine of x in radians"},
	{"cos", "cos(x)", "cosine of x in radians"},
	{"tan", "tan(x)", "tangent of x in radians"},
	{"round", "round(x)", "x rounded to the nearest integer"},
	{"floor", "floor(x)", "largest integer not above x"},
	{"ceil", "ceil(x)", "smallest integer not below x"},
	{"clamp", "clamp(x, lo, hi)", "x limited to the range lo..hi"},
	{"if_else", "if_else(cond, a, b)", "a when cond is true, otherwise b"},
}

// keywords are names claimed by the expression language itself.
var keywords = []string{"and", "or", "not", "if", "else", "in", "is"}

var functionSet = func() map[string]bool {
	set := make(map[string]bool, len(functionCatalog))
	for _, fn := range functionCatalog {
		set[fn.Name] = true
	}
	return set
}()

var reservedSet = func() map[string]bool {
	set := make(map[string]bool, len(functionCatalog)+len(keywords))
	for _, fn := range functionCatalog {
		set[fn.Name] = true
	}
	for _, kw := range keywords {
		set[kw] = true
	}
	return set
}()

// IsReserved reports whether word is a built-in function or keyword,
// ignoring case.
func IsReserved(word string) bool {
	return reservedSet[strings.ToLower(word)]
}

// IsFunction reports whether name is a built-in function, ignoring case.
func IsFunction(name string) bool {
	return functionSet[strings.ToLower(name)]
}

// Functions returns a copy of the built-in function catalog.
func Functions() []FuncSpec {
	out := make([]FuncSpec, len(functionCatalog))
	copy(out, functionCatalog)
	return out
}
