// ABOUTME: Tests for display/canonical formula translation and id extraction.
// ABOUTME: Covers whole-token substitution, overlap safety, fallbacks, and round trips.
package formula

import (
	"reflect"
	"testing"
)

func TestToCanonicalWholeTokens(t *testing.T) {
	nameToID := map[string]string{
		"rate":     "id-1",
		"tax_rate": "id-2",
	}
	got := ToCanonical("tax_rate + rate", nameToID)
	want := `node("id-2") + node("id-1")`
	if got != want {
		t.Errorf("ToCanonical = %q, want %q", got, want)
	}
}

func TestToCanonicalNoSubstringCorruption(t *testing.T) {
	got := ToCanonical("tax_rate * 2", map[string]string{"rate": "id-1"})
	if got != "tax_rate * 2" {
		t.Errorf("ToCanonical corrupted a longer identifier: %q", got)
	}
}

func TestToCanonicalPreservesEverythingElse(t *testing.T) {
	nameToID := map[string]string{"a": "id-a"}
	got := ToCanonical("  a  +  (b * 100.5)", nameToID)
	want := `  node("id-a")  +  (b * 100.5)`
	if got != want {
		t.Errorf("ToCanonical = %q, want %q", got, want)
	}
}

func TestToCanonicalLeavesFunctionHeads(t *testing.T) {
	// A node named like a built-in must not hijack call syntax.
	nameToID := map[string]string{"min": "id-9"}
	got := ToCanonical("min(a, b) + min", nameToID)
	want := `min(a, b) + node("id-9")`
	if got != want {
		t.Errorf("ToCanonical = %q, want %q", got, want)
	}
}

func TestToCanonicalEmptyMap(t *testing.T) {
	if got := ToCanonical("a + b", nil); got != "a + b" {
		t.Errorf("ToCanonical with nil map = %q, want input unchanged", got)
	}
}

func TestToDisplay(t *testing.T) {
	idToName := map[string]string{"id-1": "rate", "id-2": "tax_rate"}
	got := ToDisplay(`node("id-2") + node("id-1")`, idToName)
	if got != "tax_rate + rate" {
		t.Errorf("ToDisplay = %q, want %q", got, "tax_rate + rate")
	}
}

func TestToDisplayUnknownIDFallsBackToRawID(t *testing.T) {
	got := ToDisplay(`node("ghost") * 2`, map[string]string{})
	if got != "ghost * 2" {
		t.Errorf("ToDisplay = %q, want %q", got, "ghost * 2")
	}
}

func TestRoundTrip(t *testing.T) {
	nameToID := map[string]string{"price": "01A", "volume": "01B"}
	idToName := map[string]string{"01A": "price", "01B": "volume"}

	display := "price * volume + sqrt(price)"
	canonical := ToCanonical(display, nameToID)
	if back := ToDisplay(canonical, idToName); back != display {
		t.Errorf("round trip = %q, want %q", back, display)
	}
}

func TestRoundTripUnderscoreLeadingName(t *testing.T) {
	// Digit-leading labels normalize to names like _2024_sales.
	nameToID := map[string]string{"_2024_sales": "01C"}
	idToName := map[string]string{"01C": "_2024_sales"}

	display := "_2024_sales * 1.1"
	canonical := ToCanonical(display, nameToID)
	if want := `node("01C") * 1.1`; canonical != want {
		t.Errorf("ToCanonical = %q, want %q", canonical, want)
	}
	if back := ToDisplay(canonical, idToName); back != display {
		t.Errorf("round trip = %q, want %q", back, display)
	}
}

func TestReferencedIDs(t *testing.T) {
	got := ReferencedIDs(`node("a") + node("b") * node("a")`)
	want := []string{"a", "b", "a"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ReferencedIDs = %v, want %v", got, want)
	}
}

func TestReferencedIDsNone(t *testing.T) {
	if got := ReferencedIDs("1 + 2"); got != nil {
		t.Errorf("ReferencedIDs = %v, want nil", got)
	}
}

func TestNodeRef(t *testing.T) {
	if got := NodeRef("01ABC"); got != `node("01ABC")` {
		t.Errorf("NodeRef = %q", got)
	}
}
