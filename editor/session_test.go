// ABOUTME: Test suite for session management functionality
// ABOUTME: Covers session creation, mutations, undo/redo, and TTL cleanup

package editor

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/2389-research/galton/model"
)

// testModel builds a two-node chain: rate feeds price, with one model
// context variable.
func testModel() *model.Model {
	m := model.New("widget pricing")
	m.Context["tax_rate"] = "0.2"
	m.AddNode(&model.Node{ID: "id-rate", Label: "Rate", Kind: model.KindDeterministic})
	m.AddNode(&model.Node{ID: "id-price", Label: "Price", Kind: model.KindDeterministic})
	m.AddEdge("id-rate", "id-price")
	return m
}

func TestCreateSessionPopulatesState(t *testing.T) {
	store := NewStore(100, time.Hour)
	sess := store.Create(testModel())

	if sess.ID == "" {
		t.Fatal("expected session ID to be set")
	}
	if sess.Document() == "" {
		t.Fatal("expected document to be serialized")
	}
	if sess.CreatedAt.IsZero() {
		t.Fatal("expected CreatedAt to be set")
	}
	if sess.LastAccess.IsZero() {
		t.Fatal("expected LastAccess to be set")
	}
}

func TestGetSessionUpdatesLastAccess(t *testing.T) {
	store := NewStore(100, time.Hour)
	sess := store.Create(testModel())

	originalAccess := sess.LastAccess
	time.Sleep(10 * time.Millisecond)

	got, ok := store.Get(sess.ID)
	if !ok {
		t.Fatal("expected session to be found")
	}
	if !got.LastAccess.After(originalAccess) {
		t.Fatal("expected LastAccess to be updated")
	}
}

func TestGetNonexistentSession(t *testing.T) {
	store := NewStore(100, time.Hour)
	if _, ok := store.Get("missing"); ok {
		t.Fatal("expected lookup to fail")
	}
}

func TestUpdateYAML(t *testing.T) {
	store := NewStore(100, time.Hour)
	sess := store.Create(testModel())

	doc := `
id: m-2
name: replacement
nodes:
  - id: n1
    label: Only Node
`
	if err := sess.UpdateYAML(doc); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if sess.Model.Name != "replacement" {
		t.Fatalf("expected model name %q, got %q", "replacement", sess.Model.Name)
	}
	if len(sess.Model.Nodes) != 1 {
		t.Fatalf("expected 1 node, got %d", len(sess.Model.Nodes))
	}
}

func TestUpdateYAMLInvalidLeavesModel(t *testing.T) {
	store := NewStore(100, time.Hour)
	sess := store.Create(testModel())

	if err := sess.UpdateYAML("nodes: [{id: }"); err == nil {
		t.Fatal("expected parse error")
	}
	if len(sess.Model.Nodes) != 2 {
		t.Fatalf("expected model to be unchanged, got %d nodes", len(sess.Model.Nodes))
	}
}

func TestAddNodeGeneratesID(t *testing.T) {
	store := NewStore(100, time.Hour)
	sess := store.Create(testModel())

	n, err := sess.AddNode("Demand", "")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if n.ID == "" {
		t.Fatal("expected generated node ID")
	}
	if n.Kind != model.KindDeterministic {
		t.Fatalf("expected blank kind to default to deterministic, got %q", n.Kind)
	}
	if sess.Model.FindNode(n.ID) == nil {
		t.Fatal("expected node to be in the model")
	}
}

func TestAddNodeStochasticSeedsDistribution(t *testing.T) {
	store := NewStore(100, time.Hour)
	sess := store.Create(testModel())

	n, err := sess.AddNode("Demand", model.KindStochastic)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if n.Dist == nil {
		t.Fatal("expected stochastic node to have a distribution")
	}
	if n.Dist.Type != "normal" {
		t.Fatalf("expected default distribution normal, got %q", n.Dist.Type)
	}
}

func TestAddNodeUnknownKind(t *testing.T) {
	store := NewStore(100, time.Hour)
	sess := store.Create(testModel())

	if _, err := sess.AddNode("x", "fuzzy"); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
}

func TestUpdateNodeLabel(t *testing.T) {
	store := NewStore(100, time.Hour)
	sess := store.Create(testModel())

	if err := sess.UpdateNodeLabel("id-rate", "Interest Rate"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got := sess.Model.FindNode("id-rate").Label; got != "Interest Rate" {
		t.Fatalf("expected label %q, got %q", "Interest Rate", got)
	}
	if err := sess.UpdateNodeLabel("missing", "x"); !errors.Is(err, ErrNodeNotFound) {
		t.Fatalf("expected ErrNodeNotFound, got %v", err)
	}
}

func TestSetNodeKindSwitchesDistribution(t *testing.T) {
	store := NewStore(100, time.Hour)
	sess := store.Create(testModel())

	if err := sess.SetNodeKind("id-rate", model.KindStochastic); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	n := sess.Model.FindNode("id-rate")
	if n.Dist == nil || n.Dist.Type != "normal" {
		t.Fatal("expected switch to stochastic to seed a normal distribution")
	}

	if err := sess.SetNodeKind("id-rate", model.KindDeterministic); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if n.Dist != nil {
		t.Fatal("expected switch to deterministic to drop the distribution")
	}
}

func TestSetCustomName(t *testing.T) {
	store := NewStore(100, time.Hour)
	sess := store.Create(testModel())

	if err := sess.SetCustomName("id-rate", "interest"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got := sess.Model.FindNode("id-rate").EffectiveName(); got != "interest" {
		t.Fatalf("expected effective name %q, got %q", "interest", got)
	}
}

func TestSetCustomNameRejectsInvalid(t *testing.T) {
	store := NewStore(100, time.Hour)
	sess := store.Create(testModel())

	err := sess.SetCustomName("id-rate", "Bad Name")
	if !errors.Is(err, ErrInvalidName) {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}
	if got := sess.Model.FindNode("id-rate").CustomName; got != "" {
		t.Fatalf("expected rejection to leave custom name empty, got %q", got)
	}
}

func TestSetCustomNameRejectsCollision(t *testing.T) {
	store := NewStore(100, time.Hour)
	sess := store.Create(testModel())

	// "rate" is already id-rate's effective name.
	err := sess.SetCustomName("id-price", "rate")
	if !errors.Is(err, ErrNameTaken) {
		t.Fatalf("expected ErrNameTaken, got %v", err)
	}
	if got := sess.Model.FindNode("id-price").CustomName; got != "" {
		t.Fatalf("expected rejection to leave custom name empty, got %q", got)
	}
}

func TestSetCustomNameClear(t *testing.T) {
	store := NewStore(100, time.Hour)
	sess := store.Create(testModel())

	if err := sess.SetCustomName("id-rate", "interest"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := sess.SetCustomName("id-rate", ""); err != nil {
		t.Fatalf("expected no error clearing name, got %v", err)
	}
	if got := sess.Model.FindNode("id-rate").EffectiveName(); got != "rate" {
		t.Fatalf("expected effective name to fall back to %q, got %q", "rate", got)
	}
}

func TestRemoveNodeCascadesEdges(t *testing.T) {
	store := NewStore(100, time.Hour)
	sess := store.Create(testModel())

	if err := sess.RemoveNode("id-rate"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if sess.Model.FindNode("id-rate") != nil {
		t.Fatal("expected node to be removed")
	}
	if len(sess.Model.Edges) != 0 {
		t.Fatalf("expected edges to be cascaded, got %d", len(sess.Model.Edges))
	}
	if err := sess.RemoveNode("id-rate"); !errors.Is(err, ErrNodeNotFound) {
		t.Fatalf("expected ErrNodeNotFound, got %v", err)
	}
}

func TestAddEdgeValidations(t *testing.T) {
	store := NewStore(100, time.Hour)
	sess := store.Create(testModel())

	if err := sess.AddEdge("id-rate", "id-rate"); !errors.Is(err, ErrSelfEdge) {
		t.Fatalf("expected ErrSelfEdge, got %v", err)
	}
	if err := sess.AddEdge("missing", "id-price"); !errors.Is(err, ErrNodeNotFound) {
		t.Fatalf("expected ErrNodeNotFound, got %v", err)
	}
	if err := sess.AddEdge("id-rate", "id-price"); !errors.Is(err, ErrEdgeExists) {
		t.Fatalf("expected ErrEdgeExists, got %v", err)
	}
	if err := sess.AddEdge("id-price", "id-rate"); err != nil {
		t.Fatalf("expected reverse edge to be allowed, got %v", err)
	}
}

func TestRemoveEdge(t *testing.T) {
	store := NewStore(100, time.Hour)
	sess := store.Create(testModel())

	if err := sess.RemoveEdge("id-rate", "id-price"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(sess.Model.Edges) != 0 {
		t.Fatalf("expected 0 edges, got %d", len(sess.Model.Edges))
	}
	if err := sess.RemoveEdge("id-rate", "id-price"); !errors.Is(err, ErrEdgeNotFound) {
		t.Fatalf("expected ErrEdgeNotFound, got %v", err)
	}
}

func TestSetContextVar(t *testing.T) {
	store := NewStore(100, time.Hour)
	sess := store.Create(testModel())

	if err := sess.SetContextVar("discount", "0.1"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got := sess.Model.Context["discount"]; got != "0.1" {
		t.Fatalf("expected context value %q, got %q", "0.1", got)
	}
	if err := sess.SetContextVar("Bad Key", "1"); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}
}

func TestRemoveContextVar(t *testing.T) {
	store := NewStore(100, time.Hour)
	sess := store.Create(testModel())

	if err := sess.RemoveContextVar("tax_rate"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := sess.RemoveContextVar("tax_rate"); !errors.Is(err, ErrContextKeyNotFound) {
		t.Fatalf("expected ErrContextKeyNotFound, got %v", err)
	}
}

func TestSetFormulaStoresCanonical(t *testing.T) {
	store := NewStore(100, time.Hour)
	sess := store.Create(testModel())

	check, err := sess.SetFormula("id-price", "rate * 2", nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	want := `node("id-rate") * 2`
	if check.Canonical != want {
		t.Fatalf("expected canonical %q, got %q", want, check.Canonical)
	}
	if len(check.Issues) != 0 {
		t.Fatalf("expected no issues, got %v", check.Issues)
	}
	if len(check.ReferencedIDs) != 1 || check.ReferencedIDs[0] != "id-rate" {
		t.Fatalf("expected referenced IDs [id-rate], got %v", check.ReferencedIDs)
	}
	if got := sess.Model.FindNode("id-price").Formula; got != want {
		t.Fatalf("expected stored formula %q, got %q", want, got)
	}
}

func TestSetFormulaStoresDespiteIssues(t *testing.T) {
	store := NewStore(100, time.Hour)
	sess := store.Create(testModel())

	check, err := sess.SetFormula("id-price", "ghost + 1", nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(check.Issues) != 1 {
		t.Fatalf("expected 1 issue, got %v", check.Issues)
	}
	if !strings.Contains(check.Issues[0].Message, "ghost") {
		t.Fatalf("expected issue to name ghost, got %q", check.Issues[0].Message)
	}
	if got := sess.Model.FindNode("id-price").Formula; got != "ghost + 1" {
		t.Fatalf("expected formula stored despite issues, got %q", got)
	}
}

func TestCheckFormulaDoesNotMutate(t *testing.T) {
	store := NewStore(100, time.Hour)
	sess := store.Create(testModel())

	check, err := sess.CheckFormula("id-price", "rate + tax_rate", nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(check.Issues) != 0 {
		t.Fatalf("expected no issues, got %v", check.Issues)
	}
	if got := sess.Model.FindNode("id-price").Formula; got != "" {
		t.Fatalf("expected formula to stay empty, got %q", got)
	}
	if len(sess.UndoStack) != 0 {
		t.Fatalf("expected empty undo stack, got %d entries", len(sess.UndoStack))
	}
}

func TestCheckFormulaSeesGlobalContext(t *testing.T) {
	store := NewStore(100, time.Hour)
	sess := store.Create(testModel())

	check, err := sess.CheckFormula("id-price", "discount * 2", []string{"discount"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(check.Issues) != 0 {
		t.Fatalf("expected global context to resolve, got %v", check.Issues)
	}
}

func TestSetDistribution(t *testing.T) {
	store := NewStore(100, time.Hour)
	sess := store.Create(testModel())

	n, err := sess.AddNode("Demand", model.KindStochastic)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, err := sess.SetDistParam(n.ID, "mean", "10", nil); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := sess.SetDistribution(n.ID, "uniform"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	dist := sess.Model.FindNode(n.ID).Dist
	if dist.Type != "uniform" {
		t.Fatalf("expected distribution uniform, got %q", dist.Type)
	}
	if len(dist.Params) != 0 {
		t.Fatalf("expected type switch to reset params, got %v", dist.Params)
	}

	if err := sess.SetDistribution(n.ID, "weibull"); !errors.Is(err, ErrUnknownDistribution) {
		t.Fatalf("expected ErrUnknownDistribution, got %v", err)
	}
	if err := sess.SetDistribution("id-rate", "normal"); !errors.Is(err, ErrNotStochastic) {
		t.Fatalf("expected ErrNotStochastic, got %v", err)
	}
}

func TestSetDistParam(t *testing.T) {
	store := NewStore(100, time.Hour)
	sess := store.Create(testModel())

	n, err := sess.AddNode("Demand", model.KindStochastic)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := sess.AddEdge("id-rate", n.ID); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	check, err := sess.SetDistParam(n.ID, "mean", "rate + 1", nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	want := `node("id-rate") + 1`
	if check.Canonical != want {
		t.Fatalf("expected canonical %q, got %q", want, check.Canonical)
	}
	if got := sess.Model.FindNode(n.ID).Dist.Params["mean"]; got != want {
		t.Fatalf("expected stored param %q, got %q", want, got)
	}

	if _, err := sess.SetDistParam(n.ID, "alpha", "1", nil); !errors.Is(err, ErrUnknownParam) {
		t.Fatalf("expected ErrUnknownParam, got %v", err)
	}
	if _, err := sess.SetDistParam("id-rate", "mean", "1", nil); !errors.Is(err, ErrNotStochastic) {
		t.Fatalf("expected ErrNotStochastic, got %v", err)
	}
}

func TestUndo(t *testing.T) {
	store := NewStore(100, time.Hour)
	sess := store.Create(testModel())

	if err := sess.UpdateNodeLabel("id-rate", "Changed"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := sess.Undo(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got := sess.Model.FindNode("id-rate").Label; got != "Rate" {
		t.Fatalf("expected label restored to %q, got %q", "Rate", got)
	}
}

func TestRedo(t *testing.T) {
	store := NewStore(100, time.Hour)
	sess := store.Create(testModel())

	if err := sess.UpdateNodeLabel("id-rate", "Changed"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := sess.Undo(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := sess.Redo(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got := sess.Model.FindNode("id-rate").Label; got != "Changed" {
		t.Fatalf("expected label %q after redo, got %q", "Changed", got)
	}
}

func TestUndoOnEmptyStack(t *testing.T) {
	store := NewStore(100, time.Hour)
	sess := store.Create(testModel())

	if err := sess.Undo(); !errors.Is(err, ErrNothingToUndo) {
		t.Fatalf("expected ErrNothingToUndo, got %v", err)
	}
	if err := sess.Redo(); !errors.Is(err, ErrNothingToRedo) {
		t.Fatalf("expected ErrNothingToRedo, got %v", err)
	}
}

func TestUndoStackCappedAt50(t *testing.T) {
	store := NewStore(100, time.Hour)
	sess := store.Create(testModel())

	for i := 0; i < 60; i++ {
		if err := sess.UpdateNodeLabel("id-rate", "Label"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	}
	if len(sess.UndoStack) != 50 {
		t.Fatalf("expected undo stack capped at 50, got %d", len(sess.UndoStack))
	}
}

func TestNewMutationClearsRedoStack(t *testing.T) {
	store := NewStore(100, time.Hour)
	sess := store.Create(testModel())

	if err := sess.UpdateNodeLabel("id-rate", "Changed"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := sess.Undo(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(sess.RedoStack) != 1 {
		t.Fatalf("expected 1 redo entry, got %d", len(sess.RedoStack))
	}
	if err := sess.UpdateNodeLabel("id-rate", "Other"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(sess.RedoStack) != 0 {
		t.Fatalf("expected redo stack cleared, got %d entries", len(sess.RedoStack))
	}
}

func TestScopeForMergesGlobals(t *testing.T) {
	store := NewStore(100, time.Hour)
	sess := store.Create(testModel())

	syms, err := sess.ScopeFor("id-price", []string{"discount"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	names := make(map[string]bool)
	for _, s := range syms {
		names[s.Name] = true
	}
	for _, want := range []string{"rate", "tax_rate", "discount", "PI"} {
		if !names[want] {
			t.Fatalf("expected scope to contain %q, got %v", want, names)
		}
	}
	if names["price"] {
		t.Fatal("expected node's own name to be absent from its scope")
	}
}

func TestTTLExpiry(t *testing.T) {
	store := NewStore(100, time.Hour)
	sess := store.Create(testModel())

	// Simulate expiry by setting LastAccess to past
	sess.LastAccess = time.Now().Add(-2 * time.Hour)

	store.Cleanup()

	if _, ok := store.Get(sess.ID); ok {
		t.Fatal("expected expired session to be removed")
	}
}

func TestMaxSessionsEvictsOldest(t *testing.T) {
	store := NewStore(10, time.Hour)

	first := store.Create(testModel())
	first.LastAccess = time.Now().Add(-time.Minute)
	for i := 0; i < 10; i++ {
		store.Create(testModel())
	}

	if store.Len() > 10 {
		t.Fatalf("expected max 10 sessions, got %d", store.Len())
	}
	if _, ok := store.Get(first.ID); ok {
		t.Fatal("expected oldest session to be evicted")
	}
}

func TestRemoveSession(t *testing.T) {
	store := NewStore(100, time.Hour)
	sess := store.Create(testModel())

	if !store.Remove(sess.ID) {
		t.Fatal("expected Remove to report success")
	}
	if store.Remove(sess.ID) {
		t.Fatal("expected second Remove to report failure")
	}
}
