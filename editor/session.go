// ABOUTME: Session state for one open model: the document, lint results, and undo history
// ABOUTME: Mutations snapshot the YAML document for undo and re-lint after every change

package editor

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/2389-research/galton/formula"
	"github.com/2389-research/galton/model"
	"github.com/2389-research/galton/scope"
)

// maxUndoDepth caps the undo and redo stacks per session.
const maxUndoDepth = 50

var (
	// ErrNodeNotFound is returned when a node ID does not exist in the model.
	ErrNodeNotFound = errors.New("node not found")
	// ErrEdgeNotFound is returned when removing an edge that does not exist.
	ErrEdgeNotFound = errors.New("edge not found")
	// ErrEdgeExists is returned when adding an edge that already exists.
	ErrEdgeExists = errors.New("edge already exists")
	// ErrSelfEdge is returned when an edge would connect a node to itself.
	ErrSelfEdge = errors.New("edge would connect a node to itself")
	// ErrInvalidName is returned for names that do not match the
	// identifier pattern: lowercase letters, digits, and underscores,
	// not starting with a digit.
	ErrInvalidName = errors.New("name must be lowercase letters, digits, or underscores, starting with a letter or underscore")
	// ErrNameTaken is returned when a custom name collides with another
	// node's effective name.
	ErrNameTaken = errors.New("name is already in use")
	// ErrNotStochastic is returned for distribution operations on
	// deterministic nodes.
	ErrNotStochastic = errors.New("node is not stochastic")
	// ErrUnknownKind is returned for node kinds other than deterministic
	// and stochastic.
	ErrUnknownKind = errors.New("unknown node kind")
	// ErrUnknownDistribution is returned for distribution types outside
	// the catalog.
	ErrUnknownDistribution = errors.New("unknown distribution type")
	// ErrUnknownParam is returned when a parameter does not belong to the
	// node's distribution type.
	ErrUnknownParam = errors.New("parameter not defined for distribution")
	// ErrContextKeyNotFound is returned when removing a context variable
	// that does not exist.
	ErrContextKeyNotFound = errors.New("context key not found")
	// ErrNothingToUndo is returned when the undo stack is empty.
	ErrNothingToUndo = errors.New("nothing to undo")
	// ErrNothingToRedo is returned when the redo stack is empty.
	ErrNothingToRedo = errors.New("nothing to redo")
)

// FormulaCheck reports the outcome of validating formula text against a
// node's scope. Canonical holds the stored form with display names
// rewritten to node("<id>") references.
type FormulaCheck struct {
	Display       string          `json:"display"`
	Canonical     string          `json:"canonical"`
	Issues        []formula.Issue `json:"issues"`
	ReferencedIDs []string        `json:"referenced_ids,omitempty"`
}

// Session holds one open model being edited
type Session struct {
	mu          sync.RWMutex
	ID          string
	Model       *model.Model
	Diagnostics []model.Diagnostic
	UndoStack   []string
	RedoStack   []string
	CreatedAt   time.Time
	LastAccess  time.Time

	// doc is the YAML serialization of the current model, refreshed
	// after every mutation. Undo snapshots push this string.
	doc string
}

// newSession wraps a parsed model in a fresh session with lint results
// and an empty undo history.
func newSession(m *model.Model) *Session {
	now := time.Now()
	sess := &Session{
		ID:         uuid.New().String(),
		Model:      m,
		UndoStack:  make([]string, 0, maxUndoDepth),
		RedoStack:  make([]string, 0, maxUndoDepth),
		CreatedAt:  now,
		LastAccess: now,
	}
	sess.reserialize()
	return sess
}

// RLock locks the session for reading. Callers must call RUnlock.
func (sess *Session) RLock() {
	sess.mu.RLock()
}

// RUnlock releases a read lock acquired with RLock.
func (sess *Session) RUnlock() {
	sess.mu.RUnlock()
}

// Validate re-runs lint on the current model.
func (sess *Session) Validate() {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.Diagnostics = model.Lint(sess.Model)
}

// Document returns the YAML serialization of the current model.
func (sess *Session) Document() string {
	sess.mu.RLock()
	defer sess.mu.RUnlock()
	return sess.doc
}

// UpdateYAML replaces the whole model with a freshly parsed document.
func (sess *Session) UpdateYAML(doc string) error {
	m, err := model.ParseYAML([]byte(doc))
	if err != nil {
		return fmt.Errorf("parse error: %w", err)
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.pushUndo()
	sess.Model = m
	sess.reserialize()
	return nil
}

// Undo restores the previous model state.
func (sess *Session) Undo() error {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if len(sess.UndoStack) == 0 {
		return ErrNothingToUndo
	}

	prev := sess.UndoStack[len(sess.UndoStack)-1]
	sess.UndoStack = sess.UndoStack[:len(sess.UndoStack)-1]
	sess.RedoStack = append(sess.RedoStack, sess.doc)

	m, err := model.ParseYAML([]byte(prev))
	if err != nil {
		return fmt.Errorf("restore previous state: %w", err)
	}

	sess.Model = m
	sess.doc = prev
	sess.Diagnostics = model.Lint(m)
	return nil
}

// Redo restores a previously undone state.
func (sess *Session) Redo() error {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if len(sess.RedoStack) == 0 {
		return ErrNothingToRedo
	}

	next := sess.RedoStack[len(sess.RedoStack)-1]
	sess.RedoStack = sess.RedoStack[:len(sess.RedoStack)-1]

	sess.UndoStack = append(sess.UndoStack, sess.doc)
	if len(sess.UndoStack) > maxUndoDepth {
		sess.UndoStack = sess.UndoStack[1:]
	}

	m, err := model.ParseYAML([]byte(next))
	if err != nil {
		return fmt.Errorf("restore next state: %w", err)
	}

	sess.Model = m
	sess.doc = next
	sess.Diagnostics = model.Lint(m)
	return nil
}

// SetName renames the model.
func (sess *Session) SetName(name string) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.pushUndo()
	sess.Model.Name = name
	sess.reserialize()
}

// AddNode appends a new node with a generated ID. A blank kind defaults
// to deterministic; stochastic nodes start with a normal distribution.
func (sess *Session) AddNode(label string, kind model.NodeKind) (*model.Node, error) {
	if kind == "" {
		kind = model.KindDeterministic
	}
	if kind != model.KindDeterministic && kind != model.KindStochastic {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.pushUndo()
	n := &model.Node{
		ID:    model.NewNodeID(),
		Label: label,
		Kind:  kind,
	}
	if kind == model.KindStochastic {
		n.Dist = &model.Distribution{Type: "normal", Params: make(map[string]string)}
	}
	sess.Model.AddNode(n)
	sess.reserialize()
	return n, nil
}

// UpdateNodeLabel changes a node's display label. The label feeds the
// node's effective name unless a custom name is set.
func (sess *Session) UpdateNodeLabel(nodeID, label string) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	n := sess.Model.FindNode(nodeID)
	if n == nil {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, nodeID)
	}

	sess.pushUndo()
	n.Label = label
	sess.reserialize()
	return nil
}

// SetNodeKind switches a node between deterministic and stochastic.
// Switching to stochastic seeds a normal distribution when none exists;
// switching to deterministic drops the distribution.
func (sess *Session) SetNodeKind(nodeID string, kind model.NodeKind) error {
	if kind != model.KindDeterministic && kind != model.KindStochastic {
		return fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	n := sess.Model.FindNode(nodeID)
	if n == nil {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, nodeID)
	}
	if n.Kind == kind {
		return nil
	}

	sess.pushUndo()
	n.Kind = kind
	switch kind {
	case model.KindStochastic:
		if n.Dist == nil {
			n.Dist = &model.Distribution{Type: "normal", Params: make(map[string]string)}
		}
	case model.KindDeterministic:
		n.Dist = nil
	}
	sess.reserialize()
	return nil
}

// SetCustomName sets or clears a node's custom name. Invalid or
// colliding names are rejected without touching the model.
func (sess *Session) SetCustomName(nodeID, name string) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	n := sess.Model.FindNode(nodeID)
	if n == nil {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, nodeID)
	}

	if name == "" {
		if n.CustomName == "" {
			return nil
		}
		sess.pushUndo()
		n.CustomName = ""
		sess.reserialize()
		return nil
	}

	if !model.ValidCustomName(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if sess.Model.NameTaken(name, nodeID) {
		return fmt.Errorf("%w: %q", ErrNameTaken, name)
	}

	sess.pushUndo()
	n.CustomName = name
	sess.reserialize()
	return nil
}

// RemoveNode deletes a node and every edge touching it.
func (sess *Session) RemoveNode(nodeID string) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.Model.FindNode(nodeID) == nil {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, nodeID)
	}

	sess.pushUndo()
	sess.Model.RemoveNode(nodeID)
	sess.reserialize()
	return nil
}

// AddEdge connects source to target. Both endpoints must exist, the
// edge must not already exist, and self-loops are rejected. Cycles are
// allowed here and surfaced by lint instead.
func (sess *Session) AddEdge(source, target string) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if source == target {
		return fmt.Errorf("%w: %s", ErrSelfEdge, source)
	}
	if sess.Model.FindNode(source) == nil {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, source)
	}
	if sess.Model.FindNode(target) == nil {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, target)
	}
	if sess.Model.HasEdge(source, target) {
		return fmt.Errorf("%w: %s->%s", ErrEdgeExists, source, target)
	}

	sess.pushUndo()
	sess.Model.AddEdge(source, target)
	sess.reserialize()
	return nil
}

// RemoveEdge deletes the edge from source to target.
func (sess *Session) RemoveEdge(source, target string) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if !sess.Model.HasEdge(source, target) {
		return fmt.Errorf("%w: %s->%s", ErrEdgeNotFound, source, target)
	}

	sess.pushUndo()
	sess.Model.RemoveEdge(source, target)
	sess.reserialize()
	return nil
}

// SetContextVar sets a model-level context variable. The key must be a
// valid identifier so formulas can reference it.
func (sess *Session) SetContextVar(key, value string) error {
	if !model.ValidCustomName(key) {
		return fmt.Errorf("%w: %q", ErrInvalidName, key)
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.pushUndo()
	if sess.Model.Context == nil {
		sess.Model.Context = make(map[string]string)
	}
	sess.Model.Context[key] = value
	sess.reserialize()
	return nil
}

// RemoveContextVar deletes a model-level context variable.
func (sess *Session) RemoveContextVar(key string) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if _, ok := sess.Model.Context[key]; !ok {
		return fmt.Errorf("%w: %s", ErrContextKeyNotFound, key)
	}

	sess.pushUndo()
	delete(sess.Model.Context, key)
	sess.reserialize()
	return nil
}

// CheckFormula validates display text against a node's scope without
// storing anything. Used for per-keystroke feedback.
func (sess *Session) CheckFormula(nodeID, display string, globalKeys []string) (*FormulaCheck, error) {
	sess.mu.RLock()
	defer sess.mu.RUnlock()

	n := sess.Model.FindNode(nodeID)
	if n == nil {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, nodeID)
	}
	return sess.checkLocked(n, display, globalKeys), nil
}

// SetFormula validates display text and stores its canonical form on the
// node. Validation issues do not block storage; they ride along in the
// returned FormulaCheck so the canvas can mark the node.
func (sess *Session) SetFormula(nodeID, display string, globalKeys []string) (*FormulaCheck, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	n := sess.Model.FindNode(nodeID)
	if n == nil {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, nodeID)
	}

	check := sess.checkLocked(n, display, globalKeys)
	sess.pushUndo()
	n.Formula = check.Canonical
	sess.reserialize()
	return check, nil
}

// SetDistribution switches a stochastic node's distribution type and
// resets its parameters.
func (sess *Session) SetDistribution(nodeID, distType string) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	n := sess.Model.FindNode(nodeID)
	if n == nil {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, nodeID)
	}
	if n.Kind != model.KindStochastic {
		return fmt.Errorf("%w: %s", ErrNotStochastic, nodeID)
	}
	if !model.KnownDistribution(distType) {
		return fmt.Errorf("%w: %q", ErrUnknownDistribution, distType)
	}
	if n.Dist != nil && n.Dist.Type == distType {
		return nil
	}

	sess.pushUndo()
	n.Dist = &model.Distribution{Type: distType, Params: make(map[string]string)}
	sess.reserialize()
	return nil
}

// SetDistParam validates display text for one distribution parameter and
// stores its canonical form. Parameter formulas see the same scope as
// the node's own formula.
func (sess *Session) SetDistParam(nodeID, param, display string, globalKeys []string) (*FormulaCheck, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	n := sess.Model.FindNode(nodeID)
	if n == nil {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, nodeID)
	}
	if n.Kind != model.KindStochastic || n.Dist == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotStochastic, nodeID)
	}

	allowed := false
	for _, p := range model.DistributionParams(n.Dist.Type) {
		if p == param {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, fmt.Errorf("%w: %q for %s", ErrUnknownParam, param, n.Dist.Type)
	}

	check := sess.checkLocked(n, display, globalKeys)
	sess.pushUndo()
	if n.Dist.Params == nil {
		n.Dist.Params = make(map[string]string)
	}
	n.Dist.Params[param] = check.Canonical
	sess.reserialize()
	return check, nil
}

// ScopeFor returns every symbol visible to the node's formulas. Global
// context keys are merged with the model's own context.
func (sess *Session) ScopeFor(nodeID string, globalKeys []string) ([]scope.Symbol, error) {
	sess.mu.RLock()
	defer sess.mu.RUnlock()

	if sess.Model.FindNode(nodeID) == nil {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, nodeID)
	}
	return scope.Resolve(sess.Model, nodeID, sess.contextKeysLocked(globalKeys)), nil
}

// checkLocked runs validation and canonical translation for one node.
// Caller holds at least a read lock.
func (sess *Session) checkLocked(n *model.Node, display string, globalKeys []string) *FormulaCheck {
	syms := scope.Resolve(sess.Model, n.ID, sess.contextKeysLocked(globalKeys))
	issues := formula.Check(display, scope.NameSet(syms))
	if issues == nil {
		issues = []formula.Issue{}
	}

	nameToID := make(map[string]string)
	for _, s := range syms {
		if s.Kind == scope.KindNode {
			nameToID[s.Name] = s.NodeID
		}
	}
	canonical := formula.ToCanonical(display, nameToID)

	return &FormulaCheck{
		Display:       display,
		Canonical:     canonical,
		Issues:        issues,
		ReferencedIDs: formula.ReferencedIDs(canonical),
	}
}

// contextKeysLocked merges global context keys with the model's own.
// Caller holds at least a read lock.
func (sess *Session) contextKeysLocked(globalKeys []string) []string {
	keys := append([]string(nil), globalKeys...)
	for k := range sess.Model.Context {
		keys = append(keys, k)
	}
	return keys
}

// pushUndo saves the current document to the undo stack and clears the
// redo stack. Caller holds the write lock.
func (sess *Session) pushUndo() {
	sess.UndoStack = append(sess.UndoStack, sess.doc)
	if len(sess.UndoStack) > maxUndoDepth {
		sess.UndoStack = sess.UndoStack[1:]
	}
	sess.RedoStack = nil
}

// reserialize refreshes the YAML document and diagnostics after a
// mutation. Caller holds the write lock.
func (sess *Session) reserialize() {
	if doc, err := model.EncodeYAML(sess.Model); err == nil {
		sess.doc = string(doc)
	}
	sess.Diagnostics = model.Lint(sess.Model)
}
