// ABOUTME: HTTP handler methods for all JSON API endpoints
// ABOUTME: Covers session CRUD, graph mutations, formula checks, scope, suggestions, and rendering

package editor

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/2389-research/galton/formula"
	"github.com/2389-research/galton/model"
	"github.com/2389-research/galton/scope"
	archive "github.com/2389-research/galton/store"
	"github.com/2389-research/galton/suggest"
)

// maxBodySize caps request bodies at 10MB to prevent oversized uploads.
const maxBodySize = 10 << 20

type createSessionRequest struct {
	Name string `json:"name"`
	YAML string `json:"yaml"`
}

type loadRequest struct {
	ModelID string `json:"model_id"`
}

type yamlRequest struct {
	YAML string `json:"yaml"`
}

type nameRequest struct {
	Name string `json:"name"`
}

type updateNodeRequest struct {
	Label *string `json:"label"`
	Kind  *string `json:"kind"`
}

type formulaRequest struct {
	Formula string `json:"formula"`
}

type valueRequest struct {
	Value string `json:"value"`
}

type distRequest struct {
	Type string `json:"type"`
}

type edgeRequest struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// distView is the API shape of a node's distribution. Params holds
// canonical formula text; DisplayParams holds the same text with node
// references rewritten to effective names.
type distView struct {
	Type          string            `json:"type"`
	Params        map[string]string `json:"params"`
	DisplayParams map[string]string `json:"display_params"`
}

// nodeView is the API shape of one node. Formula is canonical storage
// form; DisplayFormula is what the formula bar shows.
type nodeView struct {
	ID             string         `json:"id"`
	Label          string         `json:"label"`
	CustomName     string         `json:"custom_name,omitempty"`
	Name           string         `json:"name"`
	Kind           model.NodeKind `json:"kind"`
	Formula        string         `json:"formula,omitempty"`
	DisplayFormula string         `json:"display_formula,omitempty"`
	Dist           *distView      `json:"dist,omitempty"`
}

type edgeView struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// modelView is the API shape of a whole session: document plus lint
// results. Mutation handlers return it so the canvas can redraw.
type modelView struct {
	SessionID   string             `json:"session_id"`
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Context     map[string]string  `json:"context"`
	Nodes       []nodeView         `json:"nodes"`
	Edges       []edgeView         `json:"edges"`
	Diagnostics []model.Diagnostic `json:"diagnostics"`
}

type refView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// nodeDetail extends nodeView with the node's direct neighborhood.
type nodeDetail struct {
	nodeView
	Parents  []refView `json:"parents"`
	Children []refView `json:"children"`
}

// formulaResponse pairs a validation result with rendered output.
type formulaResponse struct {
	*FormulaCheck
	Latex string `json:"latex"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("editor write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// readJSON decodes a JSON request body into dst, enforcing the body
// size limit. On failure it writes the error response and returns false.
func readJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large (max 10MB)")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// errorStatus maps session errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, ErrNodeNotFound),
		errors.Is(err, ErrEdgeNotFound),
		errors.Is(err, ErrContextKeyNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidName),
		errors.Is(err, ErrNameTaken),
		errors.Is(err, ErrUnknownKind),
		errors.Is(err, ErrUnknownDistribution),
		errors.Is(err, ErrUnknownParam),
		errors.Is(err, ErrNotStochastic),
		errors.Is(err, ErrEdgeExists),
		errors.Is(err, ErrSelfEdge):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrNothingToUndo),
		errors.Is(err, ErrNothingToRedo):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeSessionError(w http.ResponseWriter, err error) {
	writeError(w, errorStatus(err), err.Error())
}

// sessionFromRequest resolves the {id} URL parameter to a live session,
// writing a 404 when it is missing.
func (s *Server) sessionFromRequest(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	id := chi.URLParam(r, "id")
	sess, ok := s.store.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	return sess, true
}

// buildNodeView copies one node into its API shape. Caller holds the
// session read lock.
func buildNodeView(n *model.Node, idToName map[string]string) nodeView {
	v := nodeView{
		ID:         n.ID,
		Label:      n.Label,
		CustomName: n.CustomName,
		Name:       n.EffectiveName(),
		Kind:       n.Kind,
		Formula:    n.Formula,
	}
	if n.Formula != "" {
		v.DisplayFormula = formula.ToDisplay(n.Formula, idToName)
	}
	if n.Dist != nil {
		d := &distView{
			Type:          n.Dist.Type,
			Params:        make(map[string]string, len(n.Dist.Params)),
			DisplayParams: make(map[string]string, len(n.Dist.Params)),
		}
		for k, val := range n.Dist.Params {
			d.Params[k] = val
			d.DisplayParams[k] = formula.ToDisplay(val, idToName)
		}
		v.Dist = d
	}
	return v
}

// buildModelView snapshots a session into its API shape under the read
// lock, so the response can be marshaled after the lock is released.
func buildModelView(sess *Session) modelView {
	sess.RLock()
	defer sess.RUnlock()

	m := sess.Model
	idToName := m.IDToName()

	nodes := make([]nodeView, 0, len(m.Nodes))
	for _, n := range m.Nodes {
		nodes = append(nodes, buildNodeView(n, idToName))
	}
	edges := make([]edgeView, 0, len(m.Edges))
	for _, e := range m.Edges {
		edges = append(edges, edgeView{Source: e.Source, Target: e.Target})
	}
	ctx := make(map[string]string, len(m.Context))
	for k, val := range m.Context {
		ctx[k] = val
	}
	diags := sess.Diagnostics
	if diags == nil {
		diags = []model.Diagnostic{}
	}

	return modelView{
		SessionID:   sess.ID,
		ID:          m.ID,
		Name:        m.Name,
		Context:     ctx,
		Nodes:       nodes,
		Edges:       edges,
		Diagnostics: diags,
	}
}

// handleHealth reports liveness and the open session count.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.store.Len(),
	})
}

// handleFunctions returns the built-in function catalog.
func (s *Server) handleFunctions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"functions": formula.Functions(),
	})
}

// handleDistributions returns the distribution catalog with the
// parameters each type requires.
func (s *Server) handleDistributions(w http.ResponseWriter, r *http.Request) {
	type distSpec struct {
		Type   string   `json:"type"`
		Params []string `json:"params"`
	}
	types := model.DistributionTypes()
	specs := make([]distSpec, 0, len(types))
	for _, t := range types {
		specs = append(specs, distSpec{Type: t, Params: model.DistributionParams(t)})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"distributions": specs,
	})
}

// handleRenderLatex renders display formula text to LaTeX through the
// server's render cache.
func (s *Server) handleRenderLatex(w http.ResponseWriter, r *http.Request) {
	var req formulaRequest
	if !readJSON(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"formula": req.Formula,
		"latex":   s.latex.Render(req.Formula),
	})
}

// handleGlobalContext returns the server-wide context variables.
func (s *Server) handleGlobalContext(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"context": s.global.Snapshot(),
	})
}

// handleSetGlobalContext sets one server-wide context variable.
func (s *Server) handleSetGlobalContext(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if !model.ValidCustomName(key) {
		writeError(w, http.StatusUnprocessableEntity, ErrInvalidName.Error())
		return
	}
	var req valueRequest
	if !readJSON(w, r, &req) {
		return
	}
	s.global.Set(key, req.Value)
	writeJSON(w, http.StatusOK, map[string]string{
		"key":   key,
		"value": req.Value,
	})
}

// handleRemoveGlobalContext deletes one server-wide context variable.
func (s *Server) handleRemoveGlobalContext(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if !s.global.Remove(key) {
		writeError(w, http.StatusNotFound, "context key not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"removed": key,
	})
}

// handleListModels lists saved models in the archive.
func (s *Server) handleListModels(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		writeError(w, http.StatusServiceUnavailable, "persistence is not configured")
		return
	}
	summaries, err := s.archive.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if summaries == nil {
		summaries = []archive.ModelSummary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"models": summaries,
	})
}

// handleCreateSession opens a session from posted YAML or creates a
// fresh empty model.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if !readJSON(w, r, &req) {
		return
	}

	var m *model.Model
	if req.YAML != "" {
		parsed, err := model.ParseYAML([]byte(req.YAML))
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		m = parsed
		if req.Name != "" {
			m.Name = req.Name
		}
	} else {
		name := req.Name
		if name == "" {
			name = "untitled"
		}
		m = model.New(name)
	}

	sess := s.store.Create(m)
	writeJSON(w, http.StatusCreated, buildModelView(sess))
}

// handleLoadModel opens a session for a model saved in the archive.
func (s *Server) handleLoadModel(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		writeError(w, http.StatusServiceUnavailable, "persistence is not configured")
		return
	}
	var req loadRequest
	if !readJSON(w, r, &req) {
		return
	}
	m, err := s.archive.Load(req.ModelID)
	if err != nil {
		if errors.Is(err, archive.ErrNotFound) {
			writeError(w, http.StatusNotFound, "model not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	sess := s.store.Create(m)
	writeJSON(w, http.StatusCreated, buildModelView(sess))
}

// handleGetModel returns the full session state.
func (s *Server) handleGetModel(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, buildModelView(sess))
}

// handleRenameModel changes the model's name.
func (s *Server) handleRenameModel(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}
	var req nameRequest
	if !readJSON(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusUnprocessableEntity, "name is required")
		return
	}
	sess.SetName(req.Name)
	writeJSON(w, http.StatusOK, buildModelView(sess))
}

// handleCloseSession discards the in-memory session. Saved copies in
// the archive are unaffected.
func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.store.Remove(id) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"closed": id,
	})
}

// handleExport returns the model as a YAML download.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/x-yaml")
	w.Header().Set("Content-Disposition", `attachment; filename="model.yaml"`)
	_, _ = w.Write([]byte(sess.Document()))
}

// handleUpdateYAML replaces the whole document with posted YAML.
func (s *Server) handleUpdateYAML(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}
	var req yamlRequest
	if !readJSON(w, r, &req) {
		return
	}
	if err := sess.UpdateYAML(req.YAML); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, buildModelView(sess))
}

// handleLint re-runs lint and returns the diagnostics.
func (s *Server) handleLint(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}
	sess.Validate()

	sess.RLock()
	diags := sess.Diagnostics
	sess.RUnlock()
	if diags == nil {
		diags = []model.Diagnostic{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"diagnostics": diags,
	})
}

// handleSaveModel writes the current model to the archive.
func (s *Server) handleSaveModel(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		writeError(w, http.StatusServiceUnavailable, "persistence is not configured")
		return
	}
	sess, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}

	sess.RLock()
	err := s.archive.Save(sess.Model)
	modelID := sess.Model.ID
	sess.RUnlock()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"saved": modelID,
	})
}

// handleUndo restores the previous document state.
func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}
	if err := sess.Undo(); err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, buildModelView(sess))
}

// handleRedo restores a previously undone state.
func (s *Server) handleRedo(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}
	if err := sess.Redo(); err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, buildModelView(sess))
}

// handleModelContext returns the model's own context variables.
func (s *Server) handleModelContext(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}
	sess.RLock()
	ctx := make(map[string]string, len(sess.Model.Context))
	for k, v := range sess.Model.Context {
		ctx[k] = v
	}
	sess.RUnlock()
	writeJSON(w, http.StatusOK, map[string]any{
		"context": ctx,
	})
}

// handleSetModelContext sets one model context variable.
func (s *Server) handleSetModelContext(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}
	var req valueRequest
	if !readJSON(w, r, &req) {
		return
	}
	if err := sess.SetContextVar(chi.URLParam(r, "key"), req.Value); err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, buildModelView(sess))
}

// handleRemoveModelContext deletes one model context variable.
func (s *Server) handleRemoveModelContext(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}
	if err := sess.RemoveContextVar(chi.URLParam(r, "key")); err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, buildModelView(sess))
}

// handleAddNode creates a node and returns it alongside the refreshed
// model so the canvas learns the generated ID.
func (s *Server) handleAddNode(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}
	var req struct {
		Label string `json:"label"`
		Kind  string `json:"kind"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	n, err := sess.AddNode(req.Label, model.NodeKind(req.Kind))
	if err != nil {
		writeSessionError(w, err)
		return
	}

	sess.RLock()
	view := buildNodeView(n, sess.Model.IDToName())
	sess.RUnlock()
	writeJSON(w, http.StatusCreated, map[string]any{
		"node":  view,
		"model": buildModelView(sess),
	})
}

// handleGetNode returns one node with its direct neighborhood.
func (s *Server) handleGetNode(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}
	nodeID := chi.URLParam(r, "nodeID")

	sess.RLock()
	defer sess.RUnlock()

	n := sess.Model.FindNode(nodeID)
	if n == nil {
		writeError(w, http.StatusNotFound, "node not found")
		return
	}

	idToName := sess.Model.IDToName()
	detail := nodeDetail{
		nodeView: buildNodeView(n, idToName),
		Parents:  []refView{},
		Children: []refView{},
	}
	for _, p := range sess.Model.Parents(nodeID) {
		detail.Parents = append(detail.Parents, refView{ID: p.ID, Name: p.EffectiveName()})
	}
	for _, c := range sess.Model.Children(nodeID) {
		detail.Children = append(detail.Children, refView{ID: c.ID, Name: c.EffectiveName()})
	}
	writeJSON(w, http.StatusOK, detail)
}

// handleUpdateNode changes a node's label, kind, or both.
func (s *Server) handleUpdateNode(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}
	nodeID := chi.URLParam(r, "nodeID")
	var req updateNodeRequest
	if !readJSON(w, r, &req) {
		return
	}
	if req.Label == nil && req.Kind == nil {
		writeError(w, http.StatusUnprocessableEntity, "label or kind is required")
		return
	}
	if req.Label != nil {
		if err := sess.UpdateNodeLabel(nodeID, *req.Label); err != nil {
			writeSessionError(w, err)
			return
		}
	}
	if req.Kind != nil {
		if err := sess.SetNodeKind(nodeID, model.NodeKind(*req.Kind)); err != nil {
			writeSessionError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, buildModelView(sess))
}

// handleRemoveNode deletes a node and its edges.
func (s *Server) handleRemoveNode(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}
	if err := sess.RemoveNode(chi.URLParam(r, "nodeID")); err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, buildModelView(sess))
}

// handleSetName sets or clears a node's custom name. Invalid and
// colliding names come back as 422 with the model untouched.
func (s *Server) handleSetName(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}
	var req nameRequest
	if !readJSON(w, r, &req) {
		return
	}
	if err := sess.SetCustomName(chi.URLParam(r, "nodeID"), req.Name); err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, buildModelView(sess))
}

// handleGetFormula returns a node's stored formula. ?form=canonical
// yields the raw node("<id>") text; display (the default) resolves ids
// to current effective names.
func (s *Server) handleGetFormula(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}
	form := r.URL.Query().Get("form")
	if form == "" {
		form = "display"
	}
	if form != "display" && form != "canonical" {
		writeError(w, http.StatusUnprocessableEntity, "form must be display or canonical")
		return
	}

	sess.RLock()
	defer sess.RUnlock()

	n := sess.Model.FindNode(chi.URLParam(r, "nodeID"))
	if n == nil {
		writeError(w, http.StatusNotFound, "node not found")
		return
	}

	text := n.Formula
	if form == "display" {
		text = formula.ToDisplay(n.Formula, sess.Model.IDToName())
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"node_id": n.ID,
		"form":    form,
		"formula": text,
	})
}

// handleSetFormula validates and stores a node's formula. Validation
// issues ride along in the response rather than blocking storage.
func (s *Server) handleSetFormula(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}
	var req formulaRequest
	if !readJSON(w, r, &req) {
		return
	}
	check, err := sess.SetFormula(chi.URLParam(r, "nodeID"), req.Formula, s.global.Keys())
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, formulaResponse{
		FormulaCheck: check,
		Latex:        s.latex.Render(check.Display),
	})
}

// handleCheckFormula validates formula text without storing it. The
// formula bar calls this on every keystroke.
func (s *Server) handleCheckFormula(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}
	var req formulaRequest
	if !readJSON(w, r, &req) {
		return
	}
	check, err := sess.CheckFormula(chi.URLParam(r, "nodeID"), req.Formula, s.global.Keys())
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, formulaResponse{
		FormulaCheck: check,
		Latex:        s.latex.Render(check.Display),
	})
}

// handleScope returns every symbol visible to the node's formulas.
func (s *Server) handleScope(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}
	syms, err := sess.ScopeFor(chi.URLParam(r, "nodeID"), s.global.Keys())
	if err != nil {
		writeSessionError(w, err)
		return
	}
	if syms == nil {
		syms = []scope.Symbol{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"symbols": syms,
	})
}

// handleSuggest ranks completion candidates for a query. The query
// comes from ?q= directly, or from ?formula= plus ?cursor= where the
// partial token under the cursor is extracted first. ?compact=true
// selects the shorter dropdown limit and ?limit= overrides it.
func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	q := query.Get("q")
	if q == "" {
		if f := query.Get("formula"); f != "" {
			cursor := len(f)
			if cs := query.Get("cursor"); cs != "" {
				if v, err := strconv.Atoi(cs); err == nil && v >= 0 && v <= len(f) {
					cursor = v
				}
			}
			q = formula.PartialToken(f[:cursor])
		}
	}

	limit := suggest.DefaultMaxResults
	switch query.Get("compact") {
	case "1", "true", "yes":
		limit = suggest.CompactMaxResults
	}
	if ls := query.Get("limit"); ls != "" {
		if v, err := strconv.Atoi(ls); err == nil && v > 0 {
			limit = v
		}
	}

	syms, err := sess.ScopeFor(chi.URLParam(r, "nodeID"), s.global.Keys())
	if err != nil {
		writeSessionError(w, err)
		return
	}

	candidates := append(suggest.FromSymbols(syms), suggest.FunctionCandidates()...)
	results := suggest.Rank(q, candidates, limit)
	if results == nil {
		results = []suggest.Suggestion{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"query":       q,
		"suggestions": results,
	})
}

// handleSetDistribution switches a stochastic node's distribution type.
func (s *Server) handleSetDistribution(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}
	var req distRequest
	if !readJSON(w, r, &req) {
		return
	}
	if err := sess.SetDistribution(chi.URLParam(r, "nodeID"), req.Type); err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, buildModelView(sess))
}

// handleSetDistParam validates and stores one distribution parameter
// formula.
func (s *Server) handleSetDistParam(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}
	var req formulaRequest
	if !readJSON(w, r, &req) {
		return
	}
	check, err := sess.SetDistParam(chi.URLParam(r, "nodeID"), chi.URLParam(r, "param"), req.Formula, s.global.Keys())
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, formulaResponse{
		FormulaCheck: check,
		Latex:        s.latex.Render(check.Display),
	})
}

// handleAddEdge connects two nodes.
func (s *Server) handleAddEdge(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}
	var req edgeRequest
	if !readJSON(w, r, &req) {
		return
	}
	if err := sess.AddEdge(req.Source, req.Target); err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, buildModelView(sess))
}

// handleRemoveEdge disconnects two nodes.
func (s *Server) handleRemoveEdge(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}
	var req edgeRequest
	if !readJSON(w, r, &req) {
		return
	}
	if err := sess.RemoveEdge(req.Source, req.Target); err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, buildModelView(sess))
}
