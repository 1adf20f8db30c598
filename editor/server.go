// ABOUTME: HTTP server struct with chi router, session store, and optional persistence
// ABOUTME: Configures all JSON API routes and wires handler methods via functional options

package editor

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/2389-research/galton/render"
	archive "github.com/2389-research/galton/store"
)

// latexCacheTTL bounds how long rendered formulas are reused before
// being re-rendered.
const latexCacheTTL = 10 * time.Minute

// ServerOption configures optional Server behavior.
type ServerOption func(*Server)

// WithArchive enables the save, load, and list endpoints backed by a
// sqlite model archive.
func WithArchive(a *archive.Store) ServerOption {
	return func(s *Server) {
		s.archive = a
	}
}

// WithAuthToken requires Bearer auth on all /api routes.
func WithAuthToken(token string) ServerOption {
	return func(s *Server) {
		s.authToken = token
	}
}

// WithGlobalContext replaces the server-wide context store, letting the
// CLI share one store between the HTTP server and the TUI.
func WithGlobalContext(ctx *ContextStore) ServerOption {
	return func(s *Server) {
		s.global = ctx
	}
}

// Server holds the chi router, the session store, and the optional
// model archive. The global context store contributes variables to
// every session's scope. The latex cache memoizes formula rendering.
type Server struct {
	router    chi.Router
	store     *Store
	archive   *archive.Store
	global    *ContextStore
	latex     *render.Cache
	authToken string
}

// NewServer creates a Server with all routes configured. Optional
// ServerOption values enable persistence, auth, and a shared context.
func NewServer(store *Store, opts ...ServerOption) *Server {
	s := &Server{
		store:  store,
		global: NewContextStore(),
		latex:  render.NewCache(render.ToLatex, latexCacheTTL),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(requestLogger)
	if s.authToken != "" {
		r.Use(AuthMiddleware(s.authToken))
	}

	r.Get("/healthz", s.handleHealth)
	r.Get("/docs", s.handleDocs)

	r.Route("/api", func(r chi.Router) {
		r.Get("/functions", s.handleFunctions)
		r.Get("/distributions", s.handleDistributions)
		r.Post("/render/latex", s.handleRenderLatex)

		r.Route("/context", func(r chi.Router) {
			r.Get("/", s.handleGlobalContext)
			r.Put("/{key}", s.handleSetGlobalContext)
			r.Delete("/{key}", s.handleRemoveGlobalContext)
		})

		r.Route("/models", func(r chi.Router) {
			r.Get("/", s.handleListModels)
			r.Post("/", s.handleCreateSession)
			r.Post("/load", s.handleLoadModel)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetModel)
				r.Post("/", s.handleRenameModel)
				r.Delete("/", s.handleCloseSession)
				r.Get("/export", s.handleExport)
				r.Post("/yaml", s.handleUpdateYAML)
				r.Get("/lint", s.handleLint)
				r.Post("/save", s.handleSaveModel)
				r.Post("/undo", s.handleUndo)
				r.Post("/redo", s.handleRedo)

				r.Get("/context", s.handleModelContext)
				r.Put("/context/{key}", s.handleSetModelContext)
				r.Delete("/context/{key}", s.handleRemoveModelContext)

				r.Post("/nodes", s.handleAddNode)
				r.Route("/nodes/{nodeID}", func(r chi.Router) {
					r.Get("/", s.handleGetNode)
					r.Post("/", s.handleUpdateNode)
					r.Delete("/", s.handleRemoveNode)
					r.Post("/name", s.handleSetName)
					r.Get("/formula", s.handleGetFormula)
					r.Post("/formula", s.handleSetFormula)
					r.Post("/check", s.handleCheckFormula)
					r.Get("/scope", s.handleScope)
					r.Get("/suggest", s.handleSuggest)
					r.Post("/dist", s.handleSetDistribution)
					r.Post("/dist/{param}", s.handleSetDistParam)
				})

				r.Post("/edges", s.handleAddEdge)
				r.Delete("/edges", s.handleRemoveEdge)
			})
		})
	})

	s.router = r
	return s
}

// ServeHTTP delegates to the chi router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
