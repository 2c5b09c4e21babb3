// Package web provides the HTTP server and handlers for the exoplanet
// explorer UI and its JSON API.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"io/fs"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/JonMunkholm/exoplorer/internal/config"
	"github.com/JonMunkholm/exoplorer/internal/core"
	"github.com/JonMunkholm/exoplorer/internal/files"
	"github.com/JonMunkholm/exoplorer/internal/logging"
	"github.com/JonMunkholm/exoplorer/internal/predict"
	mw "github.com/JonMunkholm/exoplorer/internal/web/middleware"
	"github.com/JonMunkholm/exoplorer/internal/web/templates"
)

//go:embed static
var staticFiles embed.FS

// Predictor classifies candidates. *predict.Client implements it.
type Predictor interface {
	Enabled() bool
	Predict(ctx context.Context, features map[string]string) (*predict.Result, error)
	PredictRows(ctx context.Context, rows []map[string]string, limit int) ([]predict.RowResult, error)
}

// Server is the HTTP server for the explorer.
type Server struct {
	cfg       *config.Config
	service   *core.Service
	files     *files.Store
	predictor Predictor
	router    *chi.Mux
	server    *http.Server
	limiters  []*rateLimiter
}

// NewServer wires routes and middleware around the given collaborators.
func NewServer(cfg *config.Config, service *core.Service, fileStore *files.Store, predictor Predictor) *Server {
	s := &Server{
		cfg:       cfg,
		service:   service,
		files:     fileStore,
		predictor: predictor,
		router:    chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	if s.cfg.Server.RequestTimeout > 0 {
		s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	}

	if len(s.cfg.Security.CORSOrigins) > 0 {
		s.router.Use(cors.New(cors.Options{
			AllowedOrigins:   s.cfg.Security.CORSOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
			AllowedHeaders:   []string{"Accept", "Content-Type", "HX-Request", "HX-Target", "HX-Trigger"},
			AllowCredentials: true,
		}).Handler)
	}

	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))

	if s.cfg.Rate.Enabled {
		s.router.Use(s.newLimiter(s.cfg.Rate.RequestsPerMinute).middleware)
	}

	s.router.Use(s.clientIdentity)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))
	s.router.Handle(files.URLPrefix+"*", http.StripPrefix(files.URLPrefix, noDirListing(http.FileServer(http.Dir(s.files.Dir())))))

	uploads := func(r chi.Router) chi.Router { return r }
	if s.cfg.Rate.Enabled {
		limit := s.newLimiter(s.cfg.Rate.UploadLimit).middleware
		uploads = func(r chi.Router) chi.Router { return r.With(limit) }
	}

	// Pages
	s.router.Get("/", s.handleDashboard)
	s.router.Get("/candidates", s.handleCandidatesPage)
	s.router.Get("/table", s.handleTablePage)
	s.router.Get("/subir", s.handleUploadPage)
	s.router.Get("/galeria", s.handleGalleryPage)
	s.router.Get("/healthz", s.handleHealth)
	s.router.NotFound(s.handleNotFound)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/fields", s.handleFields)
		r.Get("/activity", s.handleActivity)

		r.Route("/candidates", func(r chi.Router) {
			r.Post("/", s.handleCreateCandidate)
			r.Get("/", s.handleListCandidates)
			r.Delete("/", s.handleClearCandidates)
			r.Get("/export", s.handleExportCandidates)
			r.Post("/validate", s.handleValidateCandidate)
			r.Get("/{id}", s.handleGetCandidate)
			r.Delete("/{id}", s.handleDeleteCandidate)
			r.Post("/{id}/predict", s.handlePredictCandidate)
		})

		r.Route("/table", func(r chi.Router) {
			uploads(r).Post("/preview", s.handleTablePreview)
			uploads(r).Post("/", s.handleTableIngest)
			r.Get("/", s.handleGetTable)
			r.Delete("/", s.handleClearTable)
			r.Get("/export", s.handleExportTable)
			r.Get("/stats", s.handleTableStats)
			r.Post("/predict", s.handlePredictTable)
		})

		r.Route("/handoff", func(r chi.Router) {
			r.Put("/candidate", s.handlePutHandoffCandidate)
			r.Get("/candidate", s.handleTakeHandoffCandidate)
			r.Put("/candidates", s.handlePutHandoffBatch)
			r.Get("/candidates", s.handleTakeHandoffBatch)
		})

		uploads(r).Post("/upload", s.handleFileUpload)
		r.Get("/files", s.handleListFiles)
		r.Delete("/files/{filename}", s.handleDeleteFile)
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	logging.FromContext(context.Background()).Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server and its background workers.
func (s *Server) Shutdown(ctx context.Context) error {
	for _, l := range s.limiters {
		l.Stop()
	}
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(enableCSP bool) func(http.Handler) http.Handler {
	csp := "default-src 'self'; script-src 'self' https://unpkg.com; style-src 'self' 'unsafe-inline'; img-src 'self' data:; font-src 'self'"
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if enableCSP {
				w.Header().Set("Content-Security-Policy", csp)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// noDirListing hides directory indexes of the upload dir.
func noDirListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v as JSON with the given status. v is marshaled before
// any header is written so an encoding failure still becomes a 500.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		logging.FromContext(r.Context()).Error("json encode error", "path", r.URL.Path, "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"internal server error"}` + "\n"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(body, '\n'))
}

// render writes an HTML component with the given status.
func render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render error", "path", r.URL.Path, "error", err)
	}
}

// handleNotFound renders the 404 page, or JSON under /api.
func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	if wantsJSON(r) {
		writeJSON(w, r, http.StatusNotFound, ErrorResponse{Error: "not found", Message: "not found", Code: "ERR404"})
		return
	}
	render(w, r, http.StatusNotFound, templates.NotFoundPage())
}
