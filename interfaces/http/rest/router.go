// Package rest wires the REST surface: routing, middleware, and handler
// registration.
package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/kyle-mirich/church-fathers-reader/infrastructure/config"
	"github.com/kyle-mirich/church-fathers-reader/interfaces/http/rest/handlers"
	"github.com/kyle-mirich/church-fathers-reader/interfaces/http/rest/middleware"
)

// Router creates and configures the HTTP router
type Router struct {
	cfg           *config.Config
	authenticator *middleware.Authenticator
	notes         *handlers.NoteHandler
	highlights    *handlers.HighlightHandler
	reader        *handlers.ReaderHandler
	logger        *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	cfg *config.Config,
	authenticator *middleware.Authenticator,
	notes *handlers.NoteHandler,
	highlights *handlers.HighlightHandler,
	reader *handlers.ReaderHandler,
	logger *zap.Logger,
) *Router {
	return &Router{
		cfg:           cfg,
		authenticator: authenticator,
		notes:         notes,
		highlights:    highlights,
		reader:        reader,
		logger:        logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))

	if rt.cfg.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-Session-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// Health checks
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)

	// API v1 routes
	router.Route("/api/v1", func(r chi.Router) {
		r.Use(rt.authenticator.Middleware)

		// Note endpoints
		r.Route("/notes", func(r chi.Router) {
			r.Post("/", rt.notes.CreateNote)
			r.Get("/", rt.notes.ListNotes)
			r.Get("/{noteID}", rt.notes.GetNote)
			r.Put("/{noteID}", rt.notes.UpdateNote)
			r.Delete("/{noteID}", rt.notes.DeleteNote)
		})

		// Highlight endpoints
		r.Route("/highlights", func(r chi.Router) {
			r.Post("/", rt.highlights.CreateHighlight)
			r.Get("/", rt.highlights.ListHighlights)
			r.Get("/{highlightID}", rt.highlights.GetHighlight)
			r.Put("/{highlightID}", rt.highlights.UpdateHighlight)
			r.Delete("/{highlightID}", rt.highlights.DeleteHighlight)
		})

		// Reader content endpoints
		r.Route("/reader-data", func(r chi.Router) {
			r.Get("/", rt.reader.GetLibrary)
			r.Get("/chapters/{chapterID}", rt.reader.GetChapter)
		})
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck handles readiness check requests
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
