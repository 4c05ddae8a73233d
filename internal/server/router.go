package server

import (
	"net/http"

	"github.com/cloo-solutions/ragengine/internal/api"
	"github.com/cloo-solutions/ragengine/internal/api/handlers"
	"github.com/cloo-solutions/ragengine/internal/api/middleware"
	"github.com/go-chi/chi/v5"
)

const (
	maxJSONBodyBytes      int64 = 5 * 1024 * 1024
	DefaultMaxUploadBytes int64 = 20 * 1024 * 1024
)

type RouterConfig struct {
	// TokenValidator guards every route except /health. Nil disables auth.
	TokenValidator  middleware.TokenValidator
	ChatHandler     *handlers.ChatHandler
	IngestHandler   *handlers.IngestHandler
	DocumentHandler *handlers.DocumentHandler
	SearchHandler   *handlers.SearchHandler
	MaxUploadBytes  int64
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	uploadLimit := cfg.MaxUploadBytes
	if uploadLimit <= 0 {
		uploadLimit = DefaultMaxUploadBytes
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		if cfg.TokenValidator != nil {
			r.Use(middleware.BearerAuth(cfg.TokenValidator))
		}

		r.With(middleware.MaxBodyBytes(uploadLimit)).Post("/api/ingest", cfg.IngestHandler.Ingest)

		r.Group(func(r chi.Router) {
			r.Use(middleware.MaxBodyBytes(maxJSONBodyBytes))

			r.Post("/api/chat", cfg.ChatHandler.Chat)
			r.Post("/search", cfg.SearchHandler.Search)

			r.Route("/documents", func(r chi.Router) {
				r.Get("/", cfg.DocumentHandler.List)
				r.Delete("/{filename}", cfg.DocumentHandler.Delete)
			})
		})
	})

	return r
}
