package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/reslab/paperlens/internal/api"
	"github.com/reslab/paperlens/internal/api/handlers"
	"github.com/reslab/paperlens/internal/api/middleware"
)

type RouterConfig struct {
	PaperHandler   *handlers.PaperHandler
	RunHandler     *handlers.RunHandler
	CompareHandler *handlers.CompareHandler
	ChatHandler    *handlers.ChatHandler
	ReportHandler  *handlers.ReportHandler

	// UploadLimiter guards POST /papers. Optional.
	UploadLimiter *middleware.UploadRateLimiter

	// MaxUploadBytes bounds the upload request body. JSON endpoints get a
	// much smaller cap.
	MaxUploadBytes int64
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxJSONBodyBytes int64 = 1 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/papers", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.MaxBodyBytes(cfg.MaxUploadBytes))
			if cfg.UploadLimiter != nil {
				r.Use(cfg.UploadLimiter.Handler)
			}
			r.Post("/", cfg.PaperHandler.Upload)
		})

		r.Get("/", cfg.PaperHandler.List)
		r.Get("/{id}", cfg.PaperHandler.Get)
		r.Get("/{id}/citations", cfg.PaperHandler.Citations)
		r.Get("/{id}/analyses", cfg.PaperHandler.Analyses)
	})

	r.Route("/runs", func(r chi.Router) {
		r.Get("/{id}", cfg.RunHandler.Get)
		r.Get("/{id}/status", cfg.RunHandler.Status)
		r.Get("/{id}/report", cfg.ReportHandler.Download)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.MaxBodyBytes(maxJSONBodyBytes))
		r.Post("/compare", cfg.CompareHandler.Compare)
		r.Post("/chat", cfg.ChatHandler.Ask)
	})

	return r
}
