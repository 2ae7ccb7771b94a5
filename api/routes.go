// Package api serves snipt's localhost management HTTP API.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"snipt/activity"
	"snipt/config"
	"snipt/store"
)

// Deps are the handlers' collaborators. Activity may be nil when the API
// runs without an engine in the same process.
type Deps struct {
	Store    *store.Store
	Activity *activity.Hub
	Paths    config.Paths
	Port     int
	Logger   *slog.Logger
}

func RegisterRoutes(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	r := chi.NewRouter()
	r.Use(requestLogger(d.Logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}))

	h := &handler{store: d.Store, hub: d.Activity, paths: d.Paths, port: d.Port, log: d.Logger}

	r.Get("/health", h.health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/snippets", h.listSnippets)
		r.Post("/snippets", h.addSnippet)
		r.Put("/snippets", h.updateSnippet)
		r.Delete("/snippets", h.deleteSnippet)
		r.Get("/snippet", h.getSnippet)

		r.Get("/daemon/status", h.daemonStatus)
		r.Get("/daemon/details", h.daemonDetails)

		r.Get("/activity", h.listActivity)
		r.Get("/activity/ws", h.handleWS)
	})
	return r
}

type handler struct {
	store *store.Store
	hub   *activity.Hub
	paths config.Paths
	port  int
	log   *slog.Logger
}

// requestLogger logs one line per request through slog.
func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
			)
		})
	}
}
