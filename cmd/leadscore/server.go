// ABOUTME: HTTP server assembly for the serve command.
// ABOUTME: Builds the chi router with session, logging, metrics and CORS middleware.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/2389/leadscore/internal/api"
	"github.com/2389/leadscore/internal/config"
	"github.com/2389/leadscore/internal/dashboard"
	"github.com/2389/leadscore/internal/leads"
	"github.com/2389/leadscore/internal/logging"
	"github.com/2389/leadscore/internal/metrics"
	"github.com/2389/leadscore/internal/session"
	"github.com/2389/leadscore/internal/store"
)

type server struct {
	handler http.Handler
	store   *store.Store
	cache   *leads.Cache
	metrics *metrics.Metrics
}

func newServer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*server, error) {
	s, err := store.New(cfg.DBPath, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	m := metrics.New()

	var snapshots leads.Snapshotter
	if cfg.Persist {
		snapshots = s
	}
	cache := leads.NewCache(namePool(ctx, cfg, logger), leads.CacheOptions{
		Snapshots: snapshots,
		Logger:    logger,
		OnEvent:   m.RecordCacheEvent,
	})
	m.TrackCachedDatasets(cache.Len)

	defaults := api.Defaults{Count: cfg.Count, TopN: cfg.TopN, Seed: cfg.Seed}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(m.Middleware)
	r.Use(session.Middleware)
	r.Use(logging.Middleware(s))

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"ok": true})
	})

	// Favicon
	r.Get("/favicon.ico", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	r.Method(http.MethodGet, "/metrics", m.Handler())

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
	})

	dashboard.NewHandlers(dashboard.Options{
		Cache:    cache,
		Store:    s,
		Defaults: defaults,
		Logger:   logger,
	}).RegisterRoutes(r)

	apiHandlers := api.NewHandlers(api.Options{
		Cache:    cache,
		Defaults: defaults,
		Store:    s,
		Logger:   logger,
		OnScored: m.RecordScores,
	})
	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
			MaxAge:         300,
		}))
		apiHandlers.RegisterRoutes(r)
	})

	return &server{handler: r, store: s, cache: cache, metrics: m}, nil
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *server) Close() error {
	return s.store.Close()
}
