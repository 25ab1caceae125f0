// ABOUTME: HTTP handlers for the JSON API.
// ABOUTME: Serves the session's dataset, its statistics, leaderboard and report.

package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apierrors "github.com/2389/leadscore/internal/errors"
	"github.com/2389/leadscore/internal/export"
	"github.com/2389/leadscore/internal/leads"
	"github.com/2389/leadscore/internal/report"
	"github.com/2389/leadscore/internal/session"
)

// DatasetDeleter removes persisted datasets of a session.
type DatasetDeleter interface {
	DeleteDatasets(ctx context.Context, session string) (int64, error)
}

// Options configures the API handlers. Cache is required.
type Options struct {
	Cache    *leads.Cache
	Defaults Defaults
	Store    DatasetDeleter
	Logger   *zap.Logger
	OnScored func(n int)
}

type Handlers struct {
	cache    *leads.Cache
	defaults Defaults
	store    DatasetDeleter
	logger   *zap.Logger
	onScored func(int)
}

func NewHandlers(opts Options) *Handlers {
	h := &Handlers{
		cache:    opts.Cache,
		defaults: opts.Defaults,
		store:    opts.Store,
		logger:   opts.Logger,
		onScored: opts.OnScored,
	}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}
	if h.onScored == nil {
		h.onScored = func(int) {}
	}
	return h
}

// RegisterRoutes mounts the API on r, relative to its mount point.
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Get("/leads", h.getLeads)
	r.Get("/stats", h.getStats)
	r.Get("/top", h.getTop)
	r.Get("/report", h.getReport)
	r.Post("/score", h.score)
	r.Get("/session", h.getSession)
	r.Delete("/datasets", h.deleteDatasets)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		apierrors.WriteError(w, http.StatusNotFound, apierrors.ErrNotFound, "No API route for "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		apierrors.WriteError(w, http.StatusMethodNotAllowed, apierrors.ErrMethodNotAllowed, r.Method+" is not allowed on "+r.URL.Path)
	})
}

// dataset resolves the request's parameters and fetches the memoized dataset.
// On failure the error response has already been written.
func (h *Handlers) dataset(w http.ResponseWriter, r *http.Request) (*leads.Dataset, Params, bool) {
	p, err := ParseParams(r, h.defaults)
	if err != nil {
		apierrors.WriteDomainError(w, err)
		return nil, Params{}, false
	}
	ds, err := h.cache.Get(r.Context(), p.Key)
	if err != nil {
		h.logger.Error("dataset lookup failed", zap.String("key", p.Key.String()), zap.Error(err))
		apierrors.WriteDomainError(w, err)
		return nil, Params{}, false
	}
	return ds, p, true
}

func (h *Handlers) getLeads(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		apierrors.WriteDomainError(w, err)
		return
	}
	ds, _, ok := h.dataset(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	if format != export.FormatJSON {
		w.Header().Set("Content-Disposition", `attachment; filename="leads.`+string(format)+`"`)
	}
	if err := export.Write(w, format, ds); err != nil {
		h.logger.Warn("writing dataset failed", zap.Error(err))
	}
}

func (h *Handlers) getStats(w http.ResponseWriter, r *http.Request) {
	ds, _, ok := h.dataset(w, r)
	if !ok {
		return
	}
	writeJSON(w, ds.Stats())
}

func (h *Handlers) getTop(w http.ResponseWriter, r *http.Request) {
	ds, p, ok := h.dataset(w, r)
	if !ok {
		return
	}
	top, err := ds.Top(p.TopN)
	if err != nil {
		apierrors.WriteDomainError(w, err)
		return
	}
	writeJSON(w, map[string]any{
		"n":     p.TopN,
		"leads": top,
	})
}

func (h *Handlers) getReport(w http.ResponseWriter, r *http.Request) {
	ds, p, ok := h.dataset(w, r)
	if !ok {
		return
	}
	rep, err := report.Build(ds, p.TopN)
	if err != nil {
		apierrors.WriteDomainError(w, err)
		return
	}
	writeJSON(w, rep)
}

func (h *Handlers) getSession(w http.ResponseWriter, r *http.Request) {
	p, err := ParseParams(r, h.defaults)
	if err != nil {
		apierrors.WriteDomainError(w, err)
		return
	}
	writeJSON(w, map[string]any{
		"session": p.Key.Session,
		"seed":    p.Key.Seed,
		"count":   p.Key.Count,
		"top_n":   p.TopN,
	})
}

// deleteDatasets forgets the caller's memoized and persisted datasets.
func (h *Handlers) deleteDatasets(w http.ResponseWriter, r *http.Request) {
	id := session.FromContext(r.Context())
	if id == "" {
		apierrors.WriteError(w, http.StatusBadRequest, apierrors.ErrInvalidRequest, "No session")
		return
	}

	forgotten := h.cache.Forget(id)
	var deleted int64
	if h.store != nil {
		n, err := h.store.DeleteDatasets(r.Context(), id)
		if err != nil {
			apierrors.WriteErrorWithDetails(w, http.StatusInternalServerError, apierrors.ErrDatabaseError, "Failed to delete datasets", err.Error())
			return
		}
		deleted = n
	}
	writeJSON(w, map[string]any{
		"forgotten": forgotten,
		"deleted":   deleted,
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
