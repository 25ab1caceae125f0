// ABOUTME: HTTP handlers for the dashboard UI pages.
// ABOUTME: Serves the lead quality dashboard and the request log browser.

package dashboard

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/2389/leadscore/internal/api"
	"github.com/2389/leadscore/internal/leads"
	"github.com/2389/leadscore/internal/logging"
	"github.com/2389/leadscore/internal/report"
	"github.com/2389/leadscore/internal/store"
)

// Options configures the dashboard. Cache and Store are required.
type Options struct {
	Cache    *leads.Cache
	Store    *store.Store
	Defaults api.Defaults
	Logger   *zap.Logger
}

type Handlers struct {
	cache    *leads.Cache
	store    *store.Store
	defaults api.Defaults
	logger   *zap.Logger
}

func NewHandlers(opts Options) *Handlers {
	h := &Handlers{
		cache:    opts.Cache,
		store:    opts.Store,
		defaults: opts.Defaults,
		logger:   opts.Logger,
	}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}
	return h
}

func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Route("/dashboard", func(r chi.Router) {
		r.Get("/", h.dashboard)
		r.Get("/logs", h.logsList)
	})
}

func (h *Handlers) dashboard(w http.ResponseWriter, r *http.Request) {
	p, err := api.ParseParams(r, h.defaults)
	if err != nil {
		h.renderError(w, http.StatusBadRequest, "Invalid dashboard parameters", err)
		return
	}

	ds, err := h.cache.Get(r.Context(), p.Key)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, leads.ErrInvalidConfiguration) {
			status = http.StatusBadRequest
		}
		h.renderError(w, status, "Could not load the dataset", err)
		return
	}

	rep, err := report.Build(ds, p.TopN)
	if err != nil {
		h.renderError(w, http.StatusBadRequest, "Could not build the report", err)
		return
	}

	h.render(w, http.StatusOK, "dashboard", map[string]any{
		"Report": rep,
		"Charts": []report.Chart{rep.ScoreByType, rep.ScoreByBounce},
	})
}

func (h *Handlers) logsList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.RequestLogQuery{
		Limit:      100,
		Section:    q.Get("section"),
		Method:     q.Get("method"),
		PathPrefix: q.Get("path"),
	}
	if sc := q.Get("status"); sc != "" {
		code, err := strconv.Atoi(sc)
		if err != nil {
			h.renderError(w, http.StatusBadRequest, "Invalid status filter", err)
			return
		}
		filter.StatusCode = code
	}

	logs, err := h.store.GetRequestLogs(&filter)
	if err != nil {
		h.renderError(w, http.StatusInternalServerError, "Could not read request logs", err)
		return
	}

	// Pretty-print JSON in request/response bodies
	for _, log := range logs {
		log.RequestBody = prettyJSON(log.RequestBody)
		log.ResponseBody = prettyJSON(log.ResponseBody)
	}

	stats, err := h.store.GetRequestLogStats()
	if err != nil {
		h.renderError(w, http.StatusInternalServerError, "Could not read request stats", err)
		return
	}

	topEndpoints, err := h.store.GetTopEndpoints(10)
	if err != nil {
		h.renderError(w, http.StatusInternalServerError, "Could not read top endpoints", err)
		return
	}

	h.render(w, http.StatusOK, "logs", map[string]any{
		"Logs":         logs,
		"Stats":        stats,
		"TopEndpoints": topEndpoints,
		"Activity":     h.sectionActivity(time.Now().Add(-24 * time.Hour)),
		"Sections":     logging.Sections,
		"Filter":       filter,
	})
}

// SectionActivity summarizes one section of the site since a point in time.
type SectionActivity struct {
	Name           string
	RequestCount   int
	ErrorRate      float64
	RecentRequests []*store.RequestLog
}

// sectionActivity tolerates store errors; a failing section shows as empty.
func (h *Handlers) sectionActivity(since time.Time) []SectionActivity {
	activity := make([]SectionActivity, 0, len(logging.Sections))
	for _, name := range logging.Sections {
		count, err := h.store.GetSectionRequestCount(name, since)
		if err != nil {
			h.logger.Warn("section request count failed", zap.String("section", name), zap.Error(err))
		}
		rate, err := h.store.GetSectionErrorRate(name, since)
		if err != nil {
			h.logger.Warn("section error rate failed", zap.String("section", name), zap.Error(err))
		}
		recent, err := h.store.GetRecentRequests(name, 5)
		if err != nil {
			h.logger.Warn("recent requests failed", zap.String("section", name), zap.Error(err))
		}
		activity = append(activity, SectionActivity{
			Name:           name,
			RequestCount:   count,
			ErrorRate:      rate,
			RecentRequests: recent,
		})
	}
	return activity
}

func (h *Handlers) render(w http.ResponseWriter, status int, page string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := renderPage(w, page, data); err != nil {
		h.logger.Error("render page failed", zap.String("page", page), zap.Error(err))
	}
}

func (h *Handlers) renderError(w http.ResponseWriter, status int, title string, err error) {
	if status >= http.StatusInternalServerError {
		h.logger.Error(title, zap.Error(err))
	}
	h.render(w, status, "error", map[string]any{
		"Title":   title,
		"Message": err.Error(),
	})
}

// prettyJSON formats JSON with indentation, or returns original string if not valid JSON
func prettyJSON(s string) string {
	if s == "" {
		return s
	}
	var obj any
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return s
	}
	formatted, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		return s
	}
	return string(formatted)
}
