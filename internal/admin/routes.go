// Package admin exposes cache operations over HTTP.
package admin

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/IvanBrykalov/freshcache/cache"
)

// Controller is the subset of cache.Cache the admin routes drive.
// Any cache.Cache[V] satisfies it.
type Controller interface {
	Stats() cache.Stats
	Pending() []string
	InvalidateByPattern(substr string) int
	InvalidateByCategory(category string) int
	Clear() int
	ForceRefresh(ctx context.Context, category string) bool
	RefreshAll(ctx context.Context) map[string]bool
	Enabled() bool
	SetEnabled(on bool)
}

// Handler serves the admin endpoints.
type Handler struct {
	c   Controller
	log *slog.Logger
}

// NewHandler creates a new admin handler. A nil logger uses slog.Default.
func NewHandler(c Controller, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{c: c, log: log}
}

// NewRouter mounts the admin routes under /cache. Callers add /metrics.
func NewRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", h.Health).Methods("GET")

	r.HandleFunc("/cache/stats", h.GetStats).Methods("GET")
	r.HandleFunc("/cache/pending", h.GetPending).Methods("GET")

	// Invalidation
	r.HandleFunc("/cache/invalidate/pattern/{pattern}", h.InvalidatePattern).Methods("POST")
	r.HandleFunc("/cache/invalidate/category/{category}", h.InvalidateCategory).Methods("POST")
	r.HandleFunc("/cache/clear", h.Clear).Methods("POST")

	// Refresh
	r.HandleFunc("/cache/refresh", h.RefreshAll).Methods("POST")
	r.HandleFunc("/cache/refresh/{category}", h.Refresh).Methods("POST")

	r.HandleFunc("/cache/enabled", h.GetEnabled).Methods("GET")
	r.HandleFunc("/cache/enabled", h.PutEnabled).Methods("PUT")

	return r
}

// Health reports liveness.
// GET /health
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetStats returns a full freshness scan.
// GET /cache/stats
func (h *Handler) GetStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.c.Stats())
}

// GetPending lists categories with a refresh in flight.
// GET /cache/pending
func (h *Handler) GetPending(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"pending": h.c.Pending()})
}

// InvalidatePattern evicts keys containing the path pattern.
// POST /cache/invalidate/pattern/{pattern}
func (h *Handler) InvalidatePattern(w http.ResponseWriter, r *http.Request) {
	p := mux.Vars(r)["pattern"]
	n := h.c.InvalidateByPattern(p)
	h.log.Info("admin invalidate", "pattern", p, "removed", n)
	writeJSON(w, http.StatusOK, map[string]any{"pattern": p, "removed": n})
}

// InvalidateCategory evicts every entry tagged with the category.
// POST /cache/invalidate/category/{category}
func (h *Handler) InvalidateCategory(w http.ResponseWriter, r *http.Request) {
	cat := mux.Vars(r)["category"]
	n := h.c.InvalidateByCategory(cat)
	h.log.Info("admin invalidate", "category", cat, "removed", n)
	writeJSON(w, http.StatusOK, map[string]any{"category": cat, "removed": n})
}

// Clear evicts everything.
// POST /cache/clear
func (h *Handler) Clear(w http.ResponseWriter, _ *http.Request) {
	n := h.c.Clear()
	h.log.Info("admin clear", "removed", n)
	writeJSON(w, http.StatusOK, map[string]any{"removed": n})
}

// Refresh runs the category's refresh callback and waits for it.
// POST /cache/refresh/{category}
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	cat := mux.Vars(r)["category"]
	ok := h.c.ForceRefresh(r.Context(), cat)
	status := http.StatusOK
	if !ok {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, map[string]any{"category": cat, "ok": ok})
}

// RefreshAll refreshes every registered category.
// POST /cache/refresh
func (h *Handler) RefreshAll(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"results": h.c.RefreshAll(r.Context())})
}

type enabledBody struct {
	Enabled *bool `json:"enabled"`
}

// GetEnabled reports the pass-through switch.
// GET /cache/enabled
func (h *Handler) GetEnabled(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"enabled": h.c.Enabled()})
}

// PutEnabled flips the pass-through switch.
// PUT /cache/enabled {"enabled": false}
func (h *Handler) PutEnabled(w http.ResponseWriter, r *http.Request) {
	var body enabledBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Enabled == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": `body must be {"enabled": true|false}`})
		return
	}
	h.c.SetEnabled(*body.Enabled)
	writeJSON(w, http.StatusOK, map[string]bool{"enabled": h.c.Enabled()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
