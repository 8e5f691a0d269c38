package orchestrator

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Handler exposes the daemon status over HTTP using go-chi.
type Handler struct {
	store Store
	log   *slog.Logger
}

// NewHandler returns a Handler reading from store.
func NewHandler(store Store, log *slog.Logger) *Handler {
	return &Handler{store: store, log: log}
}

// Routes mounts the handler endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/status", h.GetStatus)
	r.Get("/healthz", h.Health)
}

// GetStatus handles GET /status with the current Snapshot as JSON.
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	snap := h.store.Snapshot()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		h.log.Debug("write status response", slog.String("error", err.Error()))
	}
}

// Health handles GET /healthz. The daemon has no degraded mode, so being able
// to answer is the whole check.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok\n"))
}
