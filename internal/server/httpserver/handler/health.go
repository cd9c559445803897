package handler

import (
	"net/http"
	"time"

	"github.com/yndnr/simsync-go/internal/core/domain"
	"github.com/yndnr/simsync-go/internal/infra/buildinfo"
)

// handleHealth handles GET /health. It reports liveness only.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	info := buildinfo.Get()
	h.writeJSON(w, r, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Version:   info.Version,
		Commit:    info.Commit,
		GoVersion: info.GoVersion,
		Uptime:    time.Since(h.started).Truncate(time.Second).String(),
		Time:      time.Now().UTC().Format(time.RFC3339),
	})
}

// handleReady handles GET /ready: 200 once every supervised slot runs.
func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	if h.cfg.Supervisor == nil {
		h.handleServiceError(w, r, domain.ErrServiceUnavailable.WithDetails("no supervisor"))
		return
	}

	slots := make(map[string]string)
	for _, st := range h.cfg.Supervisor.Status() {
		slots[st.Name] = st.State.String()
	}

	if !h.cfg.Supervisor.Ready() {
		h.writeError(w, r, http.StatusServiceUnavailable, domain.ErrServiceUnavailable.Code,
			"workers not running", ReadyResponse{Status: "not_ready", Slots: slots})
		return
	}
	h.writeJSON(w, r, http.StatusOK, ReadyResponse{Status: "ready", Slots: slots})
}
