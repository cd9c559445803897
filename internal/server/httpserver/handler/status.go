package handler

import (
	"net/http"
	"time"
)

// handleStatus handles GET /status. Pass ?clients=1 to list WebSocket clients.
func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		Uptime: time.Since(h.started).Truncate(time.Second).String(),
	}

	if h.cfg.Supervisor != nil {
		resp.Ready = h.cfg.Supervisor.Ready()
		resp.Slots = h.cfg.Supervisor.Status()
	}
	if h.cfg.Buffer != nil {
		stats := h.cfg.Buffer.Stats()
		resp.Buffer = &stats
	}
	if h.cfg.Inbox != nil {
		stats := h.cfg.Inbox.Stats()
		resp.Inbox = &stats
	}
	if h.cfg.Hub != nil {
		stats := h.cfg.Hub.Stats()
		resp.Hub = &stats
		if r.URL.Query().Get("clients") != "" {
			resp.Clients = h.cfg.Hub.Clients()
		}
	}

	h.writeJSON(w, r, http.StatusOK, resp)
}
