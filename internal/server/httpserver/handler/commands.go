package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/yndnr/simsync-go/internal/core/domain"
	"github.com/yndnr/simsync-go/internal/telemetry/logger"
)

// handleSubmitCommand handles POST /commands. The body uses the same JSON
// as WebSocket commands. 202 means queued for the next producer tick.
func (h *Handler) handleSubmitCommand(w http.ResponseWriter, r *http.Request) {
	if h.cfg.Commands == nil {
		h.handleServiceError(w, r, domain.ErrServiceUnavailable.WithDetails("commands are not accepted"))
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.cfg.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, r, http.StatusRequestEntityTooLarge, "SS-SYS-4130", "request body too large", nil)
			return
		}
		h.handleServiceError(w, r, domain.ErrBadRequest.WithDetails("unreadable body"))
		return
	}

	cmd, err := domain.ParseCommand(body)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	cmd.Source = "http:" + getRequestID(r)
	if err := h.cfg.Commands.Submit(cmd); err != nil {
		logger.L(r.Context()).Debug("command rejected", "type", cmd.Type, "model", cmd.Model, "error", err)
		h.handleServiceError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusAccepted, CommandResponse{
		Accepted: true,
		Type:     cmd.Type,
		Model:    cmd.Model,
	})
}
