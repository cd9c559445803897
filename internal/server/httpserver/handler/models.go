package handler

import (
	"net/http"

	"github.com/yndnr/simsync-go/internal/core/domain"
	"github.com/yndnr/simsync-go/internal/core/service"
)

// handleListModels handles GET /models: the latest committed snapshot.
func (h *Handler) handleListModels(w http.ResponseWriter, r *http.Request) {
	src, ok := h.source(w, r)
	if !ok {
		return
	}
	snap, seq := src.ReadVersion()
	h.writeJSON(w, r, http.StatusOK, ModelsResponse{
		Seq:    seq,
		Count:  len(snap),
		Models: snap,
	})
}

// handleGetModel handles GET /models/{name}.
func (h *Handler) handleGetModel(w http.ResponseWriter, r *http.Request) {
	src, ok := h.source(w, r)
	if !ok {
		return
	}
	name := r.PathValue("name")
	snap, seq := src.ReadVersion()

	state, err := snap.Get(name)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, ModelResponse{Name: name, Seq: seq, State: state})
}

func (h *Handler) source(w http.ResponseWriter, r *http.Request) (service.SnapshotSource, bool) {
	if h.cfg.Buffer == nil {
		h.handleServiceError(w, r, domain.ErrServiceUnavailable.WithDetails("no snapshot buffer"))
		return nil, false
	}
	return h.cfg.Buffer, true
}
