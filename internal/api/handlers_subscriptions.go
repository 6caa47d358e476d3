package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vidtube/api/internal/auth"
)

func (h *handlers) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	p, ok := h.page(w, r)
	if !ok {
		return
	}
	page, err := h.repo.ListSubscriptions(r.Context(), auth.ViewerID(r.Context()), p)
	writePage(h, w, r, page, err)
}

func (h *handlers) Subscribe(w http.ResponseWriter, r *http.Request) {
	sub, err := h.repo.Subscribe(r.Context(), auth.ViewerID(r.Context()), chi.URLParam(r, "userID"))
	h.writeResult(w, r, http.StatusOK, sub, err)
}

func (h *handlers) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Unsubscribe(r.Context(), auth.ViewerID(r.Context()), chi.URLParam(r, "userID")); err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
