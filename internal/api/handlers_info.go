package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/vidtube/api/internal/auth"
	"github.com/vidtube/api/internal/store"
	"github.com/vidtube/api/internal/util"
)

func (h *handlers) GetHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.repo.Ping(ctx); err != nil {
		h.logger.Warn("health check failed", zap.Error(err))
		util.WriteJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":       "unavailable",
			"service_time": h.now().UTC().Format(time.RFC3339),
		})
		return
	}
	util.WriteJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"store":        h.cfg.StoreDriver,
		"service_time": h.now().UTC().Format(time.RFC3339),
	})
}

func (h *handlers) ListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.repo.ListCategories(r.Context())
	if cats == nil {
		cats = []store.Category{}
	}
	h.writeResult(w, r, http.StatusOK, map[string]any{"items": cats}, err)
}

// PostMe provisions the viewer's user row from the token claims.
func (h *handlers) PostMe(w http.ResponseWriter, r *http.Request) {
	c := auth.ClaimsFrom(r.Context())
	u := store.User{ID: c.UserID, Name: c.Name, Email: c.Email}
	if u.Name == "" {
		u.Name = "Anonymous"
	}
	if c.Picture != "" {
		u.ImageURL = &c.Picture
	}
	user, err := h.repo.UpsertUser(r.Context(), u)
	h.writeResult(w, r, http.StatusOK, user, err)
}

func (h *handlers) GetUser(w http.ResponseWriter, r *http.Request) {
	profile, err := h.repo.GetUserProfile(r.Context(), auth.ViewerID(r.Context()), chi.URLParam(r, "userID"))
	h.writeResult(w, r, http.StatusOK, profile, err)
}
