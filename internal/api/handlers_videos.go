package api

import (
	"net/http"
	"strings"

	"github.com/vidtube/api/internal/auth"
	"github.com/vidtube/api/internal/store"
)

const defaultVideoTitle = "Untitled"

type createVideoReq struct {
	Title       string  `json:"title" validate:"max=100"`
	MuxUploadID *string `json:"muxUploadId" validate:"omitempty,min=1,max=255"`
}

type updateVideoReq struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=100"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	CategoryID  *string `json:"categoryId" validate:"omitempty,uuid"`
	Visibility  *string `json:"visibility" validate:"omitempty,oneof=public private"`
}

type reactionReq struct {
	Type string `json:"type" validate:"required,oneof=like dislike"`
}

type reactionResp struct {
	ViewerReaction *store.ReactionType `json:"viewerReaction"`
}

func (h *handlers) ListVideos(w http.ResponseWriter, r *http.Request) {
	p, ok := h.page(w, r)
	if !ok {
		return
	}
	categoryID, ok := queryUUID(w, r, "categoryId")
	if !ok {
		return
	}
	f := store.VideoFilter{CategoryID: categoryID, UserID: r.URL.Query().Get("userId")}
	page, err := h.repo.ListVideos(r.Context(), auth.ViewerID(r.Context()), f, p)
	writePage(h, w, r, page, err)
}

func (h *handlers) ListSubscribedVideos(w http.ResponseWriter, r *http.Request) {
	p, ok := h.page(w, r)
	if !ok {
		return
	}
	page, err := h.repo.ListSubscribedVideos(r.Context(), auth.ViewerID(r.Context()), p)
	writePage(h, w, r, page, err)
}

func (h *handlers) SearchVideos(w http.ResponseWriter, r *http.Request) {
	p, ok := h.page(w, r)
	if !ok {
		return
	}
	categoryID, ok := queryUUID(w, r, "categoryId")
	if !ok {
		return
	}
	f := store.SearchFilter{Query: strings.TrimSpace(r.URL.Query().Get("query")), CategoryID: categoryID}
	page, err := h.repo.SearchVideos(r.Context(), auth.ViewerID(r.Context()), f, p)
	writePage(h, w, r, page, err)
}

func (h *handlers) ListSuggestions(w http.ResponseWriter, r *http.Request) {
	videoID, ok := pathUUID(w, r, "videoID")
	if !ok {
		return
	}
	p, ok := h.page(w, r)
	if !ok {
		return
	}
	page, err := h.repo.ListSuggestions(r.Context(), auth.ViewerID(r.Context()), videoID, p)
	writePage(h, w, r, page, err)
}

func (h *handlers) GetVideo(w http.ResponseWriter, r *http.Request) {
	videoID, ok := pathUUID(w, r, "videoID")
	if !ok {
		return
	}
	v, err := h.repo.GetVideo(r.Context(), auth.ViewerID(r.Context()), videoID)
	h.writeResult(w, r, http.StatusOK, v, err)
}

func (h *handlers) ListStudioVideos(w http.ResponseWriter, r *http.Request) {
	p, ok := h.page(w, r)
	if !ok {
		return
	}
	page, err := h.repo.ListStudioVideos(r.Context(), auth.ViewerID(r.Context()), p)
	writePage(h, w, r, page, err)
}

func (h *handlers) GetStudioVideo(w http.ResponseWriter, r *http.Request) {
	videoID, ok := pathUUID(w, r, "videoID")
	if !ok {
		return
	}
	v, err := h.repo.GetStudioVideo(r.Context(), auth.ViewerID(r.Context()), videoID)
	h.writeResult(w, r, http.StatusOK, v, err)
}

func (h *handlers) CreateVideo(w http.ResponseWriter, r *http.Request) {
	var req createVideoReq
	if !h.decode(w, r, &req) {
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = defaultVideoTitle
	}
	v, err := h.repo.CreateVideo(r.Context(), store.NewVideo{
		UserID:      auth.ViewerID(r.Context()),
		Title:       title,
		MuxUploadID: req.MuxUploadID,
	})
	h.writeResult(w, r, http.StatusCreated, v, err)
}

func (h *handlers) UpdateVideo(w http.ResponseWriter, r *http.Request) {
	videoID, ok := pathUUID(w, r, "videoID")
	if !ok {
		return
	}
	var req updateVideoReq
	if !h.decode(w, r, &req) {
		return
	}
	u := store.VideoUpdate{Title: req.Title, Description: req.Description, CategoryID: req.CategoryID}
	if req.Visibility != nil {
		vis := store.Visibility(*req.Visibility)
		u.Visibility = &vis
	}
	v, err := h.repo.UpdateVideo(r.Context(), auth.ViewerID(r.Context()), videoID, u)
	h.writeResult(w, r, http.StatusOK, v, err)
}

func (h *handlers) DeleteVideo(w http.ResponseWriter, r *http.Request) {
	videoID, ok := pathUUID(w, r, "videoID")
	if !ok {
		return
	}
	if err := h.repo.DeleteVideo(r.Context(), auth.ViewerID(r.Context()), videoID); err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) RecordView(w http.ResponseWriter, r *http.Request) {
	videoID, ok := pathUUID(w, r, "videoID")
	if !ok {
		return
	}
	if err := h.repo.RecordView(r.Context(), auth.ViewerID(r.Context()), videoID); err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) ToggleVideoReaction(w http.ResponseWriter, r *http.Request) {
	videoID, ok := pathUUID(w, r, "videoID")
	if !ok {
		return
	}
	var req reactionReq
	if !h.decode(w, r, &req) {
		return
	}
	t, err := h.repo.ToggleVideoReaction(r.Context(), auth.ViewerID(r.Context()), videoID, store.ReactionType(req.Type))
	h.writeResult(w, r, http.StatusOK, reactionResp{ViewerReaction: t}, err)
}
