package api

import (
	"net/http"
	"strings"

	"github.com/vidtube/api/internal/auth"
	"github.com/vidtube/api/internal/store"
	"github.com/vidtube/api/internal/util"
)

type createCommentReq struct {
	Content  string  `json:"content" validate:"required,max=5000"`
	ParentID *string `json:"parentId" validate:"omitempty,uuid"`
}

func (h *handlers) ListComments(w http.ResponseWriter, r *http.Request) {
	videoID, ok := pathUUID(w, r, "videoID")
	if !ok {
		return
	}
	p, ok := h.page(w, r)
	if !ok {
		return
	}
	parentID, ok := queryUUID(w, r, "parentId")
	if !ok {
		return
	}
	f := store.CommentFilter{VideoID: videoID}
	if parentID != "" {
		f.ParentID = &parentID
	}
	page, err := h.repo.ListComments(r.Context(), auth.ViewerID(r.Context()), f, p)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	if page.Items == nil {
		page.Items = []store.CommentRow{}
	}
	h.metrics.PageItems.WithLabelValues(routePattern(r)).Observe(float64(len(page.Items)))
	h.writeResult(w, r, http.StatusOK, page, nil)
}

func (h *handlers) CreateComment(w http.ResponseWriter, r *http.Request) {
	videoID, ok := pathUUID(w, r, "videoID")
	if !ok {
		return
	}
	var req createCommentReq
	if !h.decode(w, r, &req) {
		return
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		util.WriteError(w, http.StatusBadRequest, util.CodeBadRequest, "content is required")
		return
	}
	c, err := h.repo.CreateComment(r.Context(), store.NewComment{
		VideoID:  videoID,
		UserID:   auth.ViewerID(r.Context()),
		ParentID: req.ParentID,
		Content:  content,
	})
	h.writeResult(w, r, http.StatusCreated, c, err)
}

func (h *handlers) DeleteComment(w http.ResponseWriter, r *http.Request) {
	videoID, ok := pathUUID(w, r, "videoID")
	if !ok {
		return
	}
	commentID, ok := pathUUID(w, r, "commentID")
	if !ok {
		return
	}
	if err := h.repo.DeleteComment(r.Context(), auth.ViewerID(r.Context()), videoID, commentID); err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) ToggleCommentReaction(w http.ResponseWriter, r *http.Request) {
	commentID, ok := pathUUID(w, r, "commentID")
	if !ok {
		return
	}
	var req reactionReq
	if !h.decode(w, r, &req) {
		return
	}
	t, err := h.repo.ToggleCommentReaction(r.Context(), auth.ViewerID(r.Context()), commentID, store.ReactionType(req.Type))
	h.writeResult(w, r, http.StatusOK, reactionResp{ViewerReaction: t}, err)
}
