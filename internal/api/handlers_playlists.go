package api

import (
	"net/http"
	"strings"

	"github.com/vidtube/api/internal/auth"
	"github.com/vidtube/api/internal/util"
)

type createPlaylistReq struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
}

// ListPlaylists lists the viewer's playlists. With ?videoId each row reports
// whether it already holds that video.
func (h *handlers) ListPlaylists(w http.ResponseWriter, r *http.Request) {
	p, ok := h.page(w, r)
	if !ok {
		return
	}
	videoID, ok := queryUUID(w, r, "videoId")
	if !ok {
		return
	}
	page, err := h.repo.ListPlaylists(r.Context(), auth.ViewerID(r.Context()), videoID, p)
	writePage(h, w, r, page, err)
}

func (h *handlers) GetPlaylist(w http.ResponseWriter, r *http.Request) {
	playlistID, ok := pathUUID(w, r, "playlistID")
	if !ok {
		return
	}
	pl, err := h.repo.GetPlaylist(r.Context(), auth.ViewerID(r.Context()), playlistID)
	h.writeResult(w, r, http.StatusOK, pl, err)
}

func (h *handlers) ListPlaylistVideos(w http.ResponseWriter, r *http.Request) {
	playlistID, ok := pathUUID(w, r, "playlistID")
	if !ok {
		return
	}
	p, ok := h.page(w, r)
	if !ok {
		return
	}
	page, err := h.repo.ListPlaylistVideos(r.Context(), auth.ViewerID(r.Context()), playlistID, p)
	writePage(h, w, r, page, err)
}

func (h *handlers) ListHistory(w http.ResponseWriter, r *http.Request) {
	p, ok := h.page(w, r)
	if !ok {
		return
	}
	page, err := h.repo.ListHistory(r.Context(), auth.ViewerID(r.Context()), p)
	writePage(h, w, r, page, err)
}

func (h *handlers) ListLiked(w http.ResponseWriter, r *http.Request) {
	p, ok := h.page(w, r)
	if !ok {
		return
	}
	page, err := h.repo.ListLiked(r.Context(), auth.ViewerID(r.Context()), p)
	writePage(h, w, r, page, err)
}

func (h *handlers) CreatePlaylist(w http.ResponseWriter, r *http.Request) {
	var req createPlaylistReq
	if !h.decode(w, r, &req) {
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		util.WriteError(w, http.StatusBadRequest, util.CodeBadRequest, "name is required")
		return
	}
	pl, err := h.repo.CreatePlaylist(r.Context(), auth.ViewerID(r.Context()), name, req.Description)
	h.writeResult(w, r, http.StatusCreated, pl, err)
}

func (h *handlers) DeletePlaylist(w http.ResponseWriter, r *http.Request) {
	playlistID, ok := pathUUID(w, r, "playlistID")
	if !ok {
		return
	}
	if err := h.repo.DeletePlaylist(r.Context(), auth.ViewerID(r.Context()), playlistID); err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) AddPlaylistVideo(w http.ResponseWriter, r *http.Request) {
	h.playlistMembership(w, r, true)
}

func (h *handlers) RemovePlaylistVideo(w http.ResponseWriter, r *http.Request) {
	h.playlistMembership(w, r, false)
}

func (h *handlers) playlistMembership(w http.ResponseWriter, r *http.Request, add bool) {
	playlistID, ok := pathUUID(w, r, "playlistID")
	if !ok {
		return
	}
	videoID, ok := pathUUID(w, r, "videoID")
	if !ok {
		return
	}
	viewerID := auth.ViewerID(r.Context())
	var err error
	if add {
		err = h.repo.AddPlaylistVideo(r.Context(), viewerID, playlistID, videoID)
	} else {
		err = h.repo.RemovePlaylistVideo(r.Context(), viewerID, playlistID, videoID)
	}
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
