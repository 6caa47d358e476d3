package memstore

import (
	"context"
	"strings"
	"time"

	"github.com/vidtube/api/internal/store"
)

// listed is a base video row with its position in a feed.
type listed struct {
	video store.Video
	at    time.Time
}

func (l listed) key() store.Cursor {
	return store.Cursor{ID: l.video.ID, UpdatedAt: l.at}
}

func (s *Store) videoRow(v store.Video, at time.Time, viewerID string) store.VideoRow {
	var comments int64
	for _, c := range s.comments {
		if c.VideoID == v.ID {
			comments++
		}
	}
	return store.VideoRow{
		Video:          v,
		User:           s.author(v.UserID),
		ViewCount:      countByFirst(s.views, v.ID),
		LikeCount:      countReactions(s.videoReactions, v.ID, store.ReactionLike),
		DislikeCount:   countReactions(s.videoReactions, v.ID, store.ReactionDislike),
		CommentCount:   comments,
		ViewerReaction: s.viewerReaction(s.videoReactions, v.ID, viewerID),
		ListedAt:       at,
	}
}

// videoFeed pages the base rows, then decorates only the rows of the page.
func (s *Store) videoFeed(base []listed, viewerID string, p store.PageRequest) store.Page[store.VideoRow] {
	page := paginate(base, p, listed.key)
	return mapPage(page, func(l listed) store.VideoRow {
		return s.videoRow(l.video, l.at, viewerID)
	})
}

func (s *Store) filterVideos(keep func(store.Video) bool) []listed {
	var out []listed
	for _, v := range s.videos {
		if keep(v) {
			out = append(out, listed{video: v, at: v.UpdatedAt})
		}
	}
	return out
}

func matchesFilter(v store.Video, f store.VideoFilter) bool {
	if v.Visibility != store.VisibilityPublic {
		return false
	}
	if f.CategoryID != "" && (v.CategoryID == nil || *v.CategoryID != f.CategoryID) {
		return false
	}
	if f.UserID != "" && v.UserID != f.UserID {
		return false
	}
	return true
}

func (s *Store) ListVideos(_ context.Context, viewerID string, f store.VideoFilter, p store.PageRequest) (store.Page[store.VideoRow], error) {
	if err := p.ValidateUUIDKey(); err != nil {
		return store.Page[store.VideoRow]{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	base := s.filterVideos(func(v store.Video) bool { return matchesFilter(v, f) })
	return s.videoFeed(base, viewerID, p), nil
}

func (s *Store) ListSubscribedVideos(_ context.Context, viewerID string, p store.PageRequest) (store.Page[store.VideoRow], error) {
	if viewerID == "" {
		return store.Page[store.VideoRow]{}, store.ErrAnonymous
	}
	if err := p.ValidateUUIDKey(); err != nil {
		return store.Page[store.VideoRow]{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	base := s.filterVideos(func(v store.Video) bool {
		_, followed := s.subscriptions[pair{viewerID, v.UserID}]
		return followed && v.Visibility == store.VisibilityPublic
	})
	return s.videoFeed(base, viewerID, p), nil
}

func (s *Store) SearchVideos(_ context.Context, viewerID string, f store.SearchFilter, p store.PageRequest) (store.Page[store.VideoRow], error) {
	if err := p.ValidateUUIDKey(); err != nil {
		return store.Page[store.VideoRow]{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := strings.ToLower(f.Query)
	base := s.filterVideos(func(v store.Video) bool {
		return matchesFilter(v, store.VideoFilter{CategoryID: f.CategoryID}) &&
			strings.Contains(strings.ToLower(v.Title), q)
	})
	return s.videoFeed(base, viewerID, p), nil
}

func (s *Store) ListSuggestions(_ context.Context, viewerID, videoID string, p store.PageRequest) (store.Page[store.VideoRow], error) {
	if err := p.ValidateUUIDKey(); err != nil {
		return store.Page[store.VideoRow]{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	src, ok := s.videos[videoID]
	if !ok {
		return store.Page[store.VideoRow]{}, store.ErrNotFound
	}
	f := store.VideoFilter{}
	if src.CategoryID != nil {
		f.CategoryID = *src.CategoryID
	}
	base := s.filterVideos(func(v store.Video) bool {
		return v.ID != videoID && matchesFilter(v, f)
	})
	return s.videoFeed(base, viewerID, p), nil
}

func (s *Store) GetVideo(_ context.Context, viewerID, videoID string) (*store.VideoDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.videos[videoID]
	if !ok || (v.Visibility != store.VisibilityPublic && (viewerID == "" || v.UserID != viewerID)) {
		return nil, store.ErrNotFound
	}
	_, subscribed := s.subscriptions[pair{viewerID, v.UserID}]
	return &store.VideoDetail{
		VideoRow:         s.videoRow(v, v.UpdatedAt, viewerID),
		SubscriberCount:  s.subscriberCount(v.UserID),
		ViewerSubscribed: viewerID != "" && subscribed,
	}, nil
}

func (s *Store) ListStudioVideos(_ context.Context, ownerID string, p store.PageRequest) (store.Page[store.VideoRow], error) {
	if err := p.ValidateUUIDKey(); err != nil {
		return store.Page[store.VideoRow]{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	base := s.filterVideos(func(v store.Video) bool { return v.UserID == ownerID })
	return s.videoFeed(base, ownerID, p), nil
}

func (s *Store) GetStudioVideo(_ context.Context, ownerID, videoID string) (*store.Video, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.videos[videoID]
	if !ok || v.UserID != ownerID {
		return nil, store.ErrNotFound
	}
	return &v, nil
}

func (s *Store) CreateVideo(_ context.Context, nv store.NewVideo) (*store.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[nv.UserID]; !ok {
		return nil, store.ErrNotFound
	}
	if nv.MuxUploadID != nil {
		for _, v := range s.videos {
			if v.MuxUploadID != nil && *v.MuxUploadID == *nv.MuxUploadID {
				return nil, store.ErrConflict
			}
		}
	}
	now := s.now()
	v := store.Video{
		ID:          newID(),
		UserID:      nv.UserID,
		Title:       nv.Title,
		Visibility:  store.VisibilityPrivate,
		MuxStatus:   ptr(store.MuxStatusWaiting),
		MuxUploadID: nv.MuxUploadID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.videos[v.ID] = v
	return &v, nil
}

func (s *Store) UpdateVideo(_ context.Context, ownerID, videoID string, u store.VideoUpdate) (*store.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.videos[videoID]
	if !ok || v.UserID != ownerID {
		return nil, store.ErrNotFound
	}
	if u.CategoryID != nil {
		if _, ok := s.categories[*u.CategoryID]; !ok {
			return nil, store.ErrNotFound
		}
		v.CategoryID = ptr(*u.CategoryID)
	}
	if u.Title != nil {
		v.Title = *u.Title
	}
	if u.Description != nil {
		v.Description = ptr(*u.Description)
	}
	if u.Visibility != nil {
		v.Visibility = *u.Visibility
	}
	v.UpdatedAt = s.now()
	s.videos[videoID] = v
	return &v, nil
}

func (s *Store) DeleteVideo(_ context.Context, ownerID, videoID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.videos[videoID]
	if !ok || v.UserID != ownerID {
		return store.ErrNotFound
	}
	s.deleteVideoLocked(videoID)
	return nil
}

// deleteVideoLocked removes a video and every row that references it.
func (s *Store) deleteVideoLocked(videoID string) {
	delete(s.videos, videoID)
	for k := range s.views {
		if k.a == videoID {
			delete(s.views, k)
		}
	}
	for k := range s.videoReactions {
		if k.a == videoID {
			delete(s.videoReactions, k)
		}
	}
	for k := range s.playlistVideos {
		if k.b == videoID {
			delete(s.playlistVideos, k)
		}
	}
	for id, c := range s.comments {
		if c.VideoID == videoID {
			s.deleteCommentLocked(id)
		}
	}
}

func (s *Store) RecordView(_ context.Context, viewerID, videoID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireLocked(viewerID, videoID); err != nil {
		return err
	}
	now := s.now()
	k := pair{videoID, viewerID}
	st, ok := s.views[k]
	if !ok {
		st.created = now
	}
	st.updated = now
	s.views[k] = st
	return nil
}

// requireLocked reports ErrNotFound unless both the user and the video exist.
func (s *Store) requireLocked(userID, videoID string) error {
	if _, ok := s.users[userID]; !ok {
		return store.ErrNotFound
	}
	if _, ok := s.videos[videoID]; !ok {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ToggleVideoReaction(_ context.Context, viewerID, videoID string, t store.ReactionType) (*store.ReactionType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireLocked(viewerID, videoID); err != nil {
		return nil, err
	}
	return s.toggleLocked(s.videoReactions, pair{videoID, viewerID}, t), nil
}

func (s *Store) toggleLocked(m map[pair]reaction, k pair, t store.ReactionType) *store.ReactionType {
	cur, ok := m[k]
	if ok && cur.t == t {
		delete(m, k)
		return nil
	}
	now := s.now()
	if !ok {
		cur.created = now
	}
	cur.updated = now
	cur.t = t
	m[k] = cur
	return &t
}
