package memstore

import (
	"context"
	"time"

	"github.com/vidtube/api/internal/store"
)

func (s *Store) playlistRow(p store.Playlist, videoID string) store.PlaylistRow {
	_, contains := s.playlistVideos[pair{p.ID, videoID}]
	return store.PlaylistRow{
		Playlist:      p,
		VideoCount:    countByFirst(s.playlistVideos, p.ID),
		ContainsVideo: videoID != "" && contains,
	}
}

func playlistKey(p store.Playlist) store.Cursor {
	return store.Cursor{ID: p.ID, UpdatedAt: p.UpdatedAt}
}

func (s *Store) ListPlaylists(_ context.Context, ownerID, videoID string, p store.PageRequest) (store.Page[store.PlaylistRow], error) {
	if err := p.ValidateUUIDKey(); err != nil {
		return store.Page[store.PlaylistRow]{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var base []store.Playlist
	for _, pl := range s.playlists {
		if pl.UserID == ownerID {
			base = append(base, pl)
		}
	}
	page := paginate(base, p, playlistKey)
	return mapPage(page, func(pl store.Playlist) store.PlaylistRow {
		return s.playlistRow(pl, videoID)
	}), nil
}

func (s *Store) ownedPlaylist(ownerID, playlistID string) (store.Playlist, error) {
	pl, ok := s.playlists[playlistID]
	if !ok || pl.UserID != ownerID {
		return store.Playlist{}, store.ErrNotFound
	}
	return pl, nil
}

func (s *Store) GetPlaylist(_ context.Context, ownerID, playlistID string) (*store.PlaylistRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pl, err := s.ownedPlaylist(ownerID, playlistID)
	if err != nil {
		return nil, err
	}
	row := s.playlistRow(pl, "")
	return &row, nil
}

func (s *Store) CreatePlaylist(_ context.Context, ownerID, name string, description *string) (*store.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[ownerID]; !ok {
		return nil, store.ErrNotFound
	}
	now := s.now()
	pl := store.Playlist{
		ID:          newID(),
		UserID:      ownerID,
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.playlists[pl.ID] = pl
	return &pl, nil
}

func (s *Store) DeletePlaylist(_ context.Context, ownerID, playlistID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.ownedPlaylist(ownerID, playlistID); err != nil {
		return err
	}
	delete(s.playlists, playlistID)
	for k := range s.playlistVideos {
		if k.a == playlistID {
			delete(s.playlistVideos, k)
		}
	}
	return nil
}

func (s *Store) AddPlaylistVideo(_ context.Context, ownerID, playlistID, videoID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pl, err := s.ownedPlaylist(ownerID, playlistID)
	if err != nil {
		return err
	}
	if _, ok := s.videos[videoID]; !ok {
		return store.ErrNotFound
	}
	k := pair{playlistID, videoID}
	if _, ok := s.playlistVideos[k]; ok {
		return store.ErrConflict
	}
	now := s.now()
	s.playlistVideos[k] = stamp{created: now, updated: now}
	pl.UpdatedAt = now
	s.playlists[playlistID] = pl
	return nil
}

func (s *Store) RemovePlaylistVideo(_ context.Context, ownerID, playlistID, videoID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pl, err := s.ownedPlaylist(ownerID, playlistID)
	if err != nil {
		return err
	}
	k := pair{playlistID, videoID}
	if _, ok := s.playlistVideos[k]; !ok {
		return store.ErrNotFound
	}
	delete(s.playlistVideos, k)
	pl.UpdatedAt = s.now()
	s.playlists[playlistID] = pl
	return nil
}

func (s *Store) ListPlaylistVideos(_ context.Context, ownerID, playlistID string, p store.PageRequest) (store.Page[store.VideoRow], error) {
	if err := p.ValidateUUIDKey(); err != nil {
		return store.Page[store.VideoRow]{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, err := s.ownedPlaylist(ownerID, playlistID); err != nil {
		return store.Page[store.VideoRow]{}, err
	}
	var base []listed
	for k, st := range s.playlistVideos {
		if k.a == playlistID {
			base = s.appendVisible(base, k.b, st.updated, ownerID)
		}
	}
	return s.videoFeed(base, ownerID, p), nil
}

func (s *Store) ListHistory(_ context.Context, viewerID string, p store.PageRequest) (store.Page[store.VideoRow], error) {
	if err := p.ValidateUUIDKey(); err != nil {
		return store.Page[store.VideoRow]{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var base []listed
	for k, st := range s.views {
		if k.b == viewerID {
			base = s.appendVisible(base, k.a, st.updated, viewerID)
		}
	}
	return s.videoFeed(base, viewerID, p), nil
}

func (s *Store) ListLiked(_ context.Context, viewerID string, p store.PageRequest) (store.Page[store.VideoRow], error) {
	if err := p.ValidateUUIDKey(); err != nil {
		return store.Page[store.VideoRow]{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var base []listed
	for k, r := range s.videoReactions {
		if k.b == viewerID && r.t == store.ReactionLike {
			base = s.appendVisible(base, k.a, r.updated, viewerID)
		}
	}
	return s.videoFeed(base, viewerID, p), nil
}

// appendVisible adds the video when it is public or owned by viewerID.
func (s *Store) appendVisible(base []listed, videoID string, at time.Time, viewerID string) []listed {
	v, ok := s.videos[videoID]
	if !ok || (v.Visibility != store.VisibilityPublic && v.UserID != viewerID) {
		return base
	}
	return append(base, listed{video: v, at: at})
}
