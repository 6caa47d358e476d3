package memstore

import (
	"context"

	"github.com/vidtube/api/internal/store"
)

func (s *Store) findVideo(match func(store.Video) bool) (store.Video, bool) {
	for _, v := range s.videos {
		if match(v) {
			return v, true
		}
	}
	return store.Video{}, false
}

func byUpload(uploadID string) func(store.Video) bool {
	return func(v store.Video) bool { return v.MuxUploadID != nil && *v.MuxUploadID == uploadID }
}

func setIf[T any](dst **T, v *T) {
	if v != nil {
		*dst = ptr(*v)
	}
}

func (s *Store) UpdateAssetByUpload(_ context.Context, uploadID string, u store.AssetUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.findVideo(byUpload(uploadID))
	if !ok {
		return store.ErrNotFound
	}
	setIf(&v.MuxStatus, u.MuxStatus)
	setIf(&v.MuxAssetID, u.MuxAssetID)
	setIf(&v.MuxPlaybackID, u.MuxPlaybackID)
	setIf(&v.ThumbnailURL, u.ThumbnailURL)
	setIf(&v.PreviewURL, u.PreviewURL)
	if u.DurationMS != nil {
		v.DurationMS = *u.DurationMS
	}
	s.videos[v.ID] = v
	return nil
}

func (s *Store) UpdateTrackByAsset(_ context.Context, assetID, trackID, trackStatus string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.findVideo(func(v store.Video) bool { return v.MuxAssetID != nil && *v.MuxAssetID == assetID })
	if !ok {
		return store.ErrNotFound
	}
	v.MuxTrackID = ptr(trackID)
	v.MuxTrackStatus = ptr(trackStatus)
	s.videos[v.ID] = v
	return nil
}

func (s *Store) DeleteVideoByUpload(_ context.Context, uploadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.findVideo(byUpload(uploadID))
	if !ok {
		return store.ErrNotFound
	}
	s.deleteVideoLocked(v.ID)
	return nil
}
