package memstore

import (
	"context"
	"sort"

	"github.com/vidtube/api/internal/store"
)

func (s *Store) UpsertUser(_ context.Context, u store.User) (*store.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.Email != "" {
		for id, other := range s.users {
			if id != u.ID && other.Email == u.Email {
				return nil, store.ErrConflict
			}
		}
	}
	now := s.now()
	if cur, ok := s.users[u.ID]; ok {
		u.CreatedAt = cur.CreatedAt
	} else {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	s.users[u.ID] = u
	return &u, nil
}

func (s *Store) subscriberCount(creatorID string) int64 {
	var n int64
	for k := range s.subscriptions {
		if k.b == creatorID {
			n++
		}
	}
	return n
}

func (s *Store) publicVideoCount(userID string) int64 {
	var n int64
	for _, v := range s.videos {
		if v.UserID == userID && v.Visibility == store.VisibilityPublic {
			n++
		}
	}
	return n
}

func (s *Store) GetUserProfile(_ context.Context, viewerID, userID string) (*store.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	_, subscribed := s.subscriptions[pair{viewerID, userID}]
	return &store.UserProfile{
		Author:           s.author(u.ID),
		CreatedAt:        u.CreatedAt,
		VideoCount:       s.publicVideoCount(u.ID),
		SubscriberCount:  s.subscriberCount(u.ID),
		ViewerSubscribed: viewerID != "" && subscribed,
	}, nil
}

func (s *Store) ListCategories(context.Context) ([]store.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) EnsureCategories(_ context.Context, cats []store.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := map[string]bool{}
	for _, c := range s.categories {
		names[c.Name] = true
	}
	for _, c := range cats {
		if names[c.Name] {
			continue
		}
		now := s.now()
		c.ID = newID()
		c.CreatedAt, c.UpdatedAt = now, now
		s.categories[c.ID] = c
		names[c.Name] = true
	}
	return nil
}
