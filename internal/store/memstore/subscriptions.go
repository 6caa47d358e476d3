package memstore

import (
	"context"

	"github.com/vidtube/api/internal/store"
)

func (s *Store) subscription(k pair) store.Subscription {
	st := s.subscriptions[k]
	return store.Subscription{ViewerID: k.a, CreatorID: k.b, CreatedAt: st.created, UpdatedAt: st.updated}
}

func (s *Store) ListSubscriptions(_ context.Context, viewerID string, p store.PageRequest) (store.Page[store.SubscriptionRow], error) {
	if viewerID == "" {
		return store.Page[store.SubscriptionRow]{}, store.ErrAnonymous
	}
	if err := p.Validate(); err != nil {
		return store.Page[store.SubscriptionRow]{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var base []store.Subscription
	for k := range s.subscriptions {
		if k.a == viewerID {
			base = append(base, s.subscription(k))
		}
	}
	page := paginate(base, p, func(sub store.Subscription) store.Cursor {
		return store.Cursor{ID: sub.CreatorID, UpdatedAt: sub.UpdatedAt}
	})
	return mapPage(page, func(sub store.Subscription) store.SubscriptionRow {
		return store.SubscriptionRow{
			Subscription:    sub,
			Creator:         s.author(sub.CreatorID),
			SubscriberCount: s.subscriberCount(sub.CreatorID),
			VideoCount:      s.publicVideoCount(sub.CreatorID),
		}
	}), nil
}

func (s *Store) Subscribe(_ context.Context, viewerID, creatorID string) (*store.Subscription, error) {
	if viewerID == creatorID {
		return nil, store.ErrSelfSubscription
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[viewerID]; !ok {
		return nil, store.ErrNotFound
	}
	if _, ok := s.users[creatorID]; !ok {
		return nil, store.ErrNotFound
	}
	k := pair{viewerID, creatorID}
	if _, ok := s.subscriptions[k]; !ok {
		now := s.now()
		s.subscriptions[k] = stamp{created: now, updated: now}
	}
	sub := s.subscription(k)
	return &sub, nil
}

func (s *Store) Unsubscribe(_ context.Context, viewerID, creatorID string) error {
	if viewerID == creatorID {
		return store.ErrSelfSubscription
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	k := pair{viewerID, creatorID}
	if _, ok := s.subscriptions[k]; !ok {
		return store.ErrNotFound
	}
	delete(s.subscriptions, k)
	return nil
}
