// Package memstore is an in-process implementation of store.Repo. It follows
// the same paging and decoration rules as the Postgres store: base rows are
// filtered and paged first, then decorated.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/api/internal/store"
)

type pair struct{ a, b string }

type stamp struct {
	created time.Time
	updated time.Time
}

type reaction struct {
	stamp
	t store.ReactionType
}

// Store holds every table in maps guarded by one RWMutex.
type Store struct {
	mu  sync.RWMutex
	now func() time.Time

	users            map[string]store.User
	categories       map[string]store.Category
	videos           map[string]store.Video
	views            map[pair]stamp    // (video, user)
	videoReactions   map[pair]reaction // (video, user)
	comments         map[string]store.Comment
	commentReactions map[pair]reaction // (comment, user)
	subscriptions    map[pair]stamp    // (viewer, creator)
	playlists        map[string]store.Playlist
	playlistVideos   map[pair]stamp // (playlist, video)
}

var _ store.Repo = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithClock replaces the wall clock used for created/updated timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New returns an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		now: func() time.Time {
			return time.Now().UTC().Truncate(time.Microsecond)
		},
		users:            map[string]store.User{},
		categories:       map[string]store.Category{},
		videos:           map[string]store.Video{},
		views:            map[pair]stamp{},
		videoReactions:   map[pair]reaction{},
		comments:         map[string]store.Comment{},
		commentReactions: map[pair]reaction{},
		subscriptions:    map[pair]stamp{},
		playlists:        map[string]store.Playlist{},
		playlistVideos:   map[pair]stamp{},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Store) Ping(context.Context) error { return nil }

// paginate orders rows newest first and returns the page following p.Cursor.
func paginate[T any](rows []T, p store.PageRequest, key func(T) store.Cursor) store.Page[T] {
	sort.Slice(rows, func(i, j int) bool {
		return key(rows[j]).After(key(rows[i]))
	})
	var out []T
	for _, r := range rows {
		if p.Cursor != nil && !key(r).After(*p.Cursor) {
			continue
		}
		out = append(out, r)
		if len(out) == p.Limit+1 {
			break
		}
	}
	return store.NewPage(out, p.Limit, key)
}

func mapPage[T, U any](p store.Page[T], f func(T) U) store.Page[U] {
	out := store.Page[U]{Items: make([]U, 0, len(p.Items)), NextCursor: p.NextCursor}
	for _, it := range p.Items {
		out.Items = append(out.Items, f(it))
	}
	return out
}

func (s *Store) author(userID string) store.Author {
	u := s.users[userID]
	return store.Author{ID: u.ID, Name: u.Name, ImageURL: u.ImageURL}
}

func (s *Store) viewerReaction(m map[pair]reaction, targetID, viewerID string) *store.ReactionType {
	if viewerID == "" {
		return nil
	}
	r, ok := m[pair{targetID, viewerID}]
	if !ok {
		return nil
	}
	t := r.t
	return &t
}

func countReactions(m map[pair]reaction, targetID string, t store.ReactionType) int64 {
	var n int64
	for k, r := range m {
		if k.a == targetID && r.t == t {
			n++
		}
	}
	return n
}

func countByFirst[V any](m map[pair]V, id string) int64 {
	var n int64
	for k := range m {
		if k.a == id {
			n++
		}
	}
	return n
}

func ptr[T any](v T) *T { return &v }

func newID() string { return uuid.NewString() }
