package memstore

import (
	"context"

	"github.com/vidtube/api/internal/store"
)

func commentKey(c store.Comment) store.Cursor {
	return store.Cursor{ID: c.ID, UpdatedAt: c.UpdatedAt}
}

func (s *Store) ListComments(_ context.Context, viewerID string, f store.CommentFilter, p store.PageRequest) (*store.CommentPage, error) {
	if err := p.ValidateUUIDKey(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		base  []store.Comment
		total int64
	)
	for _, c := range s.comments {
		if c.VideoID != f.VideoID {
			continue
		}
		total++
		switch {
		case f.ParentID == nil && c.ParentID == nil:
			base = append(base, c)
		case f.ParentID != nil && c.ParentID != nil && *c.ParentID == *f.ParentID:
			base = append(base, c)
		}
	}

	page := paginate(base, p, commentKey)

	// Reply counts are grouped over the comments of the page only.
	replies := map[string]int64{}
	for _, c := range page.Items {
		replies[c.ID] = 0
	}
	for _, c := range s.comments {
		if c.ParentID == nil {
			continue
		}
		if _, onPage := replies[*c.ParentID]; onPage {
			replies[*c.ParentID]++
		}
	}

	rows := mapPage(page, func(c store.Comment) store.CommentRow {
		return store.CommentRow{
			Comment:        c,
			User:           s.author(c.UserID),
			LikeCount:      countReactions(s.commentReactions, c.ID, store.ReactionLike),
			DislikeCount:   countReactions(s.commentReactions, c.ID, store.ReactionDislike),
			RepliesCount:   replies[c.ID],
			ViewerReaction: s.viewerReaction(s.commentReactions, c.ID, viewerID),
		}
	})
	return &store.CommentPage{Page: rows, TotalCount: total}, nil
}

func (s *Store) CreateComment(_ context.Context, nc store.NewComment) (*store.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if nc.ParentID != nil {
		parent, ok := s.comments[*nc.ParentID]
		if !ok || parent.VideoID != nc.VideoID || parent.ParentID != nil {
			return nil, store.ErrInvalidParent
		}
	}
	if err := s.requireLocked(nc.UserID, nc.VideoID); err != nil {
		return nil, err
	}
	now := s.now()
	c := store.Comment{
		ID:        newID(),
		VideoID:   nc.VideoID,
		UserID:    nc.UserID,
		ParentID:  nc.ParentID,
		Content:   nc.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.comments[c.ID] = c
	return &c, nil
}

func (s *Store) DeleteComment(_ context.Context, userID, videoID, commentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.comments[commentID]
	if !ok || c.VideoID != videoID || c.UserID != userID {
		return store.ErrNotFound
	}
	s.deleteCommentLocked(commentID)
	return nil
}

// deleteCommentLocked removes a comment, its replies and their reactions.
func (s *Store) deleteCommentLocked(commentID string) {
	delete(s.comments, commentID)
	for k := range s.commentReactions {
		if k.a == commentID {
			delete(s.commentReactions, k)
		}
	}
	for id, c := range s.comments {
		if c.ParentID != nil && *c.ParentID == commentID {
			s.deleteCommentLocked(id)
		}
	}
}

func (s *Store) ToggleCommentReaction(_ context.Context, viewerID, commentID string, t store.ReactionType) (*store.ReactionType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[viewerID]; !ok {
		return nil, store.ErrNotFound
	}
	if _, ok := s.comments[commentID]; !ok {
		return nil, store.ErrNotFound
	}
	return s.toggleLocked(s.commentReactions, pair{commentID, viewerID}, t), nil
}
