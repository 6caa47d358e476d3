package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

func scanCommentRow(rows pgx.Rows) (CommentRow, error) {
	var (
		c        CommentRow
		reaction *string
	)
	err := rows.Scan(
		&c.ID, &c.VideoID, &c.UserID, &c.ParentID, &c.Content, &c.CreatedAt, &c.UpdatedAt,
		&c.User.ID, &c.User.Name, &c.User.ImageURL,
		&c.LikeCount, &c.DislikeCount, &c.RepliesCount,
		&reaction,
	)
	if err != nil {
		return CommentRow{}, err
	}
	c.ViewerReaction = reactionOf(reaction)
	return c, nil
}

func (r *PostgresRepo) ListComments(ctx context.Context, viewerID string, f CommentFilter, p PageRequest) (*CommentPage, error) {
	if err := p.ValidateUUIDKey(); err != nil {
		return nil, err
	}

	var a args
	where := []string{"c.video_id = " + a.bind(f.VideoID)}
	if f.ParentID != nil {
		where = append(where, "c.parent_id = "+a.bind(*f.ParentID))
	} else {
		where = append(where, "c.parent_id IS NULL")
	}
	s := pageSpec{from: "video_comments c", where: where, updated: "c.updated_at", id: "c.id", page: p}
	q := commentFeedSQL(&a, viewerID, s)

	page, err := queryPage(ctx, r.pool, q, a, p.Limit, scanCommentRow, CommentRow.Key)
	if err != nil {
		return nil, err
	}

	out := &CommentPage{Page: page}
	const countQ = `SELECT count(*) FROM video_comments WHERE video_id = $1`
	if err := r.pool.QueryRow(ctx, countQ, f.VideoID).Scan(&out.TotalCount); err != nil {
		return nil, mapError("count comments", err)
	}
	return out, nil
}

// CreateComment inserts a comment or a reply. A reply must target a top-level
// comment of the same video.
func (r *PostgresRepo) CreateComment(ctx context.Context, nc NewComment) (*Comment, error) {
	var c Comment
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if nc.ParentID != nil {
			var (
				videoID     string
				grandparent *string
			)
			err := tx.QueryRow(ctx, `SELECT video_id, parent_id FROM video_comments WHERE id = $1`, *nc.ParentID).
				Scan(&videoID, &grandparent)
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrInvalidParent
			}
			if err != nil {
				return err
			}
			if videoID != nc.VideoID || grandparent != nil {
				return ErrInvalidParent
			}
		}

		const q = `INSERT INTO video_comments (video_id, user_id, parent_id, content)
VALUES ($1, $2, $3, $4)
RETURNING id, video_id, user_id, parent_id, content, created_at, updated_at`
		return tx.QueryRow(ctx, q, nc.VideoID, nc.UserID, nc.ParentID, nc.Content).
			Scan(&c.ID, &c.VideoID, &c.UserID, &c.ParentID, &c.Content, &c.CreatedAt, &c.UpdatedAt)
	})
	if err != nil {
		return nil, mapError("insert comment", err)
	}
	return &c, nil
}

func (r *PostgresRepo) DeleteComment(ctx context.Context, userID, videoID, commentID string) error {
	const q = `DELETE FROM video_comments WHERE id = $1 AND video_id = $2 AND user_id = $3`
	tag, err := r.pool.Exec(ctx, q, commentID, videoID, userID)
	if err != nil {
		return mapError("delete comment", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) ToggleCommentReaction(ctx context.Context, viewerID, commentID string, t ReactionType) (*ReactionType, error) {
	return r.toggleReaction(ctx, "comment_reactions", "comment_id", commentID, viewerID, t)
}
