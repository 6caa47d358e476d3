package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

func publicVideos(a *args, f VideoFilter) []string {
	where := []string{"v.visibility = 'public'"}
	if f.CategoryID != "" {
		where = append(where, "v.category_id = "+a.bind(f.CategoryID))
	}
	if f.UserID != "" {
		where = append(where, "v.user_id = "+a.bind(f.UserID))
	}
	return where
}

func (r *PostgresRepo) ListVideos(ctx context.Context, viewerID string, f VideoFilter, p PageRequest) (Page[VideoRow], error) {
	return r.videoFeedWith(ctx, viewerID, p, func(a *args) pageSpec {
		return pageSpec{
			from:    "videos v",
			where:   publicVideos(a, f),
			updated: "v.updated_at",
			id:      "v.id",
		}
	})
}

func (r *PostgresRepo) ListSubscribedVideos(ctx context.Context, viewerID string, p PageRequest) (Page[VideoRow], error) {
	if viewerID == "" {
		return Page[VideoRow]{}, ErrAnonymous
	}
	return r.videoFeedWith(ctx, viewerID, p, func(a *args) pageSpec {
		return pageSpec{
			from:    "videos v JOIN subscriptions s ON s.creator_id = v.user_id AND s.viewer_id = " + a.bind(viewerID),
			where:   []string{"v.visibility = 'public'"},
			updated: "v.updated_at",
			id:      "v.id",
		}
	})
}

// likePattern escapes LIKE metacharacters in q and wraps it for a substring match.
func likePattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(q) + "%"
}

func (r *PostgresRepo) SearchVideos(ctx context.Context, viewerID string, f SearchFilter, p PageRequest) (Page[VideoRow], error) {
	return r.videoFeedWith(ctx, viewerID, p, func(a *args) pageSpec {
		where := publicVideos(a, VideoFilter{CategoryID: f.CategoryID})
		if f.Query != "" {
			where = append(where, "v.title ILIKE "+a.bind(likePattern(f.Query)))
		}
		return pageSpec{from: "videos v", where: where, updated: "v.updated_at", id: "v.id"}
	})
}

func (r *PostgresRepo) ListSuggestions(ctx context.Context, viewerID, videoID string, p PageRequest) (Page[VideoRow], error) {
	if err := p.ValidateUUIDKey(); err != nil {
		return Page[VideoRow]{}, err
	}
	var categoryID *string
	err := r.pool.QueryRow(ctx, `SELECT category_id FROM videos WHERE id = $1`, videoID).Scan(&categoryID)
	if err != nil {
		return Page[VideoRow]{}, mapError("get video category", err)
	}
	return r.videoFeedWith(ctx, viewerID, p, func(a *args) pageSpec {
		f := VideoFilter{}
		if categoryID != nil {
			f.CategoryID = *categoryID
		}
		where := append(publicVideos(a, f), "v.id <> "+a.bind(videoID))
		return pageSpec{from: "videos v", where: where, updated: "v.updated_at", id: "v.id"}
	})
}

// videoFeedWith binds the pageSpec's placeholders before the decoration's.
func (r *PostgresRepo) videoFeedWith(ctx context.Context, viewerID string, p PageRequest, build func(*args) pageSpec) (Page[VideoRow], error) {
	if err := p.ValidateUUIDKey(); err != nil {
		return Page[VideoRow]{}, err
	}
	var a args
	s := build(&a)
	s.page = p
	q := videoFeedSQL(&a, viewerID, s)
	return queryPage(ctx, r.pool, q, a, p.Limit, scanVideoRow, VideoRow.Key)
}

func (r *PostgresRepo) GetVideo(ctx context.Context, viewerID, videoID string) (*VideoDetail, error) {
	var a args
	q := videoDetailSQL(&a, viewerID, videoID)

	var (
		s videoScan
		d VideoDetail
	)
	dest := append(s.rowDest(), &d.SubscriberCount, &d.ViewerSubscribed)
	if err := r.pool.QueryRow(ctx, q, a...).Scan(dest...); err != nil {
		return nil, mapError("get video", err)
	}
	d.VideoRow = s.result()
	return &d, nil
}

func (r *PostgresRepo) ListStudioVideos(ctx context.Context, ownerID string, p PageRequest) (Page[VideoRow], error) {
	return r.videoFeedWith(ctx, ownerID, p, func(a *args) pageSpec {
		return pageSpec{
			from:    "videos v",
			where:   []string{"v.user_id = " + a.bind(ownerID)},
			updated: "v.updated_at",
			id:      "v.id",
		}
	})
}

func (r *PostgresRepo) GetStudioVideo(ctx context.Context, ownerID, videoID string) (*Video, error) {
	q := "SELECT " + videoColumns("v") + " FROM videos v WHERE v.id = $1 AND v.user_id = $2"
	v, err := scanVideo(r.pool.QueryRow(ctx, q, videoID, ownerID))
	if err != nil {
		return nil, mapError("get studio video", err)
	}
	return v, nil
}

func (r *PostgresRepo) CreateVideo(ctx context.Context, nv NewVideo) (*Video, error) {
	q := `INSERT INTO videos AS v (user_id, title, mux_status, mux_upload_id)
VALUES ($1, $2, $3, $4)
RETURNING ` + videoColumns("v")
	v, err := scanVideo(r.pool.QueryRow(ctx, q, nv.UserID, nv.Title, MuxStatusWaiting, nv.MuxUploadID))
	if err != nil {
		return nil, mapError("insert video", err)
	}
	return v, nil
}

func (r *PostgresRepo) UpdateVideo(ctx context.Context, ownerID, videoID string, u VideoUpdate) (*Video, error) {
	var visibility *string
	if u.Visibility != nil {
		s := string(*u.Visibility)
		visibility = &s
	}
	q := `UPDATE videos AS v SET
  title = COALESCE($3, v.title),
  description = COALESCE($4, v.description),
  category_id = COALESCE($5::uuid, v.category_id),
  visibility = COALESCE($6::video_visibility, v.visibility),
  updated_at = now()
WHERE v.id = $1 AND v.user_id = $2
RETURNING ` + videoColumns("v")
	v, err := scanVideo(r.pool.QueryRow(ctx, q, videoID, ownerID, u.Title, u.Description, u.CategoryID, visibility))
	if err != nil {
		return nil, mapError("update video", err)
	}
	return v, nil
}

func (r *PostgresRepo) DeleteVideo(ctx context.Context, ownerID, videoID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM videos WHERE id = $1 AND user_id = $2`, videoID, ownerID)
	if err != nil {
		return mapError("delete video", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordView stores one view per viewer and video. Watching again refreshes
// the view time, which moves the video to the top of the viewer's history.
func (r *PostgresRepo) RecordView(ctx context.Context, viewerID, videoID string) error {
	const q = `INSERT INTO video_views (video_id, user_id) VALUES ($1, $2)
ON CONFLICT (video_id, user_id) DO UPDATE SET updated_at = now()`
	if _, err := r.pool.Exec(ctx, q, videoID, viewerID); err != nil {
		return mapError("insert view", err)
	}
	return nil
}

func (r *PostgresRepo) ToggleVideoReaction(ctx context.Context, viewerID, videoID string, t ReactionType) (*ReactionType, error) {
	return r.toggleReaction(ctx, "video_reactions", "video_id", videoID, viewerID, t)
}

// toggleReaction removes the viewer's reaction when it equals t and otherwise
// sets it to t.
func (r *PostgresRepo) toggleReaction(ctx context.Context, table, fk, targetID, viewerID string, t ReactionType) (*ReactionType, error) {
	var result *ReactionType
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var current string
		sel := fmt.Sprintf(`SELECT type::text FROM %s WHERE %s = $1 AND user_id = $2 FOR UPDATE`, table, fk)
		err := tx.QueryRow(ctx, sel, targetID, viewerID).Scan(&current)
		switch {
		case err == nil && ReactionType(current) == t:
			del := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND user_id = $2`, table, fk)
			_, err = tx.Exec(ctx, del, targetID, viewerID)
			return err
		case err != nil && !errors.Is(err, pgx.ErrNoRows):
			return err
		}
		up := fmt.Sprintf(`INSERT INTO %[1]s (%[2]s, user_id, type) VALUES ($1, $2, $3)
ON CONFLICT (%[2]s, user_id) DO UPDATE SET type = EXCLUDED.type, updated_at = now()`, table, fk)
		if _, err := tx.Exec(ctx, up, targetID, viewerID, string(t)); err != nil {
			return err
		}
		result = &t
		return nil
	})
	if err != nil {
		return nil, mapError("toggle reaction", err)
	}
	return result, nil
}
