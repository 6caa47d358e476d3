package store

import (
	"context"

	"github.com/jackc/pgx/v5"
)

func scanPlaylistRow(rows pgx.Rows) (PlaylistRow, error) {
	var p PlaylistRow
	err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt, &p.VideoCount, &p.ContainsVideo)
	return p, err
}

func (r *PostgresRepo) ListPlaylists(ctx context.Context, ownerID, videoID string, p PageRequest) (Page[PlaylistRow], error) {
	if err := p.ValidateUUIDKey(); err != nil {
		return Page[PlaylistRow]{}, err
	}
	var a args
	s := pageSpec{
		from:    "playlists p",
		where:   []string{"p.user_id = " + a.bind(ownerID)},
		updated: "p.updated_at",
		id:      "p.id",
		page:    p,
	}
	q := playlistFeedSQL(&a, videoID, s)
	return queryPage(ctx, r.pool, q, a, p.Limit, scanPlaylistRow, PlaylistRow.Key)
}

func (r *PostgresRepo) GetPlaylist(ctx context.Context, ownerID, playlistID string) (*PlaylistRow, error) {
	q := "SELECT p.id, p.user_id, p.name, p.description, p.created_at, p.updated_at,\n\t" +
		playlistVideoCount.expr("p.id") + "\n" +
		"FROM playlists p WHERE p.id = $1 AND p.user_id = $2"

	var p PlaylistRow
	err := r.pool.QueryRow(ctx, q, playlistID, ownerID).
		Scan(&p.ID, &p.UserID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt, &p.VideoCount)
	if err != nil {
		return nil, mapError("get playlist", err)
	}
	return &p, nil
}

func (r *PostgresRepo) CreatePlaylist(ctx context.Context, ownerID, name string, description *string) (*Playlist, error) {
	const q = `INSERT INTO playlists (user_id, name, description) VALUES ($1, $2, $3)
RETURNING id, user_id, name, description, created_at, updated_at`

	var p Playlist
	err := r.pool.QueryRow(ctx, q, ownerID, name, description).
		Scan(&p.ID, &p.UserID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, mapError("insert playlist", err)
	}
	return &p, nil
}

func (r *PostgresRepo) DeletePlaylist(ctx context.Context, ownerID, playlistID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM playlists WHERE id = $1 AND user_id = $2`, playlistID, ownerID)
	if err != nil {
		return mapError("delete playlist", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// lockPlaylist checks ownership and serializes membership changes of one playlist.
func lockPlaylist(ctx context.Context, tx pgx.Tx, ownerID, playlistID string) error {
	var id string
	return tx.QueryRow(ctx, `SELECT id FROM playlists WHERE id = $1 AND user_id = $2 FOR UPDATE`, playlistID, ownerID).Scan(&id)
}

// AddPlaylistVideo appends a video and moves the playlist to the top of the
// owner's list. Adding a video twice is a conflict. Removal moves it too.
func (r *PostgresRepo) AddPlaylistVideo(ctx context.Context, ownerID, playlistID, videoID string) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := lockPlaylist(ctx, tx, ownerID, playlistID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `INSERT INTO playlist_videos (playlist_id, video_id) VALUES ($1, $2)`, playlistID, videoID); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `UPDATE playlists SET updated_at = now() WHERE id = $1`, playlistID)
		return err
	})
	if err != nil {
		return mapError("add playlist video", err)
	}
	return nil
}

func (r *PostgresRepo) RemovePlaylistVideo(ctx context.Context, ownerID, playlistID, videoID string) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := lockPlaylist(ctx, tx, ownerID, playlistID); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM playlist_videos WHERE playlist_id = $1 AND video_id = $2`, playlistID, videoID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		_, err = tx.Exec(ctx, `UPDATE playlists SET updated_at = now() WHERE id = $1`, playlistID)
		return err
	})
	if err != nil {
		return mapError("remove playlist video", err)
	}
	return nil
}

// visibleTo restricts a listing to public videos and the viewer's own.
func visibleTo(a *args, viewerID string) string {
	return "(v.visibility = 'public' OR v.user_id = " + a.bind(viewerID) + ")"
}

func (r *PostgresRepo) ListPlaylistVideos(ctx context.Context, ownerID, playlistID string, p PageRequest) (Page[VideoRow], error) {
	if err := p.ValidateUUIDKey(); err != nil {
		return Page[VideoRow]{}, err
	}
	var id string
	err := r.pool.QueryRow(ctx, `SELECT id FROM playlists WHERE id = $1 AND user_id = $2`, playlistID, ownerID).Scan(&id)
	if err != nil {
		return Page[VideoRow]{}, mapError("get playlist", err)
	}
	return r.videoFeedWith(ctx, ownerID, p, func(a *args) pageSpec {
		return pageSpec{
			from:    "videos v JOIN playlist_videos m ON m.video_id = v.id AND m.playlist_id = " + a.bind(playlistID),
			where:   []string{visibleTo(a, ownerID)},
			updated: "m.updated_at",
			id:      "v.id",
		}
	})
}

func (r *PostgresRepo) ListHistory(ctx context.Context, viewerID string, p PageRequest) (Page[VideoRow], error) {
	return r.videoFeedWith(ctx, viewerID, p, func(a *args) pageSpec {
		return pageSpec{
			from:    "videos v JOIN video_views m ON m.video_id = v.id AND m.user_id = " + a.bind(viewerID),
			where:   []string{visibleTo(a, viewerID)},
			updated: "m.updated_at",
			id:      "v.id",
		}
	})
}

func (r *PostgresRepo) ListLiked(ctx context.Context, viewerID string, p PageRequest) (Page[VideoRow], error) {
	return r.videoFeedWith(ctx, viewerID, p, func(a *args) pageSpec {
		return pageSpec{
			from:    "videos v JOIN video_reactions m ON m.video_id = v.id AND m.type = 'like' AND m.user_id = " + a.bind(viewerID),
			where:   []string{visibleTo(a, viewerID)},
			updated: "m.updated_at",
			id:      "v.id",
		}
	})
}
