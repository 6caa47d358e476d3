package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepo implements Repo using PostgreSQL.
type PostgresRepo struct {
	pool *pgxpool.Pool
}

var _ Repo = (*PostgresRepo)(nil)

// NewPostgresRepo creates a new PostgresRepo.
func NewPostgresRepo(pool *pgxpool.Pool) *PostgresRepo {
	return &PostgresRepo{pool: pool}
}

func (r *PostgresRepo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// mapError translates driver errors into store sentinels. Sentinels returned
// from inside a transaction pass through unchanged.
func mapError(op string, err error) error {
	for _, s := range []error{ErrNotFound, ErrConflict, ErrInvalidParent, ErrSelfSubscription, ErrAnonymous} {
		if errors.Is(err, s) {
			return err
		}
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return ErrConflict
		case "23503":
			return ErrNotFound
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// queryPage runs a page query built with pageSpec and trims the over-fetched row.
func queryPage[T any](ctx context.Context, pool *pgxpool.Pool, q string, a args, limit int, scan func(pgx.Rows) (T, error), key func(T) Cursor) (Page[T], error) {
	rows, err := pool.Query(ctx, q, a...)
	if err != nil {
		return Page[T]{}, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var items []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return Page[T]{}, fmt.Errorf("scan: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return Page[T]{}, fmt.Errorf("rows: %w", err)
	}
	return NewPage(items, limit, key), nil
}

func reactionOf(s *string) *ReactionType {
	if s == nil {
		return nil
	}
	t := ReactionType(*s)
	return &t
}

// videoScan collects the columns of videoColumns plus the decoration added by
// videoFeedSQL.
type videoScan struct {
	row        VideoRow
	visibility string
	reaction   *string
}

func (s *videoScan) videoDest() []any {
	v := &s.row.Video
	return []any{
		&v.ID, &v.UserID, &v.Title, &v.Description, &s.visibility, &v.CategoryID,
		&v.MuxStatus, &v.MuxUploadID, &v.MuxAssetID, &v.MuxPlaybackID, &v.MuxTrackID,
		&v.MuxTrackStatus, &v.ThumbnailURL, &v.PreviewURL, &v.DurationMS, &v.CreatedAt, &v.UpdatedAt,
	}
}

func (s *videoScan) rowDest() []any {
	u := &s.row.User
	return append(s.videoDest(),
		&u.ID, &u.Name, &u.ImageURL,
		&s.row.ListedAt,
		&s.row.ViewCount, &s.row.LikeCount, &s.row.DislikeCount, &s.row.CommentCount,
		&s.reaction,
	)
}

func (s *videoScan) video() Video {
	s.row.Visibility = Visibility(s.visibility)
	return s.row.Video
}

func (s *videoScan) result() VideoRow {
	s.row.Visibility = Visibility(s.visibility)
	s.row.ViewerReaction = reactionOf(s.reaction)
	return s.row
}

func scanVideoRow(rows pgx.Rows) (VideoRow, error) {
	var s videoScan
	if err := rows.Scan(s.rowDest()...); err != nil {
		return VideoRow{}, err
	}
	return s.result(), nil
}

func scanVideo(row pgx.Row) (*Video, error) {
	var s videoScan
	if err := row.Scan(s.videoDest()...); err != nil {
		return nil, err
	}
	v := s.video()
	return &v, nil
}

// ----- categories -----

func (r *PostgresRepo) ListCategories(ctx context.Context) ([]Category, error) {
	const q = `SELECT id, name, description, created_at, updated_at FROM categories ORDER BY name`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	cats := []Category{}
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		cats = append(cats, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return cats, nil
}

func (r *PostgresRepo) EnsureCategories(ctx context.Context, cats []Category) error {
	const q = `INSERT INTO categories (name, description) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`
	batch := &pgx.Batch{}
	for _, c := range cats {
		batch.Queue(q, c.Name, c.Description)
	}
	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert categories: %w", err)
	}
	return nil
}

// ----- users -----

func (r *PostgresRepo) UpsertUser(ctx context.Context, u User) (*User, error) {
	const q = `INSERT INTO users (id, name, email, image_url)
VALUES ($1, $2, NULLIF($3, ''), $4)
ON CONFLICT (id) DO UPDATE SET
  name = EXCLUDED.name,
  email = EXCLUDED.email,
  image_url = EXCLUDED.image_url,
  updated_at = now()
RETURNING id, name, COALESCE(email, ''), image_url, created_at, updated_at`

	var out User
	err := r.pool.QueryRow(ctx, q, u.ID, u.Name, u.Email, u.ImageURL).
		Scan(&out.ID, &out.Name, &out.Email, &out.ImageURL, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return nil, mapError("upsert user", err)
	}
	return &out, nil
}

func (r *PostgresRepo) GetUserProfile(ctx context.Context, viewerID, userID string) (*UserProfile, error) {
	var a args
	id := a.bind(userID)
	q := "SELECT u.id, u.name, u.image_url, u.created_at,\n\t" +
		creatorVideoCount.expr("u.id") + ",\n\t" +
		creatorSubscriberCnt.expr("u.id") + ",\n\t" +
		"vs.viewer_id IS NOT NULL\n" +
		"FROM users u\n" +
		viewerSubscription.join(&a, "u.id", viewerID) + "\n" +
		"WHERE u.id = " + id

	var p UserProfile
	err := r.pool.QueryRow(ctx, q, a...).Scan(
		&p.ID, &p.Name, &p.ImageURL, &p.CreatedAt,
		&p.VideoCount, &p.SubscriberCount, &p.ViewerSubscribed,
	)
	if err != nil {
		return nil, mapError("get user", err)
	}
	return &p, nil
}
