package store

import (
	"context"

	"github.com/jackc/pgx/v5"
)

func scanSubscriptionRow(rows pgx.Rows) (SubscriptionRow, error) {
	var s SubscriptionRow
	err := rows.Scan(
		&s.ViewerID, &s.CreatorID, &s.CreatedAt, &s.UpdatedAt,
		&s.Creator.ID, &s.Creator.Name, &s.Creator.ImageURL,
		&s.SubscriberCount, &s.VideoCount,
	)
	return s, err
}

func (r *PostgresRepo) ListSubscriptions(ctx context.Context, viewerID string, p PageRequest) (Page[SubscriptionRow], error) {
	if viewerID == "" {
		return Page[SubscriptionRow]{}, ErrAnonymous
	}
	if err := p.Validate(); err != nil {
		return Page[SubscriptionRow]{}, err
	}
	var a args
	s := pageSpec{
		from:    "subscriptions s",
		where:   []string{"s.viewer_id = " + a.bind(viewerID)},
		updated: "s.updated_at",
		id:      "s.creator_id",
		page:    p,
	}
	q := subscriptionFeedSQL(&a, s)
	return queryPage(ctx, r.pool, q, a, p.Limit, scanSubscriptionRow, SubscriptionRow.Key)
}

// Subscribe follows creatorID. Following an already followed creator returns
// the existing subscription unchanged.
func (r *PostgresRepo) Subscribe(ctx context.Context, viewerID, creatorID string) (*Subscription, error) {
	if viewerID == creatorID {
		return nil, ErrSelfSubscription
	}
	const q = `INSERT INTO subscriptions (viewer_id, creator_id) VALUES ($1, $2)
ON CONFLICT (viewer_id, creator_id) DO UPDATE SET updated_at = subscriptions.updated_at
RETURNING viewer_id, creator_id, created_at, updated_at`

	var s Subscription
	err := r.pool.QueryRow(ctx, q, viewerID, creatorID).Scan(&s.ViewerID, &s.CreatorID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, mapError("insert subscription", err)
	}
	return &s, nil
}

func (r *PostgresRepo) Unsubscribe(ctx context.Context, viewerID, creatorID string) error {
	if viewerID == creatorID {
		return ErrSelfSubscription
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM subscriptions WHERE viewer_id = $1 AND creator_id = $2`, viewerID, creatorID)
	if err != nil {
		return mapError("delete subscription", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
