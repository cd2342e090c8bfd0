package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/nuvatw/nuva-club/core/subscription"
)

type subscriptionRow struct {
	UserID    string    `db:"user_id"`
	Plan      string    `db:"plan"`
	Status    string    `db:"status"`
	StartedAt time.Time `db:"started_at"`
	RenewsAt  null.Time `db:"renews_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type subscriptionRepository struct {
	db *sqlx.DB
}

var _ subscription.Repository = (*subscriptionRepository)(nil)

func NewSubscriptionRepository(db *sqlx.DB) *subscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (repo subscriptionRepository) GetSubscription(ctx context.Context, userID string) (subscription.Subscription, error) {
	var row subscriptionRow
	q := repo.db.Rebind("SELECT user_id, plan, status, started_at, renews_at, updated_at FROM subscriptions WHERE user_id = ?")
	if err := sqlx.GetContext(ctx, ext(ctx, repo.db), &row, q, userID); err != nil {
		return subscription.Subscription{}, trapNoRowsErr(err, subscription.ErrNotFound, "finding subscription")
	}
	return subscription.Subscription{
		UserID:    row.UserID,
		Plan:      row.Plan,
		Status:    row.Status,
		StartedAt: row.StartedAt.UTC(),
		RenewsAt:  timeFromNull(row.RenewsAt),
		UpdatedAt: row.UpdatedAt.UTC(),
	}, nil
}

func (repo subscriptionRepository) SaveSubscription(ctx context.Context, sub subscription.Subscription) (subscription.Subscription, error) {
	row := subscriptionRow{
		UserID:    sub.UserID,
		Plan:      sub.Plan,
		Status:    sub.Status,
		StartedAt: sub.StartedAt.UTC(),
		RenewsAt:  nullTime(sub.RenewsAt),
		UpdatedAt: sub.UpdatedAt.UTC(),
	}
	q := `INSERT INTO subscriptions (user_id, plan, status, started_at, renews_at, updated_at)
		VALUES (:user_id, :plan, :status, :started_at, :renews_at, :updated_at)
		ON CONFLICT (user_id) DO UPDATE SET
			plan = excluded.plan, status = excluded.status, started_at = excluded.started_at,
			renews_at = excluded.renews_at, updated_at = excluded.updated_at`
	if _, err := sqlx.NamedExecContext(ctx, ext(ctx, repo.db), q, row); err != nil {
		return subscription.Subscription{}, errors.Wrap(err, "saving subscription")
	}
	return repo.GetSubscription(ctx, sub.UserID)
}
