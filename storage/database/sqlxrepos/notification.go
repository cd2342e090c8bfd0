package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/nuvatw/nuva-club/core/notification"
)

const notificationColumns = "id, user_id, kind, title, body, link, read_at, created_at"

type notificationRow struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	Kind      string    `db:"kind"`
	Title     string    `db:"title"`
	Body      string    `db:"body"`
	Link      string    `db:"link"`
	ReadAt    null.Time `db:"read_at"`
	CreatedAt time.Time `db:"created_at"`
}

type notificationRepository struct {
	db *sqlx.DB
}

var _ notification.Repository = (*notificationRepository)(nil)

func NewNotificationRepository(db *sqlx.DB) *notificationRepository {
	return &notificationRepository{db: db}
}

// CreateNotifications inserts every notification in a single statement.
func (repo notificationRepository) CreateNotifications(ctx context.Context, ns ...notification.Notification) error {
	if len(ns) == 0 {
		return nil
	}
	rows := make([]notificationRow, 0, len(ns))
	for _, n := range ns {
		rows = append(rows, notificationRow{
			ID:        newID(),
			UserID:    n.UserID,
			Kind:      n.Kind,
			Title:     n.Title,
			Body:      n.Body,
			Link:      n.Link,
			ReadAt:    nullTime(n.ReadAt),
			CreatedAt: n.CreatedAt.UTC(),
		})
	}
	q := `INSERT INTO notifications (` + notificationColumns + `)
		VALUES (:id, :user_id, :kind, :title, :body, :link, :read_at, :created_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, rows); err != nil {
		return errors.Wrap(err, "inserting notifications")
	}
	return nil
}

func (repo notificationRepository) QueryNotifications(ctx context.Context, userID string, filter notification.QueryFilter) ([]notification.Notification, error) {
	var w where
	w.add("user_id = ?", userID)
	if filter.UnreadOnly {
		w.add("read_at IS NULL")
	}
	q := repo.db.Rebind("SELECT " + notificationColumns + " FROM notifications" + w.String() +
		" ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?")

	var rows []notificationRow
	args := append(w.args, filter.Page.Limit, filter.Page.Offset)
	if err := sqlx.SelectContext(ctx, repo.db, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying notifications")
	}
	out := make([]notification.Notification, 0, len(rows))
	for _, row := range rows {
		out = append(out, notification.Notification{
			ID:        row.ID,
			UserID:    row.UserID,
			Kind:      row.Kind,
			Title:     row.Title,
			Body:      row.Body,
			Link:      row.Link,
			Read:      row.ReadAt.Valid,
			ReadAt:    timeFromNull(row.ReadAt),
			CreatedAt: row.CreatedAt.UTC(),
		})
	}
	return out, nil
}

func (repo notificationRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	var n int
	q := repo.db.Rebind("SELECT COUNT(*) FROM notifications WHERE user_id = ? AND read_at IS NULL")
	if err := sqlx.GetContext(ctx, repo.db, &n, q, userID); err != nil {
		return 0, errors.Wrap(err, "counting notifications")
	}
	return n, nil
}

// MarkRead keeps the first read time of a notification read twice.
func (repo notificationRepository) MarkRead(ctx context.Context, userID, id string, at time.Time) error {
	q := repo.db.Rebind("UPDATE notifications SET read_at = COALESCE(read_at, ?) WHERE id = ? AND user_id = ?")
	res, err := repo.db.ExecContext(ctx, q, at.UTC(), id, userID)
	if err != nil {
		return errors.Wrap(err, "marking notification read")
	}
	return affected(res, notification.ErrNotFound, "marking notification read")
}

func (repo notificationRepository) MarkAllRead(ctx context.Context, userID string, at time.Time) (int, error) {
	q := repo.db.Rebind("UPDATE notifications SET read_at = ? WHERE user_id = ? AND read_at IS NULL")
	res, err := repo.db.ExecContext(ctx, q, at.UTC(), userID)
	if err != nil {
		return 0, errors.Wrap(err, "marking notifications read")
	}
	n, err := res.RowsAffected()
	return int(n), errors.Wrap(err, "marking notifications read")
}
