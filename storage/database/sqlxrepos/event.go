package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/nuvatw/nuva-club/core"
	"github.com/nuvatw/nuva-club/core/event"
)

// eventSelect takes the viewer id as its first argument.
const eventSelect = `SELECT e.id, e.title, e.description, e.location, e.starts_at, e.ends_at, e.capacity, e.created_by, e.created_at,
	(SELECT COUNT(*) FROM event_rsvps r WHERE r.event_id = e.id AND r.status = 'going') AS going_count,
	COALESCE((SELECT r.status FROM event_rsvps r WHERE r.event_id = e.id AND r.user_id = ?), '') AS my_status
	FROM events e`

type eventRow struct {
	ID          string      `db:"id"`
	Title       string      `db:"title"`
	Description string      `db:"description"`
	Location    string      `db:"location"`
	StartsAt    time.Time   `db:"starts_at"`
	EndsAt      time.Time   `db:"ends_at"`
	Capacity    int         `db:"capacity"`
	CreatedBy   null.String `db:"created_by"`
	CreatedAt   time.Time   `db:"created_at"`
	GoingCount  int         `db:"going_count"`
	MyStatus    string      `db:"my_status"`
}

func (row eventRow) event() event.Event {
	return event.Event{
		ID:          row.ID,
		Title:       row.Title,
		Description: row.Description,
		Location:    row.Location,
		StartsAt:    row.StartsAt.UTC(),
		EndsAt:      row.EndsAt.UTC(),
		Capacity:    row.Capacity,
		CreatedBy:   row.CreatedBy.String,
		CreatedAt:   row.CreatedAt.UTC(),
		GoingCount:  row.GoingCount,
		MyStatus:    row.MyStatus,
	}
}

type attendeeRow struct {
	UserID    string    `db:"user_id"`
	Name      string    `db:"name"`
	Username  string    `db:"username"`
	AvatarURL string    `db:"avatar_url"`
	Status    string    `db:"status"`
	UpdatedAt time.Time `db:"updated_at"`
}

type eventRepository struct {
	db *sqlx.DB
}

var _ event.Repository = (*eventRepository)(nil)

func NewEventRepository(db *sqlx.DB) *eventRepository {
	return &eventRepository{db: db}
}

func (repo eventRepository) QueryEvents(ctx context.Context, viewerID string, from time.Time, limit int) ([]event.Event, error) {
	q := eventSelect + " WHERE e.ends_at >= ? ORDER BY e.starts_at ASC, e.id ASC"
	args := []interface{}{viewerID, from.UTC()}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	var rows []eventRow
	if err := sqlx.SelectContext(ctx, repo.db, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying events")
	}
	evs := make([]event.Event, 0, len(rows))
	for _, row := range rows {
		evs = append(evs, row.event())
	}
	return evs, nil
}

func (repo eventRepository) GetEvent(ctx context.Context, viewerID, id string) (event.Event, error) {
	var row eventRow
	q := repo.db.Rebind(eventSelect + " WHERE e.id = ?")
	if err := sqlx.GetContext(ctx, repo.db, &row, q, viewerID, id); err != nil {
		return event.Event{}, trapNoRowsErr(err, event.ErrNotFound, "finding event")
	}
	return row.event(), nil
}

func (repo eventRepository) CreateEvent(ctx context.Context, e event.Event) (event.Event, error) {
	e.ID = newID()
	row := eventRow{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		Location:    e.Location,
		StartsAt:    e.StartsAt.UTC(),
		EndsAt:      e.EndsAt.UTC(),
		Capacity:    e.Capacity,
		CreatedBy:   nullString(e.CreatedBy),
		CreatedAt:   e.CreatedAt.UTC(),
	}
	q := `INSERT INTO events (id, title, description, location, starts_at, ends_at, capacity, created_by, created_at)
		VALUES (:id, :title, :description, :location, :starts_at, :ends_at, :capacity, :created_by, :created_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, row); err != nil {
		return event.Event{}, errors.Wrap(err, "inserting event")
	}
	return row.event(), nil
}

func (repo eventRepository) UpdateEvent(ctx context.Context, e event.Event) (event.Event, error) {
	q := repo.db.Rebind(`UPDATE events SET title = ?, description = ?, location = ?, starts_at = ?, ends_at = ?, capacity = ?
		WHERE id = ?`)
	res, err := repo.db.ExecContext(ctx, q, e.Title, e.Description, e.Location, e.StartsAt.UTC(), e.EndsAt.UTC(), e.Capacity, e.ID)
	if err != nil {
		return event.Event{}, errors.Wrap(err, "updating event")
	}
	if err = affected(res, event.ErrNotFound, "updating event"); err != nil {
		return event.Event{}, err
	}
	return repo.GetEvent(ctx, "", e.ID)
}

func (repo eventRepository) DeleteEvent(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind("DELETE FROM events WHERE id = ?"), id)
	if err != nil {
		return errors.Wrap(err, "deleting event")
	}
	return affected(res, event.ErrNotFound, "deleting event")
}

func (repo eventRepository) SaveRSVP(ctx context.Context, eventID, userID, status string, at time.Time) error {
	q := repo.db.Rebind(`INSERT INTO event_rsvps (event_id, user_id, status, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (event_id, user_id) DO UPDATE SET status = excluded.status, updated_at = excluded.updated_at`)
	_, err := repo.db.ExecContext(ctx, q, eventID, userID, status, at.UTC())
	return errors.Wrap(err, "saving rsvp")
}

func (repo eventRepository) QueryAttendees(ctx context.Context, eventID string) ([]event.Attendee, error) {
	var rows []attendeeRow
	q := repo.db.Rebind(`SELECT r.user_id, u.name, COALESCE(u.username, '') AS username, u.avatar_url, r.status, r.updated_at
		FROM event_rsvps r JOIN users u ON u.id = r.user_id
		WHERE r.event_id = ? ORDER BY r.updated_at ASC`)
	if err := sqlx.SelectContext(ctx, repo.db, &rows, q, eventID); err != nil {
		return nil, errors.Wrap(err, "querying attendees")
	}
	out := make([]event.Attendee, 0, len(rows))
	for _, row := range rows {
		out = append(out, event.Attendee{
			User:      core.UserRef{ID: row.UserID, Name: row.Name, Username: row.Username, AvatarURL: row.AvatarURL},
			Status:    row.Status,
			UpdatedAt: row.UpdatedAt.UTC(),
		})
	}
	return out, nil
}
