package event

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/nuvatw/nuva-club/core"
	"github.com/nuvatw/nuva-club/core/user"
)

// RSVP statuses
const (
	RSVPGoing    = "going"
	RSVPMaybe    = "maybe"
	RSVPDeclined = "declined"
)

var (
	ErrNotFound        = core.NewNotFoundError("event")
	ErrFull            = errors.New("this event is full")
	ErrEventOver       = errors.New("this event is over")
	ErrEndsBeforeStart = errors.New("the event must end after it starts")
)

type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	Capacity    int       `json:"capacity"` // 0 means unlimited
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	GoingCount  int       `json:"going_count"`
	MyStatus    string    `json:"my_status,omitempty"`
}

// Full reports whether no seat is left for a new attendee.
func (e Event) Full() bool {
	return e.Capacity > 0 && e.GoingCount >= e.Capacity
}

type Attendee struct {
	User      core.UserRef `json:"user"`
	Status    string       `json:"status"`
	UpdatedAt time.Time    `json:"updated_at"`
}

type NewEvent struct {
	Title       string    `json:"title" validate:"required,notblank,max=120"`
	Description string    `json:"description" validate:"max=5000"`
	Location    string    `json:"location" validate:"max=200"`
	StartsAt    time.Time `json:"starts_at" validate:"required"`
	EndsAt      time.Time `json:"ends_at" validate:"required"`
	Capacity    int       `json:"capacity" validate:"min=0"`
}

func (ne *NewEvent) Validate(validate *validator.Validate) error {
	ne.Title = core.CleanString(ne.Title)
	ne.Description = core.CleanString(ne.Description)
	ne.Location = core.CleanString(ne.Location)
	if err := validate.Struct(ne); err != nil {
		return err
	}
	return checkTimes(ne.StartsAt, ne.EndsAt)
}

type UpdateEvent struct {
	Title       *string    `json:"title" validate:"omitempty,notblank,max=120"`
	Description *string    `json:"description" validate:"omitempty,max=5000"`
	Location    *string    `json:"location" validate:"omitempty,max=200"`
	StartsAt    *time.Time `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at"`
	Capacity    *int       `json:"capacity" validate:"omitempty,min=0"`
}

func (ue *UpdateEvent) Validate(orig Event, validate *validator.Validate) error {
	if ue.Title != nil {
		title := core.CleanString(*ue.Title)
		ue.Title = &title
	}
	if err := validate.Struct(ue); err != nil {
		return err
	}
	starts, ends := orig.StartsAt, orig.EndsAt
	if ue.StartsAt != nil {
		starts = *ue.StartsAt
	}
	if ue.EndsAt != nil {
		ends = *ue.EndsAt
	}
	return checkTimes(starts, ends)
}

func checkTimes(starts, ends time.Time) error {
	if !ends.After(starts) {
		return core.NewValidationError(ErrEndsBeforeStart, core.FieldError{Field: "ends_at", Error: ErrEndsBeforeStart.Error()})
	}
	return nil
}

type RSVP struct {
	Status string `json:"status" validate:"required,oneof=going maybe declined"`
}

type (
	Repository interface {
		// QueryEvents lists events ending at or after from, soonest first. MyStatus is set for viewerID.
		QueryEvents(ctx context.Context, viewerID string, from time.Time, limit int) ([]Event, error)
		GetEvent(ctx context.Context, viewerID, id string) (Event, error)
		CreateEvent(ctx context.Context, e Event) (Event, error)
		UpdateEvent(ctx context.Context, e Event) (Event, error)
		DeleteEvent(ctx context.Context, id string) error

		// SaveRSVP upserts on the (event, user) pair.
		SaveRSVP(ctx context.Context, eventID, userID, status string, at time.Time) error
		QueryAttendees(ctx context.Context, eventID string) ([]Attendee, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Upcoming lists the events that are not over yet. limit <= 0 means no limit.
func (svc *Service) Upcoming(ctx context.Context, viewerID string, limit int) ([]Event, error) {
	return svc.repo.QueryEvents(ctx, viewerID, core.NowFunc(), limit)
}

func (svc *Service) Get(ctx context.Context, viewerID, id string) (Event, error) {
	return svc.repo.GetEvent(ctx, viewerID, id)
}

func (svc *Service) Create(ctx context.Context, author user.User, ne NewEvent) (Event, error) {
	return svc.repo.CreateEvent(ctx, Event{
		Title:       ne.Title,
		Description: ne.Description,
		Location:    ne.Location,
		StartsAt:    ne.StartsAt.UTC(),
		EndsAt:      ne.EndsAt.UTC(),
		Capacity:    ne.Capacity,
		CreatedBy:   author.ID,
		CreatedAt:   core.NowFunc(),
	})
}

func (svc *Service) Update(ctx context.Context, e Event, ue UpdateEvent) (Event, error) {
	if ue.Title != nil {
		e.Title = *ue.Title
	}
	if ue.Description != nil {
		e.Description = core.CleanString(*ue.Description)
	}
	if ue.Location != nil {
		e.Location = core.CleanString(*ue.Location)
	}
	if ue.StartsAt != nil {
		e.StartsAt = ue.StartsAt.UTC()
	}
	if ue.EndsAt != nil {
		e.EndsAt = ue.EndsAt.UTC()
	}
	if ue.Capacity != nil {
		e.Capacity = *ue.Capacity
	}
	return svc.repo.UpdateEvent(ctx, e)
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteEvent(ctx, id)
}

// Respond saves usr's RSVP. Going is rejected once the event is full, unless usr is already going.
func (svc *Service) Respond(ctx context.Context, usr user.User, eventID, status string) (Event, error) {
	e, err := svc.repo.GetEvent(ctx, usr.ID, eventID)
	if err != nil {
		return Event{}, err
	}
	if core.NowFunc().After(e.EndsAt) {
		return Event{}, core.NewValidationError(ErrEventOver)
	}
	if status == RSVPGoing && e.MyStatus != RSVPGoing && e.Full() {
		return Event{}, core.NewValidationError(ErrFull)
	}
	if err = svc.repo.SaveRSVP(ctx, e.ID, usr.ID, status, core.NowFunc()); err != nil {
		return Event{}, errors.Wrap(err, "saving rsvp")
	}
	return svc.repo.GetEvent(ctx, usr.ID, eventID)
}

func (svc *Service) Attendees(ctx context.Context, eventID string) ([]Attendee, error) {
	if _, err := svc.repo.GetEvent(ctx, "", eventID); err != nil {
		return nil, err
	}
	return svc.repo.QueryAttendees(ctx, eventID)
}
