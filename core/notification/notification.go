package notification

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/nuvatw/nuva-club/core"
	"github.com/nuvatw/nuva-club/core/user"
)

// Kinds
const (
	KindFire          = "fire"
	KindComment       = "comment"
	KindMessage       = "message"
	KindCoachAssigned = "coach_assigned"
	KindFeedback      = "feedback"
	KindBroadcast     = "broadcast"
)

var ErrNotFound = core.NewNotFoundError("notification")

type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Kind      string    `json:"kind"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Link      string    `json:"link"`
	Read      bool      `json:"read"`
	ReadAt    time.Time `json:"read_at"`
	CreatedAt time.Time `json:"created_at"`
}

type NewNotification struct {
	UserID string
	Kind   string
	Title  string
	Body   string
	Link   string
}

// Broadcast is sent by guardians to every member, or to the members of one role family.
type Broadcast struct {
	Role  string `json:"role" validate:"omitempty,oneof=guardian: nunu: vava:"`
	Title string `json:"title" validate:"required,notblank,max=120"`
	Body  string `json:"body" validate:"max=2000"`
	Link  string `json:"link" validate:"omitempty,max=300"`
}

func (b *Broadcast) Validate(validate *validator.Validate) error {
	b.Title = core.CleanString(b.Title)
	b.Body = core.CleanString(b.Body)
	b.Link = core.CleanString(b.Link)
	return validate.Struct(b)
}

type QueryFilter struct {
	UnreadOnly bool
	Page       core.Page
}

type (
	Repository interface {
		CreateNotifications(ctx context.Context, ns ...Notification) error
		QueryNotifications(ctx context.Context, userID string, filter QueryFilter) ([]Notification, error)
		CountUnread(ctx context.Context, userID string) (int, error)
		MarkRead(ctx context.Context, userID, id string, at time.Time) error
		MarkAllRead(ctx context.Context, userID string, at time.Time) (int, error)
	}

	// UserLister lists broadcast recipients.
	UserLister interface {
		Query(ctx context.Context, filter *user.QueryFilter, ordering ...core.DBOrdering) ([]user.User, error)
	}

	Service struct {
		repo  Repository
		users UserLister
	}
)

func NewService(repo Repository, users UserLister) *Service {
	return &Service{repo: repo, users: users}
}

func (svc *Service) newNotification(nn NewNotification, now time.Time) Notification {
	return Notification{
		UserID:    nn.UserID,
		Kind:      nn.Kind,
		Title:     nn.Title,
		Body:      nn.Body,
		Link:      nn.Link,
		CreatedAt: now,
	}
}

// Notify stores one notification per recipient.
func (svc *Service) Notify(ctx context.Context, nns ...NewNotification) error {
	if len(nns) == 0 {
		return nil
	}
	now := core.NowFunc()
	ns := make([]Notification, 0, len(nns))
	for _, nn := range nns {
		ns = append(ns, svc.newNotification(nn, now))
	}
	return errors.Wrap(svc.repo.CreateNotifications(ctx, ns...), "creating notifications")
}

func (svc *Service) List(ctx context.Context, userID string, filter QueryFilter) ([]Notification, error) {
	filter.Page = filter.Page.Normalize()
	return svc.repo.QueryNotifications(ctx, userID, filter)
}

func (svc *Service) UnreadCount(ctx context.Context, userID string) (int, error) {
	return svc.repo.CountUnread(ctx, userID)
}

func (svc *Service) MarkRead(ctx context.Context, userID, id string) error {
	return svc.repo.MarkRead(ctx, userID, id, core.NowFunc())
}

func (svc *Service) MarkAllRead(ctx context.Context, userID string) (int, error) {
	return svc.repo.MarkAllRead(ctx, userID, core.NowFunc())
}

// Broadcast notifies every active member matching b.Role and returns the number of recipients.
func (svc *Service) Broadcast(ctx context.Context, b Broadcast) (int, error) {
	active := true
	filter := &user.QueryFilter{IsActive: &active}
	if b.Role != "" {
		filter.Roles = []string{b.Role}
	}
	users, err := svc.users.Query(ctx, filter)
	if err != nil {
		return 0, errors.Wrap(err, "querying broadcast recipients")
	}

	nns := make([]NewNotification, 0, len(users))
	for _, usr := range users {
		nns = append(nns, NewNotification{UserID: usr.ID, Kind: KindBroadcast, Title: b.Title, Body: b.Body, Link: b.Link})
	}
	if err = svc.Notify(ctx, nns...); err != nil {
		return 0, err
	}
	return len(nns), nil
}
