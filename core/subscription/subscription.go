package subscription

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/nuvatw/nuva-club/core"
)

// Plans
const (
	PlanFree    = "free"
	PlanMonthly = "monthly"
	PlanYearly  = "yearly"
)

// Statuses
const (
	StatusActive   = "active"
	StatusCanceled = "canceled"
)

var (
	ErrNotFound        = core.NewNotFoundError("subscription")
	ErrUnknownPlan     = errors.New("unknown plan")
	ErrFreePlanCancel  = errors.New("the free plan cannot be canceled")
	ErrAlreadyCanceled = errors.New("subscription is already canceled")

	Plans = []Plan{
		{ID: PlanFree, Name: "Free", Price: 0, Currency: "TWD"},
		{ID: PlanMonthly, Name: "Monthly", Price: 490, Currency: "TWD", Period: "month"},
		{ID: PlanYearly, Name: "Yearly", Price: 4900, Currency: "TWD", Period: "year"},
	}
)

type Plan struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    int    `json:"price"`
	Currency string `json:"currency"`
	Period   string `json:"period,omitempty"` // "" for the free plan
}

func (p Plan) Paid() bool { return p.Price > 0 }

// Renewal returns when a plan started at from renews; zero for the free plan.
func (p Plan) Renewal(from time.Time) time.Time {
	switch p.Period {
	case "month":
		return from.AddDate(0, 1, 0)
	case "year":
		return from.AddDate(1, 0, 0)
	default:
		return time.Time{}
	}
}

func PlanByID(id string) (Plan, bool) {
	for _, p := range Plans {
		if p.ID == id {
			return p, true
		}
	}
	return Plan{}, false
}

type Subscription struct {
	UserID    string    `json:"user_id"`
	Plan      string    `json:"plan"`
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
	RenewsAt  time.Time `json:"renews_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasPaidAccess reports whether premium content is open at now.
// Canceled paid plans keep access until their renewal date.
func (s Subscription) HasPaidAccess(now time.Time) bool {
	p, ok := PlanByID(s.Plan)
	if !ok || !p.Paid() {
		return false
	}
	return s.Status == StatusActive || s.RenewsAt.After(now)
}

type SwitchPlan struct {
	Plan string `json:"plan" validate:"required,oneof=free monthly yearly"`
}

type (
	Repository interface {
		GetSubscription(ctx context.Context, userID string) (Subscription, error)
		SaveSubscription(ctx context.Context, sub Subscription) (Subscription, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func freeSubscription(userID string, now time.Time) Subscription {
	return Subscription{UserID: userID, Plan: PlanFree, Status: StatusActive, StartedAt: now, UpdatedAt: now}
}

// StartFree gives a new member the free plan.
func (svc *Service) StartFree(ctx context.Context, userID string) (Subscription, error) {
	return svc.repo.SaveSubscription(ctx, freeSubscription(userID, core.NowFunc()))
}

// Get returns the member's subscription. Members without one are on the free plan.
func (svc *Service) Get(ctx context.Context, userID string) (Subscription, error) {
	sub, err := svc.repo.GetSubscription(ctx, userID)
	if err != nil {
		if core.IsNotFound(err) {
			return freeSubscription(userID, time.Time{}), nil
		}
		return Subscription{}, err
	}
	return sub, nil
}

func (svc *Service) SwitchPlan(ctx context.Context, userID, planID string) (Subscription, error) {
	plan, ok := PlanByID(planID)
	if !ok {
		return Subscription{}, core.NewValidationError(ErrUnknownPlan, core.FieldError{Field: "plan", Error: ErrUnknownPlan.Error()})
	}
	now := core.NowFunc()
	sub := Subscription{
		UserID:    userID,
		Plan:      plan.ID,
		Status:    StatusActive,
		StartedAt: now,
		RenewsAt:  plan.Renewal(now),
		UpdatedAt: now,
	}
	return svc.repo.SaveSubscription(ctx, sub)
}

func (svc *Service) Cancel(ctx context.Context, userID string) (Subscription, error) {
	sub, err := svc.Get(ctx, userID)
	if err != nil {
		return Subscription{}, err
	}
	switch {
	case sub.Plan == PlanFree:
		return Subscription{}, core.NewValidationError(ErrFreePlanCancel)
	case sub.Status == StatusCanceled:
		return Subscription{}, core.NewValidationError(ErrAlreadyCanceled)
	}
	sub.Status = StatusCanceled
	sub.UpdatedAt = core.NowFunc()
	return svc.repo.SaveSubscription(ctx, sub)
}

func (svc *Service) HasPaidAccess(ctx context.Context, userID string) (bool, error) {
	sub, err := svc.Get(ctx, userID)
	if err != nil {
		return false, err
	}
	return sub.HasPaidAccess(core.NowFunc()), nil
}
