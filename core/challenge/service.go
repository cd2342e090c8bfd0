package challenge

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/nuvatw/nuva-club/core"
	"github.com/nuvatw/nuva-club/core/user"
)

var (
	ErrNotFound       = core.NewNotFoundError("challenge")
	ErrNotParticipant = core.NewNotFoundError("participation")

	ErrEnded         = errors.New("this challenge has ended")
	ErrNotActive     = errors.New("this challenge is not active")
	ErrAlreadyJoined = errors.New("you already joined this challenge")
	ErrEndBeforeDate = errors.New("end date must not precede start date")
)

type Challenge struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	StartDate        time.Time `json:"start_date"`
	EndDate          time.Time `json:"end_date"`
	CreatedBy        string    `json:"created_by"`
	CreatedAt        time.Time `json:"created_at"`
	Status           Status    `json:"status"`
	ParticipantCount int       `json:"participant_count"`
	Joined           bool      `json:"joined"`
}

type Participant struct {
	ChallengeID string       `json:"challenge_id"`
	User        core.UserRef `json:"user"`
	JoinedAt    time.Time    `json:"joined_at"`
	CompletedAt time.Time    `json:"completed_at"`
	Submission  string       `json:"submission"`
}

func (p Participant) Completed() bool { return !p.CompletedAt.IsZero() }

// NewChallenge creates a challenge. Month ("2026-10") is a shortcut for a whole calendar month.
type NewChallenge struct {
	Title       string    `json:"title" validate:"required,notblank,max=120"`
	Description string    `json:"description" validate:"max=5000"`
	Month       string    `json:"month" validate:"omitempty,datetime=2006-01"`
	StartDate   time.Time `json:"start_date" validate:"required_without=Month"`
	EndDate     time.Time `json:"end_date" validate:"required_without=Month"`
}

func (nc *NewChallenge) Validate(validate *validator.Validate) error {
	nc.Title = core.CleanString(nc.Title)
	nc.Description = core.CleanString(nc.Description)
	if err := validate.Struct(nc); err != nil {
		return err
	}
	if nc.Month != "" {
		m, _ := time.Parse("2006-01", nc.Month)
		nc.StartDate, nc.EndDate = MonthWindow(m.Year(), m.Month())
	}
	return checkDates(nc.StartDate, nc.EndDate)
}

type UpdateChallenge struct {
	Title       *string    `json:"title" validate:"omitempty,notblank,max=120"`
	Description *string    `json:"description" validate:"omitempty,max=5000"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
}

func (uc *UpdateChallenge) Validate(orig Challenge, validate *validator.Validate) error {
	if uc.Title != nil {
		title := core.CleanString(*uc.Title)
		uc.Title = &title
	}
	if err := validate.Struct(uc); err != nil {
		return err
	}
	start, end := orig.StartDate, orig.EndDate
	if uc.StartDate != nil {
		start = *uc.StartDate
	}
	if uc.EndDate != nil {
		end = *uc.EndDate
	}
	return checkDates(start, end)
}

func checkDates(start, end time.Time) error {
	if end.Before(start) {
		return core.NewValidationError(ErrEndBeforeDate, core.FieldError{Field: "end_date", Error: ErrEndBeforeDate.Error()})
	}
	return nil
}

type (
	Repository interface {
		// QueryChallenges lists challenges with their participant count, latest start first.
		// Joined is set for viewerID.
		QueryChallenges(ctx context.Context, viewerID string) ([]Challenge, error)
		GetChallenge(ctx context.Context, viewerID, id string) (Challenge, error)
		CreateChallenge(ctx context.Context, ch Challenge) (Challenge, error)
		UpdateChallenge(ctx context.Context, ch Challenge) (Challenge, error)
		DeleteChallenge(ctx context.Context, id string) error

		GetParticipant(ctx context.Context, challengeID, userID string) (Participant, error)
		SaveParticipant(ctx context.Context, p Participant) error
		DeleteParticipant(ctx context.Context, challengeID, userID string) error
		QueryParticipants(ctx context.Context, challengeID string) ([]Participant, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func withStatus(ch Challenge, now time.Time) Challenge {
	ch.Status = StatusAt(now, ch.StartDate, ch.EndDate)
	return ch
}

// List returns the challenges with their status at now, optionally keeping only the given statuses.
func (svc *Service) List(ctx context.Context, viewerID string, statuses ...Status) ([]Challenge, error) {
	chs, err := svc.repo.QueryChallenges(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	now := core.NowFunc()
	out := make([]Challenge, 0, len(chs))
	for _, ch := range chs {
		ch = withStatus(ch, now)
		if len(statuses) > 0 && !containsStatus(statuses, ch.Status) {
			continue
		}
		out = append(out, ch)
	}
	return out, nil
}

func containsStatus(statuses []Status, s Status) bool {
	for _, st := range statuses {
		if st == s {
			return true
		}
	}
	return false
}

func (svc *Service) Get(ctx context.Context, viewerID, id string) (Challenge, error) {
	ch, err := svc.repo.GetChallenge(ctx, viewerID, id)
	if err != nil {
		return Challenge{}, err
	}
	return withStatus(ch, core.NowFunc()), nil
}

func (svc *Service) Create(ctx context.Context, author user.User, nc NewChallenge) (Challenge, error) {
	ch, err := svc.repo.CreateChallenge(ctx, Challenge{
		Title:       nc.Title,
		Description: nc.Description,
		StartDate:   nc.StartDate.UTC(),
		EndDate:     nc.EndDate.UTC(),
		CreatedBy:   author.ID,
		CreatedAt:   core.NowFunc(),
	})
	if err != nil {
		return Challenge{}, err
	}
	return withStatus(ch, core.NowFunc()), nil
}

func (svc *Service) Update(ctx context.Context, ch Challenge, uc UpdateChallenge) (Challenge, error) {
	if uc.Title != nil {
		ch.Title = *uc.Title
	}
	if uc.Description != nil {
		ch.Description = core.CleanString(*uc.Description)
	}
	if uc.StartDate != nil {
		ch.StartDate = uc.StartDate.UTC()
	}
	if uc.EndDate != nil {
		ch.EndDate = uc.EndDate.UTC()
	}
	ch, err := svc.repo.UpdateChallenge(ctx, ch)
	if err != nil {
		return Challenge{}, err
	}
	return withStatus(ch, core.NowFunc()), nil
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteChallenge(ctx, id)
}

func (svc *Service) Join(ctx context.Context, usr user.User, id string) (Challenge, error) {
	ch, err := svc.Get(ctx, usr.ID, id)
	if err != nil {
		return Challenge{}, err
	}
	if ch.Status == StatusEnded {
		return Challenge{}, core.NewValidationError(ErrEnded)
	}
	if ch.Joined {
		return Challenge{}, core.NewValidationError(ErrAlreadyJoined)
	}
	p := Participant{ChallengeID: ch.ID, User: core.UserRef{ID: usr.ID}, JoinedAt: core.NowFunc()}
	if err = svc.repo.SaveParticipant(ctx, p); err != nil {
		return Challenge{}, errors.Wrap(err, "joining challenge")
	}
	return svc.Get(ctx, usr.ID, id)
}

func (svc *Service) Leave(ctx context.Context, usr user.User, id string) (Challenge, error) {
	ch, err := svc.Get(ctx, usr.ID, id)
	if err != nil {
		return Challenge{}, err
	}
	if ch.Status == StatusEnded {
		return Challenge{}, core.NewValidationError(ErrEnded)
	}
	if !ch.Joined {
		return Challenge{}, ErrNotParticipant
	}
	if err = svc.repo.DeleteParticipant(ctx, ch.ID, usr.ID); err != nil {
		return Challenge{}, errors.Wrap(err, "leaving challenge")
	}
	return svc.Get(ctx, usr.ID, id)
}

// Complete records the member's submission. Only joined members of an active challenge may complete it.
func (svc *Service) Complete(ctx context.Context, usr user.User, id, submission string) (Participant, error) {
	ch, err := svc.Get(ctx, usr.ID, id)
	if err != nil {
		return Participant{}, err
	}
	if ch.Status != StatusActive {
		return Participant{}, core.NewValidationError(ErrNotActive)
	}
	p, err := svc.repo.GetParticipant(ctx, ch.ID, usr.ID)
	if err != nil {
		return Participant{}, err
	}
	p.Submission = core.CleanString(submission)
	p.CompletedAt = core.NowFunc()
	if err = svc.repo.SaveParticipant(ctx, p); err != nil {
		return Participant{}, errors.Wrap(err, "completing challenge")
	}
	return p, nil
}

func (svc *Service) Participants(ctx context.Context, id string) ([]Participant, error) {
	if _, err := svc.repo.GetChallenge(ctx, "", id); err != nil {
		return nil, err
	}
	return svc.repo.QueryParticipants(ctx, id)
}
