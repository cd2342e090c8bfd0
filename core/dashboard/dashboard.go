// Package dashboard assembles the role dashboards from the other services.
package dashboard

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/nuvatw/nuva-club/core"
	"github.com/nuvatw/nuva-club/core/challenge"
	"github.com/nuvatw/nuva-club/core/coaching"
	"github.com/nuvatw/nuva-club/core/course"
	"github.com/nuvatw/nuva-club/core/event"
	"github.com/nuvatw/nuva-club/core/subscription"
	"github.com/nuvatw/nuva-club/core/user"
)

const (
	upcomingEventsLimit = 5
	recentFeedbackLimit = 10
	statsCacheKey       = "dashboard:guardian:stats"
)

var statsTTL = time.Minute

type Vava struct {
	Profile             user.User                 `json:"profile"`
	Subscription        subscription.Subscription `json:"subscription"`
	HasPaidAccess       bool                      `json:"has_paid_access"`
	Courses             []course.CourseProgress   `json:"courses"`
	ActiveChallenges    []challenge.Challenge     `json:"active_challenges"`
	UpcomingChallenges  []challenge.Challenge     `json:"upcoming_challenges"`
	Coach               *core.UserRef             `json:"coach"`
	UpcomingEvents      []event.Event             `json:"upcoming_events"`
	UnreadNotifications int                       `json:"unread_notifications"`
	UnreadMessages      int                       `json:"unread_messages"`
}

type Nunu struct {
	Profile             user.User                  `json:"profile"`
	Students            []coaching.StudentProgress `json:"students"`
	RecentFeedback      []coaching.Feedback        `json:"recent_feedback"`
	UnreadNotifications int                        `json:"unread_notifications"`
	UnreadMessages      int                        `json:"unread_messages"`
}

type Stats struct {
	UsersByRole             map[string]int `json:"users_by_role"`
	ActivePaidSubscriptions int            `json:"active_paid_subscriptions"`
	Courses                 int            `json:"courses"`
	Lessons                 int            `json:"lessons"`
	Posts                   int            `json:"posts"`
	ActiveChallenges        int            `json:"active_challenges"`
}

type (
	StatsRepository interface {
		// CountUsersByRole counts users per role family ("guardian", "nunu", "vava").
		CountUsersByRole(ctx context.Context) (map[string]int, error)
		CountPaidSubscriptions(ctx context.Context, now time.Time) (int, error)
		CountCourses(ctx context.Context) (courses, lessons int, err error)
		CountPosts(ctx context.Context) (int, error)
	}

	Sources struct {
		Subscriptions interface {
			Get(ctx context.Context, userID string) (subscription.Subscription, error)
		}
		Courses interface {
			ProgressOf(ctx context.Context, userID string) ([]course.CourseProgress, error)
		}
		Challenges interface {
			List(ctx context.Context, viewerID string, statuses ...challenge.Status) ([]challenge.Challenge, error)
		}
		Coaching interface {
			CoachOf(ctx context.Context, studentID string) (coaching.Assignment, error)
			Students(ctx context.Context, coachID string) ([]coaching.StudentProgress, error)
			FeedbackGiven(ctx context.Context, coachID string, limit int) ([]coaching.Feedback, error)
		}
		Events interface {
			Upcoming(ctx context.Context, viewerID string, limit int) ([]event.Event, error)
		}
		Notifications interface {
			UnreadCount(ctx context.Context, userID string) (int, error)
		}
		Messages interface {
			UnreadCount(ctx context.Context, usr user.User) (int, error)
		}
	}

	Service struct {
		src   Sources
		stats StatsRepository
		cache core.Cache
	}
)

func NewService(src Sources, stats StatsRepository, cache core.Cache) *Service {
	return &Service{src: src, stats: stats, cache: cache}
}

func (svc *Service) Vava(ctx context.Context, usr user.User) (Vava, error) {
	d := Vava{Profile: usr}
	var err error

	if d.Subscription, err = svc.src.Subscriptions.Get(ctx, usr.ID); err != nil {
		return Vava{}, errors.Wrap(err, "getting subscription")
	}
	d.HasPaidAccess = d.Subscription.HasPaidAccess(core.NowFunc())

	if d.Courses, err = svc.src.Courses.ProgressOf(ctx, usr.ID); err != nil {
		return Vava{}, errors.Wrap(err, "listing progress")
	}

	chs, err := svc.src.Challenges.List(ctx, usr.ID, challenge.StatusActive, challenge.StatusUpcoming)
	if err != nil {
		return Vava{}, errors.Wrap(err, "listing challenges")
	}
	d.ActiveChallenges = make([]challenge.Challenge, 0)
	d.UpcomingChallenges = make([]challenge.Challenge, 0)
	for _, ch := range chs {
		if ch.Status == challenge.StatusActive {
			d.ActiveChallenges = append(d.ActiveChallenges, ch)
		} else {
			d.UpcomingChallenges = append(d.UpcomingChallenges, ch)
		}
	}

	a, err := svc.src.Coaching.CoachOf(ctx, usr.ID)
	switch {
	case err == nil:
		d.Coach = &a.Coach
	case !core.IsNotFound(err):
		return Vava{}, errors.Wrap(err, "getting coach")
	}

	if d.UpcomingEvents, err = svc.src.Events.Upcoming(ctx, usr.ID, upcomingEventsLimit); err != nil {
		return Vava{}, errors.Wrap(err, "listing events")
	}
	if d.UnreadNotifications, err = svc.src.Notifications.UnreadCount(ctx, usr.ID); err != nil {
		return Vava{}, errors.Wrap(err, "counting notifications")
	}
	if d.UnreadMessages, err = svc.src.Messages.UnreadCount(ctx, usr); err != nil {
		return Vava{}, errors.Wrap(err, "counting messages")
	}
	return d, nil
}

func (svc *Service) Nunu(ctx context.Context, usr user.User) (Nunu, error) {
	d := Nunu{Profile: usr}
	var err error

	if d.Students, err = svc.src.Coaching.Students(ctx, usr.ID); err != nil {
		return Nunu{}, errors.Wrap(err, "listing students")
	}
	if d.RecentFeedback, err = svc.src.Coaching.FeedbackGiven(ctx, usr.ID, recentFeedbackLimit); err != nil {
		return Nunu{}, errors.Wrap(err, "listing feedback")
	}
	if d.UnreadNotifications, err = svc.src.Notifications.UnreadCount(ctx, usr.ID); err != nil {
		return Nunu{}, errors.Wrap(err, "counting notifications")
	}
	if d.UnreadMessages, err = svc.src.Messages.UnreadCount(ctx, usr); err != nil {
		return Nunu{}, errors.Wrap(err, "counting messages")
	}
	return d, nil
}

// Stats returns the guardian counters, cached for a short while.
func (svc *Service) Stats(ctx context.Context) (Stats, error) {
	return core.Remember(ctx, svc.cache, statsCacheKey, statsTTL, func() (Stats, error) {
		var (
			s   Stats
			err error
		)
		if s.UsersByRole, err = svc.stats.CountUsersByRole(ctx); err != nil {
			return Stats{}, errors.Wrap(err, "counting users")
		}
		if s.ActivePaidSubscriptions, err = svc.stats.CountPaidSubscriptions(ctx, core.NowFunc()); err != nil {
			return Stats{}, errors.Wrap(err, "counting subscriptions")
		}
		if s.Courses, s.Lessons, err = svc.stats.CountCourses(ctx); err != nil {
			return Stats{}, errors.Wrap(err, "counting courses")
		}
		if s.Posts, err = svc.stats.CountPosts(ctx); err != nil {
			return Stats{}, errors.Wrap(err, "counting posts")
		}
		active, err := svc.src.Challenges.List(ctx, "", challenge.StatusActive)
		if err != nil {
			return Stats{}, errors.Wrap(err, "listing challenges")
		}
		s.ActiveChallenges = len(active)
		return s, nil
	})
}
