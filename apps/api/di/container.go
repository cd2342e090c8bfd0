// Package di builds the API dependency graph from its infrastructure.
package di

import (
	"context"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	echoapi "github.com/nuvatw/nuva-club/apps/api/echo"
	"github.com/nuvatw/nuva-club/core"
	"github.com/nuvatw/nuva-club/core/challenge"
	"github.com/nuvatw/nuva-club/core/coaching"
	"github.com/nuvatw/nuva-club/core/community"
	"github.com/nuvatw/nuva-club/core/course"
	"github.com/nuvatw/nuva-club/core/dashboard"
	"github.com/nuvatw/nuva-club/core/demo"
	"github.com/nuvatw/nuva-club/core/event"
	"github.com/nuvatw/nuva-club/core/message"
	"github.com/nuvatw/nuva-club/core/notification"
	"github.com/nuvatw/nuva-club/core/subscription"
	"github.com/nuvatw/nuva-club/core/user"
	"github.com/nuvatw/nuva-club/storage/database/sqlxrepos"
)

// Infra is everything that talks to the outside world.
type Infra struct {
	DB     *sqlx.DB
	Cache  core.Cache
	Media  core.MediaStore
	Mail   core.EmailService
	Logger core.Logger
	Demo   demo.Persister
}

// NewValidator returns the validator with every custom rule registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate, translator := core.NewValidator()
	user.InitValidators(validate, translator)
	return validate, translator
}

// NewDeps wires the repositories and services on top of infra.
func NewDeps(conf *core.Config, infra Infra) *echoapi.Deps {
	validate, translator := NewValidator()

	usrSvc := user.NewService(sqlxrepos.NewUserRepository(infra.DB), infra.Mail, conf)
	subSvc := subscription.NewService(sqlxrepos.NewSubscriptionRepository(infra.DB))
	usrSvc.UseTransactor(sqlxrepos.NewTransactor(infra.DB))
	usrSvc.OnCreate(func(ctx context.Context, usr user.User) error {
		_, err := subSvc.StartFree(ctx, usr.ID)
		return errors.Wrap(err, "starting free subscription")
	})
	notifSvc := notification.NewService(sqlxrepos.NewNotificationRepository(infra.DB), usrSvc)
	courseSvc := course.NewService(sqlxrepos.NewCourseRepository(infra.DB), infra.Cache, subSvc)
	challengeSvc := challenge.NewService(sqlxrepos.NewChallengeRepository(infra.DB))
	communitySvc := community.NewService(sqlxrepos.NewCommunityRepository(infra.DB), notifSvc, infra.Logger)
	messageSvc := message.NewService(sqlxrepos.NewMessageRepository(infra.DB), usrSvc, notifSvc, infra.Logger)
	coachingSvc := coaching.NewService(sqlxrepos.NewCoachingRepository(infra.DB), usrSvc, courseSvc, notifSvc, infra.Logger)
	eventSvc := event.NewService(sqlxrepos.NewEventRepository(infra.DB))

	dashSvc := dashboard.NewService(
		dashboard.Sources{
			Subscriptions: subSvc,
			Courses:       courseSvc,
			Challenges:    challengeSvc,
			Coaching:      coachingSvc,
			Events:        eventSvc,
			Notifications: notifSvc,
			Messages:      messageSvc,
		},
		sqlxrepos.NewStatsRepository(infra.DB),
		infra.Cache,
	)

	persister := infra.Demo
	if persister == nil {
		persister = demo.NewMemoryPersister()
	}

	return &echoapi.Deps{
		Logger:     infra.Logger,
		Validate:   validate,
		Translator: translator,
		Media:      infra.Media,

		UserSvc:         usrSvc,
		CourseSvc:       courseSvc,
		ChallengeSvc:    challengeSvc,
		CommunitySvc:    communitySvc,
		MessageSvc:      messageSvc,
		CoachingSvc:     coachingSvc,
		EventSvc:        eventSvc,
		NotificationSvc: notifSvc,
		SubscriptionSvc: subSvc,
		DashboardSvc:    dashSvc,
		DemoStore:       demo.NewStore(persister),
	}
}
