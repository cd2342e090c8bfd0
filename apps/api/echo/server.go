// Package echoapi exposes the club over a JSON REST API served by echo.
package echoapi

import (
	"context"
	"net/http"
	"os"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

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
)

type (
	Deps struct {
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator
		Media      core.MediaStore

		UserSvc         *user.Service
		CourseSvc       *course.Service
		ChallengeSvc    *challenge.Service
		CommunitySvc    *community.Service
		MessageSvc      *message.Service
		CoachingSvc     *coaching.Service
		EventSvc        *event.Service
		NotificationSvc *notification.Service
		SubscriptionSvc *subscription.Service
		DashboardSvc    *dashboard.Service
		DemoStore       *demo.Store
	}

	Server interface {
		http.Handler
		Start() error
		Stop(context.Context) error
	}

	server struct {
		conf     *core.Config
		shutdown chan<- os.Signal
		deps     *Deps
		app      *echo.Echo
		metrics  *metrics
	}
)

var _ Server = (*server)(nil)

// NewServer builds the API. A nil shutdown channel disables shutdown signaling (tests).
func NewServer(conf *core.Config, shutdown chan<- os.Signal, deps *Deps) Server {
	s := &server{
		conf:     conf,
		shutdown: shutdown,
		deps:     deps,
		app:      echo.New(),
		metrics:  newMetrics(),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	s.app.HideBanner = true
	s.app.Debug = s.conf.Debug

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.conf.Server.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(s.conf.Debug || s.conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{s.conf.FrontendBaseURL},
	}))
	s.app.Use(s.metrics.middleware)

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)

	s.app.GET("/", s.home)
	s.app.GET("/metrics", s.metrics.handler())
	if s.deps.Media != nil && s.conf.Media.Backend == "local" {
		s.app.Static("/media", s.conf.Media.LocalDir)
	}

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(jwtConfig(s.conf))
	b := baseAPI{conf: s.conf, logger: s.deps.Logger, validate: s.deps.Validate, users: s.deps.UserSvc}

	registerUserAPI(v1, jwt, b, s.deps)
	registerCourseAPI(v1, jwt, b, s.deps)
	registerChallengeAPI(v1, jwt, b, s.deps.ChallengeSvc)
	registerCommunityAPI(v1, jwt, b, s.deps.CommunitySvc)
	registerMessageAPI(v1, jwt, b, s.deps.MessageSvc)
	registerCoachingAPI(v1, jwt, b, s.deps.CoachingSvc)
	registerEventAPI(v1, jwt, b, s.deps.EventSvc)
	registerNotificationAPI(v1, jwt, b, s.deps.NotificationSvc)
	registerSubscriptionAPI(v1, jwt, b, s.deps.SubscriptionSvc)
	registerDashboardAPI(v1, jwt, b, s.deps.DashboardSvc)
	registerDemoAPI(v1, b, s.deps.DemoStore)
}

func (s *server) signalShutdown() {
	if s.shutdown != nil {
		s.shutdown <- syscall.SIGTERM
	}
}

// Start blocks until the server stops; http.ErrServerClosed is returned after Stop.
func (s *server) Start() error {
	return s.app.Start(s.conf.Server.Address())
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.conf.AppName+" API!")
}

// baseAPI holds what every handler group needs.
type baseAPI struct {
	conf     *core.Config
	logger   core.Logger
	validate *validator.Validate
	users    *user.Service
}

// ctxUser returns the authenticated user.
func (b baseAPI) ctxUser(ctx echo.Context) (user.User, error) {
	return getContextUser(ctx, b.users)
}

func (b baseAPI) reqCtx(ctx echo.Context) context.Context {
	return ctx.Request().Context()
}
