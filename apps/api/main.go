package main

import (
	"context"
	"expvar"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/nuvatw/nuva-club/apps/api/di"
	echoapi "github.com/nuvatw/nuva-club/apps/api/echo"
	"github.com/nuvatw/nuva-club/core"
	"github.com/nuvatw/nuva-club/core/demo"
	appfs "github.com/nuvatw/nuva-club/fs"
	emailsvc "github.com/nuvatw/nuva-club/services/email"
	logsvc "github.com/nuvatw/nuva-club/services/logger"
	"github.com/nuvatw/nuva-club/storage/boltstore"
	"github.com/nuvatw/nuva-club/storage/cache"
	"github.com/nuvatw/nuva-club/storage/database"
	"github.com/nuvatw/nuva-club/storage/media"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "api: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// =========================================================================
	// Set up Dependencies

	conf, err := core.NewConfig()
	if err != nil {
		return errors.Wrap(err, "loading config")
	}

	logger := logsvc.NewRollbarLogger(os.Stdout, conf)
	logger.Enable(!conf.Debug)

	ctx := context.Background()

	db, err := setUpDB(ctx, conf)
	if err != nil {
		return errors.Wrap(err, "setting up database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("closing database", err)
		}
	}()

	appCache, closeCache, err := newCache(ctx, conf, logger)
	if err != nil {
		return errors.Wrap(err, "setting up cache")
	}
	defer closeCache()

	mediaStore, err := newMediaStore(ctx, conf)
	if err != nil {
		return errors.Wrap(err, "setting up media storage")
	}

	var demoStore demo.Persister = demo.NewMemoryPersister()
	if conf.Demo.BoltPath != "" {
		bolt, err := boltstore.Open(conf.Demo.BoltPath)
		if err != nil {
			return errors.Wrap(err, "opening demo store")
		}
		defer func() { _ = bolt.Close() }()
		demoStore = bolt
	}

	if err = core.ParseEmailTemplates(appfs.FS, appfs.EmailTemplatesDir, true); err != nil {
		return errors.Wrap(err, "parsing email templates")
	}
	var mailSvc core.EmailService
	if conf.Debug || conf.SendgridApiKey == "" {
		mailSvc = emailsvc.NewConsoleService(conf, os.Stdout, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	deps := di.NewDeps(conf, di.Infra{
		DB:     db,
		Cache:  appCache,
		Media:  mediaStore,
		Mail:   mailSvc,
		Logger: logger,
		Demo:   demoStore,
	})

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error("debug server closed", err)
		}
	}()

	// =========================================================================
	// Start API Service

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	server := echoapi.NewServer(conf, shutdown, deps)
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("API listening on " + conf.Server.Address())
		serverErrors <- server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-serverErrors:
		return errors.Wrap(err, "server error")

	case sig := <-shutdown:
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(ctx, conf.Server.ShutdownTimeout)
		defer cancel()

		if err = server.Stop(ctx); err != nil {
			return errors.Wrap(err, "could not stop server gracefully")
		}
	}
	return nil
}

func setUpDB(ctx context.Context, conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(ctx, conf); err != nil {
		return nil, err
	}
	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}
	if err = database.Ping(ctx, db); err != nil {
		return nil, err
	}
	if err = database.Migrate(ctx, db); err != nil {
		return nil, err
	}
	return db, nil
}

// newCache connects to redis when enabled and falls back to an in-process cache otherwise.
func newCache(ctx context.Context, conf *core.Config, logger core.Logger) (core.Cache, func(), error) {
	if !conf.Redis.Enabled {
		return cache.NewMemory(), func() {}, nil
	}
	rc, err := cache.NewRedis(conf.Redis)
	if err != nil {
		return nil, nil, err
	}
	if err = rc.Ping(ctx); err != nil {
		_ = rc.Close()
		return nil, nil, errors.Wrap(err, "pinging redis")
	}
	return rc, func() {
		if err := rc.Close(); err != nil {
			logger.Error("closing redis", err)
		}
	}, nil
}

func newMediaStore(ctx context.Context, conf *core.Config) (core.MediaStore, error) {
	if conf.Media.Backend == "b2" {
		store, err := media.NewB2(ctx, conf.Media)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	store, err := media.NewLocal(conf.Media)
	if err != nil {
		return nil, err
	}
	return store, nil
}
