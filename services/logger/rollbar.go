// Package logsvc reports to Rollbar and prints to the console through slog.
package logsvc

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/nuvatw/nuva-club/core"
)

type RollbarLogger struct {
	console *slog.Logger
	exit    func(code int)
}

var _ core.Logger = (*RollbarLogger)(nil)

// NewRollbarLogger configures the rollbar client and writes colored logs to w.
func NewRollbarLogger(w io.Writer, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)

	level := slog.LevelInfo
	if conf.Debug {
		level = slog.LevelDebug
	}
	return &RollbarLogger{
		console: slog.New(tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
			NoColor:    conf.TestMode,
		})),
		exit: os.Exit,
	}
}

// Enable toggles reporting to rollbar; console output is always on.
func (l *RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// prepare splits args into rollbar's (msg, error, extras) and slog attributes.
// The first core.Person becomes the rollbar person.
func (l *RollbarLogger) prepare(msg string, args []interface{}) ([]interface{}, []slog.Attr) {
	var person *core.Person
	rbArgs := make([]interface{}, 0, len(args)+1)
	rbArgs = append(rbArgs, msg)
	attrs := make([]slog.Attr, 0, len(args))

	for _, arg := range args {
		switch v := arg.(type) {
		case core.Person:
			if person == nil {
				person = &v
				attrs = append(attrs, slog.String("user", v.ID))
			}
			continue
		case error:
			attrs = append(attrs, tint.Err(v))
		case map[string]interface{}:
			for k, val := range v {
				attrs = append(attrs, slog.Any(k, val))
			}
		default:
			attrs = append(attrs, slog.Any("arg", v))
		}
		rbArgs = append(rbArgs, arg)
	}

	if person != nil {
		rollbar.SetPerson(person.ID, person.Username, person.Email)
	} else {
		rollbar.ClearPerson()
	}
	return rbArgs, attrs
}

func (l *RollbarLogger) print(level slog.Level, msg string, attrs []slog.Attr) {
	l.console.LogAttrs(context.Background(), level, msg, attrs...)
}

func (l *RollbarLogger) Debug(msg string, args ...interface{}) {
	rbArgs, attrs := l.prepare(msg, args)
	rollbar.Debug(rbArgs...)
	l.print(slog.LevelDebug, msg, attrs)
}

func (l *RollbarLogger) Info(msg string, args ...interface{}) {
	rbArgs, attrs := l.prepare(msg, args)
	rollbar.Info(rbArgs...)
	l.print(slog.LevelInfo, msg, attrs)
}

func (l *RollbarLogger) Warn(msg string, args ...interface{}) {
	rbArgs, attrs := l.prepare(msg, args)
	rollbar.Warning(rbArgs...)
	l.print(slog.LevelWarn, msg, attrs)
}

func (l *RollbarLogger) Error(msg string, args ...interface{}) {
	rbArgs, attrs := l.prepare(msg, args)
	rollbar.Error(rbArgs...)
	l.print(slog.LevelError, msg, attrs)
}

func (l *RollbarLogger) Fatal(msg string, args ...interface{}) {
	rbArgs, attrs := l.prepare(msg, args)
	rollbar.Critical(rbArgs...)
	l.print(slog.LevelError, msg, attrs)
	rollbar.Wait()
	l.exit(1)
}
