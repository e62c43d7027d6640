package observability

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/experimental/errmon"
	errmonsentry "github.com/facebookincubator/go-belt/tool/experimental/errmon/implementation/sentry"
	"github.com/facebookincubator/go-belt/tool/logger"
	xlogrus "github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
)

type Options struct {
	Program     string
	LoggerLevel logger.Level
	LogFile     string
	SentryDSN   string
	Output      io.Writer
}

// NewContext builds the root context carrying the logger (and the error
// monitor, if configured). The returned function flushes and closes
// everything that was opened.
func NewContext(
	ctx context.Context,
	opts Options,
) (context.Context, func()) {
	var closeFuncs []func()

	LogLevelFilter.SetLevel(opts.LoggerLevel)

	ll := xlogrus.DefaultLogrusLogger()
	if formatter, ok := ll.Formatter.(*logrus.TextFormatter); ok {
		formatter.FullTimestamp = true
	}
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	ll.SetOutput(out)
	l := xlogrus.New(ll).WithLevel(logger.LevelTrace).WithPreHooks(&LogLevelFilter)

	if opts.LogFile != "" {
		f, err := os.OpenFile(opts.LogFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0640)
		if err != nil {
			l.Errorf("unable to open log file '%s': %v", opts.LogFile, err)
		} else {
			ll.SetOutput(io.MultiWriter(out, f))
			closeFuncs = append(closeFuncs, func() { _ = f.Close() })
		}
	}

	logrus.SetLevel(xlogrus.LevelToLogrus(opts.LoggerLevel))

	if opts.SentryDSN != "" {
		l.Infof("setting up Sentry at DSN '%s'", opts.SentryDSN)
		sentryClient, err := sentry.NewClient(sentry.ClientOptions{
			Dsn: opts.SentryDSN,
		})
		if err != nil {
			l.Errorf("unable to initialize a Sentry client: %v", err)
		} else {
			sentryErrorMonitor := errmonsentry.New(sentryClient)
			ctx = errmon.CtxWithErrorMonitor(ctx, sentryErrorMonitor)
			l = l.WithPreHooks(NewErrorMonitorLoggerHook(ctx, sentryErrorMonitor))
		}
	}

	ctx = logger.CtxWithLogger(ctx, l)
	if opts.Program != "" {
		ctx = belt.WithField(ctx, "program", strings.ToLower(opts.Program))
	}
	ctx = belt.WithField(ctx, "pid", os.Getpid())

	l = logger.FromCtx(ctx)
	logger.Default = func() logger.Logger {
		return l
	}

	return ctx, func() {
		belt.Flush(ctx)
		for i := len(closeFuncs) - 1; i >= 0; i-- {
			closeFuncs[i]()
		}
	}
}

// ParseLogLevel is like logger.Level.Set, but also accepts "verbose".
func ParseLogLevel(s string) (logger.Level, error) {
	if s == "verbose" {
		return logger.LevelDebug, nil
	}
	var level logger.Level
	if err := level.Set(s); err != nil {
		return logger.LevelUndefined, fmt.Errorf("unable to parse log level '%s': %w", s, err)
	}
	if level == logger.LevelUndefined {
		return logger.LevelUndefined, fmt.Errorf("unexpected log level '%s'", s)
	}
	return level, nil
}
