// Package logger is the structured logger of the service, a thin layer over
// zap that knows how to print errx errors and request metadata.
package logger

import (
	"context"
	"errors"

	"github.com/code19m/errx"
	"go.uber.org/zap"

	"github.com/rise-and-shine/projectdocs/meta"
)

// Logger is the logging interface handed to every component.
type Logger interface {
	Debug(args ...any)
	Info(args ...any)
	Warn(args ...any)
	Error(args ...any)

	// Warnx, Errorx and Fatalx log err with its errx code, type, trace,
	// fields and details. Fatalx exits the process.
	Warnx(err error)
	Errorx(err error)
	Fatalx(err error)

	// Criticalx logs above error level without exiting. It is kept for
	// conditions that need an operator, such as a placeholder record that
	// could not be removed.
	Criticalx(err error)

	With(keysAndValues ...any) Logger

	// WithContext adds the request metadata found in ctx: trace id, actor,
	// project id and the like.
	WithContext(ctx context.Context) Logger

	Named(name string) Logger

	// Sync flushes buffered entries. Call it on shutdown.
	Sync() error
}

type logger struct {
	*zap.SugaredLogger
}

// New creates a Logger. A disabled config yields a no-op logger whatever the level.
func New(cfg Config) (Logger, error) {
	if cfg.Disable {
		return &logger{zap.NewNop().Sugar()}, nil
	}

	zc, err := cfg.zapConfig()
	if err != nil {
		return nil, err
	}

	if cfg.Encoding == encPretty {
		return &logger{newPrettyLogger(zc).Sugar()}, nil
	}

	z, err := zc.Build()
	if err != nil {
		return nil, errx.Wrap(err)
	}
	return &logger{z.Sugar()}, nil
}

func (l *logger) Warnx(err error) {
	l.withErrorFields(err).Warn(err.Error())
}

func (l *logger) Errorx(err error) {
	l.withErrorFields(err).Error(err.Error())
}

func (l *logger) Fatalx(err error) {
	l.withErrorFields(err).Fatal(err.Error())
}

func (l *logger) Criticalx(err error) {
	l.withErrorFields(err).DPanic(err.Error())
}

// withErrorFields returns l unchanged for errors that are not errx errors.
func (l *logger) withErrorFields(err error) *logger {
	var e errx.ErrorX
	if !errors.As(err, &e) {
		return l
	}
	return &logger{l.SugaredLogger.With(
		"error_code", e.Code(),
		"error_type", e.Type().String(),
		"error_trace", e.Trace(),
		"error_fields", e.Fields(),
		"error_details", e.Details(),
	)}
}

func (l *logger) With(keysAndValues ...any) Logger {
	return &logger{l.SugaredLogger.With(keysAndValues...)}
}

func (l *logger) WithContext(ctx context.Context) Logger {
	if ctx == nil {
		return l
	}

	var kv []any
	for k, v := range meta.ExtractMetaFromContext(ctx) {
		if v != "" {
			kv = append(kv, string(k), v)
		}
	}
	if len(kv) == 0 {
		return l
	}
	return l.With(kv...)
}

func (l *logger) Named(name string) Logger {
	return &logger{l.SugaredLogger.Named(name)}
}
