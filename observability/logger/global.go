package logger

import (
	"context"
	"sync"
	"sync/atomic"
)

//nolint:gochecknoglobals // process wide logger
var (
	global  atomic.Pointer[Logger]
	setOnce sync.Once
)

// SetGlobal installs the process wide logger. It panics when called twice or
// when cfg is invalid, both of which are startup bugs.
func SetGlobal(cfg Config) {
	set := false
	setOnce.Do(func() {
		l, err := New(cfg)
		if err != nil {
			panic("[logger]: invalid config: " + err.Error())
		}
		global.Store(&l)
		set = true
	})
	if !set {
		panic("[logger]: SetGlobal called twice")
	}
}

// Named returns a named child of the process wide logger.
func Named(name string) Logger {
	return getGlobal().Named(name)
}

// WithContext returns the process wide logger enriched with the metadata of ctx.
func WithContext(ctx context.Context) Logger {
	return getGlobal().WithContext(ctx)
}

// Fatalx logs err with the process wide logger and exits.
func Fatalx(err error) {
	getGlobal().Fatalx(err)
}

// Sync flushes the process wide logger.
func Sync() error {
	return getGlobal().Sync()
}

// getGlobal falls back to a json info logger until SetGlobal runs.
func getGlobal() Logger {
	if l := global.Load(); l != nil {
		return *l
	}

	l, err := New(Config{Level: "info", Encoding: encJSON})
	if err != nil {
		panic("[logger]: default logger: " + err.Error())
	}
	global.CompareAndSwap(nil, &l)
	return *global.Load()
}
