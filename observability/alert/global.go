package alert

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

//nolint:gochecknoglobals // process wide provider
var (
	global  atomic.Pointer[Provider]
	setOnce sync.Once
	noop    Provider = &noOpProvider{}
)

// SetGlobal installs the process wide provider used by the HTTP alerting
// middleware. It may be called once.
func SetGlobal(p Provider) error {
	if p == nil {
		return errors.New("[alert]: nil provider")
	}

	set := false
	setOnce.Do(func() {
		global.Store(&p)
		set = true
	})
	if !set {
		return errors.New("[alert]: SetGlobal called twice")
	}
	return nil
}

// Global returns the process wide provider, a no-op one before SetGlobal.
func Global() Provider {
	if p := global.Load(); p != nil {
		return *p
	}
	return noop
}

// SendError sends through the process wide provider.
func SendError(ctx context.Context, errCode, msg, operation string, details map[string]string) error {
	return Global().SendError(ctx, errCode, msg, operation, details)
}
