// Package alert sends error reports that need human attention to Sentinel.
//
// The service raises alerts for internal errors of HTTP requests and for
// placeholder records left behind by a failed season cleanup.
package alert

import (
	"context"
	"sync"
)

// Provider defines the interface for sending error alerts.
type Provider interface {
	// SendError sends an error alert.
	// errCode identifies the error, operation names where it happened and
	// details carries additional key-value context.
	SendError(ctx context.Context, errCode, msg, operation string, details map[string]string) error
}

// NewProvider creates the Sentinel provider, or a no-op one when cfg.Disable is set.
// The Sentinel provider implements io.Closer.
func NewProvider(cfg Config, serviceName, serviceVersion string) (Provider, error) {
	if cfg.Disable {
		return &noOpProvider{}, nil
	}
	return newSentinel(cfg, serviceName, serviceVersion)
}

// noOpProvider is a no-operation alert provider that does nothing.
type noOpProvider struct{}

func (n *noOpProvider) SendError(_ context.Context, _, _, _ string, _ map[string]string) error {
	return nil
}

// Sent is one alert captured by a Recorder.
type Sent struct {
	Code      string
	Message   string
	Operation string
	Details   map[string]string
}

// Recorder is a Provider that keeps alerts in memory. Used in tests.
type Recorder struct {
	mu   sync.Mutex
	sent []Sent
}

// SendError implements Provider.
func (r *Recorder) SendError(_ context.Context, errCode, msg, operation string, details map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sent = append(r.sent, Sent{Code: errCode, Message: msg, Operation: operation, Details: details})
	return nil
}

// Sent returns the captured alerts.
func (r *Recorder) Sent() []Sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Sent(nil), r.sent...)
}
