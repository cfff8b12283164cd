package tracing

import "time"

const (
	reconnectionPeriod = 30 * time.Second
	clientTimeout      = 10 * time.Second
	maxQueueSize       = 4096
	batchTimeout       = 5 * time.Second
	maxExportBatchSize = 512
)

// Config holds the configuration for the tracing system.
type Config struct {
	// Disable, if true, installs a no-op tracer provider. Spans are still
	// started by the facade but never exported.
	Disable bool `yaml:"disable" default:"false"`

	// SampleRate is the sampled fraction of root traces, from 0.0 to 1.0.
	SampleRate float64 `yaml:"sample_rate" default:"1" validate:"gte=0,lte=1"`

	// ExporterHost is the hostname of the OTLP collector.
	ExporterHost string `yaml:"exporter_host" validate:"required_if=Disable false"`

	// ExporterPort is the gRPC port of the OTLP collector.
	ExporterPort int `yaml:"exporter_port" validate:"required_if=Disable false"`

	// Tags are added as resource attributes to all spans.
	Tags map[string]string `yaml:"tags"`
}
