package alert

import "time"

// Config points the provider at a Sentinel server.
type Config struct {
	// Disable turns alerting off. Local and test environments set it.
	Disable bool `yaml:"disable" default:"false"`

	SentinelHost string `yaml:"sentinel_host" validate:"required_if=Disable false"`
	SentinelPort int    `yaml:"sentinel_port" validate:"required_if=Disable false"`

	// SendTimeout bounds one report. Reports never wait on the request that raised them.
	SendTimeout time.Duration `yaml:"send_timeout" default:"3s"`
}
