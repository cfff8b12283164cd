package server

import (
	"net"
	"strconv"
	"time"
)

// Config defines the HTTP listener of the service.
type Config struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"required"`

	// HideErrorDetails drops the errx trace and details from error responses.
	// Codes, kinds and messages are always sent.
	HideErrorDetails bool `yaml:"hide_error_details"`

	ReadTimeout time.Duration `yaml:"read_timeout" validate:"required" default:"30s"`

	// WriteTimeout must cover the hosting poll of an attach.
	WriteTimeout time.Duration `yaml:"write_timeout" validate:"required" default:"60s"`

	IdleTimeout time.Duration `yaml:"idle_timeout" validate:"required" default:"120s"`

	// HandleTimeout bounds the request context. Writes to the record store
	// that must not stop halfway detach from it.
	HandleTimeout time.Duration `yaml:"request_timeout" validate:"required" default:"60s"`

	// BodyLimit caps the request size, uploads included.
	BodyLimit int `yaml:"body_limit" validate:"required" default:"33554432"`
}

// Address returns host:port.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
