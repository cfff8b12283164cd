package airtable

import "time"

// Config defines the configuration options for the Airtable record store client.
type Config struct {
	// BaseURL is the API root. Overridden in tests.
	BaseURL string `yaml:"base_url" validate:"required,url" default:"https://api.airtable.com"`

	// APIKey is the personal access token sent as a bearer token.
	APIKey string `yaml:"api_key" validate:"required" mask:"true"`

	// BaseID identifies the base holding the project tables.
	BaseID string `yaml:"base_id" validate:"required"`

	// Timeout bounds a single HTTP round trip.
	Timeout time.Duration `yaml:"timeout" default:"30s"`
}
