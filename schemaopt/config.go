package schemaopt

import "time"

// Config defines the season field and the placeholder record used to add choices.
type Config struct {
	// Table is the name or id of the table holding the season field.
	Table string `yaml:"table" validate:"required" default:"Projects"`

	// Field is the name of the season select field. Braces are rejected since
	// the name is embedded in {...} formula references.
	Field string `yaml:"field" validate:"required,excludesall={}" default:"Season"`

	// SentinelField and SentinelValue mark placeholder records so that usage
	// checks can exclude them.
	SentinelField string `yaml:"sentinel_field" validate:"required,excludesall={}" default:"Notes"`
	SentinelValue string `yaml:"sentinel_value" validate:"required" default:"__season_placeholder__"`

	// PlaceholderFields are static values for every other field the record
	// store requires on create.
	PlaceholderFields map[string]any `yaml:"placeholder_fields"`

	// DeleteRetryDelay is the wait before the single retry of a failed placeholder delete.
	DeleteRetryDelay time.Duration `yaml:"delete_retry_delay" default:"500ms"`

	// SkipVerifyAfterAdd disables the schema re-read that confirms a new choice.
	// Adds then return the advisory "potentially added" result.
	SkipVerifyAfterAdd bool `yaml:"skip_verify_after_add"`
}
