// Package cfgloader provides a simple way to load and validate configuration at the start of an application.
package cfgloader

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"

	"github.com/code19m/errx"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	EnvProduction = "production"
	EnvStaging    = "staging"
	EnvDev        = "dev"
	EnvLocal      = "local"
	EnvTest       = "test"
)

// MustLoad loads and validates configuration from a YAML file based on the ENVIRONMENT variable.
// The files must be named in the format ${ENVIRONMENT}.yaml and located in the config directory
// at the root of the project. Any failure is logged and terminates the process.
//
// The configuration struct should use `yaml` struct tags to map fields to the YAML file structure.
// Default values are set with the `default` struct tag (creasty/defaults) and applied before
// validation. Validation uses `validate` tags (go-playground/validator).
//
// Example:
//
//	type Config struct {
//	    Host     string `yaml:"host" validate:"required"`
//	    Port     int    `yaml:"port" default:"8080"`
//	    LogLevel string `yaml:"log_level" default:"info"`
//	}
//
// Unless WithSilent is passed, the loaded config is printed with `mask:"true"` fields hidden.
func MustLoad[T any](opts ...Option) T {
	o := Options{Dir: "./config"}
	for _, opt := range opts {
		opt(&o)
	}

	var config T
	ensureNotPointer(config)

	_ = godotenv.Load()

	env := defineEnvironment()

	config, err := LoadFile[T](filepath.Join(o.Dir, env+".yaml"))
	if err != nil {
		slog.Error(fmt.Sprintf("[cfgloader]: %s config: %v", env, err))
		os.Exit(1)
	}

	if !o.Silent {
		printConfig(config)
	}

	return config
}

// LoadFile reads, expands, defaults and validates the YAML config at path.
func LoadFile[T any](path string) (T, error) {
	var config T

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return config, errx.New(
			"config file not found - make sure that the yaml file exists for each environment",
			errx.WithDetails(errx.D{"path": path}),
		)
	}
	if err != nil {
		return config, errx.Wrap(err, errx.WithDetails(errx.D{"path": path}))
	}

	data = replaceEnvVars(data)

	if err = yaml.Unmarshal(data, &config); err != nil {
		return config, errx.Wrap(err, errx.WithDetails(errx.D{"path": path}))
	}

	if err = defaults.Set(&config); err != nil {
		return config, errx.Wrap(err)
	}

	if err = validateConfig(&config); err != nil {
		return config, err
	}

	return config, nil
}

func ensureNotPointer(config any) {
	if reflect.ValueOf(config).Kind() == reflect.Ptr {
		slog.Error("[cfgloader]: arg config must not be a pointer")
		os.Exit(1)
	}
}

func defineEnvironment() string {
	env := os.Getenv("ENVIRONMENT")
	if !slices.Contains([]string{EnvProduction, EnvStaging, EnvDev, EnvLocal, EnvTest}, env) {
		slog.Error(
			"[cfgloader]: ENVIRONMENT env variable is not set or invalid. Choices are: production, staging, dev, local, test",
		)
		os.Exit(1)
	}
	return env
}

func replaceEnvVars(data []byte) []byte {
	return []byte(os.ExpandEnv(string(data)))
}

func validateConfig(config any) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	err := v.Struct(config)

	failedFields := make([]string, 0)
	if errs, ok := err.(validator.ValidationErrors); ok { //nolint: errorlint // Using type assertion for validator errors handling
		for _, err := range errs {
			tagErr := err.Tag()
			if err.Param() != "" {
				tagErr += fmt.Sprintf("=%s", err.Param())
			}
			failedFields = append(failedFields, fmt.Sprintf("%s: %s", err.Namespace(), tagErr))
		}
	}

	if len(failedFields) > 0 {
		return errx.New("invalid config fields -> " + strings.Join(failedFields, ",  "))
	}
	return nil
}
