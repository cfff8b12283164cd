package cfgloader

// Options tune MustLoad.
type Options struct {
	// Silent skips printing the loaded config.
	Silent bool

	// Dir holds the ${ENVIRONMENT}.yaml files. Defaults to ./config.
	Dir string
}

// Option sets a field of Options.
type Option func(*Options)

// WithSilent skips printing the loaded config, for tools whose stdout is data.
func WithSilent() Option {
	return func(o *Options) { o.Silent = true }
}

// WithDir loads the config files from dir instead of ./config.
func WithDir(dir string) Option {
	return func(o *Options) { o.Dir = dir }
}
