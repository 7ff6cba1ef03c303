package config

import (
	"os"

	"github.com/dshills/cmdqueue/internal/config/loader"
)

// DefaultDotenvPath is the .env file read when no other path is given.
const DefaultDotenvPath = ".env"

type loadOptions struct {
	fs         loader.FileSystem
	file       string
	dotenv     string
	envPrefix  string
	environ    func() []string
	skipEnv    bool
	skipDotenv bool
}

// Option configures Load.
type Option func(*loadOptions)

// WithFile sets the config file. Its extension selects TOML or YAML.
// A missing file is not an error.
func WithFile(path string) Option {
	return func(o *loadOptions) {
		o.file = path
	}
}

// WithDotenv sets the .env path. An empty path disables the .env layer.
func WithDotenv(path string) Option {
	return func(o *loadOptions) {
		o.dotenv = path
		o.skipDotenv = path == ""
	}
}

// WithFS sets the file system used for the file and .env layers.
func WithFS(fsys loader.FileSystem) Option {
	return func(o *loadOptions) {
		o.fs = fsys
	}
}

// WithEnviron replaces os.Environ as the source of environment variables.
func WithEnviron(environ func() []string) Option {
	return func(o *loadOptions) {
		o.environ = environ
	}
}

// WithoutEnv disables the environment variable layer.
func WithoutEnv() Option {
	return func(o *loadOptions) {
		o.skipEnv = true
	}
}

// Load builds a Config from defaults, the optional config file, the optional
// .env file and CMDQUEUE_* environment variables, then validates it.
func Load(opts ...Option) (Config, error) {
	o := loadOptions{
		fs:        loader.DefaultFS(),
		dotenv:    DefaultDotenvPath,
		envPrefix: loader.DefaultEnvPrefix,
		environ:   os.Environ,
	}
	for _, opt := range opts {
		opt(&o)
	}

	var layers []loader.Loader
	if o.file != "" {
		fl, err := loader.ForFile(o.fs, o.file)
		if err != nil {
			return Config{}, err
		}
		layers = append(layers, fl)
	}
	if !o.skipDotenv {
		layers = append(layers, loader.NewDotenvLoaderWithFS(o.fs, o.dotenv, o.envPrefix))
	}
	if !o.skipEnv {
		layers = append(layers, loader.NewEnvLoaderWithEnviron(o.envPrefix, o.environ))
	}

	merged, err := merge(layers...)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()
	if err := cfg.decode(merged); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
