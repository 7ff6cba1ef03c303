package loader

import (
	"os"
	"strings"
)

// DefaultEnvPrefix is the prefix of recognized environment variables.
const DefaultEnvPrefix = "CMDQUEUE_"

// Raw is an environment value kept as written. It is resolved against the type
// of the setting it lands in, so "007" stays "007" for a string setting and
// becomes 7 for an integer one.
type Raw string

// EnvLoader loads configuration from environment variables.
type EnvLoader struct {
	prefix  string            // Environment variable prefix (e.g., "CMDQUEUE_")
	mapping map[string]string // Env var -> config path
	environ func() []string
}

// NewEnvLoader creates a loader reading the process environment.
// The prefix should include the trailing underscore.
func NewEnvLoader(prefix string) *EnvLoader {
	return &EnvLoader{
		prefix:  prefix,
		mapping: defaultEnvMapping(prefix),
		environ: os.Environ,
	}
}

// NewEnvLoaderWithEnviron creates a loader reading "KEY=value" pairs from environ.
func NewEnvLoaderWithEnviron(prefix string, environ func() []string) *EnvLoader {
	l := NewEnvLoader(prefix)
	l.environ = environ
	return l
}

// defaultEnvMapping returns the short aliases for common settings.
func defaultEnvMapping(prefix string) map[string]string {
	return map[string]string{
		prefix + "LOG_LEVEL":      "logging.level",
		prefix + "LOG_FORMAT":     "logging.format",
		prefix + "MAX_PASSES":     "invoker.max_passes",
		prefix + "METRICS":        "invoker.metrics",
		prefix + "RECOVER_PANICS": "invoker.recover_panics",
		prefix + "PROMPT":         "dispatcher.prompt",
	}
}

// AddMapping adds a custom environment variable mapping.
func (l *EnvLoader) AddMapping(envVar, configPath string) {
	l.mapping[envVar] = configPath
}

// Load reads environment variables and returns a configuration map.
// Empty values are kept, not treated as unset.
func (l *EnvLoader) Load() (map[string]any, error) {
	vars := make(map[string]string)
	for _, kv := range l.environ() {
		name, value, ok := strings.Cut(kv, "=")
		if ok {
			vars[name] = value
		}
	}
	return l.FromMap(vars), nil
}

// FromMap converts prefixed variables in vars into a configuration map.
// Variables without the prefix are ignored.
func (l *EnvLoader) FromMap(vars map[string]string) map[string]any {
	config := make(map[string]any)
	for name, value := range vars {
		if !strings.HasPrefix(name, l.prefix) {
			continue
		}
		path, ok := l.mapping[name]
		if !ok {
			path = l.envToPath(name)
		}
		if path == "" {
			continue
		}
		setByPath(config, path, Raw(value))
	}
	return config
}

// envToPath converts CMDQUEUE_INVOKER_MAX_PASSES to invoker.max_passes.
func (l *EnvLoader) envToPath(env string) string {
	name := strings.ToLower(strings.TrimPrefix(env, l.prefix))
	section, key, ok := strings.Cut(name, "_")
	if !ok || section == "" || key == "" {
		return ""
	}
	return section + "." + key
}
