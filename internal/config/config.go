// Package config provides typed cmdqueue configuration.
//
// Layers are applied lowest to highest:
//
//	1. Built-in defaults (Default)
//	2. Config file, TOML or YAML by extension (optional)
//	3. .env file (optional, missing is fine)
//	4. CMDQUEUE_* environment variables
//
// Command line flags are applied on top by the caller.
package config

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dshills/cmdqueue/internal/config/loader"
	"github.com/dshills/cmdqueue/internal/invoker"
	"github.com/dshills/cmdqueue/internal/logging"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("config: invalid")

// DefaultPrompt is the question the console driver asks before each frame.
const DefaultPrompt = "collision? true(1)/false(0)"

// Config is the full cmdqueue configuration.
type Config struct {
	Invoker    InvokerConfig    `yaml:"invoker"`
	Logging    LoggingConfig    `yaml:"logging"`
	Dispatcher DispatcherConfig `yaml:"dispatcher"`
}

// InvokerConfig mirrors invoker.Config.
type InvokerConfig struct {
	MaxPasses     int  `yaml:"max_passes"`
	RecoverPanics bool `yaml:"recover_panics"`
	Metrics       bool `yaml:"metrics"`
}

// LoggingConfig selects log level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DispatcherConfig configures the default receiver and the builtin variants.
type DispatcherConfig struct {
	// Receiver is the listener registry key of the default receiver.
	Receiver string `yaml:"receiver"`
	// Prefix is written before every console message.
	Prefix string `yaml:"prefix"`
	// Prompt is shown by the console driver.
	Prompt string `yaml:"prompt"`
	// ScriptTimeout bounds one execution of a script command. Zero disables it.
	ScriptTimeout time.Duration `yaml:"script_timeout"`
}

// Default returns the built-in configuration.
func Default() Config {
	ic := invoker.DefaultConfig()
	return Config{
		Invoker: InvokerConfig{
			MaxPasses:     ic.MaxPasses,
			RecoverPanics: ic.RecoverFromPanic,
			Metrics:       ic.EnableMetrics,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: string(logging.FormatText),
		},
		Dispatcher: DispatcherConfig{
			Receiver:      "console",
			Prompt:        DefaultPrompt,
			ScriptTimeout: time.Second,
		},
	}
}

// Validate reports every invalid setting, joined.
func (c Config) Validate() error {
	var errs []error
	if c.Invoker.MaxPasses < 0 {
		errs = append(errs, fmt.Errorf("%w: invoker.max_passes must be >= 0, got %d", ErrInvalid, c.Invoker.MaxPasses))
	}
	if _, ok := logging.LookupLogLevel(c.Logging.Level); !ok {
		errs = append(errs, fmt.Errorf("%w: logging.level %q", ErrInvalid, c.Logging.Level))
	}
	switch logging.Format(c.Logging.Format) {
	case logging.FormatText, logging.FormatJSON:
	default:
		errs = append(errs, fmt.Errorf("%w: logging.format %q", ErrInvalid, c.Logging.Format))
	}
	if c.Dispatcher.Receiver == "" {
		errs = append(errs, fmt.Errorf("%w: dispatcher.receiver is empty", ErrInvalid))
	}
	if c.Dispatcher.ScriptTimeout < 0 {
		errs = append(errs, fmt.Errorf("%w: dispatcher.script_timeout must be >= 0", ErrInvalid))
	}
	return errors.Join(errs...)
}

// InvokerConfig translates the invoker section into an invoker.Config.
func (c Config) InvokerConfig() invoker.Config {
	ic := invoker.DefaultConfig().
		WithMaxPasses(c.Invoker.MaxPasses).
		WithPanicRecovery(c.Invoker.RecoverPanics)
	if c.Invoker.Metrics {
		ic = ic.WithMetrics()
	}
	return ic
}

// LoggerConfig translates the logging section, writing to out.
func (c Config) LoggerConfig(out io.Writer) logging.LoggerConfig {
	lc := logging.DefaultLoggerConfig()
	lc.Level = logging.ParseLogLevel(c.Logging.Level)
	lc.Format = logging.Format(c.Logging.Format)
	if out != nil {
		lc.Output = out
	}
	return lc
}

// decode applies a merged layer map on top of c. Keys absent from m keep
// their current values; unknown keys are ignored.
func (c *Config) decode(m map[string]any) error {
	if len(m) == 0 {
		return nil
	}
	root, err := toNode(m)
	if err != nil {
		return fmt.Errorf("config: encode layers: %w", err)
	}
	if err := root.Decode(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// toNode converts a layer map into a YAML node tree. Typed values from
// config files keep their tags; loader.Raw values become untagged scalars
// resolved by the field they decode into.
func toNode(v any) (*yaml.Node, error) {
	switch v := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, k := range keys {
			child, err := toNode(v[k])
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			n.Content = append(n.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}, child)
		}
		return n, nil
	case loader.Raw:
		n := &yaml.Node{Kind: yaml.ScalarNode, Value: string(v)}
		if v == "" {
			n.Tag = "!!str"
		}
		return n, nil
	default:
		n := &yaml.Node{}
		if err := n.Encode(v); err != nil {
			return nil, err
		}
		return n, nil
	}
}

// merge loads each layer in order and deep-merges the results.
func merge(layers ...loader.Loader) (map[string]any, error) {
	merged := make(map[string]any)
	for _, l := range layers {
		m, err := l.Load()
		if err != nil {
			return nil, err
		}
		merged = loader.DeepMerge(merged, m)
	}
	return merged, nil
}
