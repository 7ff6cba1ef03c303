package invoker

// Config holds invoker configuration options.
type Config struct {
	// MaxPasses bounds the number of passes a single Update may run.
	// Zero means no limit: a queue holding a looping command is then drained
	// only by an explicit removal or by cancelling the Update context.
	MaxPasses int

	// RecoverFromPanic wraps command execution in panic recovery.
	// A recovered panic is reported like a returned error.
	RecoverFromPanic bool

	// EnableMetrics enables execution timing and statistics collection.
	EnableMetrics bool
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxPasses:        0,
		RecoverFromPanic: true,
		EnableMetrics:    false,
	}
}

// WithMaxPasses returns a copy of the config with the pass limit set.
func (c Config) WithMaxPasses(max int) Config {
	c.MaxPasses = max
	return c
}

// WithPanicRecovery returns a copy of the config with panic recovery set.
func (c Config) WithPanicRecovery(recover bool) Config {
	c.RecoverFromPanic = recover
	return c
}

// WithMetrics returns a copy of the config with metrics enabled.
func (c Config) WithMetrics() Config {
	c.EnableMetrics = true
	return c
}
