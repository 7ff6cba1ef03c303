package dispatcher

import (
	"fmt"

	"github.com/dshills/cmdqueue/internal/command"
	"github.com/dshills/cmdqueue/internal/invoker"
	"github.com/dshills/cmdqueue/internal/logging"
)

// Dispatcher builds commands and hands them to an invoker.
type Dispatcher struct {
	invoker  *invoker.Invoker
	receiver command.Receiver
	catalog  *Catalog
	logger   *logging.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithReceiver sets the default receiver bound to every dispatched command.
func WithReceiver(r command.Receiver) Option {
	return func(d *Dispatcher) {
		d.receiver = r
	}
}

// WithCatalog replaces the builtin variant catalog.
func WithCatalog(c *Catalog) Option {
	return func(d *Dispatcher) {
		if c != nil {
			d.catalog = c
		}
	}
}

// WithLogger sets the dispatcher logger.
func WithLogger(l *logging.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logging.OrNull(l).WithComponent("dispatcher")
	}
}

// New creates a dispatcher feeding inv.
func New(inv *invoker.Invoker, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		invoker: inv,
		catalog: DefaultCatalog(),
		logger:  logging.NullLogger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Invoker returns the invoker commands are enqueued on.
func (d *Dispatcher) Invoker() *invoker.Invoker {
	return d.invoker
}

// Catalog returns the variant catalog.
func (d *Dispatcher) Catalog() *Catalog {
	return d.catalog
}

// Receiver returns the default receiver, or nil.
func (d *Dispatcher) Receiver() command.Receiver {
	return d.receiver
}

// SetReceiver sets the default receiver. Nil disables binding.
func (d *Dispatcher) SetReceiver(r command.Receiver) {
	d.receiver = r
}

// Add builds a command of the named variant from args and enqueues it.
// The returned command is owned by the invoker; callers may inspect it but
// must not enqueue it again.
func (d *Dispatcher) Add(variant string, args ...any) (command.Command, error) {
	cmd, err := d.catalog.Build(variant, args...)
	if err != nil {
		return nil, err
	}
	if err := d.AddCommand(cmd); err != nil {
		return nil, err
	}
	return cmd, nil
}

// AddCommand binds the default receiver to cmd, if one is set, and enqueues it.
// A command that cannot be enqueued is disposed.
func (d *Dispatcher) AddCommand(cmd command.Command) error {
	if cmd == nil {
		return ErrNilCommand
	}
	if d.receiver != nil {
		cmd.SetReceiver(d.receiver)
	}

	if err := d.invoker.AddCommand(cmd); err != nil {
		_ = command.Dispose(cmd)
		return fmt.Errorf("dispatcher: enqueue %s: %w", command.NameOf(cmd), err)
	}

	d.logger.WithFields(map[string]any{
		"command": command.NameOf(cmd),
		"loop":    cmd.IsLoop(),
		"queued":  d.invoker.Len(),
	}).Debug("command enqueued")
	return nil
}

// Emit builds a command of a statically known type and enqueues it.
// build must return a non-nil command.
func Emit[C command.Command](d *Dispatcher, build func() C) (C, error) {
	cmd := build()
	if err := d.AddCommand(cmd); err != nil {
		var zero C
		return zero, err
	}
	return cmd, nil
}
