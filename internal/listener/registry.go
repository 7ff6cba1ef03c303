// Package listener provides a keyed, owning store of receivers.
//
// The registry owns what it stores: replacing or deleting an entry disposes
// the previous receiver (see command.Dispose). Commands should not hold the
// strong value returned by Get across a Delete; a command bound to a deleted
// receiver keeps calling a disposed object. Bind a Ref instead, which reports
// ErrReceiverGone once its receiver has left the registry.
package listener

import (
	"errors"
	"fmt"
	"sort"

	"github.com/dshills/cmdqueue/internal/command"
	"github.com/dshills/cmdqueue/internal/logging"
)

type entry struct {
	receiver command.Receiver
	gen      uint64
}

// Registry maps string keys to receivers. It is not safe for concurrent use.
type Registry struct {
	entries map[string]*entry
	gen     uint64
	logger  *logging.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used to report disposal failures.
func WithLogger(l *logging.Logger) Option {
	return func(r *Registry) {
		r.logger = logging.OrNull(l).WithComponent("listener")
	}
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		entries: make(map[string]*entry),
		logger:  logging.NullLogger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Add stores rcv under key and takes ownership of it. An existing receiver
// under key is disposed and replaced.
func (r *Registry) Add(key string, rcv command.Receiver) error {
	if rcv == nil {
		return fmt.Errorf("%w: key %q", ErrNilReceiver, key)
	}

	old := r.entries[key]
	if old != nil && command.Same(old.receiver, rcv) {
		return nil
	}

	r.gen++
	r.entries[key] = &entry{receiver: rcv, gen: r.gen}
	if old != nil {
		r.dispose(key, old.receiver)
	}
	return nil
}

// Construct builds a receiver with build and stores it under key, as Add.
// Nothing is stored when build fails.
func Construct[R command.Receiver](r *Registry, key string, build func() (R, error)) (R, error) {
	rcv, err := build()
	if err != nil {
		var zero R
		return zero, fmt.Errorf("listener: construct %q: %w", key, err)
	}
	if err := r.Add(key, rcv); err != nil {
		var zero R
		return zero, err
	}
	return rcv, nil
}

// Delete removes and disposes the receiver under key. Absent keys are ignored.
func (r *Registry) Delete(key string) {
	old, ok := r.entries[key]
	if !ok {
		return
	}
	delete(r.entries, key)
	r.dispose(key, old.receiver)
}

// Get returns the receiver stored under key.
func (r *Registry) Get(key string) (command.Receiver, error) {
	e, ok := r.entries[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	return e.receiver, nil
}

// Has reports whether a receiver is stored under key.
func (r *Registry) Has(key string) bool {
	_, ok := r.entries[key]
	return ok
}

// Len returns the number of stored receivers.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Keys returns all keys in sorted order.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.entries))
	for k := range r.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clear disposes and removes every receiver.
func (r *Registry) Clear() {
	for _, key := range r.Keys() {
		r.Delete(key)
	}
}

// Close clears the registry and reports disposal failures.
func (r *Registry) Close() error {
	var errs []error
	for _, key := range r.Keys() {
		old := r.entries[key]
		delete(r.entries, key)
		if err := command.Dispose(old.receiver); err != nil {
			errs = append(errs, fmt.Errorf("dispose %q: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

// Ref returns a weak handle to the receiver currently stored under key.
func (r *Registry) Ref(key string) (*Ref, error) {
	e, ok := r.entries[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	return &Ref{registry: r, key: key, gen: e.gen}, nil
}

func (r *Registry) dispose(key string, rcv command.Receiver) {
	if err := command.Dispose(rcv); err != nil {
		r.logger.WithField("key", key).WithError(err).Warn("dispose receiver failed")
	}
}

// Ref is a lookup-only handle to one registered receiver. It never keeps
// the receiver alive: once that receiver is deleted or replaced, Action and
// Resolve return ErrReceiverGone, even if the key is reused.
type Ref struct {
	registry *Registry
	key      string
	gen      uint64
}

// Key returns the registry key the handle points at.
func (ref *Ref) Key() string {
	return ref.key
}

// Resolve returns the receiver if it is still registered.
func (ref *Ref) Resolve() (command.Receiver, error) {
	e, ok := ref.registry.entries[ref.key]
	if !ok || e.gen != ref.gen {
		return nil, fmt.Errorf("%w: %q", ErrReceiverGone, ref.key)
	}
	return e.receiver, nil
}

// Alive reports whether the receiver is still registered.
func (ref *Ref) Alive() bool {
	_, err := ref.Resolve()
	return err == nil
}

// Action implements command.Receiver by forwarding to the live receiver.
func (ref *Ref) Action(message string) error {
	rcv, err := ref.Resolve()
	if err != nil {
		return err
	}
	return rcv.Action(message)
}
