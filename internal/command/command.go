package command

import (
	"fmt"
	"io"
	"reflect"
	"strings"
)

// Receiver is something a command can report to.
type Receiver interface {
	// Action delivers message to the receiver.
	// A returned error is reported by the caller; it never stops queue processing.
	Action(message string) error
}

// ReceiverFunc adapts a function to the Receiver interface.
type ReceiverFunc func(message string) error

// Action implements Receiver.
func (f ReceiverFunc) Action(message string) error {
	return f(message)
}

// Command is a deferred unit of work.
type Command interface {
	// Execute performs the command's effect.
	// Failures are returned, never raised as panics, and are local to this command.
	Execute() error

	// IsLoop reports whether the invoker keeps the command queued after execution.
	IsLoop() bool

	// SetReceiver binds r without taking ownership of it. A nil r unbinds.
	SetReceiver(r Receiver)

	// Receiver returns the bound receiver, or ErrNoReceiver.
	Receiver() (Receiver, error)
}

// Named is implemented by commands that provide a stable name for logs and metrics.
type Named interface {
	Name() string
}

// NameOf returns the command's name, falling back to its Go type name.
func NameOf(cmd Command) string {
	if cmd == nil {
		return "<nil>"
	}
	if n, ok := cmd.(Named); ok && n.Name() != "" {
		return n.Name()
	}
	name := fmt.Sprintf("%T", cmd)
	return strings.TrimPrefix(name, "*")
}

// Base carries the state every command shares: the loop flag and the
// receiver back-reference. Embed it by value.
type Base struct {
	loop     bool
	receiver Receiver
}

// IsLoop implements Command.
func (b *Base) IsLoop() bool {
	return b.loop
}

// SetLoop sets whether the command stays queued after execution.
// Clearing the flag from inside Execute removes the command at the end of that execution.
func (b *Base) SetLoop(loop bool) {
	b.loop = loop
}

// SetReceiver implements Command.
func (b *Base) SetReceiver(r Receiver) {
	b.receiver = r
}

// Receiver implements Command.
func (b *Base) Receiver() (Receiver, error) {
	if b.receiver == nil {
		return nil, ErrNoReceiver
	}
	return b.receiver, nil
}

// HasReceiver reports whether a receiver is bound.
func (b *Base) HasReceiver() bool {
	return b.receiver != nil
}

// Report sends message to the bound receiver.
func (b *Base) Report(message string) error {
	r, err := b.Receiver()
	if err != nil {
		return err
	}
	return r.Action(message)
}

// Reportf formats and sends a message to the bound receiver.
func (b *Base) Reportf(format string, args ...any) error {
	return b.Report(fmt.Sprintf(format, args...))
}

// Func is a Command backed by a function.
type Func struct {
	Base
	name string
	fn   func(cmd *Func) error
}

// NewFunc creates a non-looping command that runs fn on every execution.
// fn receives the command itself so it can report or change its loop flag.
func NewFunc(name string, fn func(cmd *Func) error) *Func {
	return &Func{name: name, fn: fn}
}

// NewLoopFunc creates a looping command that runs fn on every execution.
func NewLoopFunc(name string, fn func(cmd *Func) error) *Func {
	f := NewFunc(name, fn)
	f.SetLoop(true)
	return f
}

// Name implements Named.
func (f *Func) Name() string {
	return f.name
}

// Execute implements Command.
func (f *Func) Execute() error {
	if f.fn == nil {
		return ErrNilFunc
	}
	return f.fn(f)
}

// Dispose releases v if it implements io.Closer.
// Owners call it when they drop a command or receiver.
func Dispose(v any) error {
	if c, ok := v.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Same reports whether a and b are the same command or receiver instance.
// Values of uncomparable types are never the same.
func Same(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}
