// Package builtin provides the stock command and receiver variants.
package builtin

import (
	"errors"
	"fmt"
	"io"

	"github.com/dshills/cmdqueue/internal/command"
)

// ErrClosed indicates a receiver was used after it was disposed.
var ErrClosed = errors.New("builtin: receiver closed")

// Collision reports a hit for an object id.
type Collision struct {
	command.Base
	ID int
}

// NewCollision creates a one-shot collision command.
func NewCollision(id int) *Collision {
	return &Collision{ID: id}
}

// Name implements command.Named.
func (c *Collision) Name() string { return "collision" }

// Execute reports the hit to the bound receiver.
func (c *Collision) Execute() error {
	return c.Reportf("hit id: %d", c.ID)
}

// Message delivers fixed text to the bound receiver.
type Message struct {
	command.Base
	Text string
}

// NewMessage creates a one-shot message command.
func NewMessage(text string) *Message {
	return &Message{Text: text}
}

// Name implements command.Named.
func (m *Message) Name() string { return "message" }

// Execute sends the text to the bound receiver.
func (m *Message) Execute() error {
	return m.Report(m.Text)
}

// Writer is a receiver printing each message as a line.
type Writer struct {
	w      io.Writer
	prefix string
}

// NewWriter creates a receiver writing to w. prefix is prepended to every line.
func NewWriter(w io.Writer, prefix string) *Writer {
	return &Writer{w: w, prefix: prefix}
}

// Action implements command.Receiver.
func (w *Writer) Action(message string) error {
	_, err := fmt.Fprintf(w.w, "%s%s\n", w.prefix, message)
	return err
}

// Recorder is a receiver keeping every message in memory.
type Recorder struct {
	messages []string
	closed   bool
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Action implements command.Receiver.
func (r *Recorder) Action(message string) error {
	if r.closed {
		return ErrClosed
	}
	r.messages = append(r.messages, message)
	return nil
}

// Messages returns a copy of the recorded messages.
func (r *Recorder) Messages() []string {
	out := make([]string, len(r.messages))
	copy(out, r.messages)
	return out
}

// Close implements io.Closer. Later actions fail with ErrClosed.
func (r *Recorder) Close() error {
	r.closed = true
	return nil
}

// Closed reports whether the recorder was disposed.
func (r *Recorder) Closed() bool {
	return r.closed
}
