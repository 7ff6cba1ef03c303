package builtin_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/dshills/cmdqueue/internal/command"
	"github.com/dshills/cmdqueue/internal/command/builtin"
)

func TestCollisionReportsHit(t *testing.T) {
	rec := builtin.NewRecorder()
	c := builtin.NewCollision(100)
	c.SetReceiver(rec)

	if c.IsLoop() {
		t.Error("expected collision to be one-shot")
	}
	if err := c.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	msgs := rec.Messages()
	if len(msgs) != 1 || msgs[0] != "hit id: 100" {
		t.Errorf("unexpected messages: %v", msgs)
	}
	if command.NameOf(c) != "collision" {
		t.Errorf("expected name 'collision', got %q", command.NameOf(c))
	}
}

func TestCollisionWithoutReceiver(t *testing.T) {
	c := builtin.NewCollision(0)
	if err := c.Execute(); !errors.Is(err, command.ErrNoReceiver) {
		t.Errorf("expected ErrNoReceiver, got %v", err)
	}
}

func TestMessageToWriter(t *testing.T) {
	var buf bytes.Buffer
	m := builtin.NewMessage("ready")
	m.SetReceiver(builtin.NewWriter(&buf, "> "))

	if err := m.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if buf.String() != "> ready\n" {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestRecorderClosed(t *testing.T) {
	rec := builtin.NewRecorder()
	_ = rec.Action("before")

	if err := command.Dispose(rec); err != nil {
		t.Fatalf("Dispose: %v", err)
	}
	if !rec.Closed() {
		t.Error("expected recorder to be closed")
	}
	if err := rec.Action("after"); !errors.Is(err, builtin.ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if msgs := rec.Messages(); len(msgs) != 1 {
		t.Errorf("expected only the message sent before close, got %v", msgs)
	}
}
