package script_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dshills/cmdqueue/internal/command"
	"github.com/dshills/cmdqueue/internal/command/builtin"
	"github.com/dshills/cmdqueue/internal/command/script"
)

func TestScriptReports(t *testing.T) {
	rec := builtin.NewRecorder()
	c, err := script.New(`cmd.report("hit id: " .. 7)`)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()
	c.SetReceiver(rec)

	if err := c.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	msgs := rec.Messages()
	if len(msgs) != 1 || msgs[0] != "hit id: 7" {
		t.Errorf("unexpected messages: %v", msgs)
	}
	if c.IsLoop() {
		t.Error("expected script to be one-shot by default")
	}
}

func TestScriptPrintRedirects(t *testing.T) {
	rec := builtin.NewRecorder()
	c, err := script.New(`print("a", 1)`)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()
	c.SetReceiver(rec)

	if err := c.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if msgs := rec.Messages(); len(msgs) != 1 || msgs[0] != "a\t1" {
		t.Errorf("unexpected messages: %v", msgs)
	}
}

func TestScriptControlsLoop(t *testing.T) {
	rec := builtin.NewRecorder()
	c, err := script.New(`
local n = cmd.runs()
cmd.report("tick " .. n)
cmd.loop(n < 3)
`, script.WithLoop(true), script.WithName("ticker"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()
	c.SetReceiver(rec)

	for c.IsLoop() {
		if err := c.Execute(); err != nil {
			t.Fatalf("Execute: %v", err)
		}
		if c.Runs() > 10 {
			t.Fatal("script never cleared its loop flag")
		}
	}

	if got := strings.Join(rec.Messages(), ","); got != "tick 1,tick 2,tick 3" {
		t.Errorf("unexpected messages: %s", got)
	}
	if command.NameOf(c) != "ticker" {
		t.Errorf("expected name 'ticker', got %q", command.NameOf(c))
	}
}

func TestScriptWithoutReceiver(t *testing.T) {
	c, err := script.New(`cmd.report("lost")`)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	if err := c.Execute(); !errors.Is(err, command.ErrNoReceiver) {
		t.Errorf("expected ErrNoReceiver, got %v", err)
	}
}

func TestScriptCaughtReportErrorIsNotStale(t *testing.T) {
	c, err := script.New(`
local ok = pcall(cmd.report, "lost")
if not ok then
	error("real cause")
end
`)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	err = c.Execute()
	if err == nil || !strings.Contains(err.Error(), "real cause") {
		t.Errorf("expected the chunk's own error, got %v", err)
	}
	if errors.Is(err, command.ErrNoReceiver) {
		t.Errorf("expected the caught report error not to be returned, got %v", err)
	}
}

func TestScriptRethrownReportError(t *testing.T) {
	c, err := script.New(`
local ok, e = pcall(cmd.report, "lost")
assert(tostring(e):find("no receiver"))
error(e)
`)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	if err := c.Execute(); !errors.Is(err, command.ErrNoReceiver) {
		t.Errorf("expected ErrNoReceiver, got %v", err)
	}
}

func TestScriptRuntimeError(t *testing.T) {
	c, err := script.New(`error("bad state")`)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	err = c.Execute()
	if err == nil || !strings.Contains(err.Error(), "bad state") {
		t.Errorf("expected runtime error, got %v", err)
	}
}

func TestScriptCompileError(t *testing.T) {
	if _, err := script.New(`this is not lua`); err == nil {
		t.Error("expected compile error")
	}
	if _, err := script.New("   "); !errors.Is(err, script.ErrEmptySource) {
		t.Errorf("expected ErrEmptySource, got %v", err)
	}
}

func TestScriptSandbox(t *testing.T) {
	tests := []string{
		`os.exit(1)`,
		`io.write("x")`,
		`dofile("/etc/passwd")`,
		`require("os")`,
	}

	for _, src := range tests {
		c, err := script.New(src)
		if err != nil {
			t.Fatalf("New(%q): %v", src, err)
		}
		if err := c.Execute(); err == nil {
			t.Errorf("expected %q to fail inside the sandbox", src)
		}
		c.Close()
	}
}

func TestScriptTimeout(t *testing.T) {
	c, err := script.New(`while true do end`, script.WithTimeout(20*time.Millisecond))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	if err := c.Execute(); !errors.Is(err, script.ErrTimeout) {
		t.Errorf("expected ErrTimeout, got %v", err)
	}
}

func TestScriptClosed(t *testing.T) {
	c, err := script.New(`cmd.loop(true)`)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := command.Dispose(c); err != nil {
		t.Fatalf("Dispose: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("expected second Close to be a no-op, got %v", err)
	}
	if err := c.Execute(); !errors.Is(err, script.ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}
