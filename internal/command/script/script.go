// Package script provides a command variant whose body is a Lua chunk.
//
// The chunk is compiled once and run on every Execute inside a sandboxed
// gopher-lua state. It talks to the queue through the global table "cmd":
//
//	cmd.report(msg)   -- send msg to the bound receiver
//	cmd.loop(bool)    -- keep (true) or drop (false) the command after this run
//	cmd.is_loop()     -- current loop flag
//	cmd.runs()        -- number of executions so far, including this one
//
// print is redirected to cmd.report. A script that calls cmd.loop(true)
// re-runs on every pass until it calls cmd.loop(false):
//
//	local n = cmd.runs()
//	cmd.report("tick " .. n)
//	cmd.loop(n < 3)
package script

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/cmdqueue/internal/command"
)

// DefaultTimeout bounds a single execution of a script.
const DefaultTimeout = time.Second

// Script errors.
var (
	// ErrClosed is returned when executing a disposed script.
	ErrClosed = errors.New("script: state closed")

	// ErrTimeout is returned when one execution exceeds its timeout.
	ErrTimeout = errors.New("script: execution timeout")

	// ErrEmptySource is returned when building a script without code.
	ErrEmptySource = errors.New("script: empty source")
)

// Command runs a Lua chunk on every execution.
type Command struct {
	command.Base

	name    string
	timeout time.Duration
	state   *lua.LState
	chunk   *lua.LFunction

	runs   int
	closed bool
}

// Option configures a script Command.
type Option func(*Command)

// WithTimeout sets the per-execution timeout. Zero disables the timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Command) {
		c.timeout = d
	}
}

// WithLoop sets the initial loop flag.
func WithLoop(loop bool) Option {
	return func(c *Command) {
		c.SetLoop(loop)
	}
}

// WithName sets the command name used in logs and metrics.
func WithName(name string) Option {
	return func(c *Command) {
		c.name = name
	}
}

// New compiles source into a script command.
func New(source string, opts ...Option) (*Command, error) {
	if strings.TrimSpace(source) == "" {
		return nil, ErrEmptySource
	}

	c := &Command{
		name:    "script",
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(L)
	c.state = L
	c.installAPI()

	chunk, err := L.LoadString(source)
	if err != nil {
		L.Close()
		return nil, fmt.Errorf("script: compile %s: %w", c.name, err)
	}
	c.chunk = chunk
	return c, nil
}

// openSafeLibraries opens base, table, string and math only.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	// Not opened: io, os, debug, package. Strip loaders from base.
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require"} {
		L.SetGlobal(name, lua.LNil)
	}
}

func (c *Command) installAPI() {
	L := c.state

	// Receiver failures are raised as userdata carrying the Go error, so
	// Execute can tell them apart from other Lua errors.
	errMeta := L.NewTable()
	L.SetField(errMeta, "__tostring", L.NewFunction(func(L *lua.LState) int {
		if err, ok := L.CheckUserData(1).Value.(error); ok {
			L.Push(lua.LString(err.Error()))
			return 1
		}
		L.Push(lua.LString("report error"))
		return 1
	}))

	report := func(L *lua.LState) int {
		parts := make([]string, 0, L.GetTop())
		for i := 1; i <= L.GetTop(); i++ {
			parts = append(parts, L.ToStringMeta(L.Get(i)).String())
		}
		if err := c.Report(strings.Join(parts, "\t")); err != nil {
			ud := L.NewUserData()
			ud.Value = err
			L.SetMetatable(ud, errMeta)
			L.Error(ud, 1)
		}
		return 0
	}

	api := L.NewTable()
	L.SetField(api, "report", L.NewFunction(report))
	L.SetField(api, "loop", L.NewFunction(func(L *lua.LState) int {
		c.SetLoop(L.ToBool(1))
		return 0
	}))
	L.SetField(api, "is_loop", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LBool(c.IsLoop()))
		return 1
	}))
	L.SetField(api, "runs", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(c.runs))
		return 1
	}))
	L.SetGlobal("cmd", api)
	L.SetGlobal("print", L.NewFunction(report))
}

// Name implements command.Named.
func (c *Command) Name() string { return c.name }

// Runs returns the number of executions so far.
func (c *Command) Runs() int { return c.runs }

// Execute runs the chunk once.
func (c *Command) Execute() (err error) {
	if c.closed {
		return ErrClosed
	}
	c.runs++

	ctx := context.Background()
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	c.state.SetContext(ctx)
	defer c.state.RemoveContext()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("script: %s panic: %v", c.name, r)
		}
	}()

	c.state.Push(c.chunk)
	if callErr := c.state.PCall(0, 0, nil); callErr != nil {
		if reportErr := raisedReportError(callErr); reportErr != nil {
			return fmt.Errorf("script %s: %w", c.name, reportErr)
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s after %s", ErrTimeout, c.name, c.timeout)
		}
		return fmt.Errorf("script %s: %w", c.name, callErr)
	}
	return nil
}

// raisedReportError returns the receiver error carried by a failed call, or
// nil when the chunk failed for another reason.
func raisedReportError(callErr error) error {
	var apiErr *lua.ApiError
	if !errors.As(callErr, &apiErr) {
		return nil
	}
	ud, ok := apiErr.Object.(*lua.LUserData)
	if !ok {
		return nil
	}
	err, _ := ud.Value.(error)
	return err
}

// Close releases the Lua state. It implements io.Closer so owners dispose it.
func (c *Command) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.state.Close()
	return nil
}
