package invoker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/cmdqueue/internal/command"
	"github.com/dshills/cmdqueue/internal/logging"
)

// Entry describes a queued command.
type Entry struct {
	// ID is assigned when the command is enqueued.
	ID uuid.UUID
	// Command is the queued command.
	Command command.Command
	// Pass is the number of the Execute pass in progress, or zero outside a pass.
	Pass uint64
}

func (e Entry) fields() map[string]any {
	return map[string]any{
		"command": command.NameOf(e.Command),
		"id":      e.ID.String(),
		"pass":    e.Pass,
	}
}

type slot struct {
	id  uuid.UUID
	cmd command.Command
	// visited is the pass that last reached this slot.
	visited uint64
}

// Invoker owns an ordered queue of commands and executes it.
//
// An Invoker is not safe for concurrent use. Commands may call back into the
// invoker that runs them (to enqueue or delete commands) but may not start a
// nested Execute or Update.
type Invoker struct {
	queue []*slot

	config  Config
	logger  *logging.Logger
	hooks   *HookManager
	metrics *Metrics

	executing bool
	pass      uint64
}

// Option configures an Invoker.
type Option func(*Invoker)

// WithLogger sets the logger used to report command failures and busy-wait warnings.
func WithLogger(l *logging.Logger) Option {
	return func(inv *Invoker) {
		inv.logger = logging.OrNull(l).WithComponent("invoker")
	}
}

// WithHooks sets the hook manager.
func WithHooks(m *HookManager) Option {
	return func(inv *Invoker) {
		if m != nil {
			inv.hooks = m
		}
	}
}

// New creates an empty invoker with the given configuration.
func New(config Config, opts ...Option) *Invoker {
	inv := &Invoker{
		config: config,
		logger: logging.NullLogger,
		hooks:  NewHookManager(),
	}
	if config.EnableMetrics {
		inv.metrics = NewMetrics()
	}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

// NewWithDefaults creates an empty invoker with default configuration.
func NewWithDefaults() *Invoker {
	return New(DefaultConfig())
}

// Config returns the invoker configuration.
func (inv *Invoker) Config() Config {
	return inv.config
}

// Hooks returns the hook manager.
func (inv *Invoker) Hooks() *HookManager {
	return inv.hooks
}

// Metrics returns the metrics collector, or nil when metrics are disabled.
func (inv *Invoker) Metrics() *Metrics {
	return inv.metrics
}

// AddCommand appends cmd to the tail of the queue. The invoker owns cmd from
// here on; callers must not enqueue the same command twice.
func (inv *Invoker) AddCommand(cmd command.Command) error {
	if cmd == nil {
		return ErrNilCommand
	}
	inv.queue = append(inv.queue, &slot{id: uuid.New(), cmd: cmd})
	return nil
}

// InsertCommand inserts cmd before position index. Valid positions are
// 0 through Len(); index Len() appends.
func (inv *Invoker) InsertCommand(cmd command.Command, index int) error {
	if cmd == nil {
		return ErrNilCommand
	}
	if index < 0 || index > len(inv.queue) {
		return fmt.Errorf("%w: insert at %d, size %d", ErrIndexOutOfRange, index, len(inv.queue))
	}
	s := &slot{id: uuid.New(), cmd: cmd}
	if inv.executing && index < inv.nextPending(index) {
		// Inserted among commands this pass already reached: wait for the next pass.
		s.visited = inv.pass
	}
	inv.queue = append(inv.queue, nil)
	copy(inv.queue[index+1:], inv.queue[index:])
	inv.queue[index] = s
	return nil
}

// DeleteCommand removes and disposes the command at the tail of the queue.
// Deleting from an empty queue is a no-op.
func (inv *Invoker) DeleteCommand() error {
	if len(inv.queue) == 0 {
		return nil
	}
	return inv.deleteAt(len(inv.queue) - 1)
}

// DeleteCommandAt removes and disposes the command at index.
func (inv *Invoker) DeleteCommandAt(index int) error {
	if index < 0 || index >= len(inv.queue) {
		return fmt.Errorf("%w: delete at %d, size %d", ErrIndexOutOfRange, index, len(inv.queue))
	}
	return inv.deleteAt(index)
}

// Remove removes and disposes cmd. It reports whether cmd was queued.
func (inv *Invoker) Remove(cmd command.Command) bool {
	i := inv.Index(cmd)
	if i < 0 {
		return false
	}
	inv.drop(i)
	return true
}

// RemoveID removes and disposes the command enqueued under id.
func (inv *Invoker) RemoveID(id uuid.UUID) bool {
	for i, s := range inv.queue {
		if s.id == id {
			inv.drop(i)
			return true
		}
	}
	return false
}

// Index returns the queue position of cmd, or -1.
func (inv *Invoker) Index(cmd command.Command) int {
	for i, s := range inv.queue {
		if command.Same(s.cmd, cmd) {
			return i
		}
	}
	return -1
}

// HasCommand reports whether the queue is EMPTY.
//
// The inverted name is part of the queue's established contract: drive loops
// are written as "for !inv.HasCommand() { ... }".
func (inv *Invoker) HasCommand() bool {
	return len(inv.queue) == 0
}

// Len returns the number of queued commands.
func (inv *Invoker) Len() int {
	return len(inv.queue)
}

// Commands returns the queued commands in order.
func (inv *Invoker) Commands() []command.Command {
	out := make([]command.Command, len(inv.queue))
	for i, s := range inv.queue {
		out[i] = s.cmd
	}
	return out
}

// Entries returns the queued commands with their IDs, in order.
func (inv *Invoker) Entries() []Entry {
	out := make([]Entry, len(inv.queue))
	for i, s := range inv.queue {
		out[i] = Entry{ID: s.id, Command: s.cmd}
	}
	return out
}

// Execute runs one pass over the queue, front to back. Each command is
// executed once; non-looping commands are then removed and disposed, looping
// commands keep their position.
//
// Commands added during the pass are executed in the same pass if they land
// behind the current position. A command error or recovered panic is logged
// and passed to post-execute hooks; it does not stop the pass.
func (inv *Invoker) Execute() error {
	if inv.executing {
		return ErrReentrantExecute
	}
	inv.executing = true
	defer func() { inv.executing = false }()

	inv.pass++
	for i := inv.nextPending(0); i < len(inv.queue); i = inv.nextPending(i) {
		s := inv.queue[i]
		s.visited = inv.pass
		entry := Entry{ID: s.id, Command: s.cmd, Pass: inv.pass}

		if !inv.hooks.RunPre(entry) {
			inv.hooks.RunPost(entry, ErrSkipped)
			continue
		}

		err := inv.run(s)
		if err != nil {
			inv.logger.WithFields(entry.fields()).WithError(err).Warn("command failed")
		}
		inv.hooks.RunPost(entry, err)

		// The command may have changed the queue around itself, or removed itself.
		if s.cmd.IsLoop() {
			continue
		}
		if j := inv.indexOfSlot(s, i); j >= 0 {
			inv.drop(j)
		}
	}

	if inv.metrics != nil {
		inv.metrics.RecordPass()
	}
	return nil
}

// Update executes passes while the queue is non-empty.
//
// A looping command is never removed by a pass, so a queue that holds one is
// drained only when something removes it: the command clearing its loop flag,
// a Remove or DeleteCommandAt call, ctx being cancelled, or Config.MaxPasses
// being reached. With none of those Update busy-waits; the first pass that
// leaves only looping commands behind is logged as a warning.
func (inv *Invoker) Update(ctx context.Context) error {
	if inv.executing {
		return ErrReentrantExecute
	}

	passes := 0
	warned := false
	for !inv.HasCommand() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if inv.config.MaxPasses > 0 && passes >= inv.config.MaxPasses {
			return fmt.Errorf("%w: %d passes, %d commands queued", ErrPassLimit, passes, len(inv.queue))
		}
		if err := inv.Execute(); err != nil {
			return err
		}
		passes++

		if !warned && inv.onlyLooping() {
			warned = true
			inv.logger.WithFields(map[string]any{
				"queued": len(inv.queue),
				"passes": passes,
			}).Warn("queue holds only looping commands; update will spin until one is removed")
		}
	}
	return nil
}

// Close disposes every queued command and empties the queue.
func (inv *Invoker) Close() error {
	var errs []error
	for _, s := range inv.queue {
		if err := command.Dispose(s.cmd); err != nil {
			errs = append(errs, fmt.Errorf("dispose %s: %w", command.NameOf(s.cmd), err))
		}
	}
	inv.queue = nil
	return errors.Join(errs...)
}

func (inv *Invoker) run(s *slot) (err error) {
	name := command.NameOf(s.cmd)
	start := time.Now()
	panicked := false

	defer func() {
		if inv.metrics == nil {
			return
		}
		inv.metrics.RecordExecution(name, time.Since(start), err)
		if panicked {
			inv.metrics.RecordPanic(name)
		}
	}()

	if inv.config.RecoverFromPanic {
		defer func() {
			if r := recover(); r != nil {
				stack := make([]byte, 4096)
				n := runtime.Stack(stack, false)
				inv.logger.WithField("command", name).Debug("recovered panic:\n%s", string(stack[:n]))

				panicked = true
				err = fmt.Errorf("%w: %s: %v", ErrPanic, name, r)
			}
		}()
	}

	return s.cmd.Execute()
}

func (inv *Invoker) indexOfSlot(s *slot, hint int) int {
	if hint >= 0 && hint < len(inv.queue) && inv.queue[hint] == s {
		return hint
	}
	for i, q := range inv.queue {
		if q == s {
			return i
		}
	}
	return -1
}

// nextPending returns the index of the first slot the current pass has not
// reached, searching around hint. Reached slots always form a queue prefix:
// removals keep it intact and insertions into it are marked as reached.
func (inv *Invoker) nextPending(hint int) int {
	i := min(max(hint, 0), len(inv.queue))
	for i > 0 && inv.queue[i-1].visited != inv.pass {
		i--
	}
	for i < len(inv.queue) && inv.queue[i].visited == inv.pass {
		i++
	}
	return i
}

// drop deletes the slot at index and logs a failed disposal.
func (inv *Invoker) drop(index int) {
	name := command.NameOf(inv.queue[index].cmd)
	if err := inv.deleteAt(index); err != nil {
		inv.logger.WithField("command", name).WithError(err).Warn("dispose command failed")
	}
}

func (inv *Invoker) deleteAt(index int) error {
	s := inv.queue[index]
	copy(inv.queue[index:], inv.queue[index+1:])
	inv.queue[len(inv.queue)-1] = nil
	inv.queue = inv.queue[:len(inv.queue)-1]

	if err := command.Dispose(s.cmd); err != nil {
		return fmt.Errorf("dispose %s: %w", command.NameOf(s.cmd), err)
	}
	return nil
}

func (inv *Invoker) onlyLooping() bool {
	if len(inv.queue) == 0 {
		return false
	}
	for _, s := range inv.queue {
		if !s.cmd.IsLoop() {
			return false
		}
	}
	return true
}
