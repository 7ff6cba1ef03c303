// Package invoker owns and executes a queue of commands.
//
// # Queue
//
// Commands are appended with AddCommand or placed at an explicit position
// with InsertCommand. DeleteCommand drops the tail, DeleteCommandAt a given
// position; both dispose the dropped command. HasCommand reports whether the
// queue is empty:
//
//	for !inv.HasCommand() {
//	    inv.Execute()
//	}
//
// # Passes
//
// Execute runs one pass from the front. After running a command the invoker
// removes it unless it is looping. Update repeats passes until the queue is
// empty, which never happens on its own while a looping command is queued.
// Bound it with a cancellable context or Config.MaxPasses, or have the
// command clear its loop flag:
//
//	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
//	defer cancel()
//	err := inv.Update(ctx)
//
// # Hooks and metrics
//
// Pre-execute hooks can skip a command for one pass; post-execute hooks see
// every result, including recovered panics (ErrPanic) and skips (ErrSkipped).
// Enable Config.EnableMetrics to collect per-command timing and error counts.
//
// The invoker is single-threaded: every call runs to completion on the
// calling goroutine and no call is guarded for concurrent use.
package invoker
