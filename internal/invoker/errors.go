package invoker

import "errors"

// Invoker errors.
var (
	// ErrNilCommand indicates a nil command was added.
	ErrNilCommand = errors.New("invoker: nil command")

	// ErrIndexOutOfRange indicates an insert or delete position outside the queue.
	ErrIndexOutOfRange = errors.New("invoker: index out of range")

	// ErrReentrantExecute indicates Execute or Update was called from inside a running pass.
	ErrReentrantExecute = errors.New("invoker: execute called during a pass")

	// ErrPassLimit indicates Update stopped at Config.MaxPasses with commands still queued.
	ErrPassLimit = errors.New("invoker: pass limit reached")

	// ErrPanic indicates a command panicked during Execute.
	ErrPanic = errors.New("invoker: command panic")

	// ErrSkipped is handed to post-execute hooks when a pre-execute hook skipped the command.
	ErrSkipped = errors.New("invoker: command skipped by hook")
)
