package command

import "errors"

// Command errors.
var (
	// ErrNoReceiver indicates a receiver was requested from a command with none bound.
	ErrNoReceiver = errors.New("command: no receiver bound")

	// ErrNilFunc indicates a Func command was built without a function.
	ErrNilFunc = errors.New("command: nil function")
)
