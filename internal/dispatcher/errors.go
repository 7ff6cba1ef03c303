package dispatcher

import "errors"

// Dispatcher errors.
var (
	// ErrUnknownVariant indicates no factory is registered for a variant name.
	ErrUnknownVariant = errors.New("dispatcher: unknown command variant")

	// ErrDuplicateVariant indicates a variant name is already registered.
	ErrDuplicateVariant = errors.New("dispatcher: variant already registered")

	// ErrInvalidArgs indicates a factory rejected its construction arguments.
	ErrInvalidArgs = errors.New("dispatcher: invalid construction arguments")

	// ErrNilCommand indicates a factory or builder produced no command.
	ErrNilCommand = errors.New("dispatcher: nil command")
)
