package listener

import "errors"

// Registry errors.
var (
	// ErrNotFound indicates no receiver is stored under the key.
	ErrNotFound = errors.New("listener: receiver not found")

	// ErrNilReceiver indicates a nil receiver was added.
	ErrNilReceiver = errors.New("listener: nil receiver")

	// ErrReceiverGone indicates a Ref outlived the receiver it was bound to.
	ErrReceiverGone = errors.New("listener: receiver deleted or replaced")
)
