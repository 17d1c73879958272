package registry

import "errors"

var (
	// ErrAlreadyInitialized is returned by Init on an active or closed registry.
	ErrAlreadyInitialized = errors.New("registry already initialized")

	// ErrInvalidMetadata is returned by Init when metadata cannot be serialized.
	ErrInvalidMetadata = errors.New("invalid window metadata")

	// ErrIDCollision is returned by Init when every generated id was taken.
	ErrIDCollision = errors.New("could not generate a unique window id")
)
