// Package store defines the shared key-value medium windows coordinate
// through, plus in-memory, file and S3 backends.
//
// Every backend follows the same asymmetry: a write is visible to every
// context on the next Read, but change handlers fire only in contexts other
// than the writer's. Callers that need to notice their own writes must read
// them back.
package store

import "errors"

// ChangeHandler is invoked with the new value after another context wrote
// key. A nil value means the key was removed.
type ChangeHandler func(key string, value []byte)

// Store is a synchronous whole-value key-value store shared by every window.
type Store interface {
	// Read returns the value stored under key. ok is false when the key is absent.
	Read(key string) (value []byte, ok bool, err error)

	// Write replaces the value under key.
	Write(key string, value []byte) error

	// Clear removes every key.
	Clear() error

	// OnExternalChange subscribes fn to writes of key made by other contexts.
	// Handlers run on a store goroutine. The returned func cancels the
	// subscription.
	OnExternalChange(key string, fn ChangeHandler) (cancel func())
}

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store is closed")

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
