package domain

import "fmt"

// ErrNotFound is returned for a key absent from an otherwise successful fetch.
// It fails only that key; siblings in the same batch still resolve.
type ErrNotFound struct {
	Entity EntityType
	Key    any
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("there is no %s with key %v", e.Entity, e.Key)
}

// StoreError wraps a backing-store failure. Every key pending in the failed
// batch receives the same StoreError.
type StoreError struct {
	Entity EntityType
	Err    error
}

func (e StoreError) Error() string {
	return fmt.Sprintf("load %s batch: %v", e.Entity, e.Err)
}

func (e StoreError) Unwrap() error { return e.Err }

// ValidationError rejects a malformed key before it joins any batch.
type ValidationError struct {
	Entity EntityType
	Key    any
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s key %v: %s", e.Entity, e.Key, e.Reason)
}

// UnrecognizedValueError reports raw column text with no enumeration mapping.
type UnrecognizedValueError struct {
	Kind  string
	Value string
}

func (e UnrecognizedValueError) Error() string {
	return fmt.Sprintf("unrecognized %s: %q", e.Kind, e.Value)
}
