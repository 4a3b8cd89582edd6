// Package storage is the client's local persistence port: a small key to JSON
// value store standing in for the browser's local storage. The conversation
// history layer is written against the interface so tests can swap in Memory.
package storage

import "errors"

// ErrNotFound indicates the key has never been written
var ErrNotFound = errors.New("key not found")

// Store reads and writes raw JSON values by fixed string keys
type Store interface {
	// Read returns the value stored under key, or ErrNotFound.
	Read(key string) ([]byte, error)
	// Write stores value under key, replacing any previous value.
	Write(key string, value []byte) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(key string) error
	// Close releases the underlying resources.
	Close() error
}
