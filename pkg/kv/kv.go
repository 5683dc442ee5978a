// Package kv provides the key-value stores behind the local backend.
// Every key carries a version that increases on each write; writers must present
// the version they read, so concurrent read-modify-write cycles cannot silently
// overwrite each other.
package kv

import (
	"context"
	"errors"
)

// ErrVersionConflict is returned by CompareAndSwap when the stored version has moved on.
var ErrVersionConflict = errors.New("kv: version conflict")

// Entry is a stored value and its version. A missing key reads as the zero Entry.
type Entry struct {
	Value   []byte
	Version int64
}

// Exists reports whether the entry was read from a stored key.
func (e Entry) Exists() bool {
	return e.Version > 0
}

type Store interface {
	Get(ctx context.Context, key string) (Entry, error)
	// CompareAndSwap writes value when the stored version equals version (0 for a
	// missing key) and returns the new version.
	CompareAndSwap(ctx context.Context, key string, version int64, value []byte) (int64, error)
	Delete(ctx context.Context, keys ...string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
	Ping(ctx context.Context) error
	Close() error
}
