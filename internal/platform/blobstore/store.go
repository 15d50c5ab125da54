// Package blobstore holds attachment bytes outside the database. Keys are
// server generated, relative and slash separated; backends never accept a
// key that fails ValidateKey.
package blobstore

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrNotFound is returned by Open when no blob exists under the key.
	ErrNotFound = errors.New("blob not found")
	// ErrInvalidKey is returned for keys that are absolute, empty or contain
	// dot segments.
	ErrInvalidKey = errors.New("invalid blob key")
	// ErrOutsideRoot is returned when a key would resolve outside the store root.
	ErrOutsideRoot = errors.New("blob key escapes storage root")
)

type Store interface {
	// Put writes r under key and returns the number of bytes written. A
	// failed Put leaves no blob behind.
	Put(ctx context.Context, key string, r io.Reader, contentType string) (int64, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes the blob. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// List returns every key starting with prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}
