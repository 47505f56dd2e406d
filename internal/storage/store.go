// Package storage provides the object stores the pipeline reads raw extracts
// from and writes cleaned tables to. A Store is bound to one container.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned when an object does not exist.
var ErrNotFound = errors.New("storage: object not found")

// Store is a flat namespace of named objects.
type Store interface {
	// List returns the object names in listing order.
	List(ctx context.Context) ([]string, error)

	// Open returns a reader for the named object. The caller closes it.
	Open(ctx context.Context, name string) (io.ReadCloser, error)

	// Put writes data under name, replacing any existing object.
	Put(ctx context.Context, name string, data []byte) error

	// Location describes the store for logs, e.g. "azure:cleandata".
	Location() string
}
