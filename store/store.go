// Package store defines the backing store interface and implementations.
package store

import (
	"context"
	"errors"

	"picky/item"
)

// ErrNotFound is returned when an item is not found in the store. Callers
// treat it as a normal outcome (a concurrent delete is not a failure).
var ErrNotFound = errors.New("item not found")

// ErrUnavailable wraps transport-level failures: the backing medium cannot
// be reached at all. Operations that fail this way are retryable.
var ErrUnavailable = errors.New("store unavailable")

// Store is the interface every backing store implements. It persists item
// documents per collection kind, keyed by the item id.
type Store interface {
	// Ping reports whether the backing medium is reachable.
	Ping(ctx context.Context) error

	// List returns every document of a kind. A missing collection is an
	// empty slice, not an error.
	List(ctx context.Context, kind item.Kind) ([]item.Doc, error)

	// Get returns a single document, or ErrNotFound.
	Get(ctx context.Context, kind item.Kind, id string) (item.Doc, error)

	// Put inserts or replaces a document.
	Put(ctx context.Context, kind item.Kind, id string, doc item.Doc) error

	// Delete removes a document. Returns ErrNotFound if it did not exist.
	Delete(ctx context.Context, kind item.Kind, id string) error

	// Info identifies the backend for health reporting. Never secrets.
	Info() Info

	// Close releases the underlying handle.
	Close() error
}

// Info identifies a backend for the health endpoint.
type Info struct {
	Backend string `json:"backend"`
	Detail  string `json:"detail"`
}
