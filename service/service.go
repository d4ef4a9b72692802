// Package service implements the collection data layer. It orchestrates the
// record codec and the storage backend and is the single place where backend
// failures are translated into the uniform error taxonomy; no raw backend
// error ever reaches the HTTP layer.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"picky/item"
	"picky/store"
)

// ErrorKind classifies a service failure.
type ErrorKind string

const (
	KindValidation  ErrorKind = "validation"
	KindNotFound    ErrorKind = "not_found"
	KindUnavailable ErrorKind = "unavailable"
	KindBackend     ErrorKind = "backend"
)

// Error is the uniform failure shape returned by every service operation.
// Message is safe to show callers; the wrapped cause is for logs only.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the classification from an error. Anything that is not a
// *Error counts as a backend failure.
func KindOf(err error) ErrorKind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindBackend
}

// Service exposes get/add/update/delete per collection kind over a Store.
// It is stateless between calls; the store handle is the only shared
// resource and is constructed once per process.
type Service struct {
	store  store.Store
	logger *slog.Logger
}

func New(st store.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: st, logger: logger}
}

// Health reports backend connectivity and identity for the health endpoint.
type Health struct {
	Connected bool       `json:"connected"`
	Storage   store.Info `json:"storage"`
}

func (s *Service) Health(ctx context.Context) Health {
	return Health{
		Connected: s.store.Ping(ctx) == nil,
		Storage:   s.store.Info(),
	}
}

// ensureReachable checks the backend before an operation is attempted.
func (s *Service) ensureReachable(ctx context.Context, op string, kind item.Kind) error {
	if err := s.store.Ping(ctx); err != nil {
		s.logger.Warn("store unreachable", "op", op, "kind", kind, "err", err)
		return &Error{Kind: KindUnavailable, Message: "storage backend is unavailable", Err: err}
	}
	return nil
}

// wrap reclassifies a backend error into the uniform taxonomy. Unexpected
// errors are logged in full and surfaced with a generic message only.
func (s *Service) wrap(op string, kind item.Kind, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return &Error{
			Kind:    KindNotFound,
			Message: fmt.Sprintf("%s not found", kind.Label()),
			Err:     err,
		}
	case errors.Is(err, store.ErrUnavailable):
		s.logger.Warn("store unavailable", "op", op, "kind", kind, "err", err)
		return &Error{Kind: KindUnavailable, Message: "storage backend is unavailable", Err: err}
	default:
		s.logger.Error("storage operation failed", "op", op, "kind", kind, "err", err)
		return &Error{Kind: KindBackend, Message: "storage operation failed", Err: err}
	}
}

// GetAll returns every item of a kind, cleaned of backend metadata.
func (s *Service) GetAll(ctx context.Context, kind item.Kind) ([]item.Doc, error) {
	if err := s.ensureReachable(ctx, "list", kind); err != nil {
		return nil, err
	}
	docs, err := s.store.List(ctx, kind)
	if err != nil {
		return nil, s.wrap("list", kind, err)
	}
	out := make([]item.Doc, len(docs))
	for i, doc := range docs {
		out[i] = item.Clean(doc)
	}
	return out, nil
}

// Add validates and persists a new item built from the caller payload.
func (s *Service) Add(ctx context.Context, kind item.Kind, payload item.Doc) (item.Doc, error) {
	if err := s.ensureReachable(ctx, "add", kind); err != nil {
		return nil, err
	}
	doc, err := item.New(kind, payload)
	if err != nil {
		return nil, &Error{Kind: KindValidation, Message: "item name is required", Err: err}
	}
	id := doc[item.FieldID].(string)
	if err := s.store.Put(ctx, kind, id, doc); err != nil {
		return nil, s.wrap("add", kind, err)
	}
	return item.Clean(doc), nil
}

// Update merges a patch into an existing item. The id and kind tag are
// immutable; patch entries for them are ignored.
func (s *Service) Update(ctx context.Context, kind item.Kind, id string, patch item.Doc) (item.Doc, error) {
	if err := s.ensureReachable(ctx, "update", kind); err != nil {
		return nil, err
	}
	existing, err := s.store.Get(ctx, kind, id)
	if err != nil {
		return nil, s.wrap("update", kind, err)
	}
	merged := item.ApplyUpdate(existing, patch)
	if err := s.store.Put(ctx, kind, id, merged); err != nil {
		return nil, s.wrap("update", kind, err)
	}
	return item.Clean(merged), nil
}

// Delete removes an item. A missing id is a not_found outcome, so a second
// delete of the same id reports not_found rather than success.
func (s *Service) Delete(ctx context.Context, kind item.Kind, id string) error {
	if err := s.ensureReachable(ctx, "delete", kind); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, kind, id); err != nil {
		return s.wrap("delete", kind, err)
	}
	return nil
}
