// Package store is the document persistence layer. A Container holds
// documents of one kind, each addressed by id and partition key.
package store

import (
	"context"
	"errors"

	"github.com/samber/oops"
)

const storeErrorCode = "STORE_ERROR"

var (
	ErrNotFound           = errors.New("document not found")
	ErrAlreadyExists      = errors.New("document already exists")
	ErrPreconditionFailed = errors.New("document version mismatch")
)

// Filter matches documents whose fields equal the given values.
// An empty filter matches every document in the container.
type Filter map[string]any

// Document is implemented by every persisted entity.
type Document interface {
	DocumentID() string
	DocumentVersion() int64
	SetDocumentVersion(v int64)
}

type Container interface {
	Name() string
	// Get decodes the document into out. Returns ErrNotFound when absent.
	Get(ctx context.Context, id, partitionKey string, out any) error
	// Query decodes all matching documents into out, which must be a pointer to a slice.
	Query(ctx context.Context, filter Filter, out any) error
	// Create inserts doc with version 1. Returns ErrAlreadyExists on a key clash.
	Create(ctx context.Context, partitionKey string, doc Document) error
	// Upsert writes doc unconditionally and bumps its version.
	Upsert(ctx context.Context, partitionKey string, doc Document) error
	// Replace writes doc only if the stored version equals doc's version.
	// Returns ErrNotFound or ErrPreconditionFailed.
	Replace(ctx context.Context, partitionKey string, doc Document) error
	Delete(ctx context.Context, id, partitionKey string) error
	Ping(ctx context.Context) error
}

func storeError(container, op string, err error) error {
	return oops.
		In("store").
		Code(storeErrorCode).
		With("container", container).
		With("operation", op).
		Wrapf(err, "%s %s", op, container)
}

// IsStoreError reports whether err is an infrastructure failure of the
// store, as opposed to a not-found or conflict outcome.
func IsStoreError(err error) bool {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return false
	}
	return oopsErr.Code() == storeErrorCode
}
