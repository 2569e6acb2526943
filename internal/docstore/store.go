// Package docstore provides schema-flexible document storage keyed by collection and
// document key, with equality queries and storage-enforced unique fields.
package docstore

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by Get when no document exists under the key.
	ErrNotFound = errors.New("docstore: document not found")
	// ErrDuplicate is returned by Put when a unique field value is already taken.
	ErrDuplicate = errors.New("docstore: unique constraint violated")
)

// Document is a single record. Keys are field names.
type Document map[string]any

// Clone returns a shallow copy of the document.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Store is the document persistence contract.
type Store interface {
	// Get returns the document stored under key, or ErrNotFound.
	Get(ctx context.Context, collection, key string) (Document, error)
	// Put writes doc under key. With merge, only the fields in doc change and the
	// document is created if missing; without merge the stored document is replaced.
	Put(ctx context.Context, collection, key string, doc Document, merge bool) error
	// QueryWhere returns every document whose field equals value.
	QueryWhere(ctx context.Context, collection, field string, value any) ([]Document, error)
	// Delete removes the document. Deleting a missing key is not an error.
	Delete(ctx context.Context, collection, key string) error
	// List returns all documents of the collection in no particular order.
	List(ctx context.Context, collection string) ([]Document, error)
	// EnsureUnique makes Put reject two documents sharing a value for field.
	EnsureUnique(ctx context.Context, collection, field string) error
	// Ping checks backend reachability.
	Ping(ctx context.Context) error
}
