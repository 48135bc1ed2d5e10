package store

import (
	"context"
	"time"

	"github.com/dotcommander/doccache/internal/models"
)

// Collection is the document-collection handle a Store is built on. Every
// filter is an exact match on the record key. Implementations own their
// connection and must be safe for concurrent use to whatever degree their
// driver is.
type Collection interface {
	// FindOne returns the record stored under key. found is false when no
	// record exists; that is not an error.
	FindOne(ctx context.Context, key string) (rec models.Record, found bool, err error)
	// Insert adds a new record.
	Insert(ctx context.Context, rec models.Record) error
	// Update sets value and expiration on the existing record for key and
	// touches nothing else.
	Update(ctx context.Context, key, value string, expiration time.Time) error
	// Remove deletes the record for key. Removing a missing key is a no-op.
	Remove(ctx context.Context, key string) error
	// Drop destroys every record in the collection.
	Drop(ctx context.Context) error
}

// Upserter is implemented by collections with an atomic insert-or-update
// primitive. When present, Put uses it instead of FindOne followed by
// Insert or Update.
type Upserter interface {
	Upsert(ctx context.Context, rec models.Record) error
}

// ExpiredRemover is implemented by collections that can bulk-delete records
// whose expiration is at or before a given instant.
type ExpiredRemover interface {
	RemoveExpired(ctx context.Context, before time.Time) (int64, error)
}
