package service

import (
	"context"

	"github.com/yndnr/bestelldesk-go/internal/core/domain"
)

// DocumentStore is the datastore capability the backup engine consumes.
// Records are opaque; implementations must preserve field order.
type DocumentStore interface {
	// ReadAll returns every record of the named collection in read order.
	// A collection that does not exist reads as empty.
	ReadAll(ctx context.Context, name string) ([]domain.Document, error)

	// DeleteAll removes every record of the named collection.
	DeleteAll(ctx context.Context, name string) error

	// InsertMany appends records to the named collection in order.
	InsertMany(ctx context.Context, name string, docs []domain.Document) error
}
