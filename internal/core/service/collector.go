package service

import (
	"context"
	"fmt"

	"github.com/yndnr/bestelldesk-go/internal/core/domain"
	"github.com/yndnr/bestelldesk-go/internal/telemetry/logger"
)

// Collect reads every record of each named collection into a new snapshot.
// Records are taken verbatim. Any read failure discards the partial snapshot
// and returns a datastore error.
func Collect(ctx context.Context, store DocumentStore, names []string, meta domain.Meta) (*domain.Snapshot, error) {
	log := logger.L(ctx)
	snap := domain.NewSnapshot(meta)

	for _, name := range names {
		if _, dup := snap.Lookup(name); dup {
			return nil, domain.ErrDataStore.WithDetails("collection listed twice: " + name)
		}

		docs, err := store.ReadAll(ctx, name)
		if err != nil {
			return nil, domain.ErrDataStore.WithDetails(fmt.Sprintf("read %s: %v", name, err)).WithCause(err)
		}
		if err := snap.Add(name, docs); err != nil {
			return nil, domain.ErrDataStore.WithDetails(fmt.Sprintf("collect %s: %v", name, err)).WithCause(err)
		}
		log.Debug("collection read", "collection", name, "records", len(docs))
	}

	return snap, nil
}
