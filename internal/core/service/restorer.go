package service

import (
	"context"
	"fmt"

	"github.com/yndnr/bestelldesk-go/internal/core/domain"
	"github.com/yndnr/bestelldesk-go/internal/telemetry/logger"
)

// CollectionResult describes one collection written by Restore.
type CollectionResult struct {
	Name    string `json:"name" yaml:"name"`
	Records int    `json:"records" yaml:"records"`
}

// RestoreReport lists the collections replaced, in order. On failure it
// also names the collection that failed; later collections were not touched.
type RestoreReport struct {
	Replaced []CollectionResult `json:"replaced" yaml:"replaced"`
	Failed   string             `json:"failed,omitempty" yaml:"failed,omitempty"`
}

// Records returns the number of records inserted.
func (r *RestoreReport) Records() int {
	n := 0
	for _, c := range r.Replaced {
		n += c.Records
	}
	return n
}

// Restore replaces the contents of every collection present in snap, in
// snapshot order: a full wipe, then a bulk insert of the snapshot records.
// A present but empty collection is wiped and left empty. Collections absent
// from snap are not touched.
//
// Restore is not atomic. If a wipe or insert fails it stops at once:
// collections already replaced stay replaced and the remaining ones keep
// their previous contents.
func Restore(ctx context.Context, store DocumentStore, snap *domain.Snapshot) (*RestoreReport, error) {
	log := logger.L(ctx)
	report := &RestoreReport{Replaced: make([]CollectionResult, 0, len(snap.Collections))}

	for _, c := range snap.Collections {
		if err := store.DeleteAll(ctx, c.Name); err != nil {
			report.Failed = c.Name
			return report, domain.ErrDataStore.WithDetails(fmt.Sprintf("wipe %s: %v", c.Name, err)).WithCause(err)
		}
		if len(c.Records) > 0 {
			if err := store.InsertMany(ctx, c.Name, c.Records); err != nil {
				report.Failed = c.Name
				return report, domain.ErrDataStore.WithDetails(fmt.Sprintf("insert %s: %v", c.Name, err)).WithCause(err)
			}
		}
		report.Replaced = append(report.Replaced, CollectionResult{Name: c.Name, Records: len(c.Records)})
		log.Debug("collection restored", "collection", c.Name, "records", len(c.Records))
	}

	return report, nil
}
