package snapshot

import (
	"github.com/juju/mgo/v3/bson"

	"github.com/yndnr/bestelldesk-go/internal/core/domain"
)

// EncodePlaintext serializes a snapshot to BSON. Collection order, record
// order, field order and BSON value types are preserved.
func EncodePlaintext(snap *domain.Snapshot) ([]byte, error) {
	data, err := bson.Marshal(snap)
	if err != nil {
		return nil, domain.ErrBackupFormat.WithDetails("encode snapshot: " + err.Error()).WithCause(err)
	}
	return data, nil
}

// DecodePlaintext parses the BSON produced by EncodePlaintext and checks the
// snapshot version and collection names.
func DecodePlaintext(data []byte) (*domain.Snapshot, error) {
	var snap domain.Snapshot
	if err := bson.Unmarshal(data, &snap); err != nil {
		return nil, domain.ErrBackupFormat.WithDetails("decode snapshot: " + err.Error()).WithCause(err)
	}
	for i := range snap.Collections {
		if snap.Collections[i].Records == nil {
			snap.Collections[i].Records = []domain.Document{}
		}
	}
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	return &snap, nil
}
