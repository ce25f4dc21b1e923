package memory

import (
	"context"
	"sort"

	"github.com/juju/mgo/v3/bson"

	"github.com/yndnr/bestelldesk-go/internal/core/domain"
	"github.com/yndnr/bestelldesk-go/pkg/cmap"
)

// Store keeps collections in memory. It is safe for concurrent use, but a
// DeleteAll followed by InsertMany is not atomic.
type Store struct {
	collections *cmap.Map[[][]byte]
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{collections: cmap.New[[][]byte]()}
}

// ReadAll returns the records of the named collection in insertion order.
func (s *Store) ReadAll(ctx context.Context, name string) ([]domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, _ := s.collections.Get(name)
	docs := make([]domain.Document, 0, len(raw))
	for _, data := range raw {
		var doc domain.Document
		if err := bson.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// DeleteAll removes every record of the named collection.
func (s *Store) DeleteAll(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.collections.Delete(name)
	return nil
}

// InsertMany appends docs to the named collection. Either all documents are
// appended or, if one fails to encode, none is.
func (s *Store) InsertMany(ctx context.Context, name string, docs []domain.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	encoded := make([][]byte, 0, len(docs))
	for _, doc := range docs {
		data, err := bson.Marshal(doc)
		if err != nil {
			return err
		}
		encoded = append(encoded, data)
	}
	s.collections.Update(name, func(existing [][]byte, _ bool) [][]byte {
		return append(existing, encoded...)
	})
	return nil
}

// Count returns the number of records in the named collection.
func (s *Store) Count(name string) int {
	raw, _ := s.collections.Get(name)
	return len(raw)
}

// Names returns the non-empty collections, sorted.
func (s *Store) Names() []string {
	var names []string
	s.collections.Range(func(name string, raw [][]byte) bool {
		if len(raw) > 0 {
			names = append(names, name)
		}
		return true
	})
	sort.Strings(names)
	return names
}
