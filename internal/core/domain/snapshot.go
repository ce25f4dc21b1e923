package domain

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/juju/mgo/v3/bson"
	"github.com/oklog/ulid/v2"
)

// Document is a single opaque record: an ordered, string-keyed list of
// dynamically typed values. Unknown fields are carried untouched.
type Document = bson.D

const (
	// SnapshotVersion is the plaintext snapshot format version written by this producer.
	SnapshotVersion = 1

	// DefaultAppTag identifies the producing application in Meta.
	DefaultAppTag = "BestellDesk"

	// BackupIDPrefix prefixes generated backup IDs.
	BackupIDPrefix = "bdbk-"
)

// DefaultCollections is the set of collections backed up when none is configured.
var DefaultCollections = []string{
	"settings",
	"suppliers",
	"categories",
	"dishes",
	"orders",
	"admin_users",
}

// Meta describes who produced a snapshot and when.
type Meta struct {
	ID        string `bson:"id" json:"id"`
	CreatedAt int64  `bson:"created_at" json:"created_at"` // Unix milliseconds
	App       string `bson:"app" json:"app"`
	Version   int    `bson:"version" json:"version"`
}

// NewMeta returns Meta for a snapshot produced now by app.
func NewMeta(app string, now time.Time) (Meta, error) {
	id, err := GenerateBackupID(now)
	if err != nil {
		return Meta{}, err
	}
	if app == "" {
		app = DefaultAppTag
	}
	return Meta{
		ID:        id,
		CreatedAt: now.UnixMilli(),
		App:       app,
		Version:   SnapshotVersion,
	}, nil
}

// CreatedTime returns CreatedAt as a time.Time.
func (m Meta) CreatedTime() time.Time {
	return time.UnixMilli(m.CreatedAt)
}

// GenerateBackupID generates a new backup ID using ULID.
// Format: bdbk-{ulid_lowercase}.
func GenerateBackupID(now time.Time) (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(now), entropy)
	if err != nil {
		return "", err
	}
	return BackupIDPrefix + strings.ToLower(id.String()), nil
}

// Collection is one named collection and its records in read order.
type Collection struct {
	Name    string     `bson:"name"`
	Records []Document `bson:"records"`
}

// Snapshot maps collection names to records, preserving insertion order.
// Names are unique within a snapshot.
type Snapshot struct {
	Meta        Meta         `bson:"meta"`
	Collections []Collection `bson:"collections"`
}

// NewSnapshot creates an empty snapshot with the given meta.
func NewSnapshot(meta Meta) *Snapshot {
	return &Snapshot{Meta: meta}
}

// Add appends a collection. A nil records slice is stored as empty, which
// still marks the collection as present.
func (s *Snapshot) Add(name string, records []Document) error {
	if name == "" {
		return ErrBackupFormat.WithDetails("empty collection name")
	}
	if _, ok := s.Lookup(name); ok {
		return ErrBackupFormat.WithDetails("duplicate collection " + name)
	}
	if records == nil {
		records = []Document{}
	}
	s.Collections = append(s.Collections, Collection{Name: name, Records: records})
	return nil
}

// Lookup returns the records of a collection and whether it is present.
func (s *Snapshot) Lookup(name string) ([]Document, bool) {
	for _, c := range s.Collections {
		if c.Name == name {
			return c.Records, true
		}
	}
	return nil, false
}

// Names returns collection names in snapshot order.
func (s *Snapshot) Names() []string {
	names := make([]string, 0, len(s.Collections))
	for _, c := range s.Collections {
		names = append(names, c.Name)
	}
	return names
}

// RecordCount returns the total number of records across all collections.
func (s *Snapshot) RecordCount() int {
	n := 0
	for _, c := range s.Collections {
		n += len(c.Records)
	}
	return n
}

// Validate checks the snapshot invariants: supported version and unique,
// non-empty collection names.
func (s *Snapshot) Validate() error {
	if s.Meta.Version != SnapshotVersion {
		return ErrBackupFormat.WithDetails("unsupported snapshot version")
	}
	seen := make(map[string]struct{}, len(s.Collections))
	for _, c := range s.Collections {
		if c.Name == "" {
			return ErrBackupFormat.WithDetails("empty collection name")
		}
		if _, dup := seen[c.Name]; dup {
			return ErrBackupFormat.WithDetails("duplicate collection " + c.Name)
		}
		seen[c.Name] = struct{}{}
	}
	return nil
}
