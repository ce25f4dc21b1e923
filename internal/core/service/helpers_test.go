package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/juju/mgo/v3/bson"

	"github.com/yndnr/bestelldesk-go/internal/core/domain"
	"github.com/yndnr/bestelldesk-go/internal/storage/memory"
	"github.com/yndnr/bestelldesk-go/internal/storage/snapshot"
	"github.com/yndnr/bestelldesk-go/internal/telemetry/logger"
)

var errInjected = errors.New("injected failure")

// fastKDF keeps Argon2id cheap in tests.
var fastKDF = snapshot.KDFParams{MemoryKiB: 64, Time: 1, Parallelism: 1}

// recordingStore wraps a memory store, records write calls and injects
// failures per collection.
type recordingStore struct {
	*memory.Store

	mu         sync.Mutex
	writes     []string
	failRead   map[string]bool
	failDelete map[string]bool
	failInsert map[string]bool
}

func newRecordingStore() *recordingStore {
	return &recordingStore{
		Store:      memory.New(),
		failRead:   map[string]bool{},
		failDelete: map[string]bool{},
		failInsert: map[string]bool{},
	}
}

func (s *recordingStore) ReadAll(ctx context.Context, name string) ([]domain.Document, error) {
	if s.failRead[name] {
		return nil, errInjected
	}
	return s.Store.ReadAll(ctx, name)
}

func (s *recordingStore) DeleteAll(ctx context.Context, name string) error {
	s.record("delete:" + name)
	if s.failDelete[name] {
		return errInjected
	}
	return s.Store.DeleteAll(ctx, name)
}

func (s *recordingStore) InsertMany(ctx context.Context, name string, docs []domain.Document) error {
	s.record("insert:" + name)
	if s.failInsert[name] {
		return errInjected
	}
	return s.Store.InsertMany(ctx, name, docs)
}

func (s *recordingStore) record(call string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = append(s.writes, call)
}

func (s *recordingStore) writeCalls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.writes...)
}

func (s *recordingStore) resetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = nil
}

// seed inserts docs into the store without recording the call.
func (s *recordingStore) seed(t *testing.T, name string, docs ...domain.Document) {
	t.Helper()
	if err := s.Store.InsertMany(context.Background(), name, docs); err != nil {
		t.Fatalf("seed %s: %v", name, err)
	}
}

func (s *recordingStore) read(t *testing.T, name string) []domain.Document {
	t.Helper()
	docs, err := s.Store.ReadAll(context.Background(), name)
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	return docs
}

func testConfig(collections ...string) *BackupServiceConfig {
	cfg := DefaultBackupServiceConfig()
	if len(collections) > 0 {
		cfg.Collections = collections
	}
	cfg.KDF = fastKDF
	cfg.Logger = logger.Discard()
	return cfg
}

func doc(pairs ...interface{}) domain.Document {
	d := make(domain.Document, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		d = append(d, bson.DocElem{Name: pairs[i].(string), Value: pairs[i+1]})
	}
	return d
}

// assertDocs compares documents by their BSON encoding.
func assertDocs(t *testing.T, name string, got, want []domain.Document) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s: %d records, want %d (%v)", name, len(got), len(want), got)
	}
	for i := range want {
		g, err := bson.Marshal(got[i])
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		w, err := bson.Marshal(want[i])
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if !bytes.Equal(g, w) {
			t.Errorf("%s[%d] = %v, want %v", name, i, got[i], want[i])
		}
	}
}

func assertKind(t *testing.T, err error, want domain.ErrorKind) {
	t.Helper()
	if err == nil {
		t.Fatalf("error = nil, want kind %q", want)
	}
	if got := domain.KindOf(err); got != want {
		t.Fatalf("KindOf(%v) = %q, want %q", err, got, want)
	}
}

// editJSON applies fn to the generic JSON form of the envelope at path.
func editJSON(t *testing.T, path string, fn func(m map[string]interface{})) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	fn(m)
	out, err := json.Marshal(m)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, out, 0o600); err != nil {
		t.Fatal(err)
	}
}
