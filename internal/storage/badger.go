package storage

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/juju/mgo/v3/bson"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/bestelldesk-go/internal/core/domain"
)

// ErrInvalidCollection is returned for collection names a backend cannot key.
var ErrInvalidCollection = errors.New("storage: invalid collection name")

// BadgerConfig contains Badger tuning parameters.
type BadgerConfig struct {
	// Dir is the database directory.
	Dir string `koanf:"dir" json:"dir"`

	// SyncWrites enables fsync after each write.
	// Default: true (a restore should survive a crash once reported done)
	SyncWrites bool `koanf:"sync_writes" json:"sync_writes"`

	// CacheSize is the block cache size in bytes.
	// Default: 64MB
	CacheSize int64 `koanf:"cache_size" json:"cache_size"`

	// ValueLogFileSize is the max value log file size in bytes.
	// Default: 256MB
	ValueLogFileSize int64 `koanf:"value_log_file_size" json:"value_log_file_size"`

	// GCThreshold is the discard ratio used by GC (0.0-1.0).
	// Default: 0.5
	GCThreshold float64 `koanf:"gc_threshold" json:"gc_threshold"`
}

// DefaultBadgerConfig returns the default Badger configuration.
func DefaultBadgerConfig() BadgerConfig {
	return BadgerConfig{
		Dir:              "data",
		SyncWrites:       true,
		CacheSize:        64 << 20,
		ValueLogFileSize: 256 << 20,
		GCThreshold:      0.5,
	}
}

// BadgerStore keeps collections in an embedded Badger database.
//
// Key layout: "doc" 0x00 <collection> 0x00 <uint64 big-endian sequence>.
// Values are BSON documents.
type BadgerStore struct {
	db     *badger.DB
	cfg    BadgerConfig
	logger *slog.Logger
}

// NewBadgerStore opens (or creates) the database in cfg.Dir.
func NewBadgerStore(cfg BadgerConfig, logger *slog.Logger) (*BadgerStore, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("badger: dir is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	opts := badger.DefaultOptions(cfg.Dir)
	opts.Logger = &badgerLogger{logger: logger}
	opts.SyncWrites = cfg.SyncWrites
	if cfg.CacheSize > 0 {
		opts.BlockCacheSize = cfg.CacheSize
	}
	if cfg.ValueLogFileSize > 0 {
		opts.ValueLogFileSize = cfg.ValueLogFileSize
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger: open db: %w", err)
	}

	logger.Debug("badger store opened", "dir", cfg.Dir, "sync_writes", cfg.SyncWrites)
	return &BadgerStore{db: db, cfg: cfg, logger: logger}, nil
}

func collectionPrefix(name string) ([]byte, error) {
	if name == "" || strings.IndexByte(name, 0) >= 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCollection, name)
	}
	prefix := make([]byte, 0, len(name)+5)
	prefix = append(prefix, "doc\x00"...)
	prefix = append(prefix, name...)
	return append(prefix, 0), nil
}

func recordKey(prefix []byte, seq uint64) []byte {
	key := make([]byte, len(prefix)+8)
	copy(key, prefix)
	binary.BigEndian.PutUint64(key[len(prefix):], seq)
	return key
}

// ReadAll returns the records of a collection in insertion order.
func (s *BadgerStore) ReadAll(ctx context.Context, name string) ([]domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	prefix, err := collectionPrefix(name)
	if err != nil {
		return nil, err
	}

	docs := []domain.Document{}
	err = s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var doc domain.Document
			if err := it.Item().Value(func(val []byte) error {
				return bson.Unmarshal(val, &doc)
			}); err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			docs = append(docs, doc)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// DeleteAll removes every record of a collection.
func (s *BadgerStore) DeleteAll(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	prefix, err := collectionPrefix(name)
	if err != nil {
		return err
	}
	return s.db.DropPrefix(prefix)
}

// InsertMany appends records after the last existing one. Documents are
// encoded before anything is written, but a large batch is not atomic.
func (s *BadgerStore) InsertMany(ctx context.Context, name string, docs []domain.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	prefix, err := collectionPrefix(name)
	if err != nil {
		return err
	}

	values := make([][]byte, 0, len(docs))
	for i, doc := range docs {
		data, err := bson.Marshal(doc)
		if err != nil {
			return fmt.Errorf("encode %s[%d]: %w", name, i, err)
		}
		values = append(values, data)
	}

	next, err := s.nextSeq(prefix)
	if err != nil {
		return err
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for i, val := range values {
		if err := wb.Set(recordKey(prefix, next+uint64(i)), val); err != nil {
			return err
		}
	}
	return wb.Flush()
}

// nextSeq returns the sequence following the last record under prefix.
func (s *BadgerStore) nextSeq(prefix []byte) (uint64, error) {
	var next uint64
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.Reverse = true
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		it.Seek(append(append([]byte(nil), prefix...), bytes.Repeat([]byte{0xFF}, 9)...))
		if it.Valid() {
			key := it.Item().Key()
			if len(key) != len(prefix)+8 {
				return fmt.Errorf("badger: malformed key %x", key)
			}
			next = binary.BigEndian.Uint64(key[len(prefix):]) + 1
		}
		return nil
	})
	return next, err
}

// GC reclaims value log space after large deletes.
func (s *BadgerStore) GC(ctx context.Context) (int, error) {
	start := time.Now()
	runs := 0
	for ctx.Err() == nil {
		err := s.db.RunValueLogGC(s.gcThreshold())
		if err != nil {
			if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrRejected) {
				break
			}
			return runs, fmt.Errorf("gc: %w", err)
		}
		runs++
	}
	s.logger.Debug("gc completed", "rewrites", runs, "elapsed", time.Since(start))
	return runs, nil
}

func (s *BadgerStore) gcThreshold() float64 {
	if s.cfg.GCThreshold <= 0 || s.cfg.GCThreshold >= 1 {
		return 0.5
	}
	return s.cfg.GCThreshold
}

// RegisterMetrics exposes the database size on registry.
func (s *BadgerStore) RegisterMetrics(registry prometheus.Registerer) error {
	lsm := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "bestelldesk",
		Subsystem: "badger",
		Name:      "lsm_size_bytes",
		Help:      "Badger LSM tree size in bytes",
	}, func() float64 {
		l, _ := s.db.Size()
		return float64(l)
	})
	vlog := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "bestelldesk",
		Subsystem: "badger",
		Name:      "value_log_size_bytes",
		Help:      "Badger value log size in bytes",
	}, func() float64 {
		_, v := s.db.Size()
		return float64(v)
	})
	for _, c := range []prometheus.Collector{lsm, vlog} {
		if err := registry.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database.
func (s *BadgerStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}
	s.logger.Debug("badger store closed")
	return nil
}

// badgerLogger adapts slog.Logger to Badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

// Badger is chatty at info level; its info lines go to debug.
func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}
