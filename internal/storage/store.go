package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/yndnr/bestelldesk-go/internal/core/service"
	"github.com/yndnr/bestelldesk-go/internal/storage/memory"
	"github.com/yndnr/bestelldesk-go/internal/storage/mongo"
)

// Backend names accepted by Config.Backend.
const (
	BackendBadger = "badger"
	BackendMongo  = "mongo"
	BackendMemory = "memory"
)

// Store is a DocumentStore that holds resources until closed.
type Store interface {
	service.DocumentStore
	io.Closer
}

// Config selects and configures a backend.
type Config struct {
	// Backend is one of "badger", "mongo" or "memory".
	// Default: badger
	Backend string `koanf:"backend" json:"backend"`

	Badger BadgerConfig `koanf:"badger" json:"badger"`
	Mongo  mongo.Config `koanf:"mongo" json:"mongo"`
}

// DefaultConfig returns the default storage configuration.
func DefaultConfig() Config {
	return Config{
		Backend: BackendBadger,
		Badger:  DefaultBadgerConfig(),
		Mongo:   mongo.DefaultConfig(),
	}
}

// Validate checks that the selected backend is known and configured.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendBadger:
		if c.Badger.Dir == "" {
			return fmt.Errorf("storage.badger.dir is required")
		}
		if c.Badger.GCThreshold < 0 || c.Badger.GCThreshold >= 1 {
			return fmt.Errorf("storage.badger.gc_threshold must be in [0, 1)")
		}
	case BackendMongo:
		if c.Mongo.URI == "" {
			return fmt.Errorf("storage.mongo.uri is required")
		}
		if c.Mongo.Timeout < 0 {
			return fmt.Errorf("storage.mongo.timeout must not be negative")
		}
		if err := c.Mongo.TLS.Validate(); err != nil {
			return fmt.Errorf("storage.mongo.tls: %w", err)
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Backend)
	}
	return nil
}

// Open opens the backend selected by cfg.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("backend", cfg.Backend)

	switch cfg.Backend {
	case BackendMongo:
		return mongo.Dial(cfg.Mongo, logger)
	case BackendMemory:
		return nopCloser{memory.New()}, nil
	default:
		return NewBadgerStore(cfg.Badger, logger)
	}
}

type nopCloser struct {
	*memory.Store
}

func (nopCloser) Close() error { return nil }
