// Package mongo provides a DocumentStore backed by a MongoDB database.
package mongo

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/juju/mgo/v3"

	"github.com/yndnr/bestelldesk-go/internal/core/domain"
	"github.com/yndnr/bestelldesk-go/internal/infra/tlsroots"
)

// DefaultDatabase is used when neither the config nor the URI names one.
const DefaultDatabase = "bestelldesk"

// Config configures the MongoDB connection.
type Config struct {
	// URI is a mongodb:// connection string. It may carry credentials and
	// must only be logged through the redacting logger.
	URI string `koanf:"uri" json:"uri"`

	// Database overrides the database named in URI.
	Database string `koanf:"database" json:"database"`

	// Timeout bounds dialing and socket operations.
	// Default: 10s
	Timeout time.Duration `koanf:"timeout" json:"timeout"`

	// TLS enables encrypted connections to every server of the replica set.
	TLS tlsroots.Config `koanf:"tls" json:"tls"`
}

// DefaultConfig returns the default MongoDB configuration.
func DefaultConfig() Config {
	return Config{
		URI:      "mongodb://localhost:27017/" + DefaultDatabase,
		Database: "",
		Timeout:  10 * time.Second,
	}
}

// Store reads and writes collections of one MongoDB database.
// Every call runs on its own copy of the root session.
type Store struct {
	session  *mgo.Session
	database string
	logger   *slog.Logger
}

// Dial connects to MongoDB.
func Dial(cfg Config, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	info, err := mgo.ParseURL(cfg.URI)
	if err != nil {
		return nil, fmt.Errorf("mongo: parse uri: %w", err)
	}
	if cfg.Timeout > 0 {
		info.Timeout = cfg.Timeout
	}

	database := cfg.Database
	if database == "" {
		database = info.Database
	}
	if database == "" {
		database = DefaultDatabase
	}

	tlsCfg, err := tlsroots.ClientConfig(cfg.TLS)
	if err != nil {
		return nil, fmt.Errorf("mongo: %w", err)
	}
	if tlsCfg != nil {
		info.DialServer = tlsDialer(tlsCfg, info.Timeout)
	}

	session, err := mgo.DialWithInfo(info)
	if err != nil {
		return nil, fmt.Errorf("mongo: dial: %w", err)
	}
	session.SetMode(mgo.Strong, true)
	if cfg.Timeout > 0 {
		session.SetSocketTimeout(cfg.Timeout)
	}

	logger.Debug("mongo connected", "uri", cfg.URI, "database", database, "tls", tlsCfg != nil)
	return &Store{session: session, database: database, logger: logger}, nil
}

// tlsDialer returns a DialServer hook that wraps every server connection
// in TLS.
func tlsDialer(cfg *tls.Config, timeout time.Duration) func(*mgo.ServerAddr) (net.Conn, error) {
	return func(addr *mgo.ServerAddr) (net.Conn, error) {
		dialer := &net.Dialer{Timeout: timeout}
		return tls.DialWithDialer(dialer, "tcp", addr.String(), cfg)
	}
}

// Database returns the name of the database in use.
func (s *Store) Database() string {
	return s.database
}

// ReadAll returns every document of a collection in natural order.
func (s *Store) ReadAll(ctx context.Context, name string) ([]domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	session := s.session.Copy()
	defer session.Close()

	var docs []domain.Document
	if err := session.DB(s.database).C(name).Find(nil).All(&docs); err != nil {
		return nil, fmt.Errorf("mongo: read %s: %w", name, err)
	}
	if docs == nil {
		docs = []domain.Document{}
	}
	return docs, nil
}

// DeleteAll removes every document of a collection. The collection and its
// indexes are kept.
func (s *Store) DeleteAll(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	session := s.session.Copy()
	defer session.Close()

	info, err := session.DB(s.database).C(name).RemoveAll(nil)
	if err != nil {
		return fmt.Errorf("mongo: wipe %s: %w", name, err)
	}
	s.logger.Debug("mongo collection wiped", "collection", name, "removed", info.Removed)
	return nil
}

// InsertMany inserts documents in order with one bulk operation.
func (s *Store) InsertMany(ctx context.Context, name string, docs []domain.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(docs) == 0 {
		return nil
	}
	session := s.session.Copy()
	defer session.Close()

	values := make([]interface{}, len(docs))
	for i, doc := range docs {
		values[i] = doc
	}

	bulk := session.DB(s.database).C(name).Bulk()
	bulk.Insert(values...)
	if _, err := bulk.Run(); err != nil {
		return fmt.Errorf("mongo: insert %s: %w", name, err)
	}
	return nil
}

// DropDatabase drops the whole database. Used by tests.
func (s *Store) DropDatabase() error {
	session := s.session.Copy()
	defer session.Close()
	return session.DB(s.database).DropDatabase()
}

// Close closes the root session.
func (s *Store) Close() error {
	s.session.Close()
	return nil
}
