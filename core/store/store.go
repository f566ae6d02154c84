// Package store is the sqlite persistence layer. The engine treats the
// database as the sole shared mutable resource: reads happen through a
// consistent snapshot, score writes happen in a single transaction, and
// the recompute log doubles as the cross-process run guard.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/mattn/go-sqlite3"

	"github.com/adalundhe/nexus/core/config"
)

//go:embed schema.sql
var schemaSQL string

// ErrRunInProgress is returned by BeginRun when an unfinished recompute
// run already holds the guard.
var ErrRunInProgress = errors.New("a recompute run is already in progress")

// Store wraps the sqlite connection pool.
type Store struct {
	db   *sql.DB
	path string
	mu   sync.RWMutex
}

// Open opens the database at path with a development-sized pool.
func Open(path string) (*Store, error) {
	return OpenWithConfig(config.StoreConfig{
		Path:            path,
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
	})
}

// OpenWithConfig opens the database with the given pool configuration
// and applies the embedded schema.
func OpenWithConfig(cfg config.StoreConfig) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("store: path is required")
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_foreign_keys=on&_synchronous=normal&_busy_timeout=5000", cfg.Path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database at %s: %w", cfg.Path, err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database at %s: %w", cfg.Path, err)
	}

	s := &Store{db: db, path: cfg.Path}
	if err := s.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database at %s: %w", cfg.Path, err)
	}
	return s, nil
}

// Migrate applies the embedded schema. Idempotent.
func (s *Store) Migrate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema on %s: %w", s.path, err)
	}
	return nil
}

// DB exposes the underlying pool for callers that need raw access,
// mainly test fixtures and importers.
func (s *Store) DB() *sql.DB { return s.db }

// Close releases the connection pool.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// withTx runs fn inside a transaction, retrying the whole unit with
// exponential backoff when sqlite reports the database busy or locked.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5), ctx)
	return backoff.Retry(func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return retryableIfBusy(err)
		}
		if err := fn(tx); err != nil {
			tx.Rollback()
			return retryableIfBusy(err)
		}
		if err := tx.Commit(); err != nil {
			return retryableIfBusy(err)
		}
		return nil
	}, policy)
}

// retryableIfBusy passes transient lock contention through for retry and
// marks everything else permanent.
func retryableIfBusy(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked") ||
		strings.Contains(msg, "SQLITE_BUSY") {
		return err
	}
	return backoff.Permanent(err)
}
