// Package storage keeps approach records in an embedded SQLite database.
package storage

import (
	"approachlog/internal/models"
	"approachlog/internal/providers"
	"approachlog/internal/structures"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/sync/singleflight"
)

var errClosed = errors.New("record store is closed")

// SnapshotSink receives the full record set after every committed write.
// Implementations must not block the writer.
type SnapshotSink interface {
	Submit(records []models.ApproachRecord)
}

type RecordStore struct {
	path    string
	logger  providers.Logger
	metrics providers.MetricsProviderInterface
	cache   providers.CacheProviderInterface
	sink    SnapshotSink

	mu     sync.RWMutex
	db     *sql.DB
	closed bool
	group  singleflight.Group

	// gen moves on every committed write; cache fills started under an
	// older generation are dropped.
	gen atomic.Uint64

	// snapshotMu orders reading the record set with handing it to the sink.
	snapshotMu sync.Mutex

	// beforeCommit lets tests make the medium refuse a write.
	beforeCommit func(op string) error
}

func NewRecordStore(conf *structures.Config, logger providers.Logger, metrics providers.MetricsProviderInterface, cache providers.CacheProviderInterface, sink SnapshotSink) *RecordStore {
	return &RecordStore{
		path:    conf.Storage.Path,
		logger:  logger,
		metrics: metrics,
		cache:   cache,
		sink:    sink,
	}
}

// Open establishes the database handle. Concurrent callers share a single
// in-flight open; once open, the handle is reused until Close. A failed open
// is not remembered, so the next call retries.
func (s *RecordStore) Open(ctx context.Context) error {
	_, err := s.conn(ctx)
	return err
}

func (s *RecordStore) conn(ctx context.Context) (*sql.DB, error) {
	s.mu.RLock()
	db, closed := s.db, s.closed
	s.mu.RUnlock()
	if closed {
		return nil, fault("open", errClosed)
	}
	if db != nil {
		return db, nil
	}

	v, err, _ := s.group.Do("open", func() (interface{}, error) {
		s.mu.RLock()
		existing := s.db
		s.mu.RUnlock()
		if existing != nil {
			return existing, nil
		}

		opened, err := openDatabase(ctx, s.path)
		if err != nil {
			return nil, fault("open", err)
		}

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			opened.Close()
			return nil, fault("open", errClosed)
		}
		s.db = opened
		s.mu.Unlock()

		s.logger.Infof(providers.TypeStore, "Record store opened at %s", s.path)
		return opened, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*sql.DB), nil
}

func openDatabase(ctx context.Context, path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// single writer, pragmas below stay attached to the one connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	if err := runMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return db, nil
}

func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// Close releases the handle. Later operations fail with a StorageFault.
func (s *RecordStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.invalidateAll()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *RecordStore) observe(op string, start time.Time) {
	s.metrics.ObserveStoreDuration(op, time.Since(start))
}

// withTx runs fn in a transaction. Any error rolls the transaction back and
// is returned as a StorageFault.
func (s *RecordStore) withTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fault(op, err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return fault(op, err)
	}

	if s.beforeCommit != nil {
		if err := s.beforeCommit(op); err != nil {
			_ = tx.Rollback()
			return fault(op, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fault(op, err)
	}
	return nil
}

// invalidate drops the cached body of id after a committed write.
func (s *RecordStore) invalidate(id string) {
	s.gen.Add(1)
	s.cache.Del(id)
}

// invalidateAll empties the cache after a committed bulk write.
func (s *RecordStore) invalidateAll() {
	s.gen.Add(1)
	s.cache.Clear()
}

// PublishSnapshot reads the full record set and hands it to the snapshot
// sink. Calls are serialized so the sink always receives the newest set last.
func (s *RecordStore) PublishSnapshot(ctx context.Context) error {
	s.snapshotMu.Lock()
	defer s.snapshotMu.Unlock()

	records, err := s.GetAll(ctx)
	if err != nil {
		return err
	}
	s.metrics.SetRecordsTotal(len(records))
	if s.sink != nil {
		s.sink.Submit(records)
	}
	return nil
}

// afterWrite publishes a snapshot. Failures here are logged only; the write
// has already committed.
func (s *RecordStore) afterWrite(ctx context.Context, op string) {
	if err := s.PublishSnapshot(context.WithoutCancel(ctx)); err != nil {
		s.logger.Warnf(providers.TypeBackup, "Skipping backup after %s: %s", op, err)
	}
}
