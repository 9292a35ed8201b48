package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"mixtape/internal/config"
	"mixtape/internal/logging"
)

// Store manages catalog persistence backed by SQLite. Reads go straight to
// the database under WAL; writes funnel through the single writer goroutine
// described in the package doc.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
	lock   *flock.Flock

	writer *writer
}

// Open initializes or connects to the catalog database, acquires the
// exclusive data-dir lock, and starts the writer goroutine.
func Open(cfg *config.Config, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	lockPath := filepath.Join(cfg.Paths.DataDir, "catalog.lock")
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire catalog lock: %w", err)
	}
	if !ok {
		return nil, errors.New("catalog is locked by another process")
	}

	dbPath := filepath.Join(cfg.Paths.DataDir, "catalog.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			_ = lock.Unlock()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath, logger: logger, lock: lock}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, err
	}

	store.writer = newWriter(store, cfg.Store.WriteQueueCapacity)
	store.writer.start()

	logger.Debug("catalog opened", logging.String("path", dbPath))
	return store, nil
}

// Close drains the write queue, stops the writer, and releases the database
// and data-dir lock.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	if s.writer != nil {
		s.writer.stop()
	}
	err := s.db.Close()
	if s.lock != nil {
		if unlockErr := s.lock.Unlock(); unlockErr != nil && err == nil {
			err = unlockErr
		}
	}
	return err
}

// Path returns the catalog database path.
func (s *Store) Path() string {
	return s.path
}

// PendingWrites reports mutations queued but not yet applied.
func (s *Store) PendingWrites() int {
	if s.writer == nil {
		return 0
	}
	return s.writer.pending()
}
