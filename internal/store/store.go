// Package store provides Badger-backed persistence for device login sessions.
//
// Relational data (users, books, marks, reviews, reading sessions, follows)
// lives in the SQLite store under store/sqlite. Badger holds the volatile
// session records so refresh-token lookups stay off the relational hot path.
package store

import (
	"errors"
	"fmt"
	"github.com/go-json-experiment/json"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Store wraps a Badger database instance.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
}

// New creates a new Store instance with the given database path.
func New(path string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Ensure writes are synced to disk to prevent corruption on crashes
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	store := &Store{
		db:     db,
		logger: logger,
	}

	if logger != nil {
		logger.Info("Badger database opened successfully", "path", path)
	}

	return store, nil
}

// Close gracefully closes the database connection.
func (s *Store) Close() error {
	if s.logger != nil {
		s.logger.Info("Closing session database connection")
	}
	return s.db.Close()
}

// RunGC runs one round of Badger value-log garbage collection.
// Returns badger.ErrNoRewrite when there was nothing to collect.
func (s *Store) RunGC() error {
	return s.db.RunValueLogGC(0.5)
}

// StartGCLoop runs value-log GC on a ticker until stop is closed.
func (s *Store) StartGCLoop(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if err := s.RunGC(); err != nil && !errors.Is(err, badger.ErrNoRewrite) {
					if s.logger != nil {
						s.logger.Warn("badger gc failed", "error", err)
					}
				}
			}
		}
	}()
}

// Helper methods for database operations.

// get retrieves a value by key.
func (s *Store) get(key []byte, dest any) error {
	return s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, dest)
		})
	})
}

// exists checks if a key exists.
func (s *Store) exists(key []byte) (bool, error) {
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		return err
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
