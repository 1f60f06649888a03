package providers

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/samber/do/v2"

	"github.com/shelfmarkapp/shelfmark-server/internal/config"
	"github.com/shelfmarkapp/shelfmark-server/internal/logger"
	"github.com/shelfmarkapp/shelfmark-server/internal/store"
	"github.com/shelfmarkapp/shelfmark-server/internal/store/sqlite"
)

// badgerGCInterval is how often the session store runs value-log garbage collection.
const badgerGCInterval = 30 * time.Minute

// SQLiteHandle wraps the relational store with shutdown capability.
type SQLiteHandle struct {
	*sqlite.Store
}

// Shutdown implements do.Shutdownable.
func (h *SQLiteHandle) Shutdown() error {
	return h.Close()
}

// ProvideSQLiteStore opens the catalog database under the data directory.
func ProvideSQLiteStore(i do.Injector) (*SQLiteHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	dbPath := filepath.Join(cfg.Data.BasePath, "shelfmark.db")
	db, err := sqlite.Open(dbPath, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Database opened", "path", dbPath)

	return &SQLiteHandle{Store: db}, nil
}

// SessionStoreHandle wraps the Badger session store with shutdown capability.
type SessionStoreHandle struct {
	*store.Store
	stopGC   chan struct{}
	stopOnce sync.Once
}

// Shutdown implements do.Shutdownable. Safe to call more than once; the
// container and main both trigger it on exit.
func (h *SessionStoreHandle) Shutdown() error {
	var err error
	h.stopOnce.Do(func() {
		close(h.stopGC)
		err = h.Close()
	})
	return err
}

// ProvideSessionStore opens the login session store and starts its GC loop.
func ProvideSessionStore(i do.Injector) (*SessionStoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	sessionPath := filepath.Join(cfg.Data.BasePath, "sessions")
	sessions, err := store.New(sessionPath, log.Logger)
	if err != nil {
		return nil, err
	}

	stop := make(chan struct{})
	go sessions.StartGCLoop(badgerGCInterval, stop)

	log.Info("Session store opened", "path", sessionPath)

	return &SessionStoreHandle{Store: sessions, stopGC: stop}, nil
}
