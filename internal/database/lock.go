package database

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrLocked is returned when another process already holds the database.
var ErrLocked = errors.New("database is in use by another process")

// Lock guards a database file against a second writer process.
type Lock struct {
	fl *flock.Flock
}

// AcquireLock takes an exclusive, non-blocking lock on dbPath+".lock",
// creating the database directory if needed.
func AcquireLock(dbPath string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	fl := flock.New(dbPath + ".lock")
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", fl.Path(), err)
	}
	if !ok {
		return nil, fmt.Errorf("lock %s: %w", fl.Path(), ErrLocked)
	}
	return &Lock{fl: fl}, nil
}

// Release unlocks the database file.
func (l *Lock) Release() error {
	return l.fl.Unlock()
}
