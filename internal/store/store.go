// Package store defines the StatStore interface for persisting the stat
// snapshot, along with file, SQLite and in-memory implementations.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/nvandessel/lvlup/internal/constants"
	"github.com/nvandessel/lvlup/internal/models"
)

// ErrCorruptState is returned by Load when durable data exists but cannot
// be decoded into the snapshot schema.
var ErrCorruptState = errors.New("corrupt state")

// StatStore persists the full stat snapshot.
//
// Load never fails for missing data: it returns the default schema without
// persisting it. Save replaces the durable snapshot as a whole; readers never
// observe a partially written snapshot.
//
// StatStore does not serialize read-modify-write sequences. Callers that
// load, mutate and save must hold their own lock across the sequence.
type StatStore interface {
	Load(ctx context.Context) (*models.Snapshot, error)
	Save(ctx context.Context, snapshot *models.Snapshot) error

	// Exists reports whether a durable snapshot has been written.
	Exists(ctx context.Context) (bool, error)

	Close() error
}

// Open creates the StatStore for backend rooted at dataDir.
func Open(backend constants.Backend, dataDir string) (StatStore, error) {
	switch backend {
	case constants.BackendFile, "":
		return NewFileStatStore(dataDir)
	case constants.BackendSQLite:
		return NewSQLiteStatStore(dataDir)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", backend)
	}
}

// corruptf wraps a decode failure as ErrCorruptState.
func corruptf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCorruptState, fmt.Sprintf(format, args...))
}
