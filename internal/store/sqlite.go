package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/nvandessel/lvlup/internal/constants"
	"github.com/nvandessel/lvlup/internal/models"

	_ "modernc.org/sqlite" // SQLite driver
)

// totalLevelKey is the snapshot_meta row holding the aggregate level.
const totalLevelKey = "total_level"

// SQLiteStatStore implements StatStore using SQLite. Each Save replaces the
// stats table inside a single transaction.
type SQLiteStatStore struct {
	mu     sync.RWMutex
	db     *sql.DB
	dbPath string
}

// NewSQLiteStatStore opens (or creates) <dataDir>/lvlup.db.
func NewSQLiteStatStore(dataDir string) (*SQLiteStatStore, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, constants.SQLiteFileName)

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works best with single writer
	db.SetMaxOpenConns(1)

	if err := InitSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStatStore{db: db, dbPath: dbPath}, nil
}

// Path returns the database file path.
func (s *SQLiteStatStore) Path() string {
	return s.dbPath
}

// Load reads the snapshot, returning the default schema if none was saved.
func (s *SQLiteStatStore) Load(ctx context.Context) (*models.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total int
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM snapshot_meta WHERE key = ?`, totalLevelKey,
	).Scan(&total)
	if err == sql.ErrNoRows {
		return models.DefaultSnapshot(), nil
	}
	if err != nil {
		return nil, corruptf("reading %s: %v", totalLevelKey, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT category, name, value, current_max, base_max, level FROM stats`)
	if err != nil {
		return nil, fmt.Errorf("failed to query stats: %w", err)
	}
	defer rows.Close()

	snapshot := models.NewSnapshot()
	for rows.Next() {
		var category, name string
		var st models.Stat
		if err := rows.Scan(&category, &name, &st.Value, &st.CurrentMax, &st.BaseMax, &st.Level); err != nil {
			return nil, corruptf("scanning stat row: %v", err)
		}
		snapshot.Set(category, name, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate stats: %w", err)
	}

	snapshot.TotalLevel = total
	if err := snapshot.Validate(); err != nil {
		return nil, corruptf("%s: %v", s.dbPath, err)
	}
	return snapshot, nil
}

// Save replaces every stat row and the aggregate in one transaction.
func (s *SQLiteStatStore) Save(ctx context.Context, snapshot *models.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM stats`); err != nil {
		return fmt.Errorf("failed to clear stats: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO stats (category, name, value, current_max, base_max, level) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, category := range snapshot.CategoryNames() {
		for _, name := range snapshot.StatNames(category) {
			st, _ := snapshot.Lookup(category, name)
			if _, err := stmt.ExecContext(ctx, category, name, st.Value, st.CurrentMax, st.BaseMax, st.Level); err != nil {
				return fmt.Errorf("failed to insert %s/%s: %w", category, name, err)
			}
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO snapshot_meta (key, value, updated_at) VALUES (?, ?, ?)`,
		totalLevelKey, snapshot.TotalLevel, time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		return fmt.Errorf("failed to write %s: %w", totalLevelKey, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

// Exists reports whether a snapshot has been saved.
func (s *SQLiteStatStore) Exists(ctx context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM snapshot_meta WHERE key = ?`, totalLevelKey,
	).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check snapshot: %w", err)
	}
	return count > 0, nil
}

// Close closes the database.
func (s *SQLiteStatStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
