// Package store handles SQLite persistence of hunt progress.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/verte-zerg/spookhunt/internal/progress"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for one progress namespace.
type Store struct {
	db        *sql.DB
	namespace string
	logger    *zap.Logger
}

var _ progress.Store = (*Store)(nil)

// Open opens or creates the SQLite database and applies migrations.
func Open(path, namespace string, logger *zap.Logger) (*Store, error) {
	if namespace == "" {
		return nil, fmt.Errorf("progress namespace is empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	store := &Store{db: db, namespace: namespace, logger: logger}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS progress (
			namespace TEXT PRIMARY KEY,
			payload TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Load implements progress.Store. Read failures and corrupt payloads load as
// no record.
func (s *Store) Load(ctx context.Context) (progress.Record, bool) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM progress WHERE namespace = ?`, s.namespace).Scan(&payload)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("failed to read progress", zap.String("namespace", s.namespace), zap.Error(err))
		}
		return progress.Record{}, false
	}
	rec, ok := progress.Decode([]byte(payload))
	if !ok {
		s.logger.Warn("discarding unreadable progress", zap.String("namespace", s.namespace))
	}
	return rec, ok
}

// Save implements progress.Store.
func (s *Store) Save(ctx context.Context, r progress.Record) error {
	payload, err := progress.Encode(r)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO progress (namespace, payload, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(namespace) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		s.namespace,
		string(payload),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}

// Clear implements progress.Store.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM progress WHERE namespace = ?`, s.namespace); err != nil {
		return fmt.Errorf("clear progress: %w", err)
	}
	return nil
}

// UpdatedAt returns when the namespace was last saved.
func (s *Store) UpdatedAt(ctx context.Context) (time.Time, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT updated_at FROM progress WHERE namespace = ?`, s.namespace).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	parsed, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, false, err
	}
	return parsed, true, nil
}

// Namespaces lists every namespace with stored progress.
func (s *Store) Namespaces(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT namespace FROM progress ORDER BY namespace ASC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()
	var out []string
	for rows.Next() {
		var ns string
		if err := rows.Scan(&ns); err != nil {
			return nil, err
		}
		out = append(out, ns)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// writeRaw stores payload verbatim; tests use it to plant corrupt data.
func (s *Store) writeRaw(ctx context.Context, payload string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO progress (namespace, payload, updated_at) VALUES (?, ?, ?)`,
		s.namespace, payload, time.Now().UTC().Format(time.RFC3339Nano))
	return err
}
