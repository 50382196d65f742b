package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore persists alert cooldowns in a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	// Single writer: the polling loop.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS cooldowns (
			namespace TEXT NOT NULL,
			key TEXT NOT NULL,
			last_sent_at INTEGER NOT NULL,
			PRIMARY KEY (namespace, key)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_cooldowns_namespace_sent ON cooldowns(namespace, last_sent_at);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("failed to exec query %s: %w", q, err)
		}
	}
	return nil
}

func (s *SQLiteStore) LoadCooldowns(ctx context.Context, namespace string) (map[string]time.Time, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, last_sent_at FROM cooldowns WHERE namespace = ?`, namespace)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]time.Time)
	for rows.Next() {
		var key string
		var sentAt int64
		if err := rows.Scan(&key, &sentAt); err != nil {
			return nil, err
		}
		out[key] = time.Unix(0, sentAt)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) SaveCooldown(ctx context.Context, namespace, key string, sentAt time.Time) error {
	query := `INSERT INTO cooldowns (namespace, key, last_sent_at) VALUES (?, ?, ?)
			  ON CONFLICT(namespace, key) DO UPDATE SET last_sent_at = excluded.last_sent_at`
	_, err := s.db.ExecContext(ctx, query, namespace, key, sentAt.UnixNano())
	return err
}

// DeleteCooldownsBefore removes entries sent at or before cutoff.
func (s *SQLiteStore) DeleteCooldownsBefore(ctx context.Context, namespace string, cutoff time.Time) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM cooldowns WHERE namespace = ? AND last_sent_at <= ?`, namespace, cutoff.UnixNano())
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
