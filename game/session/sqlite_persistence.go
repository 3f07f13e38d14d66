package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/wricardo/mars-rover/game/service"
)

const sessionsSchema = `CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	data       TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
);`

// SQLitePersistence implements SessionPersistence on a SQLite database.
// Each session is one row holding its JSON document.
type SQLitePersistence struct {
	db      *sql.DB
	timeout time.Duration
}

// NewSQLitePersistence opens (and creates if missing) the database at dsn
func NewSQLitePersistence(dsn string) (*SQLitePersistence, error) {
	dir := filepath.Dir(dsn)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", dsn+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open sessions database: %w", err)
	}

	if _, err := db.Exec(sessionsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create sessions table: %w", err)
	}

	return &SQLitePersistence{db: db, timeout: 5 * time.Second}, nil
}

// Close releases the database
func (sp *SQLitePersistence) Close() error {
	return sp.db.Close()
}

// Save upserts a session row
func (sp *SQLitePersistence) Save(session *service.Session) error {
	if session == nil {
		return fmt.Errorf("session cannot be nil")
	}

	data, err := json.Marshal(newPersistedSessionData(session))
	if err != nil {
		return fmt.Errorf("failed to marshal session data: %w", err)
	}

	ctx, cancel := sp.context()
	defer cancel()

	_, err = sp.db.ExecContext(ctx, `
		INSERT INTO sessions (id, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		strings.ToLower(session.ID), string(data), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save session %s: %w", session.ID, err)
	}
	return nil
}

// Load reads and restores a session row
func (sp *SQLitePersistence) Load(id string) (*service.Session, error) {
	ctx, cancel := sp.context()
	defer cancel()

	var raw string
	err := sp.db.QueryRowContext(ctx, `SELECT data FROM sessions WHERE id = ?`, strings.ToLower(id)).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}

	var data PersistedSessionData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session data: %w", err)
	}

	return data.restore()
}

// Delete removes a session row
func (sp *SQLitePersistence) Delete(id string) error {
	ctx, cancel := sp.context()
	defer cancel()

	res, err := sp.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, strings.ToLower(id))
	if err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// ListAll returns all stored session IDs, most recently updated first
func (sp *SQLitePersistence) ListAll() ([]string, error) {
	ctx, cancel := sp.context()
	defer cancel()

	rows, err := sp.db.QueryContext(ctx, `SELECT id FROM sessions ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Exists checks if a session row exists
func (sp *SQLitePersistence) Exists(id string) bool {
	ctx, cancel := sp.context()
	defer cancel()

	var cnt int
	err := sp.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM sessions WHERE id = ?`, strings.ToLower(id)).Scan(&cnt)
	return err == nil && cnt > 0
}

func (sp *SQLitePersistence) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), sp.timeout)
}
