// Package storage persists issued bearer credentials. The consent core
// treats persistence as an opaque get/put/list/delete service with TTL;
// this is its SQLite-backed implementation.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a key is absent or has expired.
var ErrNotFound = errors.New("storage: not found")

// TokenRecord links an issued bearer to the delegated upstream token.
type TokenRecord struct {
	AccessToken string    `json:"access_token"`
	ClientID    string    `json:"client_id,omitempty"`
	ObtainedAt  time.Time `json:"obtained_at"`
}

// Store is the opaque key-value surface the auth flow writes through.
type Store interface {
	Put(ctx context.Context, key string, record TokenRecord, ttl time.Duration) error
	Get(ctx context.Context, key string) (TokenRecord, error)
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, key string) error
	Close() error
}

const schema = `
CREATE TABLE IF NOT EXISTS tokens (
	key        TEXT PRIMARY KEY,
	record     TEXT NOT NULL,
	expires_at INTEGER NOT NULL
);
`

// SQLiteStore is the file-backed Store. Expiry is lazy: expired rows are
// invisible to Get/List and swept on open.
type SQLiteStore struct {
	db *sql.DB
}

// Open creates or opens the token database at path.
func Open(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create token store dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open token store: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply token store schema: %w", err)
	}
	s := &SQLiteStore{db: db}
	if err := s.sweep(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Put stores a record under key with the given lifetime.
func (s *SQLiteStore) Put(ctx context.Context, key string, record TokenRecord, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("put %s: ttl must be positive", key)
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	expires := time.Now().Add(ttl).Unix()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO tokens (key, record, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET record = excluded.record, expires_at = excluded.expires_at`,
		key, string(payload), expires)
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

// Get returns the record for key, or ErrNotFound once expired.
func (s *SQLiteStore) Get(ctx context.Context, key string) (TokenRecord, error) {
	var (
		payload string
		expires int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT record, expires_at FROM tokens WHERE key = ?`, key).Scan(&payload, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return TokenRecord{}, ErrNotFound
	}
	if err != nil {
		return TokenRecord{}, fmt.Errorf("get %s: %w", key, err)
	}
	if time.Now().Unix() >= expires {
		_ = s.Delete(ctx, key)
		return TokenRecord{}, ErrNotFound
	}
	var record TokenRecord
	if err := json.Unmarshal([]byte(payload), &record); err != nil {
		return TokenRecord{}, fmt.Errorf("get %s: decode record: %w", key, err)
	}
	return record, nil
}

// List returns the live keys.
func (s *SQLiteStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key FROM tokens WHERE expires_at > ? ORDER BY key`, time.Now().Unix())
	if err != nil {
		return nil, fmt.Errorf("list tokens: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("list tokens: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// Delete removes a key; deleting an absent key is not an error.
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM tokens WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) sweep(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM tokens WHERE expires_at <= ?`, time.Now().Unix()); err != nil {
		return fmt.Errorf("sweep expired tokens: %w", err)
	}
	return nil
}
