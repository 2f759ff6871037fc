// Package store provides SQLite-backed key-value persistence for tubetop.
//
// Every piece of durable state (API credential, channel registry, video cache,
// watched/later/hidden id sets) is one named JSON value. Values are replaced
// atomically and never patched in place. Subscribers registered on a key are
// notified after every successful Set, which is how the UI observes changes it
// did not make itself.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

// Well-known keys. One JSON value lives under each.
const (
	KeyCredential = "credential"
	KeyChannels   = "channels"
	KeyVideoCache = "video_cache"
	KeyWatched    = "watched_ids"
	KeyLater      = "later_ids"
	KeyHidden     = "hidden_ids"
)

// Store handles SQLite persistence. NOT an interface - concrete type.
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type Store struct {
	db *sql.DB
	mu sync.RWMutex // protects database operations

	subMu sync.Mutex
	subs  map[string][]func()
}

// Open creates a Store at the given database path, creating the schema if
// needed. Uses WAL mode for file-based databases.
func Open(dbPath string) (*Store, error) {
	connStr := dbPath
	if dbPath == ":memory:" {
		// Shared cache so every pooled connection sees the same database
		connStr = "file::memory:?cache=shared"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &Store{
		db:   db,
		subs: make(map[string][]func()),
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS kv (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// Get unmarshals the value stored under key into dst.
// Returns false with no error when the key has never been set.
func (s *Store) Get(key string, dst any) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var raw string
	err := s.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&raw)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get %s: %w", key, err)
	}

	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// Set replaces the value stored under key, then notifies subscribers.
func (s *Store) Set(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	s.mu.Lock()
	_, err = s.db.Exec(`
		INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, string(raw))
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}

	s.notify(key)
	return nil
}

// Delete removes the value stored under key, then notifies subscribers.
// Deleting an absent key is a no-op.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	_, err := s.db.Exec("DELETE FROM kv WHERE key = ?", key)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}

	s.notify(key)
	return nil
}

// Subscribe registers fn to run after every Set or Delete of key.
// Callbacks run synchronously on the mutating goroutine; keep them cheap.
func (s *Store) Subscribe(key string, fn func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.subs[key] = append(s.subs[key], fn)
}

func (s *Store) notify(key string) {
	s.subMu.Lock()
	fns := make([]func(), len(s.subs[key]))
	copy(fns, s.subs[key])
	s.subMu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Credential returns the stored API credential, or "" when unset.
func (s *Store) Credential() string {
	var cred string
	ok, err := s.Get(KeyCredential, &cred)
	if err != nil || !ok {
		return ""
	}
	return cred
}

// SetCredential stores the API credential. An empty string clears it.
func (s *Store) SetCredential(cred string) error {
	if cred == "" {
		return s.Delete(KeyCredential)
	}
	return s.Set(KeyCredential, cred)
}
