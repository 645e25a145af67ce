package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	"ctboard/internal/remote"
)

const (
	KeyAPIURL   = "api_url"
	KeyAPIToken = "api_token"
)

// Settings persists the two endpoint strings in a small sqlite key/value
// table and caches them for the remote client. Overrides (flags, env) win
// over stored values but are never written back.
type Settings struct {
	path string

	mu        sync.RWMutex
	stored    map[string]string
	overrides map[string]string
}

// OpenSettings reads settings from the config dir. A missing database is
// not an error; it is created on the first Set.
func OpenSettings(ctx context.Context) (*Settings, error) {
	path, err := SettingsPath()
	if err != nil {
		return nil, err
	}
	return OpenSettingsAt(ctx, path)
}

func OpenSettingsAt(ctx context.Context, path string) (*Settings, error) {
	s := &Settings{
		path:      path,
		stored:    map[string]string{},
		overrides: map[string]string{},
	}
	if err := s.Load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Settings) Path() string { return s.path }

func openSettingsDB(ctx context.Context, path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS settings (
		k TEXT PRIMARY KEY,
		v TEXT NOT NULL
	);`); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Load re-reads the stored values. Call it after the file changed on disk.
func (s *Settings) Load(ctx context.Context) error {
	vals := map[string]string{}
	if _, err := os.Stat(s.path); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
	} else {
		db, err := openSettingsDB(ctx, s.path)
		if err != nil {
			return fmt.Errorf("open settings: %w", err)
		}
		defer db.Close()
		rows, err := db.QueryContext(ctx, `SELECT k, v FROM settings`)
		if err != nil {
			return fmt.Errorf("read settings: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var k, v string
			if err := rows.Scan(&k, &v); err != nil {
				return err
			}
			vals[k] = v
		}
		if err := rows.Err(); err != nil {
			return err
		}
	}
	s.mu.Lock()
	s.stored = vals
	s.mu.Unlock()
	return nil
}

// Refresh re-reads the stored values and reports whether any of them
// changed since the last read.
func (s *Settings) Refresh(ctx context.Context) (bool, error) {
	s.mu.RLock()
	before := maps.Clone(s.stored)
	s.mu.RUnlock()
	if err := s.Load(ctx); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !maps.Equal(before, s.stored), nil
}

// Set stores a value; an empty value deletes the key.
func (s *Settings) Set(ctx context.Context, key, value string) error {
	value = strings.TrimSpace(value)
	db, err := openSettingsDB(ctx, s.path)
	if err != nil {
		return fmt.Errorf("open settings: %w", err)
	}
	defer db.Close()
	if value == "" {
		_, err = db.ExecContext(ctx, `DELETE FROM settings WHERE k = ?`, key)
	} else {
		_, err = db.ExecContext(ctx, `INSERT INTO settings(k, v) VALUES(?, ?)
			ON CONFLICT(k) DO UPDATE SET v = excluded.v`, key, value)
	}
	if err != nil {
		return fmt.Errorf("write setting %s: %w", key, err)
	}
	s.mu.Lock()
	if value == "" {
		delete(s.stored, key)
	} else {
		s.stored[key] = value
	}
	s.mu.Unlock()
	return nil
}

// Clear removes both endpoint settings.
func (s *Settings) Clear(ctx context.Context) error {
	for _, k := range []string{KeyAPIURL, KeyAPIToken} {
		if err := s.Set(ctx, k, ""); err != nil {
			return err
		}
	}
	return nil
}

// Override sets a per-process value for key. Empty values are ignored.
func (s *Settings) Override(key, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	s.mu.Lock()
	s.overrides[key] = value
	s.mu.Unlock()
}

// OverrideFromEnv applies CTBOARD_API_URL / CTBOARD_API_TOKEN.
func (s *Settings) OverrideFromEnv() {
	s.Override(KeyAPIURL, os.Getenv(EnvAPIURL))
	s.Override(KeyAPIToken, os.Getenv(EnvAPIToken))
}

func (s *Settings) Get(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.overrides[key]; ok {
		return v
	}
	return s.stored[key]
}

// Overridden reports whether key currently comes from an override.
func (s *Settings) Overridden(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.overrides[key]
	return ok
}

// Endpoint implements remote.Source.
func (s *Settings) Endpoint() remote.Endpoint {
	return remote.Endpoint{URL: s.Get(KeyAPIURL), Token: s.Get(KeyAPIToken)}
}
