//go:build !tinygo

package prefs

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"
)

// SQLite is a Store kept in a single-table SQLite database. The simulator
// uses it when store.backend is "sqlite".
type SQLite struct {
	mu sync.Mutex
	db *sql.DB
}

// OpenSQLite opens or creates the database at path. ":memory:" is accepted.
func OpenSQLite(path string) (*SQLite, error) {
	if path == "" {
		return nil, fmt.Errorf("open sqlite store: empty path: %w", ErrUnavailable)
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("open sqlite store: %w: %v", ErrUnavailable, err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w: %v", ErrUnavailable, err)
	}
	db.SetMaxOpenConns(1)

	s := &SQLite{db: db}
	if err := s.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open sqlite store: %w: %v", ErrUnavailable, err)
	}
	return s, nil
}

func (s *SQLite) ensureSchema() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS prefs (
	ns TEXT NOT NULL,
	key TEXT NOT NULL,
	kind INTEGER NOT NULL,
	str TEXT NOT NULL DEFAULT '',
	flag INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (ns, key)
);`
	_, err := s.db.Exec(ddl)
	return err
}

func (s *SQLite) lookup(ns, key string) (value, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var (
		k    int
		str  string
		flag int
	)
	err := s.db.QueryRow(`SELECT kind, str, flag FROM prefs WHERE ns = ? AND key = ?;`, ns, key).Scan(&k, &str, &flag)
	if err != nil {
		return value{}, false
	}
	return value{kind: kind(k), str: str, b: flag != 0}, true
}

func (s *SQLite) GetString(ns, key, def string) string {
	if v, ok := s.lookup(ns, key); ok && v.kind == kindString {
		return v.str
	}
	return def
}

func (s *SQLite) GetBool(ns, key string, def bool) bool {
	if v, ok := s.lookup(ns, key); ok && v.kind == kindBool {
		return v.b
	}
	return def
}

func (s *SQLite) PutString(ns, key, str string) error {
	return s.upsert(ns, key, value{kind: kindString, str: str})
}

func (s *SQLite) PutBool(ns, key string, b bool) error {
	return s.upsert(ns, key, value{kind: kindBool, b: b})
}

func (s *SQLite) upsert(ns, key string, v value) error {
	if err := validKey(ns, key); err != nil {
		return err
	}
	flag := 0
	if v.b {
		flag = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`
INSERT INTO prefs (ns, key, kind, str, flag) VALUES (?, ?, ?, ?, ?)
ON CONFLICT(ns, key) DO UPDATE SET kind = excluded.kind, str = excluded.str, flag = excluded.flag;`,
		ns, key, int(v.kind), v.str, flag)
	if err != nil {
		return fmt.Errorf("write %s/%s: %w: %v", ns, key, ErrUnavailable, err)
	}
	return nil
}

func (s *SQLite) Remove(ns, key string) error {
	if err := validKey(ns, key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.Exec(`DELETE FROM prefs WHERE ns = ? AND key = ?;`, ns, key); err != nil {
		return fmt.Errorf("remove %s/%s: %w: %v", ns, key, ErrUnavailable, err)
	}
	return nil
}

func (s *SQLite) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
