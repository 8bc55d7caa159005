package props

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

const schema = `
CREATE TABLE IF NOT EXISTS properties (
	scope TEXT NOT NULL,
	key   TEXT NOT NULL,
	value TEXT NOT NULL,
	PRIMARY KEY (scope, key)
)`

// SQLite is a Backend persisted to a single SQLite database file.
type SQLite struct {
	db *sql.DB
}

type sqliteStore struct {
	db    *sql.DB
	scope string
}

// NewSQLite opens (creating if necessary) the property database at path. ':memory:' opens a
// private in-memory database.
func NewSQLite(ctx context.Context, path string) (*SQLite, error) {
	var dsn string

	if path == ":memory:" {
		dsn = "file::memory:?_pragma=busy_timeout(10000)"
	} else if strings.HasPrefix(path, "file:") {
		dsn = path
	} else {
		if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
			return nil, fmt.Errorf("failed to create directory (%w)", err)
		}

		dsn = "file:" + path + "?_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open property database (%w)", err)
	}

	// in-memory databases are per connection
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialise property database (%w)", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Scope(name string) Store {
	return &sqliteStore{
		db:    s.db,
		scope: name,
	}
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *sqliteStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string

	row := s.db.QueryRowContext(ctx, `SELECT value FROM properties WHERE scope = ? AND key = ?`, s.scope, key)
	if err := row.Scan(&value); err == sql.ErrNoRows {
		return "", false, nil
	} else if err != nil {
		return "", false, err
	}

	return value, true, nil
}

func (s *sqliteStore) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, upsert, s.scope, key, value)

	return err
}

func (s *sqliteStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM properties WHERE scope = ? AND key = ?`, s.scope, key)

	return err
}

func (s *sqliteStore) Update(ctx context.Context, batch Batch) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer tx.Rollback()

	for k, v := range batch.Set {
		if _, err := tx.ExecContext(ctx, upsert, s.scope, k, v); err != nil {
			return err
		}
	}

	for _, k := range batch.Delete {
		if _, err := tx.ExecContext(ctx, `DELETE FROM properties WHERE scope = ? AND key = ?`, s.scope, k); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *sqliteStore) DeleteAll(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM properties WHERE scope = ?`, s.scope)

	return err
}

func (s *sqliteStore) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key FROM properties WHERE scope = ? ORDER BY key`, s.scope)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}

		keys = append(keys, key)
	}

	return keys, rows.Err()
}

const upsert = `INSERT INTO properties (scope, key, value) VALUES (?, ?, ?)
ON CONFLICT (scope, key) DO UPDATE SET value = excluded.value`
