package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/coder/quartz"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

const createTable = `
CREATE TABLE IF NOT EXISTS bankroll (
    name          TEXT PRIMARY KEY,
    value         BIGINT NOT NULL,
    updated_at_ms BIGINT NOT NULL
)`

const upsertValue = `
INSERT INTO bankroll (name, value, updated_at_ms)
VALUES (?, ?, ?)
ON CONFLICT (name) DO UPDATE SET value = excluded.value, updated_at_ms = excluded.updated_at_ms`

const selectValue = `SELECT value FROM bankroll WHERE name = ?`

// SQLStore keeps one row per key in a bankroll table
type SQLStore struct {
	db      *sql.DB
	dialect dialect
	clock   quartz.Clock
}

// OpenSQLite opens or creates the SQLite database at path. ":memory:" gives
// a private in-memory database.
func OpenSQLite(ctx context.Context, path string) (*SQLStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("empty sqlite database path")
	}
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, err
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	for _, pragma := range []string{
		`PRAGMA busy_timeout = 5000;`,
		`PRAGMA journal_mode = WAL;`,
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return newSQLStore(ctx, db, dialectSQLite)
}

// OpenPostgres connects to PostgreSQL through the pgx driver
func OpenPostgres(ctx context.Context, dsn string) (*SQLStore, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, errors.New("empty postgres dsn")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return newSQLStore(ctx, db, dialectPostgres)
}

func newSQLStore(ctx context.Context, db *sql.DB, d dialect) (*SQLStore, error) {
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, createTable); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure bankroll schema: %w", err)
	}
	return &SQLStore{db: db, dialect: d, clock: quartz.NewReal()}, nil
}

// WithClock sets the clock that stamps updated_at_ms on each save
func (s *SQLStore) WithClock(c quartz.Clock) *SQLStore {
	s.clock = c
	return s
}

func (s *SQLStore) Load(ctx context.Context, key string) (int, bool, error) {
	var v int64
	err := s.db.QueryRowContext(ctx, s.rebind(selectValue), key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("load %s: %w", key, err)
	}
	return int(v), true, nil
}

func (s *SQLStore) Save(ctx context.Context, key string, value int) error {
	_, err := s.db.ExecContext(ctx, s.rebind(upsertValue), key, int64(value), s.clock.Now().UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func (s *SQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// rebind rewrites ? placeholders as $n for PostgreSQL
func (s *SQLStore) rebind(query string) string {
	if s.dialect != dialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
