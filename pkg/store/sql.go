package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"

	_ "modernc.org/sqlite"
)

// SQLStore keeps blobs in a SQL table. It works with any database/sql
// driver. The table is created by Init:
//
//	CREATE TABLE retain_snapshots (
//	    key VARCHAR(255) PRIMARY KEY,
//	    data BLOB NOT NULL,
//	    updated_at TIMESTAMP NOT NULL
//	);
type SQLStore struct {
	db        *sql.DB
	tableName string
	dialect   SQLDialect
	closed    atomic.Bool
}

// SQLDialect represents the SQL dialect for query generation.
type SQLDialect int

const (
	// DialectPostgreSQL uses PostgreSQL syntax ($1, $2 placeholders).
	DialectPostgreSQL SQLDialect = iota
	// DialectMySQL uses MySQL syntax (? placeholders).
	DialectMySQL
	// DialectSQLite uses SQLite syntax (? placeholders).
	DialectSQLite
)

// SQLStoreOption configures SQLStore behavior.
type SQLStoreOption func(*SQLStore)

// WithSQLTableName sets the table name.
// Default: "retain_snapshots".
func WithSQLTableName(name string) SQLStoreOption {
	return func(s *SQLStore) {
		s.tableName = name
	}
}

// WithSQLDialect sets the SQL dialect for query generation.
// Default: DialectPostgreSQL.
func WithSQLDialect(dialect SQLDialect) SQLStoreOption {
	return func(s *SQLStore) {
		s.dialect = dialect
	}
}

// NewSQLStore creates a SQL-backed store over db.
func NewSQLStore(db *sql.DB, opts ...SQLStoreOption) *SQLStore {
	s := &SQLStore{
		db:        db,
		tableName: "retain_snapshots",
		dialect:   DialectPostgreSQL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OpenSQLite opens a SQLite database at path with the pure-Go driver and
// returns a store using it. The table is created if missing.
func OpenSQLite(ctx context.Context, path string, opts ...SQLStoreOption) (*SQLStore, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}

	s := NewSQLStore(db, append([]SQLStoreOption{WithSQLDialect(DialectSQLite)}, opts...)...)
	if err := s.Init(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Init creates the table if it does not exist.
func (s *SQLStore) Init(ctx context.Context) error {
	var query string
	switch s.dialect {
	case DialectPostgreSQL:
		query = `CREATE TABLE IF NOT EXISTS %s (
			key VARCHAR(255) PRIMARY KEY,
			data BYTEA NOT NULL,
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)`
	case DialectMySQL:
		query = `CREATE TABLE IF NOT EXISTS %s (
			` + "`key`" + ` VARCHAR(255) PRIMARY KEY,
			data LONGBLOB NOT NULL,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`
	case DialectSQLite:
		query = `CREATE TABLE IF NOT EXISTS %s (
			key TEXT PRIMARY KEY,
			data BLOB NOT NULL,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`
	}
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(query, s.tableName)); err != nil {
		return fmt.Errorf("create table %s: %w", s.tableName, err)
	}
	return nil
}

// placeholder returns the placeholder syntax for the dialect.
func (s *SQLStore) placeholder(n int) string {
	if s.dialect == DialectPostgreSQL {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func (s *SQLStore) keyColumn() string {
	if s.dialect == DialectMySQL {
		return "`key`"
	}
	return "key"
}

// Save implements Store.
func (s *SQLStore) Save(ctx context.Context, key string, data []byte) error {
	if s.closed.Load() {
		return ErrStoreClosed
	}

	var query string
	switch s.dialect {
	case DialectPostgreSQL:
		query = fmt.Sprintf(`
			INSERT INTO %s (key, data, updated_at)
			VALUES ($1, $2, NOW())
			ON CONFLICT (key) DO UPDATE SET
				data = EXCLUDED.data,
				updated_at = NOW()
		`, s.tableName)
	case DialectMySQL:
		query = fmt.Sprintf(`
			INSERT INTO %s (`+"`key`"+`, data, updated_at)
			VALUES (?, ?, NOW())
			ON DUPLICATE KEY UPDATE
				data = VALUES(data),
				updated_at = NOW()
		`, s.tableName)
	case DialectSQLite:
		query = fmt.Sprintf(`
			INSERT OR REPLACE INTO %s (key, data, updated_at)
			VALUES (?, ?, datetime('now'))
		`, s.tableName)
	}

	_, err := s.db.ExecContext(ctx, query, key, data)
	return err
}

// Load implements Store.
func (s *SQLStore) Load(ctx context.Context, key string) ([]byte, error) {
	if s.closed.Load() {
		return nil, ErrStoreClosed
	}

	query := fmt.Sprintf(`SELECT data FROM %s WHERE %s = %s`, s.tableName, s.keyColumn(), s.placeholder(1))
	var data []byte
	err := s.db.QueryRowContext(ctx, query, key).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

// Delete implements Store.
func (s *SQLStore) Delete(ctx context.Context, key string) error {
	if s.closed.Load() {
		return ErrStoreClosed
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = %s`, s.tableName, s.keyColumn(), s.placeholder(1))
	_, err := s.db.ExecContext(ctx, query, key)
	return err
}

// Close implements Store. The underlying *sql.DB is closed too.
func (s *SQLStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}
