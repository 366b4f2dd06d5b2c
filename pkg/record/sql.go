package record

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
)

// SQLStore is a record store backed by any database/sql compatible
// driver (PostgreSQL, MySQL, SQLite). One SQLStore addresses one
// table; register one per mutable record type. The table needs a
// primary key column (default "id") that the database generates on
// insert, e.g. for PostgreSQL:
//
//	CREATE TABLE flavors (
//	    id BIGSERIAL PRIMARY KEY,
//	    ...
//	);
type SQLStore struct {
	db        *sql.DB
	tableName string
	keyColumn string
	dialect   SQLDialect
}

// SQLDialect represents the SQL dialect for query generation.
type SQLDialect int

const (
	// DialectPostgreSQL uses PostgreSQL syntax ($1, $2 placeholders,
	// RETURNING for generated keys).
	DialectPostgreSQL SQLDialect = iota
	// DialectMySQL uses MySQL syntax (? placeholders, LastInsertId).
	DialectMySQL
	// DialectSQLite uses SQLite syntax (? placeholders, LastInsertId).
	DialectSQLite
)

// SQLStoreOption configures SQLStore behavior.
type SQLStoreOption func(*SQLStore)

// WithSQLKeyColumn sets the primary key column. Default: "id".
func WithSQLKeyColumn(name string) SQLStoreOption {
	return func(s *SQLStore) {
		s.keyColumn = name
	}
}

// WithSQLDialect sets the SQL dialect for query generation.
// Default: DialectPostgreSQL.
func WithSQLDialect(dialect SQLDialect) SQLStoreOption {
	return func(s *SQLStore) {
		s.dialect = dialect
	}
}

// NewSQLStore creates a record store over one table. The driver is
// supplied by the host application through db.
func NewSQLStore(db *sql.DB, tableName string, opts ...SQLStoreOption) *SQLStore {
	store := &SQLStore{
		db:        db,
		tableName: tableName,
		keyColumn: "id",
		dialect:   DialectPostgreSQL,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// placeholder returns the placeholder syntax for the dialect.
func (s *SQLStore) placeholder(n int) string {
	if s.dialect == DialectPostgreSQL {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// columns returns the field names in deterministic order.
func columns(fields map[string]any) []string {
	cols := make([]string, 0, len(fields))
	for name := range fields {
		cols = append(cols, name)
	}
	sort.Strings(cols)
	return cols
}

// Create inserts a new row and returns its generated key.
func (s *SQLStore) Create(ctx context.Context, fields map[string]any) (any, error) {
	cols := columns(fields)
	args := make([]any, 0, len(cols))
	placeholders := make([]string, 0, len(cols))
	for i, col := range cols {
		args = append(args, fields[col])
		placeholders = append(placeholders, s.placeholder(i+1))
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		s.tableName, strings.Join(cols, ", "), strings.Join(placeholders, ", "))

	if s.dialect == DialectPostgreSQL {
		query += fmt.Sprintf(" RETURNING %s", s.keyColumn)
		var key int64
		if err := s.db.QueryRowContext(ctx, query, args...).Scan(&key); err != nil {
			return nil, fmt.Errorf("record: insert into %s: %w", s.tableName, err)
		}
		return key, nil
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("record: insert into %s: %w", s.tableName, err)
	}
	key, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("record: insert into %s: %w", s.tableName, err)
	}
	return key, nil
}

// Update overwrites fields on the row addressed by key.
func (s *SQLStore) Update(ctx context.Context, key any, fields map[string]any) error {
	cols := columns(fields)
	args := make([]any, 0, len(cols)+1)
	assignments := make([]string, 0, len(cols))
	for i, col := range cols {
		args = append(args, fields[col])
		assignments = append(assignments, fmt.Sprintf("%s = %s", col, s.placeholder(i+1)))
	}
	args = append(args, key)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s",
		s.tableName, strings.Join(assignments, ", "), s.keyColumn, s.placeholder(len(cols)+1))

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("record: update %s: %w", s.tableName, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("record: update %s key %v: %w", s.tableName, key, ErrNotFound)
	}
	return nil
}
