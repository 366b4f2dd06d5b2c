package record

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"reflect"
	"sync"
	"testing"
)

// fakeDriver is a minimal database/sql driver that records the queries
// it receives and serves canned results, so the generated SQL can be
// asserted without a live database.
type fakeDriver struct {
	mu     sync.Mutex
	states map[string]*fakeState
}

type fakeState struct {
	mu       sync.Mutex
	queries  []string
	args     [][]any
	queryKey int64
	affected int64
	lastID   int64
}

func (s *fakeState) record(query string, nvs []driver.NamedValue) {
	args := make([]any, len(nvs))
	for i, nv := range nvs {
		args[i] = nv.Value
	}
	s.mu.Lock()
	s.queries = append(s.queries, query)
	s.args = append(s.args, args)
	s.mu.Unlock()
}

var fake = &fakeDriver{states: make(map[string]*fakeState)}

func init() {
	sql.Register("fakerecord", fake)
}

func (d *fakeDriver) Open(dsn string) (driver.Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	state, ok := d.states[dsn]
	if !ok {
		return nil, fmt.Errorf("unknown dsn %q", dsn)
	}
	return &fakeConn{state: state}, nil
}

// openFake returns a *sql.DB over a fresh recording state.
func openFake(t *testing.T, state *fakeState) *sql.DB {
	t.Helper()
	dsn := t.Name()

	fake.mu.Lock()
	fake.states[dsn] = state
	fake.mu.Unlock()

	db, err := sql.Open("fakerecord", dsn)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

type fakeConn struct {
	state *fakeState
}

func (c *fakeConn) Prepare(query string) (driver.Stmt, error) {
	return nil, errors.New("prepare not supported")
}

func (c *fakeConn) Close() error { return nil }

func (c *fakeConn) Begin() (driver.Tx, error) {
	return nil, errors.New("transactions not supported")
}

func (c *fakeConn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	c.state.record(query, args)
	return &fakeRows{key: c.state.queryKey}, nil
}

func (c *fakeConn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.state.record(query, args)
	return fakeResult{affected: c.state.affected, lastID: c.state.lastID}, nil
}

type fakeRows struct {
	key  int64
	done bool
}

func (r *fakeRows) Columns() []string { return []string{"id"} }
func (r *fakeRows) Close() error      { return nil }

func (r *fakeRows) Next(dest []driver.Value) error {
	if r.done {
		return io.EOF
	}
	r.done = true
	dest[0] = r.key
	return nil
}

type fakeResult struct {
	affected int64
	lastID   int64
}

func (r fakeResult) LastInsertId() (int64, error) { return r.lastID, nil }
func (r fakeResult) RowsAffected() (int64, error) { return r.affected, nil }

func TestSQLStoreCreate(t *testing.T) {
	t.Run("PostgreSQL", func(t *testing.T) {
		state := &fakeState{queryKey: 42}
		db := openFake(t, state)
		s := NewSQLStore(db, "books")

		key, err := s.Create(context.Background(), map[string]any{"title": "Go", "pages": int64(200)})
		if err != nil {
			t.Fatal(err)
		}
		if key != int64(42) {
			t.Errorf("key = %v", key)
		}

		wantQuery := "INSERT INTO books (pages, title) VALUES ($1, $2) RETURNING id"
		if state.queries[0] != wantQuery {
			t.Errorf("query = %q, want %q", state.queries[0], wantQuery)
		}
		if !reflect.DeepEqual(state.args[0], []any{int64(200), "Go"}) {
			t.Errorf("args = %v", state.args[0])
		}
	})

	t.Run("MySQL", func(t *testing.T) {
		state := &fakeState{lastID: 7}
		db := openFake(t, state)
		s := NewSQLStore(db, "books", WithSQLDialect(DialectMySQL))

		key, err := s.Create(context.Background(), map[string]any{"title": "Go"})
		if err != nil {
			t.Fatal(err)
		}
		if key != int64(7) {
			t.Errorf("key = %v", key)
		}

		wantQuery := "INSERT INTO books (title) VALUES (?)"
		if state.queries[0] != wantQuery {
			t.Errorf("query = %q, want %q", state.queries[0], wantQuery)
		}
	})
}

func TestSQLStoreUpdate(t *testing.T) {
	t.Run("GeneratesAssignments", func(t *testing.T) {
		state := &fakeState{affected: 1}
		db := openFake(t, state)
		s := NewSQLStore(db, "books")

		if err := s.Update(context.Background(), int64(42), map[string]any{"pages": int64(250), "title": "Go 2"}); err != nil {
			t.Fatal(err)
		}

		wantQuery := "UPDATE books SET pages = $1, title = $2 WHERE id = $3"
		if state.queries[0] != wantQuery {
			t.Errorf("query = %q, want %q", state.queries[0], wantQuery)
		}
		if !reflect.DeepEqual(state.args[0], []any{int64(250), "Go 2", int64(42)}) {
			t.Errorf("args = %v", state.args[0])
		}
	})

	t.Run("MissingRow", func(t *testing.T) {
		state := &fakeState{affected: 0}
		db := openFake(t, state)
		s := NewSQLStore(db, "books")

		err := s.Update(context.Background(), int64(1), map[string]any{"title": "x"})
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("err = %v", err)
		}
	})

	t.Run("CustomKeyColumn", func(t *testing.T) {
		state := &fakeState{affected: 1}
		db := openFake(t, state)
		s := NewSQLStore(db, "books", WithSQLKeyColumn("isbn"), WithSQLDialect(DialectSQLite))

		if err := s.Update(context.Background(), "978-0", map[string]any{"title": "x"}); err != nil {
			t.Fatal(err)
		}
		wantQuery := "UPDATE books SET title = ? WHERE isbn = ?"
		if state.queries[0] != wantQuery {
			t.Errorf("query = %q, want %q", state.queries[0], wantQuery)
		}
	})
}
