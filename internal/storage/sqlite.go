// Package storage runs ad-hoc queries against existing SQLite databases.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

var (
	// ErrDatabaseNotFound is returned when the database file does not exist.
	ErrDatabaseNotFound = errors.New("database file not found")
	// ErrNotDatabase is returned for paths without a .db extension.
	ErrNotDatabase = errors.New("file is not a sqlite database")
)

// QueryError wraps a failed statement.
type QueryError struct {
	Query string
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query failed: %v", e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// Rows is a fully read result set.
type Rows struct {
	Columns []string
	Values  [][]any
}

// Connect opens an existing database. Unlike sql.Open it never creates a new
// file.
func Connect(ctx context.Context, path string) (*sql.DB, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrDatabaseNotFound)
		}
		return nil, err
	}
	if !strings.HasSuffix(path, ".db") {
		return nil, fmt.Errorf("%s: %w", path, ErrNotDatabase)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := db.ExecContext(pctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		_ = db.Close()
		return nil, &QueryError{Query: "PRAGMA busy_timeout", Err: err}
	}
	return db, nil
}

// Execute runs query. A select returns its rows; anything else is executed
// and returns nil rows. closeAfter closes db when done.
func Execute(ctx context.Context, db *sql.DB, query string, closeAfter bool) (*Rows, error) {
	if closeAfter {
		defer db.Close()
	}
	if isSelect(query) {
		rows, err := db.QueryContext(ctx, query)
		if err != nil {
			return nil, &QueryError{Query: query, Err: err}
		}
		defer rows.Close()
		out, err := collect(rows)
		if err != nil {
			return nil, &QueryError{Query: query, Err: err}
		}
		return out, nil
	}
	if _, err := db.ExecContext(ctx, query); err != nil {
		return nil, &QueryError{Query: query, Err: err}
	}
	return nil, nil
}

// ConnectAndExecute opens path, runs query and closes the connection.
func ConnectAndExecute(ctx context.Context, path, query string) (*Rows, error) {
	db, err := Connect(ctx, path)
	if err != nil {
		return nil, err
	}
	return Execute(ctx, db, query, true)
}

func isSelect(query string) bool {
	fields := strings.Fields(query)
	return len(fields) > 0 && strings.EqualFold(fields[0], "select")
}

func collect(rows *sql.Rows) (*Rows, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	out := &Rows{Columns: cols}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				vals[i] = string(b)
			}
		}
		out.Values = append(out.Values, vals)
	}
	return out, rows.Err()
}

// Strings renders every cell with fmt, NULL as an empty string.
func (r *Rows) Strings() [][]string {
	if r == nil {
		return nil
	}
	out := make([][]string, len(r.Values))
	for i, row := range r.Values {
		cells := make([]string, len(row))
		for j, v := range row {
			if v != nil {
				cells[j] = fmt.Sprint(v)
			}
		}
		out[i] = cells
	}
	return out
}
