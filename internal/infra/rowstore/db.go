package rowstore

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"sync"

	_ "github.com/go-sql-driver/mysql" // register mysql as a database/sql driver
	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	_ "modernc.org/sqlite"             // pure go sqlite driver
)

// Compile-time contract assertion ensuring DB satisfies Executor.
var _ Executor = (*DB)(nil)

// Dialect identifies the SQL flavour of the backing store.
type Dialect string

const (
	DialectMySQL    Dialect = "mysql"    // production SALT database
	DialectPostgres Dialect = "postgres" // PostgreSQL replica
	DialectSQLite   Dialect = "sqlite"   // embedded file (tests / local fixtures)
)

var driverNames = map[Dialect]string{
	DialectMySQL:    "mysql",
	DialectPostgres: "pgx",
	DialectSQLite:   "sqlite",
}

const defaultMySQLDSN = "salt@tcp(localhost:3306)/sdb?parseTime=true&loc=UTC"

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// DB executes read-only statements through database/sql.
type DB struct {
	db      *sql.DB
	dialect Dialect
}

// Open connects to the backing store using the dialect's registered driver and
// verifies the connection.
func Open(ctx context.Context, dialect Dialect, dsn string) (*DB, error) {
	driver, ok := driverNames[dialect]
	if !ok {
		return nil, fmt.Errorf("unknown storage driver %s", dialect)
	}
	if dsn == "" {
		if dialect != DialectMySQL {
			return nil, fmt.Errorf("%s dsn required", dialect)
		}
		dsn = defaultMySQLDSN
	}
	openMu.Lock()
	db, err := sqlOpen(driver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect, err)
	}
	return New(db, dialect), nil
}

// New wraps an already opened handle.
func New(db *sql.DB, dialect Dialect) *DB {
	return &DB{db: db, dialect: dialect}
}

// Query binds args, runs the statement, and materializes every row.
func (d *DB) Query(ctx context.Context, stmt string, args ...any) (Rows, error) {
	bound, flat, err := Bind(d.dialect, stmt, args...)
	if err != nil {
		return nil, err
	}
	rows, err := d.db.QueryContext(ctx, bound, flat...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer func() { _ = rows.Close() }()
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}
	for i, c := range cols {
		cols[i] = strings.ToLower(c)
	}
	var out Rows
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		row := make(Row, len(cols))
		for i, c := range cols {
			row[c] = vals[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate: %w", err)
	}
	return out, nil
}

// Dialect returns the configured SQL dialect.
func (d *DB) Dialect() Dialect { return d.dialect }

// DB exposes the underlying sql.DB for fixtures and integration tests.
func (d *DB) DB() *sql.DB { return d.db }

// Close releases the connection pool.
func (d *DB) Close() error { return d.db.Close() }

// List is a parameter that expands into one placeholder per element.
// An empty List expands to NULL so that "IN (?)" matches nothing.
type List []any

// Int64s converts ids into a List parameter.
func Int64s(ids []int64) List {
	out := make(List, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}

// Strings converts text values into a List parameter.
func Strings(values []string) List {
	out := make(List, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// Ints converts ints into a List parameter.
func Ints(values []int) List {
	out := make(List, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// Bind expands List arguments and rewrites "?" placeholders for the dialect.
// Question marks inside single-quoted literals are left untouched.
func Bind(dialect Dialect, stmt string, args ...any) (string, []any, error) {
	var b strings.Builder
	b.Grow(len(stmt) + 16)
	flat := make([]any, 0, len(args))
	next := 0
	inQuote := false
	placeholder := func() {
		if dialect == DialectPostgres {
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(len(flat)))
			return
		}
		b.WriteByte('?')
	}
	for i := 0; i < len(stmt); i++ {
		c := stmt[i]
		if c == '\'' {
			inQuote = !inQuote
		}
		if c != '?' || inQuote {
			b.WriteByte(c)
			continue
		}
		if next >= len(args) {
			return "", nil, fmt.Errorf("statement has more placeholders than the %d supplied arguments", len(args))
		}
		arg := args[next]
		next++
		list, ok := arg.(List)
		if !ok {
			flat = append(flat, arg)
			placeholder()
			continue
		}
		if len(list) == 0 {
			b.WriteString("NULL")
			continue
		}
		for j, v := range list {
			if j > 0 {
				b.WriteString(", ")
			}
			flat = append(flat, v)
			placeholder()
		}
	}
	if next != len(args) {
		return "", nil, fmt.Errorf("statement uses %d of %d supplied arguments", next, len(args))
	}
	return b.String(), flat, nil
}

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
