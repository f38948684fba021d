// Package sqlstore implements the persistence contract over database/sql.
// The sqlite and postgres packages open the connection and run migrations,
// then delegate every row operation here.
package sqlstore

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

type DB struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
	newID   func() string
}

type Option func(*DB)

func WithClock(now func() time.Time) Option {
	return func(d *DB) { d.now = now }
}

func WithIDGenerator(fn func() string) Option {
	return func(d *DB) { d.newID = fn }
}

func New(db *sql.DB, dialect Dialect, opts ...Option) *DB {
	d := &DB{
		db:      db,
		dialect: dialect,
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *DB) nowMillis() int64 {
	return d.now().UnixMilli()
}

// rebind rewrites ? placeholders to $n for Postgres. Queries in this package
// never contain a literal question mark.
func (d *DB) rebind(q string) string {
	if d.dialect != Postgres {
		return q
	}
	var b strings.Builder
	b.Grow(len(q) + 8)
	n := 0
	for _, r := range q {
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

// inTx runs fn inside a transaction, rolling back on error.
func (d *DB) inTx(fn func(tx *sql.Tx) error) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// TableExists reports whether table exists in the connected database.
func (d *DB) TableExists(table string) (bool, error) {
	var q string
	if d.dialect == Postgres {
		q = "SELECT count(*) FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = ?"
	} else {
		q = "SELECT count(*) FROM sqlite_master WHERE type='table' AND name COLLATE NOCASE = ?"
	}
	var count int
	if err := d.db.QueryRow(d.rebind(q), table).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}
