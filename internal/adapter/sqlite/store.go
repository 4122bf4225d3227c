// Package sqlite saves query result tables into a SQLite database file so
// they can be explored with any SQL client. Each save replaces the table of
// the same name.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/couchcryptid/crime-map-etl/internal/table"

	_ "modernc.org/sqlite"
)

// Store writes tables to one SQLite database.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if needed) the database at path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Writes are serialized anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for read-back.
func (s *Store) DB() *sql.DB { return s.db }

// SaveTable replaces the table called name with the contents of t inside a
// single transaction. Number columns are NUMERIC so integers stay exact and
// everything else is TEXT. Dates are stored as YYYY-MM-DD, nulls as NULL.
func (s *Store) SaveTable(ctx context.Context, name string, t *table.Table) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save %s: begin: %w", name, err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	ident := quoteIdent(name)
	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+ident); err != nil {
		return fmt.Errorf("save %s: drop: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx, createStatement(ident, t)); err != nil {
		return fmt.Errorf("save %s: create: %w", name, err)
	}

	cols := t.Columns()
	if len(cols) > 0 && t.NumRows() > 0 {
		stmt, err := tx.PrepareContext(ctx, insertStatement(ident, cols))
		if err != nil {
			return fmt.Errorf("save %s: prepare: %w", name, err)
		}
		defer stmt.Close()

		args := make([]any, len(cols))
		for i := 0; i < t.NumRows(); i++ {
			for j, v := range t.Row(i).Values() {
				args[j] = sqlValue(v)
			}
			if _, err := stmt.ExecContext(ctx, args...); err != nil {
				return fmt.Errorf("save %s: row %d: %w", name, i, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save %s: commit: %w", name, err)
	}
	s.logger.Debug("table saved", "table", name, "rows", t.NumRows())
	return nil
}

func createStatement(ident string, t *table.Table) string {
	cols := t.Columns()
	defs := make([]string, len(cols))
	for j, c := range cols {
		defs[j] = quoteIdent(c) + " " + columnType(t, j)
	}
	if len(defs) == 0 {
		// SQLite tables need at least one column.
		defs = []string{`"_empty" TEXT`}
	}
	return "CREATE TABLE " + ident + " (" + strings.Join(defs, ", ") + ")"
}

func insertStatement(ident string, cols []string) string {
	quoted := make([]string, len(cols))
	for j, c := range cols {
		quoted[j] = quoteIdent(c)
	}
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	return "INSERT INTO " + ident + " (" + strings.Join(quoted, ", ") + ") VALUES (" + marks + ")"
}

// columnType reads the kind from the first row; nulls keep their column kind.
func columnType(t *table.Table, j int) string {
	if t.NumRows() == 0 {
		return "TEXT"
	}
	if t.Row(0).Values()[j].Kind() == table.KindNumber {
		return "NUMERIC"
	}
	return "TEXT"
}

func sqlValue(v table.Value) any {
	if v.IsNull() {
		return nil
	}
	if v.Kind() == table.KindNumber {
		if i, ok := v.Int(); ok {
			return i
		}
		return v.Float()
	}
	return v.Format()
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
