package table

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownColumn is returned when an operation names a column the table does not have.
	ErrUnknownColumn = errors.New("unknown column")
	// ErrDuplicateColumn is returned when a table would end up with two columns of the same name.
	ErrDuplicateColumn = errors.New("duplicate column")
)

// Table is an immutable, column-named set of rows. Operations return new
// tables and never modify the receiver, so intermediate results can be
// shared freely between pipeline stages.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]Value
}

// New builds a table. Every row must have exactly one value per column.
// The rows are copied.
func New(columns []string, rows [][]Value) (*Table, error) {
	index, err := buildIndex(columns)
	if err != nil {
		return nil, err
	}
	copied := make([][]Value, len(rows))
	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("row %d has %d values, want %d", i, len(row), len(columns))
		}
		copied[i] = append([]Value(nil), row...)
	}
	return &Table{
		columns: append([]string(nil), columns...),
		index:   index,
		rows:    copied,
	}, nil
}

// newUnchecked wraps already-validated columns and rows without copying.
// Callers must not retain or modify the slices afterwards.
func newUnchecked(columns []string, index map[string]int, rows [][]Value) *Table {
	if rows == nil {
		rows = [][]Value{}
	}
	return &Table{columns: columns, index: index, rows: rows}
}

func buildIndex(columns []string) (map[string]int, error) {
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		if _, dup := index[c]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, c)
		}
		index[c] = i
	}
	return index, nil
}

// Columns returns a copy of the column names in order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

// HasColumn reports whether the table has a column with exactly this name.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int { return len(t.rows) }

// Row returns a read-only view of row i.
func (t *Table) Row(i int) Row { return Row{t: t, i: i} }

// Column returns a copy of every value in the named column.
func (t *Table) Column(name string) ([]Value, error) {
	j, ok := t.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
	out := make([]Value, len(t.rows))
	for i, row := range t.rows {
		out[i] = row[j]
	}
	return out, nil
}

// Row is a view of one table row.
type Row struct {
	t *Table
	i int
}

// Index returns the row's position in its table.
func (r Row) Index() int { return r.i }

// Get returns the named cell, or a null string value if the column is absent.
func (r Row) Get(column string) Value {
	j, ok := r.t.index[column]
	if !ok {
		return Value{}
	}
	return r.t.rows[r.i][j]
}

// Values returns a copy of the row's cells in column order.
func (r Row) Values() []Value {
	return append([]Value(nil), r.t.rows[r.i]...)
}
