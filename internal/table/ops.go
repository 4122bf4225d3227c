package table

import (
	"fmt"
	"sort"
	"strings"
)

// Select projects the named columns, in the given order.
func (t *Table) Select(columns ...string) (*Table, error) {
	idx := make([]int, len(columns))
	for k, c := range columns {
		j, ok := t.index[c]
		if !ok {
			return nil, fmt.Errorf("select: %w: %q", ErrUnknownColumn, c)
		}
		idx[k] = j
	}
	index, err := buildIndex(columns)
	if err != nil {
		return nil, fmt.Errorf("select: %w", err)
	}
	rows := make([][]Value, len(t.rows))
	for i, row := range t.rows {
		out := make([]Value, len(idx))
		for k, j := range idx {
			out[k] = row[j]
		}
		rows[i] = out
	}
	return newUnchecked(append([]string(nil), columns...), index, rows), nil
}

// Rename renames columns according to mapping (old name -> new name).
// Every old name must exist.
func (t *Table) Rename(mapping map[string]string) (*Table, error) {
	for old := range mapping {
		if _, ok := t.index[old]; !ok {
			return nil, fmt.Errorf("rename: %w: %q", ErrUnknownColumn, old)
		}
	}
	return t.RenameFunc(func(name string) string {
		if renamed, ok := mapping[name]; ok {
			return renamed
		}
		return name
	})
}

// RenameFunc renames every column through fn. Rows are shared with the
// receiver since values are immutable.
func (t *Table) RenameFunc(fn func(string) string) (*Table, error) {
	columns := make([]string, len(t.columns))
	for i, c := range t.columns {
		columns[i] = fn(c)
	}
	index, err := buildIndex(columns)
	if err != nil {
		return nil, fmt.Errorf("rename: %w", err)
	}
	return newUnchecked(columns, index, t.rows), nil
}

// Filter keeps the rows for which keep returns true, in order.
func (t *Table) Filter(keep func(Row) bool) *Table {
	var rows [][]Value
	for i, row := range t.rows {
		if keep(Row{t: t, i: i}) {
			rows = append(rows, row)
		}
	}
	return newUnchecked(t.columns, t.index, rows)
}

// Distinct drops repeated rows, keeping the first occurrence of each.
// Two nulls of the same kind count as the same value here; nulls of
// different kinds stay distinct.
func (t *Table) Distinct() *Table {
	seen := make(map[string]struct{}, len(t.rows))
	var rows [][]Value
	for _, row := range t.rows {
		k := rowKey(row, nil)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		rows = append(rows, row)
	}
	return newUnchecked(t.columns, t.index, rows)
}

// SortDesc orders rows by column, largest first. The sort is stable and
// nulls go last.
func (t *Table) SortDesc(column string) (*Table, error) {
	j, ok := t.index[column]
	if !ok {
		return nil, fmt.Errorf("sort: %w: %q", ErrUnknownColumn, column)
	}
	rows := append([][]Value(nil), t.rows...)
	sort.SliceStable(rows, func(a, b int) bool {
		va, vb := rows[a][j], rows[b][j]
		if va.IsNull() || vb.IsNull() {
			return !va.IsNull() && vb.IsNull()
		}
		c, _ := va.Compare(vb)
		return c > 0
	})
	return newUnchecked(t.columns, t.index, rows), nil
}

// Head returns the first n rows.
func (t *Table) Head(n int) *Table {
	if n < 0 {
		n = 0
	}
	if n > len(t.rows) {
		n = len(t.rows)
	}
	return newUnchecked(t.columns, t.index, t.rows[:n:n])
}

// MapColumn returns a table whose named column is replaced by fn applied
// to each of its values. The receiver is left untouched.
func (t *Table) MapColumn(column string, fn func(Value) Value) (*Table, error) {
	j, ok := t.index[column]
	if !ok {
		return nil, fmt.Errorf("map column: %w: %q", ErrUnknownColumn, column)
	}
	rows := make([][]Value, len(t.rows))
	for i, row := range t.rows {
		out := append([]Value(nil), row...)
		out[j] = fn(row[j])
		rows[i] = out
	}
	return newUnchecked(t.columns, t.index, rows), nil
}

// rowKey encodes the selected cells (all when cols is nil) for hashing.
func rowKey(row []Value, cols []int) string {
	var b strings.Builder
	if cols == nil {
		for _, v := range row {
			b.WriteString(v.key())
			b.WriteByte(0x1f)
		}
		return b.String()
	}
	for _, j := range cols {
		b.WriteString(row[j].key())
		b.WriteByte(0x1f)
	}
	return b.String()
}
