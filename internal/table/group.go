package table

import "fmt"

// Grouped is a table annotated with grouping columns. Row-order operations
// (SortDesc, Head) act on the whole table and ignore the groups; only
// Count and Groups look at them.
type Grouped struct {
	t    *Table
	keys []string
	cols []int
}

// GroupBy partitions the table by the given columns.
func (t *Table) GroupBy(columns ...string) (*Grouped, error) {
	cols := make([]int, len(columns))
	for k, c := range columns {
		j, ok := t.index[c]
		if !ok {
			return nil, fmt.Errorf("group by: %w: %q", ErrUnknownColumn, c)
		}
		cols[k] = j
	}
	return &Grouped{t: t, keys: append([]string(nil), columns...), cols: cols}, nil
}

// Keys returns the grouping column names.
func (g *Grouped) Keys() []string { return append([]string(nil), g.keys...) }

// SortDesc sorts all rows by column, ignoring the grouping.
func (g *Grouped) SortDesc(column string) (*Grouped, error) {
	sorted, err := g.t.SortDesc(column)
	if err != nil {
		return nil, err
	}
	return &Grouped{t: sorted, keys: g.keys, cols: g.cols}, nil
}

// Head takes the first n rows of the whole table, not n per group.
func (g *Grouped) Head(n int) *Grouped {
	return &Grouped{t: g.t.Head(n), keys: g.keys, cols: g.cols}
}

// Ungroup drops the grouping annotation.
func (g *Grouped) Ungroup() *Table { return g.t }

// Groups returns the row indexes of each group, groups ordered by first
// appearance.
func (g *Grouped) Groups() [][]int {
	pos := make(map[string]int)
	var groups [][]int
	for i, row := range g.t.rows {
		k := rowKey(row, g.cols)
		p, ok := pos[k]
		if !ok {
			p = len(groups)
			pos[k] = p
			groups = append(groups, nil)
		}
		groups[p] = append(groups[p], i)
	}
	return groups
}

// Count returns one row per group: the key columns followed by "n".
func (g *Grouped) Count() (*Table, error) {
	columns := append(g.Keys(), "n")
	index, err := buildIndex(columns)
	if err != nil {
		return nil, fmt.Errorf("count: %w", err)
	}
	groups := g.Groups()
	rows := make([][]Value, len(groups))
	for p, members := range groups {
		first := g.t.rows[members[0]]
		row := make([]Value, 0, len(columns))
		for _, j := range g.cols {
			row = append(row, first[j])
		}
		rows[p] = append(row, Integer(int64(len(members))))
	}
	return newUnchecked(columns, index, rows), nil
}
