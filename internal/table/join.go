package table

import "strconv"

// InnerJoin keeps every (left, right) row pair whose key columns are all
// equal. Output rows follow left order, then right order within a match, so
// repeated keys fan out into the cross product of the matching rows.
//
// A key column missing from either side matches nothing: the result has the
// combined columns and zero rows. Null keys never match. Non-key columns
// present on both sides are suffixed ".x" (left) and ".y" (right). A name
// that is still taken after suffixing gets ".1", ".2" and so on.
func InnerJoin(left, right *Table, keys ...string) *Table {
	columns, index, rightCols := joinColumns(left, right, keys)

	if len(keys) == 0 {
		return newUnchecked(columns, index, nil)
	}
	leftKeys, lok := keyIndexes(left, keys)
	rightKeys, rok := keyIndexes(right, keys)
	if !lok || !rok {
		return newUnchecked(columns, index, nil)
	}

	buckets := make(map[string][]int)
	for i, row := range right.rows {
		if hasNull(row, rightKeys) {
			continue
		}
		k := rowKey(row, rightKeys)
		buckets[k] = append(buckets[k], i)
	}

	var rows [][]Value
	for _, lrow := range left.rows {
		if hasNull(lrow, leftKeys) {
			continue
		}
		for _, ri := range buckets[rowKey(lrow, leftKeys)] {
			rrow := right.rows[ri]
			if !keysEqual(lrow, leftKeys, rrow, rightKeys) {
				continue
			}
			out := make([]Value, 0, len(columns))
			out = append(out, lrow...)
			for _, j := range rightCols {
				out = append(out, rrow[j])
			}
			rows = append(rows, out)
		}
	}
	return newUnchecked(columns, index, rows)
}

// joinColumns returns the output column names with their index, and the
// right-side column indexes that follow the left columns. Every returned name
// is distinct.
func joinColumns(left, right *Table, keys []string) ([]string, map[string]int, []int) {
	isKey := make(map[string]bool, len(keys))
	for _, k := range keys {
		isKey[k] = left.HasColumn(k) && right.HasColumn(k)
	}

	columns := make([]string, 0, len(left.columns)+len(right.columns))
	index := make(map[string]int, cap(columns))
	add := func(c string) {
		name := c
		for n := 1; ; n++ {
			if _, taken := index[name]; !taken {
				break
			}
			name = c + "." + strconv.Itoa(n)
		}
		index[name] = len(columns)
		columns = append(columns, name)
	}

	for _, c := range left.columns {
		if !isKey[c] && right.HasColumn(c) {
			c += ".x"
		}
		add(c)
	}
	var rightCols []int
	for j, c := range right.columns {
		if isKey[c] {
			continue
		}
		if left.HasColumn(c) {
			c += ".y"
		}
		add(c)
		rightCols = append(rightCols, j)
	}
	return columns, index, rightCols
}

func keyIndexes(t *Table, keys []string) ([]int, bool) {
	out := make([]int, len(keys))
	for k, name := range keys {
		j, ok := t.index[name]
		if !ok {
			return nil, false
		}
		out[k] = j
	}
	return out, true
}

func hasNull(row []Value, cols []int) bool {
	for _, j := range cols {
		if row[j].IsNull() {
			return true
		}
	}
	return false
}

func keysEqual(l []Value, lcols []int, r []Value, rcols []int) bool {
	for k := range lcols {
		if !l[lcols[k]].Equal(r[rcols[k]]) {
			return false
		}
	}
	return true
}
