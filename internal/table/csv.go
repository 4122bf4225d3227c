package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ReadCSV parses comma-separated text with a header row. Empty cells and
// "NA" become null. A column is typed as number when every non-null cell
// parses as a float, otherwise as string. Dates are never inferred here;
// use MapColumn to reparse a column once it is loaded.
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("read csv: missing header row")
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	index, err := buildIndex(columns)
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	var raw [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		if len(record) != len(columns) {
			line, _ := reader.FieldPos(0)
			return nil, fmt.Errorf("read csv line %d: %d fields, want %d", line, len(record), len(columns))
		}
		raw = append(raw, record)
	}

	numeric := make([]bool, len(columns))
	for j := range columns {
		numeric[j] = isNumericColumn(raw, j)
	}

	rows := make([][]Value, len(raw))
	for i, record := range raw {
		row := make([]Value, len(columns))
		for j, cell := range record {
			row[j] = parseCell(cell, numeric[j])
		}
		rows[i] = row
	}
	return newUnchecked(columns, index, rows), nil
}

func isNull(cell string) bool {
	cell = strings.TrimSpace(cell)
	return cell == "" || cell == "NA"
}

func isNumericColumn(raw [][]string, j int) bool {
	seen := false
	for _, record := range raw {
		cell := record[j]
		if isNull(cell) {
			continue
		}
		if _, err := strconv.ParseFloat(strings.TrimSpace(cell), 64); err != nil {
			return false
		}
		seen = true
	}
	return seen
}

func parseCell(cell string, numeric bool) Value {
	if !numeric {
		if isNull(cell) {
			return Null(KindString)
		}
		return String(cell)
	}
	if isNull(cell) {
		return Null(KindNumber)
	}
	cell = strings.TrimSpace(cell)
	if i, err := strconv.ParseInt(cell, 10, 64); err == nil {
		return Integer(i)
	}
	f, _ := strconv.ParseFloat(cell, 64)
	return Number(f)
}

// WriteCSV renders the table with a header row. Output is deterministic for
// a given table so repeated runs over the same input are byte-identical.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	record := make([]string, len(t.columns))
	for _, row := range t.rows {
		for j, v := range row {
			record[j] = v.Format()
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
