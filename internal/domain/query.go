package domain

import (
	"fmt"
	"strings"

	"github.com/couchcryptid/crime-map-etl/internal/table"
)

// TopN is the row count TopByVictimCount returns by default.
const TopN = 10

// DistinctCategories returns the unique offense categories in order of
// first appearance.
func DistinctCategories(incidents *table.Table) (*table.Table, error) {
	cats, err := incidents.Select(ColOffenseCategoryID)
	if err != nil {
		return nil, fmt.Errorf("distinct categories: %w", err)
	}
	return cats.Distinct(), nil
}

// FilterByCategory returns the unique (offense type, offense category)
// pairs whose category equals the literal tag.
func FilterByCategory(incidents *table.Table, category string) (*table.Table, error) {
	want := table.String(category)
	matched := incidents.Filter(func(r table.Row) bool {
		return r.Get(ColOffenseCategoryID).Equal(want)
	})
	pairs, err := matched.Select(ColOffenseTypeID, ColOffenseCategoryID)
	if err != nil {
		return nil, fmt.Errorf("filter by category: %w", err)
	}
	return pairs.Distinct(), nil
}

// TopByVictimCount groups incidents by category, sorts every row by victim
// count (largest first, ties in source order) and takes the first n rows of
// the whole table. The grouping does not make this a per-category top n.
func TopByVictimCount(incidents *table.Table, n int) (*table.Table, error) {
	grouped, err := incidents.GroupBy(ColOffenseCategoryID)
	if err != nil {
		return nil, fmt.Errorf("top by victim count: %w", err)
	}
	grouped, err = grouped.SortDesc(ColVictimCount)
	if err != nil {
		return nil, fmt.Errorf("top by victim count: %w", err)
	}
	return grouped.Head(n).Ungroup(), nil
}

// NormalizeColumns lower-cases every column name.
func NormalizeColumns(t *table.Table) (*table.Table, error) {
	out, err := t.RenameFunc(strings.ToLower)
	if err != nil {
		return nil, fmt.Errorf("normalize columns: %w", err)
	}
	return out, nil
}

// NormalizeOffenseCodeColumns renames the upper-case lookup columns to the
// incident table's lower-case names. It must run before JoinOffenseCodes.
func NormalizeOffenseCodeColumns(codes *table.Table) (*table.Table, error) {
	return NormalizeColumns(codes)
}

// JoinOffenseCodes inner-joins incidents to the offense-code lookup on
// OffenseKey. Column names must already match exactly; if they do not, the
// result is empty rather than an error.
func JoinOffenseCodes(incidents, codes *table.Table) *table.Table {
	return table.InnerJoin(incidents, codes, OffenseKey...)
}

// detailColumns is the projection OffenseDetails returns.
var detailColumns = []string{ColOffenseTypeID, ColOffenseTypeName, ColOffenseCategoryID, ColOffenseCategoryName}

// OffenseDetails narrows a joined table to one offense type and projects
// its identifiers and human-readable names. An empty match yields an empty
// table even when the join degraded and the name columns are absent.
func OffenseDetails(joined *table.Table, offenseType string) (*table.Table, error) {
	want := table.String(offenseType)
	matched := joined.Filter(func(r table.Row) bool {
		return r.Get(ColOffenseTypeID).Equal(want)
	})
	if matched.NumRows() == 0 {
		return table.New(detailColumns, nil)
	}
	out, err := matched.Select(detailColumns...)
	if err != nil {
		return nil, fmt.Errorf("offense details: %w", err)
	}
	return out, nil
}
