// Package table implements the small relational toolkit the crime pipeline
// runs on: an immutable, column-typed in-memory table loaded from CSV, and
// pure operations over it (select, rename, filter, distinct, group, sort,
// head, inner join).
//
// # Typing
//
// Cells are [Value]s of kind string, number or date, any of which may be
// null. [ReadCSV] infers number vs string per column; dates are produced
// only by an explicit [Table.MapColumn] reparse.
//
// # Null semantics
//
// Comparisons follow ordinary relational rules: null equals nothing, not
// even another null, so filters and join keys drop null rows. [Table.Distinct]
// is the one exception and collapses repeated nulls.
//
// # Grouping
//
// [Table.GroupBy] only annotates a table. [Grouped.SortDesc] and
// [Grouped.Head] act on all rows, so a grouped sort followed by a head
// returns the global top rows, not the top rows of each group.
package table
