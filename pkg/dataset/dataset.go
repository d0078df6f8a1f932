// Package dataset provides a loosely-typed tabular data model for pipeline
// phase outputs: ordered columns, rows as field→value mappings, CSV
// round-tripping and structural helpers used by the validation layer.
package dataset

import (
	"sort"
	"strings"
)

// Row maps a column name to a cell value. An empty string is a missing value.
type Row map[string]string

// Dataset is a table of rows with a stable column order.
type Dataset struct {
	Columns []string
	Rows    []Row
}

// New creates an empty dataset with the given column order.
func New(columns ...string) *Dataset {
	return &Dataset{Columns: columns}
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	return len(d.Rows)
}

// Append adds a row. Fields not yet present in the column order are appended
// to it in sorted order, so the order is stable regardless of map iteration.
func (d *Dataset) Append(row Row) {
	var unseen []string

	for field := range row {
		if !d.HasColumn(field) {
			unseen = append(unseen, field)
		}
	}

	if len(unseen) > 0 {
		sort.Strings(unseen)
		d.Columns = append(d.Columns, unseen...)
	}

	d.Rows = append(d.Rows, row)
}

// HasColumn reports whether the column exists.
func (d *Dataset) HasColumn(name string) bool {
	for _, col := range d.Columns {
		if col == name {
			return true
		}
	}

	return false
}

// ColumnsContaining returns the columns whose name contains any of the given
// substrings, case-insensitively. Used for flexible presence checks where the
// exact header spelling varies across phase variants.
func (d *Dataset) ColumnsContaining(substrings ...string) []string {
	var matched []string

	for _, col := range d.Columns {
		lower := strings.ToLower(col)

		for _, sub := range substrings {
			if strings.Contains(lower, strings.ToLower(sub)) {
				matched = append(matched, col)

				break
			}
		}
	}

	return matched
}

// Value returns the cell value for a column, empty when absent.
func (r Row) Value(column string) string {
	return r[column]
}

// Missing reports whether the cell is absent or empty.
func (r Row) Missing(column string) bool {
	return strings.TrimSpace(r[column]) == ""
}

// Bool interprets the cell as a boolean flag. Missing values and anything
// other than a recognized true literal count as false, mirroring how the
// pipeline treats unlabeled rows.
func (r Row) Bool(column string) bool {
	switch strings.ToLower(strings.TrimSpace(r[column])) {
	case "true", "1", "yes", "t":
		return true
	default:
		return false
	}
}

// NonMissingCount returns the number of rows with a non-missing value in the column.
func (d *Dataset) NonMissingCount(column string) int {
	count := 0

	for _, row := range d.Rows {
		if !row.Missing(column) {
			count++
		}
	}

	return count
}

// UniqueCount returns the number of distinct non-missing values in the column.
func (d *Dataset) UniqueCount(column string) int {
	seen := make(map[string]struct{}, len(d.Rows))

	for _, row := range d.Rows {
		if row.Missing(column) {
			continue
		}

		seen[row.Value(column)] = struct{}{}
	}

	return len(seen)
}

// KeyTuple joins the values of the given columns into a composite key.
// The separator is unlikely to occur in identifier-shaped data.
func (r Row) KeyTuple(columns []string) string {
	parts := make([]string, len(columns))
	for i, col := range columns {
		parts[i] = r.Value(col)
	}

	return strings.Join(parts, "\x1f")
}

// GroupSizes returns, for each distinct non-missing value of the column, the
// number of rows carrying it.
func (d *Dataset) GroupSizes(column string) map[string]int {
	sizes := make(map[string]int)

	for _, row := range d.Rows {
		if row.Missing(column) {
			continue
		}

		sizes[row.Value(column)]++
	}

	return sizes
}

// Filter returns a new dataset containing the rows for which keep returns true.
// Column order is shared with the receiver.
func (d *Dataset) Filter(keep func(Row) bool) *Dataset {
	filtered := &Dataset{Columns: d.Columns}

	for _, row := range d.Rows {
		if keep(row) {
			filtered.Rows = append(filtered.Rows, row)
		}
	}

	return filtered
}
