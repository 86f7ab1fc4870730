package domain

import (
	"strings"
)

// Dataset is an in-memory table parsed from an uploaded file. Cells are kept
// as strings; numeric interpretation happens at aggregation time so that a
// few malformed cells never poison a whole column.
type Dataset struct {
	Columns    []string
	Rows       [][]string
	SourcePath string
	SourceName string
}

func (d *Dataset) RowCount() int {
	return len(d.Rows)
}

func (d *Dataset) ColumnCount() int {
	return len(d.Columns)
}

// ColumnIndex returns the position of the named column, or -1.
func (d *Dataset) ColumnIndex(name string) int {
	for i, c := range d.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

func (d *Dataset) HasColumn(name string) bool {
	return d.ColumnIndex(name) >= 0
}

// Column returns all cells of the named column in row order.
func (d *Dataset) Column(name string) ([]string, bool) {
	idx := d.ColumnIndex(name)
	if idx < 0 {
		return nil, false
	}
	values := make([]string, 0, len(d.Rows))
	for _, row := range d.Rows {
		if idx < len(row) {
			values = append(values, row[idx])
		} else {
			values = append(values, "")
		}
	}
	return values, true
}

// Cell returns the value at (row, column name), or "" when out of range.
func (d *Dataset) Cell(row int, name string) string {
	idx := d.ColumnIndex(name)
	if idx < 0 || row < 0 || row >= len(d.Rows) || idx >= len(d.Rows[row]) {
		return ""
	}
	return d.Rows[row][idx]
}

// Copy returns a deep copy. Normalization mutates copies, never the dataset
// handed in by the caller.
func (d *Dataset) Copy() *Dataset {
	cp := &Dataset{
		Columns:    append([]string(nil), d.Columns...),
		Rows:       make([][]string, len(d.Rows)),
		SourcePath: d.SourcePath,
		SourceName: d.SourceName,
	}
	for i, row := range d.Rows {
		cp.Rows[i] = append([]string(nil), row...)
	}
	return cp
}

// AddColumn appends a derived column. Values shorter than the row count are
// padded with empty cells.
func (d *Dataset) AddColumn(name string, values []string) {
	d.Columns = append(d.Columns, name)
	for i := range d.Rows {
		v := ""
		if i < len(values) {
			v = values[i]
		}
		d.Rows[i] = append(d.Rows[i], v)
	}
}

// Append concatenates another dataset with the same column order. Rows from
// datasets with extra or missing columns are aligned by column name.
func (d *Dataset) Append(other *Dataset) {
	if other == nil {
		return
	}
	idx := make([]int, len(d.Columns))
	for i, c := range d.Columns {
		idx[i] = other.ColumnIndex(c)
	}
	for r := range other.Rows {
		row := make([]string, len(d.Columns))
		for i, j := range idx {
			if j >= 0 && j < len(other.Rows[r]) {
				row[i] = other.Rows[r][j]
			}
		}
		d.Rows = append(d.Rows, row)
	}
}

// JoinedColumns returns the lowercased space-joined header, the form domain
// detection scans for keywords.
func (d *Dataset) JoinedColumns() string {
	return strings.ToLower(strings.Join(d.Columns, " "))
}
