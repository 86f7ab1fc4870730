package domain

import (
	"strconv"
	"strings"
)

const (
	numericSniffRows  = 20
	numericSniffRatio = 0.6
)

// NumericValue parses a cell as a float, tolerating currency symbols,
// thousands separators and surrounding whitespace. The second return value
// is false for empty or unparseable cells; callers treat those as missing.
func NumericValue(cell string) (float64, bool) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return 0, false
	}
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSuffix(s, "%")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// NumericColumn returns the parseable values of a column, skipping cells
// that fail to parse.
func (d *Dataset) NumericColumn(name string) []float64 {
	cells, ok := d.Column(name)
	if !ok {
		return nil
	}
	values := make([]float64, 0, len(cells))
	for _, c := range cells {
		if v, ok := NumericValue(c); ok {
			values = append(values, v)
		}
	}
	return values
}

// IsNumericColumn sniffs a prefix of the column and reports whether enough
// of it parses as numbers to treat the column as numeric.
func (d *Dataset) IsNumericColumn(name string) bool {
	cells, ok := d.Column(name)
	if !ok {
		return false
	}
	if len(cells) > numericSniffRows {
		cells = cells[:numericSniffRows]
	}
	seen, parsed := 0, 0
	for _, c := range cells {
		if strings.TrimSpace(c) == "" {
			continue
		}
		seen++
		if _, ok := NumericValue(c); ok {
			parsed++
		}
	}
	if seen == 0 {
		return false
	}
	return float64(parsed)/float64(seen) >= numericSniffRatio
}
