package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/bi-tools/insighthub/pkg/models/domain"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Business exports arrive in whatever encoding the source tool produced.
// Each decoder is tried against each delimiter; the first combination that
// yields more than one column and at least one row wins.
var decoders = []struct {
	name string
	enc  encoding.Encoding
}{
	{"utf-8", unicode.UTF8},
	{"latin1", charmap.ISO8859_1},
	{"cp1252", charmap.Windows1252},
}

var delimiters = []rune{',', ';', '\t', '|'}

// SupportedExtension reports whether the uploaded filename is a type the
// ingestor can parse.
func SupportedExtension(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".txt", ".xlsx", ".xls":
		return true
	}
	return false
}

// ReadFile parses an uploaded file into a Dataset, dispatching on extension.
func ReadFile(path string) (*domain.Dataset, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xls":
		return ReadExcel(path)
	default:
		return ReadCSV(path)
	}
}

// ReadCSV sweeps the encoding and delimiter matrix and returns the first
// successful parse. When the whole matrix fails it falls back to delimiter
// sniffing before giving up with ErrIngest.
func ReadCSV(path string) (*domain.Dataset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", domain.ErrIngest, filepath.Base(path))
	}

	var lastErr error
	for _, dec := range decoders {
		text, err := decode(raw, dec.enc)
		if err != nil {
			lastErr = err
			continue
		}
		for _, delim := range delimiters {
			ds, err := parseCSV(text, delim)
			if err != nil {
				lastErr = err
				continue
			}
			if ds.ColumnCount() > 1 && ds.RowCount() > 0 {
				ds.SourcePath = path
				ds.SourceName = filepath.Base(path)
				return ds, nil
			}
		}
	}

	// Sniff the delimiter from the header line and accept whatever parses,
	// single-column tables included.
	text, err := decode(raw, charmap.Windows1252)
	if err != nil {
		text = string(raw)
	}
	if ds, err := parseCSV(text, sniffDelimiter(text)); err == nil && ds.RowCount() > 0 {
		ds.SourcePath = path
		ds.SourceName = filepath.Base(path)
		return ds, nil
	}

	if lastErr != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrIngest, filepath.Base(path), lastErr)
	}
	return nil, fmt.Errorf("%w: %s has no tabular content", domain.ErrIngest, filepath.Base(path))
}

// ReadExcel parses the first sheet of a workbook.
func ReadExcel(path string) (*domain.Dataset, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening workbook %s: %v", domain.ErrIngest, filepath.Base(path), err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("%w: %s has no sheets", domain.ErrIngest, filepath.Base(path))
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %s: %w", sheet, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: sheet %s has no data rows", domain.ErrIngest, sheet)
	}

	headers := cleanHeaders(rows[0])
	ds := &domain.Dataset{
		Columns:    headers,
		SourcePath: path,
		SourceName: filepath.Base(path),
	}
	for _, row := range rows[1:] {
		if emptyRow(row) {
			continue
		}
		ds.Rows = append(ds.Rows, alignRow(row, len(headers)))
	}
	if ds.RowCount() == 0 {
		return nil, fmt.Errorf("%w: sheet %s has no data rows", domain.ErrIngest, sheet)
	}
	return ds, nil
}

func decode(raw []byte, enc encoding.Encoding) (string, error) {
	if enc == unicode.UTF8 {
		if !utf8.Valid(raw) {
			return "", fmt.Errorf("input is not valid utf-8")
		}
		return string(bytes.TrimPrefix(raw, []byte{0xEF, 0xBB, 0xBF})), nil
	}
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func parseCSV(text string, delim rune) (*domain.Dataset, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = delim
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 1 {
		return &domain.Dataset{}, nil
	}

	headers := cleanHeaders(records[0])
	ds := &domain.Dataset{Columns: headers}
	for _, rec := range records[1:] {
		if emptyRow(rec) {
			continue
		}
		ds.Rows = append(ds.Rows, alignRow(rec, len(headers)))
	}
	return ds, nil
}

func sniffDelimiter(text string) rune {
	line := text
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		line = text[:i]
	}
	best, bestCount := ',', 0
	for _, d := range delimiters {
		if n := strings.Count(line, string(d)); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

func cleanHeaders(raw []string) []string {
	headers := make([]string, len(raw))
	for i, h := range raw {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF"))
		if h == "" {
			h = fmt.Sprintf("column_%d", i+1)
		}
		headers[i] = h
	}
	return headers
}

func alignRow(rec []string, width int) []string {
	row := make([]string, width)
	for i := 0; i < width && i < len(rec); i++ {
		row[i] = strings.TrimSpace(rec[i])
	}
	return row
}

func emptyRow(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
