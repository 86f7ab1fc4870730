package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bi-tools/insighthub/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestReadCSV_CommaDelimited(t *testing.T) {
	path := writeTemp(t, "sales.csv", []byte("product,quantity,price\nWidget,2,9.99\nGadget,1,19.50\n"))

	ds, err := ReadCSV(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"product", "quantity", "price"}, ds.Columns)
	assert.Equal(t, 2, ds.RowCount())
	assert.Equal(t, "Widget", ds.Cell(0, "product"))
	assert.Equal(t, "sales.csv", ds.SourceName)
}

func TestReadCSV_Delimiters(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"semicolon", "product;quantity\nWidget;2\n"},
		{"tab", "product\tquantity\nWidget\t2\n"},
		{"pipe", "product|quantity\nWidget|2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTemp(t, "data.csv", []byte(tt.data))
			ds, err := ReadCSV(path)
			require.NoError(t, err)
			assert.Equal(t, []string{"product", "quantity"}, ds.Columns)
			assert.Equal(t, "Widget", ds.Cell(0, "product"))
		})
	}
}

func TestReadCSV_Latin1Encoding(t *testing.T) {
	// "café,München" in latin1 bytes is invalid utf-8, forcing the sweep
	// past the first decoder.
	data := append([]byte("name,city\n"), []byte{'c', 'a', 'f', 0xE9, ',', 'M', 0xFC, 'n', 'c', 'h', 'e', 'n', '\n'}...)
	path := writeTemp(t, "latin1.csv", data)

	ds, err := ReadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, "café", ds.Cell(0, "name"))
	assert.Equal(t, "München", ds.Cell(0, "city"))
}

func TestReadCSV_BOMStripped(t *testing.T) {
	path := writeTemp(t, "bom.csv", []byte("\uFEFFproduct,quantity\nWidget,2\n"))

	ds, err := ReadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, "product", ds.Columns[0])
}

func TestReadCSV_RaggedRowsAligned(t *testing.T) {
	path := writeTemp(t, "ragged.csv", []byte("a,b,c\n1,2\n1,2,3,4\n"))

	ds, err := ReadCSV(path)
	require.NoError(t, err)
	require.Equal(t, 2, ds.RowCount())
	assert.Equal(t, []string{"1", "2", ""}, ds.Rows[0])
	assert.Equal(t, []string{"1", "2", "3"}, ds.Rows[1])
}

func TestReadCSV_EmptyFile(t *testing.T) {
	path := writeTemp(t, "empty.csv", []byte("  \n"))

	_, err := ReadCSV(path)
	assert.ErrorIs(t, err, domain.ErrIngest)
}

func TestReadCSV_HeaderOnly(t *testing.T) {
	path := writeTemp(t, "headers.csv", []byte("a,b,c\n"))

	_, err := ReadCSV(path)
	assert.ErrorIs(t, err, domain.ErrIngest)
}

func TestSupportedExtension(t *testing.T) {
	assert.True(t, SupportedExtension("data.csv"))
	assert.True(t, SupportedExtension("Data.XLSX"))
	assert.True(t, SupportedExtension("notes.txt"))
	assert.False(t, SupportedExtension("report.pdf"))
	assert.False(t, SupportedExtension("archive.zip"))
}

func TestSniffDelimiter(t *testing.T) {
	assert.Equal(t, ';', sniffDelimiter("a;b;c\n1;2;3"))
	assert.Equal(t, ',', sniffDelimiter("a,b\n"))
}
