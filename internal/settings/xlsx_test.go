package settings

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func writeWorkbook(t *testing.T, sheetName string, rows [][]string) string {
	t.Helper()

	f := xlsx.NewFile()
	sheet, err := f.AddSheet(sheetName)
	require.NoError(t, err)

	for _, cells := range rows {
		r := sheet.AddRow()
		for _, c := range cells {
			r.AddCell().SetString(c)
		}
	}

	path := filepath.Join(t.TempDir(), "settings.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestReadXLSX(t *testing.T) {
	path := writeWorkbook(t, "Settings", [][]string{
		strings.Split(strings.TrimSuffix(settingsHeader, "\n"), ","),
		{"industry_score", "Recycling", "95", "scrap, salvage", "", "", "base"},
		{"global_const", "stale_days", "60"},
	})

	rows, err := ReadXLSX(path, "")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "industry_score", rows[0].Category)
	assert.Equal(t, "scrap, salvage", rows[0].Values[1])
	// Short rows pad missing cells.
	assert.Equal(t, "60", rows[1].Values[0])
	assert.Empty(t, rows[1].Description)
	assert.Equal(t, 3, rows[1].Line)
}

func TestReadXLSX_NamedSheet(t *testing.T) {
	path := writeWorkbook(t, "Rules", [][]string{
		strings.Split(strings.TrimSuffix(settingsHeader, "\n"), ","),
		{"global_const", "stale_days", "45"},
	})

	rows, err := ReadXLSX(path, "Rules")
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	_, err = ReadXLSX(path, "Missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestReadXLSX_BadHeader(t *testing.T) {
	path := writeWorkbook(t, "Settings", [][]string{
		{"Category", "Key", "Value"},
		{"global_const", "stale_days", "45"},
	})

	_, err := ReadXLSX(path, "")
	assert.ErrorIs(t, err, ErrMalformedTable)
}
