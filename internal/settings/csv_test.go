package settings

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const settingsHeader = "Category,Key,Value_1,Value_2,Value_3,Value_4,Description\n"

func TestReadCSV(t *testing.T) {
	csv := settingsHeader +
		`industry_score,Recycling,95,"scrap, salvage",,,Priority base for recyclers` + "\n" +
		"global_const,stale_days,60,,,,Days before a prospect goes stale\n"

	rows, err := ReadCSV(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "industry_score", rows[0].Category)
	assert.Equal(t, "Recycling", rows[0].Key)
	assert.Equal(t, "95", rows[0].Values[0])
	// Quoted commas stay inside one cell.
	assert.Equal(t, "scrap, salvage", rows[0].Values[1])
	assert.Equal(t, "Priority base for recyclers", rows[0].Description)
	assert.Equal(t, 2, rows[0].Line)
	assert.Equal(t, 3, rows[1].Line)
}

func TestReadCSV_HeaderCaseInsensitive(t *testing.T) {
	csv := "CATEGORY,key,value_1,Value_2,VALUE_3,value_4,DESCRIPTION\n" +
		"global_const,stale_days,60,,,,\n"

	rows, err := ReadCSV(strings.NewReader(csv))
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestReadCSV_BadHeader(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("Category,Key,Value\nglobal_const,stale_days,60\n"))
	assert.ErrorIs(t, err, ErrMalformedTable)

	_, err = ReadCSV(strings.NewReader("A,B,C,D,E,F,G\nglobal_const,stale_days,60,,,,\n"))
	assert.ErrorIs(t, err, ErrMalformedTable)
}

func TestReadCSV_Empty(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrMalformedTable)
}

func TestReadCSV_ShortRows(t *testing.T) {
	csv := settingsHeader + "global_const,stale_days,60\n"

	rows, err := ReadCSV(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "60", rows[0].Values[0])
	assert.Empty(t, rows[0].Values[3])
	assert.Empty(t, rows[0].Description)
}

func TestReadCSV_Latin1Fallback(t *testing.T) {
	// 0xE9 is é in Latin-1 and invalid as standalone UTF-8.
	raw := append([]byte(settingsHeader), []byte("global_const,caf\xe9,1,,,,\n")...)

	rows, err := ReadCSV(bytes.NewReader(raw))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "café", rows[0].Key)
}

func TestReport_WriteYAML(t *testing.T) {
	report := &Report{
		Errors:       []Issue{{Row: 3, Field: "key", Message: "missing key"}},
		ImportedRows: 7,
	}

	var buf bytes.Buffer
	require.NoError(t, report.WriteYAML(&buf))

	out := buf.String()
	assert.Contains(t, out, "imported_rows: 7")
	assert.Contains(t, out, "missing key")
}
