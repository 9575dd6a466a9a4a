package settings

import (
	"bytes"
	"encoding/csv"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/charmap"
)

// expectedHeader is the fixed 7-column settings table header, matched
// case-insensitively.
var expectedHeader = []string{"Category", "Key", "Value_1", "Value_2", "Value_3", "Value_4", "Description"}

// ReadCSV parses a settings table from CSV. The first row must be the
// 7-column header; embedded commas are handled via double-quote
// escaping. Input that is not valid UTF-8 is decoded as Latin-1 before
// parsing. Structural problems (bad header, nothing to parse) wrap
// ErrMalformedTable.
func ReadCSV(r io.Reader) ([]Row, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrap(err, "settings: read csv")
	}

	if !utf8.Valid(raw) {
		decoded, decErr := charmap.ISO8859_1.NewDecoder().Bytes(raw)
		if decErr != nil {
			return nil, eris.Wrap(ErrMalformedTable, "undecodable encoding")
		}
		raw = decoded
	}

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = -1 // row shape is validated per-row below

	records, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "settings: parse csv")
	}
	if len(records) == 0 {
		return nil, eris.Wrap(ErrMalformedTable, "empty table")
	}

	if err := checkHeader(records[0]); err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(records)-1)
	for i, record := range records[1:] {
		rows = append(rows, recordToRow(record, i+2))
	}
	return rows, nil
}

func checkHeader(header []string) error {
	if len(header) != len(expectedHeader) {
		return eris.Wrapf(ErrMalformedTable, "header has %d columns, want %d", len(header), len(expectedHeader))
	}
	for i, want := range expectedHeader {
		if !strings.EqualFold(strings.TrimSpace(header[i]), want) {
			return eris.Wrapf(ErrMalformedTable, "header column %d is %q, want %q", i+1, header[i], want)
		}
	}
	return nil
}

// recordToRow maps a raw record onto a Row. Short records leave the
// trailing slots empty; extra cells are ignored.
func recordToRow(record []string, line int) Row {
	cell := func(i int) string {
		if i < len(record) {
			return record[i]
		}
		return ""
	}

	row := Row{
		Category:    cell(0),
		Key:         cell(1),
		Description: cell(6),
		Line:        line,
	}
	for i := 0; i < 4; i++ {
		row.Values[i] = cell(i + 2)
	}
	return row
}
