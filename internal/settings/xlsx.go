package settings

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// ReadXLSX parses a settings table from the given sheet of an XLSX
// workbook. An empty sheetName selects the first sheet. The first row
// must be the standard 7-column header.
func ReadXLSX(path, sheetName string) ([]Row, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "settings: open xlsx")
	}

	sheet, err := pickSheet(f, sheetName)
	if err != nil {
		return nil, err
	}
	if len(sheet.Rows) == 0 {
		return nil, eris.Wrap(ErrMalformedTable, "empty sheet")
	}

	if err := checkHeader(rowToStrings(sheet.Rows[0])); err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(sheet.Rows)-1)
	for i, r := range sheet.Rows[1:] {
		rows = append(rows, recordToRow(rowToStrings(r), i+2))
	}
	return rows, nil
}

func pickSheet(f *xlsx.File, name string) (*xlsx.Sheet, error) {
	if name != "" {
		sheet, ok := f.Sheet[name]
		if !ok {
			return nil, eris.Errorf("settings: sheet %q not found", name)
		}
		return sheet, nil
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Wrap(ErrMalformedTable, "workbook has no sheets")
	}
	return f.Sheets[0], nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for i, cell := range row.Cells {
		cells[i] = cell.String()
	}
	return cells
}
