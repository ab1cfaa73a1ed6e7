package store

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

func loadXLSX(path string) (*Table, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "store: open %s", path)
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Errorf("store: %s has no sheets", path)
	}

	sheet := f.Sheets[0]
	if len(sheet.Rows) == 0 {
		return nil, eris.Errorf("store: %s is empty", path)
	}

	rows := make([][]string, 0, len(sheet.Rows)-1)
	var header []string
	for i, row := range sheet.Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		if i == 0 {
			header = cells
			continue
		}
		rows = append(rows, cells)
	}

	return NewTable(header, rows), nil
}

func (t *Table) saveXLSX(path string) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Sheet1")
	if err != nil {
		return eris.Wrapf(err, "store: add sheet %s", path)
	}

	headerRow := sheet.AddRow()
	for _, name := range t.Header {
		headerRow.AddCell().SetString(name)
	}
	for _, row := range t.Rows {
		out := sheet.AddRow()
		for i := range t.Header {
			v := ""
			if i < len(row) {
				v = row[i]
			}
			out.AddCell().SetString(v)
		}
	}

	return eris.Wrapf(f.Save(path), "store: save %s", path)
}
