package store

import (
	"encoding/csv"
	"os"

	"github.com/rotisserie/eris"
)

func loadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "store: open %s", path)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // tolerate ragged rows

	records, err := r.ReadAll()
	if err != nil {
		return nil, eris.Wrapf(err, "store: parse csv %s", path)
	}
	if len(records) == 0 {
		return nil, eris.Errorf("store: %s is empty", path)
	}

	return NewTable(records[0], records[1:]), nil
}

func (t *Table) saveCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "store: create %s", path)
	}

	w := csv.NewWriter(f)
	if err := w.Write(t.Header); err != nil {
		_ = f.Close()
		return eris.Wrapf(err, "store: write header %s", path)
	}
	// Pad ragged rows so every record has the full column set.
	for _, row := range t.Rows {
		padded := row
		if len(row) < len(t.Header) {
			padded = make([]string, len(t.Header))
			copy(padded, row)
		}
		if err := w.Write(padded[:len(t.Header)]); err != nil {
			_ = f.Close()
			return eris.Wrapf(err, "store: write row %s", path)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return eris.Wrapf(err, "store: flush %s", path)
	}
	return eris.Wrapf(f.Close(), "store: close %s", path)
}
