// Package store reads and writes the tabular record store the skip-trace
// run mutates. CSV and XLSX are supported by file extension; saves are
// whole-snapshot rewrites so a checkpoint is always a complete file.
package store

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Table is an in-memory snapshot of the record store: a header row plus
// data rows. All cells are strings; the store layer does no typing.
type Table struct {
	Header []string
	Rows   [][]string

	colIdx map[string]int
}

// NewTable builds a Table and its column index.
func NewTable(header []string, rows [][]string) *Table {
	t := &Table{Header: header, Rows: rows}
	t.reindex()
	return t
}

func (t *Table) reindex() {
	t.colIdx = make(map[string]int, len(t.Header))
	for i, name := range t.Header {
		t.colIdx[name] = i
	}
}

// Col returns the index of a named column.
func (t *Table) Col(name string) (int, bool) {
	i, ok := t.colIdx[name]
	return i, ok
}

// Get returns the trimmed cell value at (row, column name); "" when the
// column is absent or the row is ragged.
func (t *Table) Get(row int, col string) string {
	i, ok := t.colIdx[col]
	if !ok || row < 0 || row >= len(t.Rows) || i >= len(t.Rows[row]) {
		return ""
	}
	return strings.TrimSpace(t.Rows[row][i])
}

// Set writes a cell, creating the column if needed and padding ragged
// rows.
func (t *Table) Set(row int, col, value string) {
	if row < 0 || row >= len(t.Rows) {
		return
	}
	i := t.EnsureColumn(col)
	for len(t.Rows[row]) <= i {
		t.Rows[row] = append(t.Rows[row], "")
	}
	t.Rows[row][i] = value
}

// EnsureColumn returns the index of col, appending it to the header if
// missing.
func (t *Table) EnsureColumn(col string) int {
	if i, ok := t.colIdx[col]; ok {
		return i
	}
	t.Header = append(t.Header, col)
	i := len(t.Header) - 1
	t.colIdx[col] = i
	return i
}

// Load reads a record store by file extension (.csv or .xlsx).
func Load(path string) (*Table, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return loadCSV(path)
	case ".xlsx":
		return loadXLSX(path)
	default:
		return nil, eris.Errorf("store: unsupported file type %q (want .csv or .xlsx)", ext)
	}
}

// Save rewrites the full snapshot to path, format chosen by extension.
func (t *Table) Save(path string) error {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return t.saveCSV(path)
	case ".xlsx":
		return t.saveXLSX(path)
	default:
		return eris.Errorf("store: unsupported file type %q (want .csv or .xlsx)", ext)
	}
}

// inputPatterns order candidate input files from most to least likely.
var inputPatterns = []string{
	"*with_addresses*",
	"*processed*",
	"*",
}

// FindInput locates the most recent CSV/XLSX in dir that carries at
// least one "*_Address" column, preferring files whose names suggest
// they have been through address enrichment.
func FindInput(dir string) (string, error) {
	for _, pattern := range inputPatterns {
		var candidates []string
		for _, ext := range []string{".csv", ".xlsx"} {
			matches, err := filepath.Glob(filepath.Join(dir, pattern+ext))
			if err != nil {
				return "", eris.Wrapf(err, "store: glob %s", pattern)
			}
			candidates = append(candidates, matches...)
		}

		sortByModTimeDesc(candidates)

		for _, path := range candidates {
			t, err := Load(path)
			if err != nil {
				continue
			}
			if hasAddressColumn(t) {
				return path, nil
			}
		}
	}
	return "", eris.Errorf("store: no input file with address columns found in %s", dir)
}

func hasAddressColumn(t *Table) bool {
	for _, name := range t.Header {
		if strings.HasSuffix(name, "_Address") {
			return true
		}
	}
	return false
}

func sortByModTimeDesc(paths []string) {
	mtime := func(p string) time.Time {
		info, err := os.Stat(p)
		if err != nil {
			return time.Time{}
		}
		return info.ModTime()
	}
	for i := 1; i < len(paths); i++ {
		for j := i; j > 0 && mtime(paths[j]).After(mtime(paths[j-1])); j-- {
			paths[j], paths[j-1] = paths[j-1], paths[j]
		}
	}
}

// DefaultOutputPath derives a timestamped output name next to the input.
func DefaultOutputPath(inputPath string, now time.Time) string {
	ext := filepath.Ext(inputPath)
	base := strings.TrimSuffix(filepath.Base(inputPath), ext)
	name := base + "_with_phone_numbers_" + now.Format("20060102_150405") + ext
	return filepath.Join(filepath.Dir(inputPath), name)
}
