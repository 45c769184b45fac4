// Package workbook reads transcription workbooks into worksheets of raw
// string cells.
package workbook

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/albapepper/scoracle-averages/internal/record"
	"github.com/albapepper/scoracle-averages/internal/transform"
)

// Extension is the workbook file extension read from a source directory.
const Extension = ".xlsx"

// ReadFile opens the workbook at path and returns its worksheets in tab
// order.
func ReadFile(path string) ([]*transform.Sheet, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer fh.Close()
	return Read(fh)
}

// Read parses a workbook from r.
//
// The first row of each worksheet is the header. Cells are read raw, so
// numbers keep their stored text rather than the display format; blank
// cells become null. Columns with an empty header and rows with no value
// are skipped, but row numbers still count them.
func Read(r io.Reader) ([]*transform.Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read workbook: %w", err)
	}
	defer f.Close()

	var sheets []*transform.Sheet
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %s: %w", name, err)
		}
		sheets = append(sheets, toSheet(name, rows))
	}
	return sheets, nil
}

func toSheet(name string, rows [][]string) *transform.Sheet {
	s := &transform.Sheet{Name: name}
	if len(rows) == 0 {
		return s
	}

	type column struct {
		index  int
		header string
	}
	var cols []column
	seen := make(map[string]bool)
	for i, h := range rows[0] {
		h = strings.TrimSpace(h)
		if h == "" || seen[h] {
			continue
		}
		seen[h] = true
		cols = append(cols, column{index: i, header: h})
		s.Columns = append(s.Columns, h)
	}

	for n, row := range rows[1:] {
		cells := record.NewMap()
		blank := true
		for _, c := range cols {
			v := ""
			if c.index < len(row) {
				v = strings.TrimSpace(row[c.index])
			}
			if v != "" {
				blank = false
			}
			cells.Set(c.header, record.Maybe(v))
		}
		if blank {
			continue
		}
		s.Rows = append(s.Rows, transform.RawRow{Number: n + 1, Cells: cells})
	}
	return s
}

// List returns the workbooks in dir, sorted by name. Office lock files
// ("~$book.xlsx") are skipped.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.Contains(name, "~") || !strings.EqualFold(filepath.Ext(name), Extension) {
			continue
		}
		out = append(out, filepath.Join(dir, name))
	}
	sort.Strings(out)
	return out, nil
}
