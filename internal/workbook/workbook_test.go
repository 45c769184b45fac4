package workbook

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// writeBook saves a workbook whose sheets hold the given rows.
func writeBook(t *testing.T, path string, sheets map[string][][]interface{}, order ...string) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, name := range order {
		if i == 0 {
			require.NoError(t, f.SetSheetName(f.GetSheetName(0), name))
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for r, row := range sheets[name] {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(name, cell, &row))
		}
	}
	require.NoError(t, f.SaveAs(path))
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "1947.xlsx")
	writeBook(t, path, map[string][][]interface{}{
		"Metadata": {{"title"}, {"Coastal Plain League"}},
		"Batting": {
			{"year", " nameLeague ", "nameLast", "", "G", "AVG"},
			{1947, "Coastal Plain", "Smith", "ignored", 120, 0.289},
			{nil, nil, nil, nil, nil, nil},
			{nil, "", "Jones", nil, 95, nil},
		},
	}, "Metadata", "Batting")

	sheets, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, sheets, 2)
	assert.Equal(t, "Metadata", sheets[0].Name)

	bat := sheets[1]
	assert.Equal(t, "Batting", bat.Name)
	assert.Equal(t, []string{"year", "nameLeague", "nameLast", "G", "AVG"}, bat.Columns)
	require.Len(t, bat.Rows, 2)

	first := bat.Rows[0]
	assert.Equal(t, 1, first.Number)
	assert.Equal(t, "1947", first.Cells.Text("year"))
	assert.Equal(t, "Coastal Plain", first.Cells.Text("nameLeague"))
	assert.Equal(t, "120", first.Cells.Text("G"))
	assert.Equal(t, "0.289", first.Cells.Text("AVG"))

	second := bat.Rows[1]
	assert.Equal(t, 3, second.Number, "blank row still counts")
	assert.True(t, second.Cells.Value("year").IsNull())
	assert.True(t, second.Cells.Value("nameLeague").IsNull())
	assert.True(t, second.Cells.Value("AVG").IsNull())
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "none.xlsx"))
	assert.Error(t, err)
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.xlsx", "a.XLSX", "~$a.xlsx", "notes.txt", "old.xls"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.xlsx"), 0o755))

	got, err := List(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.XLSX"), filepath.Join(dir, "b.xlsx")}, got)
}
