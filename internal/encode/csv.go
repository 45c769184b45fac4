package encode

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/albapepper/scoracle-averages/internal/config"
	"github.com/albapepper/scoracle-averages/internal/record"
	"github.com/albapepper/scoracle-averages/internal/transform"
)

// Flatten turns a nested record into dot-joined columns; list elements are
// addressed by 1-based position ("playing.1.splits.2.team.name").
func Flatten(m *record.Map) (keys []string, values []string) {
	var walk func(prefix string, v record.Value)
	walk = func(prefix string, v record.Value) {
		switch v.Kind() {
		case record.KindMap:
			v.Map().Range(func(k string, child record.Value) bool {
				walk(join(prefix, k), child)
				return true
			})
		case record.KindList:
			for i, item := range v.Items() {
				walk(join(prefix, strconv.Itoa(i+1)), item)
			}
		case record.KindNull:
		default:
			keys = append(keys, prefix)
			values = append(values, v.Text())
		}
	}
	walk("", record.Object(m))
	return keys, values
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// EncodeCSV writes records as one CSV table. The header is the union of
// flattened columns in first-seen order; missing cells are empty.
func EncodeCSV(w io.Writer, recs []*record.Map) error {
	var header []string
	index := make(map[string]int)
	rows := make([]map[string]string, 0, len(recs))
	for _, rec := range recs {
		keys, values := Flatten(rec)
		row := make(map[string]string, len(keys))
		for i, k := range keys {
			if _, ok := index[k]; !ok {
				index[k] = len(header)
				header = append(header, k)
			}
			row[k] = values[i]
		}
		rows = append(rows, row)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	line := make([]string, len(header))
	for _, row := range rows {
		for i, col := range header {
			line[i] = row[col]
		}
		if err := cw.Write(line); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSV writes one CSV per record table of doc into dir, named
// <file>_<teams|people>_<table>.csv, and returns the paths written.
func WriteCSV(dir, file string, doc *transform.Document) ([]string, error) {
	var paths []string
	for _, group := range []struct {
		kind string
		recs []*record.Map
	}{
		{config.KindTeam, doc.Teams},
		{config.KindPerson, doc.People},
	} {
		var order []string
		byTable := make(map[string][]*record.Map)
		for _, rec := range group.recs {
			table := rec.Text("_table")
			if _, ok := byTable[table]; !ok {
				order = append(order, table)
			}
			byTable[table] = append(byTable[table], rec)
		}
		for _, table := range order {
			path := filepath.Join(dir, fmt.Sprintf("%s_%s_%s.csv", file, plural(group.kind), table))
			recs := byTable[table]
			if err := WriteAtomic(path, func(w io.Writer) error { return EncodeCSV(w, recs) }); err != nil {
				return paths, err
			}
			paths = append(paths, path)
		}
	}
	return paths, nil
}

func plural(kind string) string {
	if kind == config.KindTeam {
		return "teams"
	}
	return "people"
}
