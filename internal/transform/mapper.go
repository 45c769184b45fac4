package transform

import (
	"fmt"
	"strings"

	"github.com/albapepper/scoracle-averages/internal/config"
	"github.com/albapepper/scoracle-averages/internal/record"
)

// Sheet is one worksheet as handed over by the workbook reader. Cells hold
// strings or nulls; headers are trimmed.
type Sheet struct {
	Name    string
	Columns []string
	Rows    []RawRow
}

// RawRow is one worksheet row keyed by raw header.
type RawRow struct {
	// Number is the 1-based position of the row below the header.
	Number int
	Cells  *record.Map
}

// Row is a row after column mapping, keyed by canonical field code.
type Row struct {
	Number int
	Fields *record.Map
}

const (
	fieldSeason   = "league_season"
	fieldLeague   = "league_name"
	fieldGameType = "game_type"
)

// MapColumns renames raw headers to canonical codes.
//
// Every mapped column is present in every output row, null when blank.
// Headers absent from the table dictionary are dropped and reported once
// per sheet, unless the table melts them into an indexed family. The
// game_type field always sits immediately after league_name.
func MapColumns(sheet *Sheet, spec *config.TableSpec, diag *Diagnostics) []Row {
	var unknown []string
	for _, h := range sheet.Columns {
		if _, ok := spec.Lookup(h); ok || spec.Ignored(h) || spec.Melt != nil {
			continue
		}
		unknown = append(unknown, h)
	}
	if len(unknown) > 0 {
		diag.AddWarning(CodeUnmappedColumns, sheet.Name, 0, "",
			fmt.Sprintf("unknown columns %s", strings.Join(unknown, ", ")))
	}

	out := make([]Row, 0, len(sheet.Rows))
	for _, raw := range sheet.Rows {
		fields := record.NewMap()
		melted := 0
		for _, h := range sheet.Columns {
			v := raw.Cells.Value(h)
			if code, ok := spec.Lookup(h); ok {
				// Two headers may share a code (nameClub, nameClub1);
				// a blank one never hides a populated one.
				if v.IsNull() && !fields.Value(code).IsNull() {
					continue
				}
				fields.Set(code, v)
				continue
			}
			if spec.Ignored(h) || spec.Melt == nil || v.IsNull() {
				continue
			}
			melted++
			prefix := fmt.Sprintf("%s%d_", spec.Melt.Family, melted)
			fields.Set(prefix+"name", record.String(h))
			fields.Set(prefix+spec.Melt.Value, v)
		}

		if fields.Has(fieldGameType) {
			fields.SetAfter(fieldLeague, fieldGameType, fields.Value(fieldGameType))
		} else {
			fields.SetAfter(fieldLeague, fieldGameType, record.String(config.DefaultGameType))
		}
		out = append(out, Row{Number: raw.Number, Fields: fields})
	}
	return out
}

// AssignConstants sets the table's constant fields on every row.
func AssignConstants(rows []Row, spec *config.TableSpec) {
	keys := spec.AssignKeys()
	for _, r := range rows {
		for _, k := range keys {
			r.Fields.Set(k, record.String(spec.Assign[k]))
		}
	}
}

// ForwardFill copies the last non-null value of each field into following
// rows where it is null.
func ForwardFill(rows []Row, fields ...string) {
	for _, f := range fields {
		last := record.Null()
		for _, r := range rows {
			v := r.Fields.Value(f)
			if v.IsNull() {
				if !last.IsNull() {
					r.Fields.Set(f, last)
				}
				continue
			}
			last = v
		}
	}
}
