package transform

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/albapepper/scoracle-averages/internal/config"
	"github.com/albapepper/scoracle-averages/internal/record"
)

// Group extracts every field of fields starting with prefix into a new map
// keyed by the remainder: Group(row, "totals_") turns totals_B_AVG into
// B_AVG.
func Group(fields *record.Map, prefix string) *record.Map {
	out := record.NewMap()
	fields.Range(func(k string, v record.Value) bool {
		if rest, ok := strings.CutPrefix(k, prefix); ok && rest != "" {
			out.Set(rest, v)
		}
		return true
	})
	return out
}

// splitEntityKey names the object a stint family refers to.
func splitEntityKey(family string) string {
	if family == FamilyOpponent {
		return "opponent"
	}
	return "team"
}

// BuildSplit renders a stint as a split entry:
// {team|opponent: {name}, S_STINT, ...fields}. Opponent entries carry no
// stint order.
func BuildSplit(s Stint) *record.Map {
	out := record.NewMap()
	entity := record.NewMap()
	entity.Set("name", s.Fields.Value("name"))
	out.Set(splitEntityKey(s.Family), record.Object(entity))
	if s.Family == FamilyClub {
		out.Set("S_STINT", record.Int(int64(s.Order)))
	}
	s.Fields.Range(func(k string, v record.Value) bool {
		if k != "name" {
			out.Set(k, v)
		}
		return true
	})
	return out
}

// BuildRecord assembles one entity into its nested, null-pruned record:
//
//	{_table, _row, ref, name{}, description{}, playing|managing: [{
//	    season, league{name}, game_type, division{}, totals{}, splits[], notes}]}
//
// It returns nil when nothing survives pruning.
func BuildRecord(spec *config.TableSpec, row int, ref string, fields *record.Map, stints []Stint) *record.Map {
	entry := record.NewMap()
	entry.Set("season", seasonValue(fields.Value(fieldSeason)))
	league := record.NewMap()
	league.Set("name", fields.Value(fieldLeague))
	entry.Set("league", record.Object(league))
	entry.Set("game_type", fields.Value(fieldGameType))
	entry.Set("division", record.Object(Group(fields, "division_")))
	entry.Set("totals", record.Object(Group(fields, "totals_")))
	splits := make([]record.Value, 0, len(stints))
	for _, s := range stints {
		splits = append(splits, record.Object(BuildSplit(s)))
	}
	entry.Set("splits", record.List(splits...))
	entry.Set("notes", fields.Value("notes"))

	rec := record.NewMap()
	rec.Set("_table", record.String(spec.Key))
	rec.Set("_row", record.Int(int64(row)))
	rec.Set("ref", record.String(ref))
	rec.Set("name", record.Object(Group(fields, "name_")))
	if spec.Kind == config.KindPerson {
		rec.Set("description", record.Object(Group(fields, "description_")))
	}
	rec.Set(spec.Record, record.List(record.Object(entry)))
	return record.PruneMap(rec)
}

// seasonValue renders an integer season as a JSON number.
func seasonValue(v record.Value) record.Value {
	if v.IsNull() {
		return v
	}
	n, err := strconv.ParseInt(v.Text(), 10, 64)
	if err != nil {
		return v
	}
	return record.Int(n)
}

// --------------------------------------------------------------------------
// Document
// --------------------------------------------------------------------------

// Document is the converted content of one workbook.
type Document struct {
	Title  string
	File   string
	Teams  []*record.Map
	People []*record.Map
}

// Add appends records to the list matching kind.
func (d *Document) Add(kind string, recs []*record.Map) {
	if kind == config.KindTeam {
		d.Teams = append(d.Teams, recs...)
		return
	}
	d.People = append(d.People, recs...)
}

// Records returns teams followed by people.
func (d *Document) Records() []*record.Map {
	out := make([]*record.Map, 0, len(d.Teams)+len(d.People))
	out = append(out, d.Teams...)
	return append(out, d.People...)
}

// Value renders the document as
// {"_source": {"title", "file"}, "teams": [...], "people": [...]}.
// Empty lists are kept.
func (d *Document) Value() record.Value {
	src := record.NewMap()
	src.Set("title", record.String(d.Title))
	src.Set("file", record.String(d.File))

	doc := record.NewMap()
	doc.Set("_source", record.Object(src))
	doc.Set("teams", objects(d.Teams))
	doc.Set("people", objects(d.People))
	return record.Object(doc)
}

// MarshalJSON implements json.Marshaler with stable key order.
func (d *Document) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Value())
}

func objects(ms []*record.Map) record.Value {
	items := make([]record.Value, 0, len(ms))
	for _, m := range ms {
		items = append(items, record.Object(m))
	}
	return record.List(items...)
}

// RecordSeason returns the season of a built record's first entry, or 0.
func RecordSeason(rec *record.Map) int64 {
	for _, key := range []string{config.RecordPlaying, config.RecordManaging} {
		items := rec.Value(key).Items()
		if len(items) == 0 {
			continue
		}
		n, err := strconv.ParseInt(items[0].Map().Text("season"), 10, 64)
		if err == nil {
			return n
		}
	}
	return 0
}
