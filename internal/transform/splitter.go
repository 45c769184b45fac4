package transform

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/albapepper/scoracle-averages/internal/config"
	"github.com/albapepper/scoracle-averages/internal/damm"
	"github.com/albapepper/scoracle-averages/internal/record"
)

// Indexed column families reshaped into stints.
const (
	FamilyClub     = "club"
	FamilyOpponent = "opp"
)

// Stint is one indexed family member pulled out of a row: one club a
// player appeared for, or one opponent a team played.
type Stint struct {
	Family string
	// Order is 1-based and follows column order, then continuation rows.
	Order  int
	Fields *record.Map
}

// Team returns the club or opponent name.
func (s Stint) Team() string { return s.Fields.Text("name") }

// Field returns the text of a stint field by its bare code.
func (s Stint) Field(code string) string { return s.Fields.Text(code) }

// Entity is the group of rows sharing one identifier: a named row and the
// continuation rows below it.
type Entity struct {
	Ref  string
	Rows []Row
}

// Primary returns the named row.
func (e *Entity) Primary() Row { return e.Rows[0] }

// --------------------------------------------------------------------------
// Identifiers
// --------------------------------------------------------------------------

// AssignIdentifiers groups rows into entities. Each row with a non-null
// primary field opens a new entity with the next identifier of seq; rows
// with a blank primary field continue the previous entity. Team tables
// have no continuation rows, so blank team rows are skipped with a warning.
func AssignIdentifiers(rows []Row, spec *config.TableSpec, seq *damm.Sequence, sheet string, diag *Diagnostics) ([]*Entity, error) {
	var (
		entities []*Entity
		current  *Entity
	)
	for _, r := range rows {
		if !r.Fields.Value(spec.Primary).IsNull() {
			ref, err := seq.Next()
			if err != nil {
				return nil, fmt.Errorf("%s row %d: %w", sheet, r.Number, err)
			}
			current = &Entity{Ref: ref, Rows: []Row{r}}
			entities = append(entities, current)
			continue
		}
		if spec.Kind == config.KindTeam {
			diag.AddWarning(CodeBlankTeamRow, sheet, r.Number, spec.Primary, "row has no team name, skipped")
			continue
		}
		if current == nil {
			diag.AddError(&RowError{Sheet: sheet, Row: r.Number, Field: spec.Primary, Err: ErrOrphanRow})
			continue
		}
		current.Rows = append(current.Rows, r)
	}
	return entities, nil
}

// FillGroup gives every row of the entity the first non-null value found
// in the group for identity fields: name_*, description_*, game_type and
// the listed extras. A null game_type left afterwards becomes "regular".
func FillGroup(e *Entity, extra ...string) {
	var keys []string
	seen := make(map[string]bool)
	for _, r := range e.Rows {
		r.Fields.Range(func(k string, _ record.Value) bool {
			if !seen[k] && isIdentityField(k, extra) {
				seen[k] = true
				keys = append(keys, k)
			}
			return true
		})
	}
	for _, k := range keys {
		fill := record.Null()
		for _, r := range e.Rows {
			if v := r.Fields.Value(k); !v.IsNull() {
				fill = v
				break
			}
		}
		if fill.IsNull() {
			continue
		}
		for _, r := range e.Rows {
			if r.Fields.Has(k) && r.Fields.Value(k).IsNull() {
				r.Fields.Set(k, fill)
			}
		}
	}
	for _, r := range e.Rows {
		if r.Fields.Value(fieldGameType).IsNull() {
			r.Fields.SetAfter(fieldLeague, fieldGameType, record.String(config.DefaultGameType))
		}
	}
}

func isIdentityField(k string, extra []string) bool {
	if k == fieldGameType || strings.HasPrefix(k, "name_") || strings.HasPrefix(k, "description_") {
		return true
	}
	for _, e := range extra {
		if k == e {
			return true
		}
	}
	return false
}

// --------------------------------------------------------------------------
// Fielding positions
// --------------------------------------------------------------------------

const fieldPositions = "totals_F_POS"

var knownPositions = map[string]bool{
	"P": true, "C": true, "1B": true, "2B": true, "3B": true,
	"SS": true, "OF": true, "LF": true, "CF": true, "RF": true,
}

// ExpandPositions sets totals_F_<pos>_POS = "1" for every position listed
// in totals_F_POS ("SS", "2B-SS"). With recode and exactly one position,
// the row's generic fielding codes totals_F_X become totals_F_<pos>_X.
// Utility aggregates (F_UT_*) keep their codes.
func ExpandPositions(fields *record.Map, recode bool) {
	raw := fields.Text(fieldPositions)
	if raw == "" {
		return
	}
	var positions []string
	for _, p := range strings.Split(raw, "-") {
		if p = strings.ToUpper(strings.TrimSpace(p)); p != "" {
			positions = append(positions, p)
		}
	}

	anchor := fieldPositions
	for _, p := range positions {
		key := "totals_F_" + p + "_POS"
		fields.SetAfter(anchor, key, record.String("1"))
		anchor = key
	}

	if !recode || len(positions) != 1 || !knownPositions[positions[0]] {
		return
	}
	pos := positions[0]
	for _, k := range fields.Keys() {
		code, ok := strings.CutPrefix(k, "totals_F_")
		if !ok || code == "POS" || strings.HasPrefix(code, "UT_") {
			continue
		}
		if seg, _, _ := strings.Cut(code, "_"); knownPositions[seg] {
			continue
		}
		fields.Rename(k, "totals_F_"+pos+"_"+code)
	}
}

// --------------------------------------------------------------------------
// Stints
// --------------------------------------------------------------------------

// SplitClubGames scans club{i}_name for i = 1, 2, ... while the column
// exists. A "games@team" value is split: the team replaces the club name
// and the count goes to club{i}_{category}_G, placed right after it. Plain
// values get a null count. The aggregate marker "all" is not a club: its
// club{i}_* fields are dropped and its index is returned so Reshape keeps
// the slot without counting a stint.
func SplitClubGames(fields *record.Map, category string) (aggregates []int) {
	for i := 1; ; i++ {
		nameKey := fmt.Sprintf("club%d_name", i)
		if !fields.Has(nameKey) {
			return aggregates
		}
		gamesKey := fmt.Sprintf("club%d_%s_G", i, category)
		v := fields.Value(nameKey)
		if v.IsNull() {
			fields.SetAfter(nameKey, gamesKey, record.Null())
			continue
		}
		text := strings.TrimSpace(v.Text())
		if strings.EqualFold(text, "all") {
			prefix := fmt.Sprintf("club%d_", i)
			for _, k := range fields.Keys() {
				if strings.HasPrefix(k, prefix) {
					fields.Delete(k)
				}
			}
			aggregates = append(aggregates, i)
			continue
		}
		games := record.Null()
		if before, after, ok := strings.Cut(text, "@"); ok {
			games = record.Maybe(strings.TrimSpace(before))
			text = strings.TrimSpace(after[strings.LastIndex(after, "@")+1:])
		}
		fields.Set(nameKey, record.Maybe(text))
		fields.SetAfter(nameKey, gamesKey, games)
	}
}

var familyKey = regexp.MustCompile(`^([a-z]+)(\d+)_(.+)$`)

// Reshape pulls the indexed family {family}{i}_* out of fields and returns
// one stint per populated {family}{i}_name, in index order. All family
// fields are removed from fields. A populated member after an empty one is
// a structural error; nothing is removed in that case. Indexes in
// aggregates occupy their slot but yield no stint.
func Reshape(fields *record.Map, family string, aggregates ...int) ([]Stint, error) {
	members := make(map[int]*record.Map)
	var familyKeys []string
	for _, k := range fields.Keys() {
		m := familyKey.FindStringSubmatch(k)
		if m == nil || m[1] != family {
			continue
		}
		i, err := strconv.Atoi(m[2])
		if err != nil || i < 1 {
			continue
		}
		familyKeys = append(familyKeys, k)
		if members[i] == nil {
			members[i] = record.NewMap()
		}
		members[i].Set(m[3], fields.Value(k))
	}
	if len(familyKeys) == 0 {
		return nil, nil
	}

	skipped := make(map[int]bool, len(aggregates))
	indexes := make([]int, 0, len(members)+len(aggregates))
	for _, i := range aggregates {
		if members[i] == nil && !skipped[i] {
			indexes = append(indexes, i)
		}
		skipped[i] = true
	}
	for i := range members {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)

	var stints []Stint
	gap := 0
	for n, i := range indexes {
		if skipped[i] {
			continue
		}
		m := members[i]
		if m.Value("name").IsNull() {
			if gap == 0 {
				gap = i
			}
			continue
		}
		if gap != 0 || i != n+1 {
			return nil, fmt.Errorf("%w: %s%d_name is set but %s%d_name is not",
				ErrStintGap, family, i, family, firstMissing(gap, n+1))
		}
		stints = append(stints, Stint{Family: family, Order: len(stints) + 1, Fields: m})
	}

	for _, k := range familyKeys {
		fields.Delete(k)
	}
	return stints, nil
}

func firstMissing(gap, next int) int {
	if gap != 0 {
		return gap
	}
	return next
}

// SplitStints is SplitClubGames followed by Reshape of the club family.
func SplitStints(fields *record.Map, category string) ([]Stint, error) {
	aggregates := SplitClubGames(fields, category)
	return Reshape(fields, FamilyClub, aggregates...)
}
