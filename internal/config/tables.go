package config

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/albapepper/scoracle-averages/internal/damm"
)

//go:embed tables.yaml
var defaultTables []byte

// --------------------------------------------------------------------------
// Table dictionaries: one entry per worksheet kind
// --------------------------------------------------------------------------

const (
	KindPerson = "person"
	KindTeam   = "team"

	RecordPlaying  = "playing"
	RecordManaging = "managing"

	PositionsFlags  = "flags"
	PositionsRecode = "recode"
)

// Tables is the full set of worksheet dictionaries.
type Tables struct {
	Skip   []string    `yaml:"skip"`
	Tables []TableSpec `yaml:"tables" validate:"required,min=1,dive"`

	bySheet map[string]*TableSpec
}

// TableSpec describes how one worksheet kind maps onto canonical fields.
type TableSpec struct {
	Sheet      string            `yaml:"sheet" validate:"required"`
	Key        string            `yaml:"key" validate:"required"`
	Kind       string            `yaml:"kind" validate:"required,oneof=person team"`
	Record     string            `yaml:"record" validate:"required,oneof=playing managing"`
	Category   string            `yaml:"category" validate:"required,oneof=B P F M R"`
	Primary    string            `yaml:"primary" validate:"required"`
	Identifier IdentifierSpec    `yaml:"identifier"`
	Positions  string            `yaml:"positions" validate:"omitempty,oneof=flags recode"`

	// DefaultMonth completes two-digit (day only) dates. Zero rejects them.
	DefaultMonth int `yaml:"default_month" validate:"min=0,max=12"`

	Assign  map[string]string `yaml:"assign"`
	Ignore  []string          `yaml:"ignore"`
	Melt    *MeltSpec         `yaml:"melt"`
	Columns map[string]string `yaml:"columns" validate:"required,min=1"`
}

// IdentifierSpec is the reference-code category of a table.
type IdentifierSpec struct {
	Prefix string `yaml:"prefix" validate:"required,alpha"`
	Offset int    `yaml:"offset" validate:"min=0"`
	Width  int    `yaml:"width" validate:"min=0,max=9"`
}

// MeltSpec turns every unrecognised header into a member of an indexed
// family: the header becomes {family}{i}_name and the cell {family}{i}_{value}.
type MeltSpec struct {
	Family string `yaml:"family" validate:"required,alpha"`
	Value  string `yaml:"value" validate:"required"`
}

// IDCategory returns the identifier category for the table.
func (t *TableSpec) IDCategory() damm.Category {
	return damm.Category{Prefix: t.Identifier.Prefix, Offset: t.Identifier.Offset, Width: t.Identifier.Width}
}

// Lookup returns the canonical code for a raw header.
func (t *TableSpec) Lookup(header string) (string, bool) {
	code, ok := t.Columns[header]
	return code, ok
}

// Ignored reports whether header is recognised but deliberately dropped.
func (t *TableSpec) Ignored(header string) bool {
	for _, h := range t.Ignore {
		if h == header {
			return true
		}
	}
	return false
}

// AssignKeys returns the constant-field keys in sorted order.
func (t *TableSpec) AssignKeys() []string {
	keys := make([]string, 0, len(t.Assign))
	for k := range t.Assign {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Table returns the dictionary for a worksheet name.
func (ts *Tables) Table(sheet string) (*TableSpec, bool) {
	t, ok := ts.bySheet[sheet]
	return t, ok
}

// Skipped reports whether a worksheet is expected and silently ignored.
func (ts *Tables) Skipped(sheet string) bool {
	for _, s := range ts.Skip {
		if s == sheet {
			return true
		}
	}
	return false
}

// --------------------------------------------------------------------------
// Loading
// --------------------------------------------------------------------------

// LoadTables reads dictionaries from path, or the embedded defaults when
// path is empty.
func LoadTables(path string) (*Tables, error) {
	if path == "" {
		return ParseTables(defaultTables)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tables file %s: %w", path, err)
	}
	return ParseTables(data)
}

// ParseTables parses and validates YAML dictionaries.
func ParseTables(data []byte) (*Tables, error) {
	var ts Tables
	if err := yaml.Unmarshal(data, &ts); err != nil {
		return nil, fmt.Errorf("failed to parse tables YAML: %w", err)
	}
	if err := validator.New().Struct(&ts); err != nil {
		return nil, fmt.Errorf("invalid tables: %w", err)
	}

	ts.bySheet = make(map[string]*TableSpec, len(ts.Tables))
	prefixes := make(map[string]string, len(ts.Tables))
	for i := range ts.Tables {
		t := &ts.Tables[i]
		if _, dup := ts.bySheet[t.Sheet]; dup {
			return nil, fmt.Errorf("invalid tables: duplicate sheet %q", t.Sheet)
		}
		if other, dup := prefixes[t.Identifier.Prefix]; dup {
			return nil, fmt.Errorf("invalid tables: %s and %s share identifier prefix %q",
				other, t.Sheet, t.Identifier.Prefix)
		}
		if !hasCode(t.Columns, t.Primary) {
			return nil, fmt.Errorf("invalid tables: %s primary field %q is not a mapped column", t.Sheet, t.Primary)
		}
		if !hasCode(t.Columns, "league_name") {
			return nil, fmt.Errorf("invalid tables: %s maps no league_name column", t.Sheet)
		}
		ts.bySheet[t.Sheet] = t
		prefixes[t.Identifier.Prefix] = t.Sheet
	}
	return &ts, nil
}

func hasCode(columns map[string]string, code string) bool {
	for _, c := range columns {
		if c == code {
			return true
		}
	}
	return false
}
