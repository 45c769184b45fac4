package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"TRANSCRIPT_DIR", "OUTPUT_DIR", "DATABASE_URL", "API_PORT", "PORT", "RATE_LIMIT_WINDOW"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "transcript", cfg.TranscriptDir)
	assert.Equal(t, "json", cfg.OutputDir)
	assert.Equal(t, "processed", cfg.CSVDir)
	assert.Equal(t, 8000, cfg.APIPort)
	assert.Equal(t, time.Minute, cfg.RateLimitWindow)
	assert.Error(t, cfg.RequireDatabase())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("TRANSCRIPT_DIR", "/data/in")
	t.Setenv("DATABASE_URL", "postgres://localhost/archive")
	t.Setenv("API_PORT", "9000")
	t.Setenv("DEBUG", "true")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://a.example, ,https://b.example")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/data/in", cfg.TranscriptDir)
	assert.Equal(t, 9000, cfg.APIPort)
	assert.True(t, cfg.Debug)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowOrigins)
	assert.NoError(t, cfg.RequireDatabase())
}

func TestEmbeddedTables(t *testing.T) {
	ts, err := LoadTables("")
	require.NoError(t, err)

	batting, ok := ts.Table("Batting")
	require.True(t, ok)
	assert.Equal(t, KindPerson, batting.Kind)
	assert.Equal(t, "B", batting.IDCategory().Prefix)
	code, ok := batting.Lookup("nameClub2")
	assert.True(t, ok)
	assert.Equal(t, "club2_name", code)
	assert.True(t, batting.Ignored("S_STINT"))

	pitching, _ := ts.Table("Pitching")
	assert.Equal(t, 1000, pitching.IDCategory().Offset)
	assert.Equal(t, []string{"totals_F_P_POS"}, pitching.AssignKeys())

	h2h, ok := ts.Table("HeadToHead")
	require.True(t, ok)
	require.NotNil(t, h2h.Melt)
	assert.Equal(t, "opp", h2h.Melt.Family)

	assert.True(t, ts.Skipped("Metadata"))
	_, ok = ts.Table("Umpiring")
	assert.False(t, ok)
}

func TestParseTablesRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "bad kind",
			yaml: `
tables:
  - {sheet: X, key: x, kind: club, record: playing, category: B, primary: name_last,
     identifier: {prefix: X}, columns: {nameLast: name_last, nameLeague: league_name}}`,
		},
		{
			name: "primary not mapped",
			yaml: `
tables:
  - {sheet: X, key: x, kind: person, record: playing, category: B, primary: name_last,
     identifier: {prefix: X}, columns: {nameLeague: league_name}}`,
		},
		{
			name: "shared prefix",
			yaml: `
tables:
  - {sheet: X, key: x, kind: person, record: playing, category: B, primary: name_last,
     identifier: {prefix: X}, columns: {nameLast: name_last, nameLeague: league_name}}
  - {sheet: Y, key: y, kind: person, record: playing, category: P, primary: name_last,
     identifier: {prefix: X}, columns: {nameLast: name_last, nameLeague: league_name}}`,
		},
		{
			name: "no tables",
			yaml: `skip: [Metadata]`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTables([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadTablesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tables.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
tables:
  - sheet: Batting
    key: batting
    kind: person
    record: playing
    category: B
    primary: name_last
    identifier: {prefix: B}
    columns: {year: league_season, nameLeague: league_name, nameLast: name_last}
`), 0o644))

	ts, err := LoadTables(path)
	require.NoError(t, err)
	b, ok := ts.Table("Batting")
	require.True(t, ok)
	assert.Equal(t, 0, b.IDCategory().Width)

	_, err = LoadTables(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
