package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/scoracle-averages/internal/config"
	"github.com/albapepper/scoracle-averages/internal/damm"
	"github.com/albapepper/scoracle-averages/internal/record"
)

func TestSplitStintsGamesAtTeam(t *testing.T) {
	orders := map[string]*record.Map{
		"column order":   mapOf("club1_name", "TeamA", "club2_name", "10@TeamB"),
		"reversed order": mapOf("club2_name", "10@TeamB", "club1_name", "TeamA"),
	}
	for name, fields := range orders {
		t.Run(name, func(t *testing.T) {
			stints, err := SplitStints(fields, "B")
			require.NoError(t, err)
			require.Len(t, stints, 2)

			assert.Equal(t, 1, stints[0].Order)
			assert.Equal(t, "TeamA", stints[0].Team())
			assert.True(t, stints[0].Fields.Value("B_G").IsNull())

			assert.Equal(t, 2, stints[1].Order)
			assert.Equal(t, "TeamB", stints[1].Team())
			assert.Equal(t, "10", stints[1].Field("B_G"))

			assert.False(t, fields.Has("club1_name"))
			assert.False(t, fields.Has("club2_B_G"))
		})
	}
}

func TestSplitClubGamesPlacesCountAfterName(t *testing.T) {
	fields := mapOf("name_last", "Smith", "club1_name", "4@Wilson", "totals_B_G", "4")
	SplitClubGames(fields, "P")
	assert.Equal(t, []string{"name_last", "club1_name", "club1_P_G", "totals_B_G"}, fields.Keys())
	assert.Equal(t, "Wilson", fields.Text("club1_name"))
	assert.Equal(t, "4", fields.Text("club1_P_G"))
}

func TestSplitStintsNoClubColumns(t *testing.T) {
	fields := mapOf("name_short", "Wilson", "totals_R_W", "70")
	stints, err := SplitStints(fields, "R")
	require.NoError(t, err)
	assert.Empty(t, stints)
	assert.Equal(t, []string{"name_short", "totals_R_W"}, fields.Keys())
}

func TestSplitStintsAggregateMarker(t *testing.T) {
	fields := mapOf("club1_name", "All")
	stints, err := SplitStints(fields, "B")
	require.NoError(t, err)
	assert.Empty(t, stints)
}

func TestSplitStintsAggregateBeforeClubs(t *testing.T) {
	fields := mapOf("name_last", "Smith", "club1_name", "all", "club1_B_G", "40",
		"club2_name", "TeamA", "club3_name", "5@TeamB")

	aggregates := SplitClubGames(fields, "B")
	assert.Equal(t, []int{1}, aggregates)
	assert.False(t, fields.Has("club1_name"))
	assert.False(t, fields.Has("club1_B_G"))

	stints, err := Reshape(fields, FamilyClub, aggregates...)
	require.NoError(t, err)
	require.Len(t, stints, 2)
	assert.Equal(t, 1, stints[0].Order)
	assert.Equal(t, "TeamA", stints[0].Team())
	assert.Equal(t, 2, stints[1].Order)
	assert.Equal(t, "TeamB", stints[1].Team())
	assert.Equal(t, "5", stints[1].Field("B_G"))
	assert.Equal(t, []string{"name_last"}, fields.Keys())
}

func TestSplitStintsAggregateDoesNotHideGap(t *testing.T) {
	fields := mapOf("club1_name", "All", "club2_name", "", "club3_name", "Kinston")
	_, err := SplitStints(fields, "B")
	assert.ErrorIs(t, err, ErrStintGap)
}

func TestSplitStintsGap(t *testing.T) {
	fields := mapOf("club1_name", "", "club2_name", "Kinston")
	_, err := SplitStints(fields, "B")
	assert.ErrorIs(t, err, ErrStintGap)
	assert.True(t, fields.Has("club2_name"), "fields untouched on error")
}

func TestReshapeGeneralizesBeyondFive(t *testing.T) {
	fields := record.NewMap()
	for i, team := range []string{"A", "B", "C", "D", "E", "F", "G"} {
		fields.Set("club"+string(rune('1'+i))+"_name", record.String(team))
	}
	stints, err := Reshape(fields, FamilyClub)
	require.NoError(t, err)
	require.Len(t, stints, 7)
	assert.Equal(t, "G", stints[6].Team())
	assert.Equal(t, 0, fields.Len())
}

func TestReshapeOpponents(t *testing.T) {
	fields := mapOf("name_short", "Goldsboro", "opp1_name", "Wilson", "opp1_R_W", "12", "opp2_name", "Kinston", "opp2_R_W", "9")
	stints, err := Reshape(fields, FamilyOpponent)
	require.NoError(t, err)
	require.Len(t, stints, 2)
	assert.Equal(t, "Kinston", stints[1].Team())
	assert.Equal(t, "9", stints[1].Field("R_W"))
	assert.Equal(t, []string{"name_short"}, fields.Keys())
}

func TestExpandPositions(t *testing.T) {
	t.Run("flags only", func(t *testing.T) {
		fields := mapOf("totals_F_POS", "2B-SS", "totals_B_G", "40")
		ExpandPositions(fields, false)
		assert.Equal(t, []string{"totals_F_POS", "totals_F_2B_POS", "totals_F_SS_POS", "totals_B_G"}, fields.Keys())
		assert.Equal(t, "1", fields.Text("totals_F_SS_POS"))
	})

	t.Run("recode single position", func(t *testing.T) {
		fields := mapOf("totals_F_POS", "ss", "totals_F_G", "40", "totals_F_PO", "80", "totals_F_UT_G", "44", "totals_P_WP", "1")
		ExpandPositions(fields, true)
		assert.Equal(t, []string{
			"totals_F_POS", "totals_F_SS_POS", "totals_F_SS_G", "totals_F_SS_PO", "totals_F_UT_G", "totals_P_WP",
		}, fields.Keys())
	})

	t.Run("multiple positions keep aggregates", func(t *testing.T) {
		fields := mapOf("totals_F_POS", "OF-1B", "totals_F_G", "40")
		ExpandPositions(fields, true)
		assert.True(t, fields.Has("totals_F_G"))
		assert.True(t, fields.Has("totals_F_OF_POS"))
		assert.True(t, fields.Has("totals_F_1B_POS"))
	})

	t.Run("no position", func(t *testing.T) {
		fields := mapOf("totals_F_POS", "", "totals_F_G", "40")
		ExpandPositions(fields, true)
		assert.Equal(t, []string{"totals_F_POS", "totals_F_G"}, fields.Keys())
	})
}

func TestAssignIdentifiersGroupsContinuationRows(t *testing.T) {
	spec := &config.TableSpec{Sheet: "Batting", Kind: config.KindPerson, Primary: "name_last"}
	rows := []Row{
		{Number: 1, Fields: mapOf("name_last", "Smith")},
		{Number: 2, Fields: mapOf("name_last", "")},
		{Number: 3, Fields: mapOf("name_last", "Jones")},
	}
	diag := &Diagnostics{}
	seq := damm.NewAllocator().Sequence(damm.Category{Prefix: "B"})

	entities, err := AssignIdentifiers(rows, spec, seq, "Batting", diag)
	require.NoError(t, err)
	require.Len(t, entities, 2)
	assert.Equal(t, "B00013", entities[0].Ref)
	assert.Len(t, entities[0].Rows, 2)
	assert.Equal(t, "B00021", entities[1].Ref)
	for _, e := range entities {
		assert.NoError(t, damm.Validate(e.Ref))
	}
	assert.False(t, diag.HasErrors())
}

func TestAssignIdentifiersOrphanAndBlankTeam(t *testing.T) {
	person := &config.TableSpec{Kind: config.KindPerson, Primary: "name_last"}
	diag := &Diagnostics{}
	seq := damm.NewAllocator().Sequence(damm.Category{Prefix: "B"})
	entities, err := AssignIdentifiers([]Row{
		{Number: 1, Fields: mapOf("name_last", "", "club1_name", "Wilson")},
		{Number: 2, Fields: mapOf("name_last", "Smith")},
	}, person, seq, "Batting", diag)
	require.NoError(t, err)
	assert.Len(t, entities, 1)
	require.Len(t, diag.Errors, 1)
	assert.ErrorIs(t, diag.Errors[0], ErrOrphanRow)

	team := &config.TableSpec{Kind: config.KindTeam, Primary: "name_short"}
	diag = &Diagnostics{}
	seq = damm.NewAllocator().Sequence(damm.Category{Prefix: "TS"})
	entities, err = AssignIdentifiers([]Row{
		{Number: 1, Fields: mapOf("name_short", "Wilson")},
		{Number: 2, Fields: mapOf("name_short", "")},
	}, team, seq, "Standings", diag)
	require.NoError(t, err)
	assert.Len(t, entities, 1)
	assert.False(t, diag.HasErrors())
	require.Len(t, diag.Warnings, 1)
	assert.Equal(t, CodeBlankTeamRow, diag.Warnings[0].Code)
}

func TestFillGroup(t *testing.T) {
	e := &Entity{Ref: "B00013", Rows: []Row{
		{Number: 1, Fields: mapOf("league_name", "CPL", "game_type", "", "name_last", "Smith", "description_bats", "")},
		{Number: 2, Fields: mapOf("league_name", "CPL", "game_type", "", "name_last", "", "description_bats", "L")},
	}}
	FillGroup(e)
	for _, r := range e.Rows {
		assert.Equal(t, "Smith", r.Fields.Text("name_last"))
		assert.Equal(t, "L", r.Fields.Text("description_bats"))
		assert.Equal(t, "regular", r.Fields.Text("game_type"))
	}
}
