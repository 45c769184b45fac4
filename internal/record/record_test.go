package record

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapOf(kv ...interface{}) *Map {
	m := NewMap()
	for i := 0; i < len(kv); i += 2 {
		m.Set(kv[i].(string), kv[i+1].(Value))
	}
	return m
}

func TestPrune(t *testing.T) {
	in := mapOf(
		"a", Null(),
		"b", Object(mapOf("c", Null())),
		"d", List(Int(1), Int(2)),
	)

	out := PruneMap(in)
	require.NotNil(t, out)
	assert.Equal(t, []string{"d"}, out.Keys())
	assert.True(t, out.Value("d").Equal(List(Int(1), Int(2))))
}

func TestPruneVariants(t *testing.T) {
	tests := []struct {
		name string
		in   Value
		keep bool
		want Value
	}{
		{name: "null", in: Null(), keep: false},
		{name: "string", in: String("x"), keep: true, want: String("x")},
		{name: "empty string is a value", in: String(""), keep: true, want: String("")},
		{name: "int zero", in: Int(0), keep: true, want: Int(0)},
		{name: "empty list dropped", in: List(), keep: false},
		{name: "list of nulls dropped", in: List(Null(), Null()), keep: false},
		{name: "list keeps survivors", in: List(Null(), String("a")), keep: true, want: List(String("a"))},
		{name: "empty map dropped", in: Object(NewMap()), keep: false},
		{
			name: "nested fully null map dropped",
			in:   Object(mapOf("x", Object(mapOf("y", Null())))),
			keep: false,
		},
		{
			name: "list of maps pruned element-wise",
			in: List(
				Object(mapOf("team", Object(mapOf("name", Null())))),
				Object(mapOf("team", Object(mapOf("name", String("Wilson"))), "B_G", Null())),
			),
			keep: true,
			want: List(Object(mapOf("team", Object(mapOf("name", String("Wilson")))))),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Prune(tt.in)
			assert.Equal(t, tt.keep, ok)
			if tt.keep {
				assert.True(t, got.Equal(tt.want), "got %s", mustJSON(t, got))
			} else {
				assert.True(t, got.IsNull())
			}
		})
	}
}

func TestPruneKeepsOrder(t *testing.T) {
	in := mapOf("z", String("1"), "gone", Null(), "a", String("2"), "m", String("3"))
	out := PruneMap(in)
	assert.Equal(t, []string{"z", "a", "m"}, out.Keys())
}

func TestMapSetAfter(t *testing.T) {
	m := mapOf("league_season", String("1947"), "league_name", String("Coastal Plain"), "name_last", String("Smith"))
	m.SetAfter("league_name", "game_type", String("regular"))
	assert.Equal(t, []string{"league_season", "league_name", "game_type", "name_last"}, m.Keys())

	m.SetAfter("league_season", "game_type", String("playoffs"))
	assert.Equal(t, []string{"league_season", "game_type", "league_name", "name_last"}, m.Keys())
	assert.Equal(t, "playoffs", m.Text("game_type"))

	m.SetAfter("missing", "extra", Int(1))
	assert.Equal(t, "extra", m.Keys()[m.Len()-1])
}

func TestMapRenameAndDelete(t *testing.T) {
	m := mapOf("a", Int(1), "b", Int(2), "c", Int(3))
	m.Rename("b", "B")
	assert.Equal(t, []string{"a", "B", "c"}, m.Keys())

	m.Rename("a", "c")
	assert.Equal(t, []string{"a", "B", "c"}, m.Keys(), "rename onto an existing key is ignored")

	m.Delete("a")
	m.Delete("nope")
	assert.Equal(t, []string{"B", "c"}, m.Keys())
	assert.False(t, m.Has("a"))
}

func TestMarshalJSONStableOrder(t *testing.T) {
	m := mapOf(
		"ref", String("B00011"),
		"name", Object(mapOf("last", String("O’Brien"), "first", String("Pat"))),
		"playing", List(Object(mapOf("season", Int(1947), "splits", List()))),
		"notes", Null(),
	)

	got := mustJSON(t, Object(m))
	assert.Equal(t,
		`{"ref":"B00011","name":{"last":"O’Brien","first":"Pat"},"playing":[{"season":1947,"splits":[]}],"notes":null}`,
		got)

	var generic map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(got), &generic))
}

func TestValueText(t *testing.T) {
	assert.Equal(t, "42", Int(42).Text())
	assert.Equal(t, "x", String("x").Text())
	assert.Equal(t, "", Null().Text())
	assert.True(t, Maybe("").IsNull())
	assert.Equal(t, KindString, Maybe("a").Kind())
	assert.Equal(t, "list", KindList.String())
}

func mustJSON(t *testing.T, v Value) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}
