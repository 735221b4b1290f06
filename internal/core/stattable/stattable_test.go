package stattable

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawDefense() *RawTable {
	key := func(player string) RowKey {
		return RowKey{League: "ENG-Premier League", Season: "2223", Game: "2022-08-05 Crystal Palace-Arsenal", Team: "Arsenal", Player: player}
	}
	return &RawTable{
		Columns: []ColumnKey{
			{"", "#"},
			{"", "Nation"},
			{"", "Min"},
			{"Tackles", "Tkl"},
			{"Tackles", "TklW"},
			{"Challenges", "Tkl"},
			{"Challenges", "Tkl%"},
			{"", ""},
			{"Blocks", "Blocks"},
			{"", "Int"},
			{"", "Tkl+Int"},
			{"", "Err (gk)"},
			{"", "Team"},
		},
		Rows: []RawRow{
			{Key: key("William Saliba"), Cells: []string{"12", "fr FRA", "90", "3", "2", "1", "50.0", "x", "1", "2", "5", "0", "Arsenal"}},
			{Key: key("Ben White"), Cells: []string{"4", "eng ENG", "1,090", "1", "1", "0", "", "x", "", "0", "1", "0", "Arsenal"}},
			{Key: key("Bukayo Saka"), Cells: []string{"7", "eng ENG", "90", "0", "0", "0", "0.0", "x", "0", "1", "1", "0", "Arsenal"}},
		},
	}
}

func TestNormalize(t *testing.T) {
	got, err := Normalize(rawDefense(), NewSet("William Saliba", "Ben White"))
	require.NoError(t, err)

	assert.Equal(t, []string{"min", "tkl", "tklw", "blocks", "int", "tkl+int"}, got.Columns)
	assert.Equal(t, []string{"William Saliba", "Ben White"}, got.Players())
	assert.Equal(t, []float64{90, 3, 2, 1, 2, 5}, got.Rows[0].Values)

	white := got.Rows[1].Values
	assert.Equal(t, 1090.0, white[0])
	assert.True(t, math.IsNaN(white[3]), "empty cell is missing")
}

func TestNormalizeIdempotentColumns(t *testing.T) {
	got, err := Normalize(rawDefense(), NewSet("William Saliba"))
	require.NoError(t, err)
	assert.Equal(t, got, CleanColumns(got))
}

func TestNormalizeEmptySelection(t *testing.T) {
	got, err := Normalize(rawDefense(), NewSet())
	require.NoError(t, err)
	assert.Empty(t, got.Rows)
	assert.Contains(t, got.Columns, "tklw")
	for _, m := range got.Means() {
		assert.True(t, math.IsNaN(m))
	}
}

func TestNormalizeSchemaIndependentOfSelection(t *testing.T) {
	empty, err := Normalize(rawDefense(), NewSet())
	require.NoError(t, err)
	one, err := Normalize(rawDefense(), NewSet("William Saliba"))
	require.NoError(t, err)

	assert.Equal(t, one.Columns, empty.Columns)
	assert.NotContains(t, empty.Columns, "nation")
}

func TestNormalizeSchemaDrift(t *testing.T) {
	raw := rawDefense()
	raw.Rows[1].Cells = raw.Rows[1].Cells[:4]
	_, err := Normalize(raw, NewSet("Ben White"))
	assert.ErrorIs(t, err, ErrSchemaDrift)
}

func TestCleanColumns(t *testing.T) {
	in := &Table{
		Columns: []string{"Pass Types", "passtypes", "Player", "Cmp"},
		Rows:    []Row{{Player: "a", Values: []float64{1, 2, 3, 4}}},
	}
	got := CleanColumns(in)
	assert.Equal(t, []string{"passtypes", "cmp"}, got.Columns)
	assert.Equal(t, []float64{1, 4}, got.Rows[0].Values)
}

func TestMeansSkipMissing(t *testing.T) {
	tbl := &Table{
		Columns: []string{"a", "b"},
		Rows: []Row{
			{Player: "x", Values: []float64{1, math.NaN()}},
			{Player: "y", Values: []float64{3, math.NaN()}},
		},
	}
	means := tbl.Means()
	assert.Equal(t, 2.0, means[0])
	assert.True(t, math.IsNaN(means[1]))
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory("summary")
	require.NoError(t, err)
	assert.Equal(t, Attacking, c)

	c, err = ParseCategory("keepers_stats")
	require.NoError(t, err)
	assert.Equal(t, Keepers, c)

	_, err = ParseCategory("shooting")
	assert.Error(t, err)
}
