package attribution

import (
	"bytes"
	"context"
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charleschow/squad-weights/internal/core/season"
	"github.com/charleschow/squad-weights/internal/core/stattable"
)

type memTables map[string]map[stattable.Category]*stattable.Table

func (m memTables) Get(_ context.Context, key string, c stattable.Category) (*stattable.Table, error) {
	if t, ok := m[key][c]; ok {
		return t, nil
	}
	return nil, stattable.ErrTableNotFound
}

func (m memTables) put(key string, c stattable.Category, t *stattable.Table) {
	if m[key] == nil {
		m[key] = make(map[stattable.Category]*stattable.Table)
	}
	m[key][c] = t
}

type fixture struct {
	game   string
	result string
	gf, ga float64
}

func buildSchedule(t *testing.T, rows []fixture) *season.Schedule {
	t.Helper()
	records := [][]string{{"date", "game", "venue", "result", "GF", "GA", "xG", "xGA", "Poss", "match_report"}}
	for i, r := range rows {
		records = append(records, []string{
			"2022-08-05",
			r.game,
			"Home",
			r.result,
			strconv.FormatFloat(r.gf, 'f', -1, 64),
			strconv.FormatFloat(r.ga, 'f', -1, 64),
			strconv.FormatFloat(r.gf*0.5+1, 'f', -1, 64),
			strconv.FormatFloat(r.ga*2, 'f', -1, 64),
			"55",
			"/en/matches/m" + strconv.Itoa(i) + "/report",
		})
	}
	df, err := season.LoadRecords(records)
	require.NoError(t, err)
	sched, err := season.CleanSchedule(df)
	require.NoError(t, err)
	return sched
}

func singleRow(cols []string, vals ...float64) *stattable.Table {
	return &stattable.Table{Columns: cols, Rows: []stattable.Row{{Player: "p", Values: vals}}}
}

func TestAttributeWeightsSumToOne(t *testing.T) {
	results := []string{"W", "W", "L", "D", "W", "L", "D", "W", "L", "W"}
	noise := []float64{3, 1, 4, 1, 5, 9, 2, 6, 5, 3}
	tables := memTables{}
	var rows []fixture
	for i, r := range results {
		game := "g" + strconv.Itoa(i)
		code := float64(season.EncodeResult(r))
		rows = append(rows, fixture{game: game, result: r, gf: noise[i], ga: 2 * code})
		tables.put(game, stattable.Defense, singleRow([]string{"tklw", "int"}, code, noise[i]))
	}
	sched := buildSchedule(t, rows)

	res, err := NewAttributor(tables, DefaultOptions()).Attribute(context.Background(), sched, Defense)
	require.NoError(t, err)

	assert.Equal(t, []string{"result", "GA", "xGA"}, res.Targets)
	assert.Equal(t, []string{"tklw", "int"}, res.Features)
	assert.Equal(t, 8, res.TrainRows)
	assert.Equal(t, 2, res.TestRows)
	assert.InDelta(t, 1.0, res.Weights.Sum(), 1e-6)
	for _, w := range res.PerTarget {
		assert.InDelta(t, 1.0, w.Sum(), 1e-6)
	}
	for _, v := range res.Weights {
		assert.GreaterOrEqual(t, v, 0.0)
	}
	// every defense target is an exact function of tklw
	assert.InDelta(t, 1.0, res.Weights["tklw"], 1e-6)
}

func TestAttributeDeterministicForSeed(t *testing.T) {
	tables := memTables{}
	var rows []fixture
	for i := 0; i < 8; i++ {
		game := "g" + strconv.Itoa(i)
		rows = append(rows, fixture{game: game, result: "W", gf: float64(i % 3), ga: float64(i % 2)})
		tables.put(game, stattable.Attacking, singleRow([]string{"gls", "sh", "sot"}, float64(i%3), float64(i*i%5), float64(i%4)))
	}
	sched := buildSchedule(t, rows)
	a := NewAttributor(tables, Options{TestFraction: 0.25, Seed: 7})

	first, err := a.Attribute(context.Background(), sched, Attacking)
	require.NoError(t, err)
	second, err := a.Attribute(context.Background(), sched, Attacking)
	require.NoError(t, err)
	assert.Equal(t, first.Weights, second.Weights)
}

func TestAttributeMissingTableBecomesExcludedRow(t *testing.T) {
	tables := memTables{}
	tables.put("g0", stattable.Keepers, singleRow([]string{"saves", "psxg"}, 4, 1.2))
	sched := buildSchedule(t, []fixture{
		{game: "g0", result: "W", gf: 2, ga: 0},
		{game: "g1", result: "L", gf: 0, ga: 3},
	})

	res, err := NewAttributor(tables, DefaultOptions()).Attribute(context.Background(), sched, Keepers)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Rows)
	assert.Equal(t, 1, res.TablesFound)
	assert.Equal(t, 1, res.ExcludedRows)
	assert.Equal(t, 1, res.TrainRows)
	assert.Equal(t, 0, res.TestRows)
	assert.Empty(t, res.HoldoutR2)
	assert.InDelta(t, 0.5, res.Weights["saves"], 1e-9)
	assert.InDelta(t, 0.5, res.Weights["psxg"], 1e-9)
}

func TestAggregateMatchesKeepsScheduleAlignment(t *testing.T) {
	sched := buildSchedule(t, []fixture{
		{game: "g0", result: "W", gf: 2, ga: 0},
		{game: "g1", result: "L", gf: 0, ga: 1},
		{game: "g2", result: "D", gf: 1, ga: 1},
	})
	ctx := context.Background()

	agg, err := AggregateMatches(ctx, memTables{}, sched, stattable.Defense)
	require.NoError(t, err)
	assert.Len(t, agg.Rows, sched.Len())
	assert.Zero(t, agg.Found)

	tables := memTables{}
	tables.put("g1", stattable.Defense, singleRow([]string{"tklw"}, 3))
	agg, err = AggregateMatches(ctx, tables, sched, stattable.Defense)
	require.NoError(t, err)
	require.Len(t, agg.Rows, sched.Len())
	assert.Equal(t, []string{"tklw"}, agg.Columns)
	assert.Equal(t, 1, agg.Found)
	assert.True(t, math.IsNaN(agg.Rows[0][0]))
	assert.Equal(t, 3.0, agg.Rows[1][0])
	assert.True(t, math.IsNaN(agg.Rows[2][0]))
}

func TestAttributeNoTables(t *testing.T) {
	sched := buildSchedule(t, []fixture{{game: "g0", result: "W", gf: 1, ga: 0}})

	_, err := NewAttributor(memTables{}, DefaultOptions()).Attribute(context.Background(), sched, Defense)
	assert.ErrorIs(t, err, ErrDataUnavailable)
}

func TestAttributeMissingTargetColumn(t *testing.T) {
	df, err := season.LoadRecords([][]string{
		{"game", "venue", "result", "GF", "match_report"},
		{"g0", "Away", "D", "1", "/en/matches/abc/x"},
	})
	require.NoError(t, err)
	sched, err := season.CleanSchedule(df)
	require.NoError(t, err)

	_, err = NewAttributor(memTables{}, DefaultOptions()).Attribute(context.Background(), sched, Attacking)
	assert.ErrorIs(t, err, stattable.ErrSchemaDrift)
}

func TestAssembleDimensionMismatch(t *testing.T) {
	agg := &Aggregated{Columns: []string{"a"}, Rows: [][]float64{{1}, {2}, {3}}}

	_, err := assemble([]string{"result"}, [][]float64{{1, 2}}, agg)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestAssembleDropsEmptyColumnsThenRows(t *testing.T) {
	nan := math.NaN()
	agg := &Aggregated{
		Columns: []string{"a", "empty", "b"},
		Rows: [][]float64{
			{1, nan, 2},
			{nan, nan, 3},
			{4, nan, 5},
		},
	}

	ds, err := assemble([]string{"result"}, [][]float64{{3, 1, nan}}, agg)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ds.features)
	assert.Equal(t, [][]float64{{1, 2}}, ds.x)
	assert.Equal(t, 2, ds.excluded)
}

func TestSplitIndices(t *testing.T) {
	train, test := splitIndices(10, 0.2, 42)
	assert.Len(t, train, 8)
	assert.Len(t, test, 2)
	seen := map[int]bool{}
	for _, i := range append(train, test...) {
		assert.False(t, seen[i])
		seen[i] = true
	}
	assert.Len(t, seen, 10)

	train, test = splitIndices(1, 0.2, 42)
	assert.Equal(t, []int{0}, train)
	assert.Empty(t, test)
}

func TestParseStatType(t *testing.T) {
	for name, want := range map[string]StatType{
		"attacking_stats": Attacking,
		"defense_stats":   Defense,
		"keepers_stats":   Keepers,
		"passing_stats":   Other,
		"other":           Other,
	} {
		got, err := ParseStatType(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
	_, err := ParseStatType("shooting")
	assert.Error(t, err)

	assert.Equal(t, []string{"result", "GF", "GA", "xG", "xGA", "Poss"}, Other.Targets())
	assert.Equal(t, stattable.Passing, Other.Category())
}

func TestWeightsCSV(t *testing.T) {
	w := FeatureWeights{"tklw": 0.25, "int": 0.75}
	var buf bytes.Buffer
	require.NoError(t, w.WriteCSV(&buf))
	assert.Equal(t, "Feature,Average_Weight\nint,0.75\ntklw,0.25\n", buf.String())

	back, err := ReadWeightsCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, w, back)
}
