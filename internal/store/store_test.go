package store

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charleschow/squad-weights/internal/core/attribution"
	"github.com/charleschow/squad-weights/internal/core/stattable"
)

func openStores(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()

	sqlStore, err := Open(DriverSQLite, filepath.Join(dir, "db", "match_stats.db"))
	require.NoError(t, err)
	csvStore, err := Open(DriverCSV, filepath.Join(dir, "csv"))
	require.NoError(t, err)

	t.Cleanup(func() {
		sqlStore.Close()
		csvStore.Close()
	})
	return map[string]Store{"sqlite": sqlStore, "csv": csvStore}
}

func sampleTable() *stattable.Table {
	return &stattable.Table{
		Columns: []string{"tklw", "int", "blocks"},
		Rows: []stattable.Row{
			{Player: "William Saliba", Values: []float64{2, math.NaN(), 1}},
			{Player: "Ben White", Values: []float64{0, 3, 0.5}},
		},
	}
}

func TestTableRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			key := "2022-08-05 Crystal Palace-Arsenal"
			require.NoError(t, s.Put(ctx, key, stattable.Defense, sampleTable()))

			got, err := s.Get(ctx, key, stattable.Defense)
			require.NoError(t, err)
			assert.Equal(t, []string{"tklw", "int", "blocks"}, got.Columns)
			require.Len(t, got.Rows, 2)
			assert.Equal(t, "William Saliba", got.Rows[0].Player)
			assert.True(t, math.IsNaN(got.Rows[0].Values[1]))
			assert.Equal(t, []float64{0, 3, 0.5}, got.Rows[1].Values)

			keys, err := s.Keys(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{key}, keys)
		})
	}
}

func TestPutReplaces(t *testing.T) {
	ctx := context.Background()
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Put(ctx, "g1", stattable.Keepers, sampleTable()))
			replacement := &stattable.Table{
				Columns: []string{"saves"},
				Rows:    []stattable.Row{{Player: "Aaron Ramsdale", Values: []float64{4}}},
			}
			require.NoError(t, s.Put(ctx, "g1", stattable.Keepers, replacement))

			got, err := s.Get(ctx, "g1", stattable.Keepers)
			require.NoError(t, err)
			assert.Equal(t, replacement, got)
		})
	}
}

func TestGetMissingTable(t *testing.T) {
	ctx := context.Background()
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get(ctx, "nope", stattable.Passing)
			assert.ErrorIs(t, err, stattable.ErrTableNotFound)
		})
	}
}

func TestWeightsRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.GetWeights(ctx, "defense_stats")
			assert.ErrorIs(t, err, ErrWeightsNotFound)

			w := attribution.FeatureWeights{"tklw": 0.7, "int": 0.3}
			require.NoError(t, s.PutWeights(ctx, "defense_stats", w))
			got, err := s.GetWeights(ctx, "defense_stats")
			require.NoError(t, err)
			assert.Equal(t, w, got)
		})
	}
}

func TestCSVStoreMissingPlayerColumn(t *testing.T) {
	dir := t.TempDir()
	s, err := OpenCSV(dir)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "g1"), 0o755))
	require.NoError(t, writeAtomic(s.tablePath("g1", stattable.Passing), [][]string{
		{"", "name", "cmp"},
		{"0", "Odegaard", "40"},
	}))

	_, err = s.Get(context.Background(), "g1", stattable.Passing)
	assert.ErrorIs(t, err, stattable.ErrSchemaDrift)
}

func TestCSVStoreKeysReadBack(t *testing.T) {
	ctx := context.Background()
	s, err := OpenCSV(t.TempDir())
	require.NoError(t, err)
	table := &stattable.Table{Columns: []string{"cmp"}, Rows: []stattable.Row{{Player: "Odegaard", Values: []float64{40}}}}

	for _, key := range []string{"a/b", `a\b`, "a:b", "", ".."} {
		assert.ErrorIs(t, s.Put(ctx, key, stattable.Passing, table), ErrInvalidKey, key)
	}
	require.NoError(t, s.Put(ctx, "2022-08-05 Crystal Palace-Arsenal", stattable.Passing, table))

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"2022-08-05 Crystal Palace-Arsenal"}, keys)
	got, err := s.Get(ctx, keys[0], stattable.Passing)
	require.NoError(t, err)
	assert.Equal(t, table, got)
}

func TestRebind(t *testing.T) {
	s := &SQLStore{driver: DriverPostgres}
	assert.Equal(t, "SELECT a FROM t WHERE x = $1 AND y = $2", s.rebind("SELECT a FROM t WHERE x = ? AND y = ?"))
	s.driver = DriverSQLite
	assert.Equal(t, "x = ?", s.rebind("x = ?"))
}
