package attribution

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/charleschow/squad-weights/internal/core/season"
	"github.com/charleschow/squad-weights/internal/core/stattable"
	"github.com/charleschow/squad-weights/internal/telemetry"
)

// Aggregated holds one averaged feature row per schedule row. Rows for
// matches without a stored table are all NaN.
type Aggregated struct {
	Columns []string
	Rows    [][]float64
	Found   int
}

// AggregateMatches loads category's table for every schedule row and
// averages it to one row per match. Row i always belongs to
// sched.Matches[i].
func AggregateMatches(ctx context.Context, tables TableReader, sched *season.Schedule, category stattable.Category) (*Aggregated, error) {
	loaded := make([]*stattable.Table, sched.Len())
	index := make(map[string]int)
	var columns []string

	agg := &Aggregated{}
	for i, m := range sched.Matches {
		t, err := tables.Get(ctx, m.Game, category)
		if errors.Is(err, stattable.ErrTableNotFound) {
			telemetry.Warnf("%s for game %q not found, using an empty row", category.Name(), m.Game)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load %s for game %q: %w", category.Name(), m.Game, err)
		}
		agg.Found++
		loaded[i] = t
		for _, c := range t.Columns {
			if _, ok := index[c]; !ok {
				index[c] = len(columns)
				columns = append(columns, c)
			}
		}
	}

	agg.Columns = columns
	agg.Rows = make([][]float64, len(loaded))
	for i, t := range loaded {
		row := make([]float64, len(columns))
		for j := range row {
			row[j] = math.NaN()
		}
		if t != nil {
			for j, mean := range t.Means() {
				row[index[t.Columns[j]]] = mean
			}
		}
		agg.Rows[i] = row
	}
	return agg, nil
}

// dataset is the complete-case regression input.
type dataset struct {
	features []string
	targets  []string
	x        [][]float64
	y        [][]float64
	excluded int
}

// assemble concatenates targets and features positionally, drops feature
// columns that are missing everywhere, then drops rows with any missing
// value.
func assemble(targets []string, targetCols [][]float64, agg *Aggregated) (*dataset, error) {
	n := len(agg.Rows)
	for k, col := range targetCols {
		if len(col) != n {
			return nil, fmt.Errorf("target %q has %d rows, features have %d: %w", targets[k], len(col), n, ErrDimensionMismatch)
		}
	}

	var keep []int
	for j := range agg.Columns {
		for _, row := range agg.Rows {
			if !math.IsNaN(row[j]) {
				keep = append(keep, j)
				break
			}
		}
	}

	ds := &dataset{targets: targets}
	for _, j := range keep {
		ds.features = append(ds.features, agg.Columns[j])
	}

rows:
	for i, row := range agg.Rows {
		x := make([]float64, len(keep))
		for k, j := range keep {
			if math.IsNaN(row[j]) {
				ds.excluded++
				continue rows
			}
			x[k] = row[j]
		}
		y := make([]float64, len(targetCols))
		for k, col := range targetCols {
			if math.IsNaN(col[i]) {
				ds.excluded++
				continue rows
			}
			y[k] = col[i]
		}
		ds.x = append(ds.x, x)
		ds.y = append(ds.y, y)
	}
	return ds, nil
}
