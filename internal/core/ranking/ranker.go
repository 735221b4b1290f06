package ranking

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/charleschow/squad-weights/internal/core/season"
	"github.com/charleschow/squad-weights/internal/core/stattable"
	"github.com/charleschow/squad-weights/internal/telemetry"
)

// TableReader loads a stored per-match table.
// Satisfied by *store.SQLStore and *store.CSVStore.
type TableReader interface {
	Get(ctx context.Context, key string, category stattable.Category) (*stattable.Table, error)
}

// PlayerScore is a player's accumulated weighted score over a season.
type PlayerScore struct {
	Player      string
	Total       float64
	Appearances int
}

// Mean is the score per appearance.
func (p PlayerScore) Mean() float64 {
	if p.Appearances == 0 {
		return 0
	}
	return p.Total / float64(p.Appearances)
}

// Ranker scores players with a feature weight vector.
type Ranker struct {
	tables TableReader
}

func NewRanker(tables TableReader) *Ranker {
	return &Ranker{tables: tables}
}

// Rank scores every player row of every stored match table of category as
// the weighted sum of its values. Columns without a weight and missing
// values contribute nothing. Scores are sorted by total, highest first.
func (r *Ranker) Rank(ctx context.Context, sched *season.Schedule, category stattable.Category, weights map[string]float64) ([]PlayerScore, error) {
	acc := make(map[string]*PlayerScore)
	var order []string

	for _, m := range sched.Matches {
		t, err := r.tables.Get(ctx, m.Game, category)
		if errors.Is(err, stattable.ErrTableNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("rank %s for game %q: %w", category.Name(), m.Game, err)
		}
		for _, row := range t.Rows {
			ps, ok := acc[row.Player]
			if !ok {
				ps = &PlayerScore{Player: row.Player}
				acc[row.Player] = ps
				order = append(order, row.Player)
			}
			ps.Total += Score(t.Columns, row.Values, weights)
			ps.Appearances++
		}
	}

	out := make([]PlayerScore, 0, len(order))
	for _, name := range order {
		out = append(out, *acc[name])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total > out[j].Total })

	telemetry.Debugf("ranked %d players on %s", len(out), category.Name())
	return out, nil
}

// Score is Σ weight·value over the weighted, non-missing columns.
func Score(columns []string, values []float64, weights map[string]float64) float64 {
	var s float64
	for j, c := range columns {
		w, ok := weights[c]
		if !ok || math.IsNaN(values[j]) {
			continue
		}
		s += w * values[j]
	}
	return s
}

// Top returns at most n leading scores.
func Top(scores []PlayerScore, n int) []PlayerScore {
	if n < 0 {
		n = 0
	}
	if n > len(scores) {
		n = len(scores)
	}
	return scores[:n]
}
