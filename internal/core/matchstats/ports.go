package matchstats

import (
	"context"

	"github.com/charleschow/squad-weights/internal/core/stattable"
)

// StatsSource fetches one raw per-player statistic table of a match.
// Satisfied by *fbref.Client.
type StatsSource interface {
	PlayerStats(ctx context.Context, matchID string, category stattable.Category) (*stattable.RawTable, error)
}
