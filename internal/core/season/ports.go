package season

import (
	"context"

	"github.com/charleschow/squad-weights/internal/core/matchstats"
	"github.com/charleschow/squad-weights/internal/core/stattable"
)

// ScheduleSource fetches the raw season schedule as header + rows.
// Satisfied by *fbref.Client.
type ScheduleSource interface {
	ScheduleRecords(ctx context.Context) ([][]string, error)
}

// MatchBuilder produces the normalized tables of one match.
// Satisfied by *matchstats.Builder.
type MatchBuilder interface {
	Build(ctx context.Context, matchID string) (*matchstats.MatchStats, error)
}

// TableWriter persists a category table under a match storage key.
// Satisfied by the stores in internal/store.
type TableWriter interface {
	Put(ctx context.Context, key string, category stattable.Category, t *stattable.Table) error
}
