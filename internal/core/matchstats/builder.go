package matchstats

import (
	"context"
	"errors"
	"fmt"

	"github.com/charleschow/squad-weights/internal/core/roster"
	"github.com/charleschow/squad-weights/internal/core/stattable"
	"github.com/charleschow/squad-weights/internal/telemetry"
)

// categoryRole is the primary role whose players feed each category.
// Cross-category signal (a defender's passing) is not captured.
var categoryRole = map[stattable.Category]roster.Role{
	stattable.Keepers:   roster.Goalkeeper,
	stattable.Defense:   roster.Defender,
	stattable.Passing:   roster.Midfielder,
	stattable.Attacking: roster.Attacker,
}

// RoleFor returns the role bucket a category is filtered against.
func RoleFor(c stattable.Category) roster.Role { return categoryRole[c] }

// MatchStats is the normalized output for one match.
type MatchStats struct {
	MatchID string
	Key     string // season-unique game slug, used as storage key
	Tables  map[stattable.Category]*stattable.Table
}

// Builder produces the four category tables of a match for one team.
type Builder struct {
	extractor *roster.Extractor
	stats     StatsSource
	team      string
}

func NewBuilder(lineups roster.LineupSource, stats StatsSource, team string) *Builder {
	return &Builder{
		extractor: roster.NewExtractor(lineups),
		stats:     stats,
		team:      team,
	}
}

// Build fetches and normalizes every category for matchID. A missing
// lineup degrades to empty tables; missing stats fail the match with
// stattable.ErrMissingMatchData.
func (b *Builder) Build(ctx context.Context, matchID string) (*MatchStats, error) {
	starters, err := b.extractor.Extract(ctx, matchID, b.team)
	if err != nil {
		if !errors.Is(err, stattable.ErrMissingMatchData) {
			return nil, err
		}
		telemetry.Warnf("match %s: %v (continuing with empty roster)", matchID, err)
	}

	raws := make(map[stattable.Category]*stattable.RawTable, len(stattable.Categories))
	for _, cat := range stattable.Categories {
		raw, err := b.stats.PlayerStats(ctx, matchID, cat)
		if err != nil {
			if errors.Is(err, stattable.ErrSchemaDrift) || ctx.Err() != nil {
				return nil, fmt.Errorf("match %s %s: %w", matchID, cat.SourceName(), err)
			}
			return nil, fmt.Errorf("match %s %s: %w: %w", matchID, cat.SourceName(), stattable.ErrMissingMatchData, err)
		}
		raws[cat] = raw
	}

	key := storageKey(raws)
	if key == "" {
		return nil, fmt.Errorf("match %s: no player rows in any category: %w", matchID, stattable.ErrMissingMatchData)
	}

	out := &MatchStats{
		MatchID: matchID,
		Key:     key,
		Tables:  make(map[stattable.Category]*stattable.Table, len(raws)),
	}
	for _, cat := range stattable.Categories {
		t, err := stattable.Normalize(raws[cat], starters.Bucket(categoryRole[cat]))
		if err != nil {
			return nil, fmt.Errorf("match %s %s: %w", matchID, cat.Name(), err)
		}
		out.Tables[cat] = t
	}

	telemetry.Debugf("match %s -> %s: keepers=%d defense=%d passing=%d attacking=%d",
		matchID, key,
		len(out.Tables[stattable.Keepers].Rows), len(out.Tables[stattable.Defense].Rows),
		len(out.Tables[stattable.Passing].Rows), len(out.Tables[stattable.Attacking].Rows))
	return out, nil
}

// storageKey reads the game level of the first raw row, preferring the
// keepers table.
func storageKey(raws map[stattable.Category]*stattable.RawTable) string {
	for _, cat := range stattable.Categories {
		raw := raws[cat]
		if raw == nil {
			continue
		}
		for _, r := range raw.Rows {
			if r.Key.Game != "" {
				return r.Key.Game
			}
		}
	}
	return ""
}
