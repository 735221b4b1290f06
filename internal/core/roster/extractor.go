package roster

import (
	"context"
	"fmt"

	"github.com/charleschow/squad-weights/internal/core/names"
	"github.com/charleschow/squad-weights/internal/core/stattable"
	"github.com/charleschow/squad-weights/internal/telemetry"
)

// Roster holds one team's starters of one match, bucketed by role.
// A player appears in at most one bucket.
type Roster map[Role]stattable.Set

func NewRoster() Roster {
	r := make(Roster, len(Roles))
	for _, role := range Roles {
		r[role] = stattable.NewSet()
	}
	return r
}

// Bucket returns the players of role; never nil.
func (r Roster) Bucket(role Role) stattable.Set {
	if s, ok := r[role]; ok {
		return s
	}
	return stattable.NewSet()
}

// Size counts classified starters.
func (r Roster) Size() int {
	n := 0
	for _, s := range r {
		n += len(s)
	}
	return n
}

// Extractor builds rosters from a lineup source.
type Extractor struct {
	source LineupSource
}

func NewExtractor(source LineupSource) *Extractor {
	return &Extractor{source: source}
}

// Extract returns team's starters for matchID bucketed by role. When the
// lineup is unavailable it returns an empty roster together with an error
// wrapping stattable.ErrMissingMatchData.
func (e *Extractor) Extract(ctx context.Context, matchID, team string) (Roster, error) {
	out := NewRoster()

	entries, err := e.source.Lineup(ctx, matchID)
	if err != nil {
		return out, fmt.Errorf("lineup %s: %w: %w", matchID, stattable.ErrMissingMatchData, err)
	}

	seen := make(map[string]bool, len(entries))
	for _, entry := range entries {
		if !entry.IsStarter || !names.SameTeam(entry.Team, team) || seen[entry.Player] {
			continue
		}
		seen[entry.Player] = true
		role := Classify(entry.Position)
		if role == Unclassified {
			telemetry.Debugf("roster %s: %s (%q) unclassified, skipped", matchID, entry.Player, entry.Position)
			continue
		}
		out[role].Add(entry.Player)
	}
	return out, nil
}
