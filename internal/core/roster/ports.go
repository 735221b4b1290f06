package roster

import "context"

// Entry is one lineup row for a match.
type Entry struct {
	Team      string
	Player    string
	Position  string
	IsStarter bool
}

// LineupSource fetches the full lineup listing of a match.
// Satisfied by *fbref.Client.
type LineupSource interface {
	Lineup(ctx context.Context, matchID string) ([]Entry, error)
}
