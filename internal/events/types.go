package events

// MatchStoredEvent is published after all four category tables of a match
// have been persisted.
type MatchStoredEvent struct {
	MatchID string `json:"match_id"`
	Key     string `json:"key"`

	// Player rows per persisted table, e.g. {"defense_stats": 4}.
	Rows map[string]int `json:"rows"`
}

// MatchFailedEvent is published when a match is skipped because its
// lineup or statistics could not be obtained.
type MatchFailedEvent struct {
	MatchID string `json:"match_id"`
	Reason  string `json:"reason"`
}

// SeasonDoneEvent closes a season run.
type SeasonDoneEvent struct {
	Matches int `json:"matches"`
	Stored  int `json:"stored"`
	Failed  int `json:"failed"`
}
