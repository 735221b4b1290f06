package events

import "time"

// Event is the envelope that flows through the event bus.
// Every pipeline progress notification is wrapped in one.
type Event struct {
	ID        string
	Type      EventType
	RunID     string
	Team      string
	MatchID   string
	Timestamp time.Time
	Payload   any
}

type EventType string

const (
	// Season aggregation progress
	EventMatchStored EventType = "match_stored"
	EventMatchFailed EventType = "match_failed"
	EventSeasonDone  EventType = "season_done"
)

// AllTypes lists every event type, in publication order within a run.
var AllTypes = []EventType{EventMatchStored, EventMatchFailed, EventSeasonDone}
