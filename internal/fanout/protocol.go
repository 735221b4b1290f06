package fanout

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/charleschow/squad-weights/internal/events"
)

// Envelope is the wire format for events sent over the fanout WebSocket.
type Envelope struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	RunID     string          `json:"run_id,omitempty"`
	Team      string          `json:"team,omitempty"`
	MatchID   string          `json:"match_id,omitempty"`
	Timestamp time.Time       `json:"ts"`
	Payload   json.RawMessage `json:"payload"`
}

// MarshalEvent serializes an Event into a JSON-encoded Envelope.
func MarshalEvent(evt events.Event) ([]byte, error) {
	payload, err := json.Marshal(evt.Payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	env := Envelope{
		Type:      string(evt.Type),
		ID:        evt.ID,
		RunID:     evt.RunID,
		Team:      evt.Team,
		MatchID:   evt.MatchID,
		Timestamp: evt.Timestamp,
		Payload:   payload,
	}
	return json.Marshal(env)
}

// UnmarshalEvent deserializes a JSON Envelope back into a typed Event.
func UnmarshalEvent(data []byte) (events.Event, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return events.Event{}, fmt.Errorf("unmarshal envelope: %w", err)
	}

	evt := events.Event{
		ID:        env.ID,
		Type:      events.EventType(env.Type),
		RunID:     env.RunID,
		Team:      env.Team,
		MatchID:   env.MatchID,
		Timestamp: env.Timestamp,
	}

	switch evt.Type {
	case events.EventMatchStored:
		var ms events.MatchStoredEvent
		if err := json.Unmarshal(env.Payload, &ms); err != nil {
			return evt, fmt.Errorf("unmarshal match_stored: %w", err)
		}
		evt.Payload = ms
	case events.EventMatchFailed:
		var mf events.MatchFailedEvent
		if err := json.Unmarshal(env.Payload, &mf); err != nil {
			return evt, fmt.Errorf("unmarshal match_failed: %w", err)
		}
		evt.Payload = mf
	case events.EventSeasonDone:
		var sd events.SeasonDoneEvent
		if err := json.Unmarshal(env.Payload, &sd); err != nil {
			return evt, fmt.Errorf("unmarshal season_done: %w", err)
		}
		evt.Payload = sd
	default:
		return evt, fmt.Errorf("unknown event type: %s", env.Type)
	}

	return evt, nil
}
