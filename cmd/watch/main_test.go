package main

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/charleschow/squad-weights/internal/events"
	"github.com/charleschow/squad-weights/internal/telemetry"
)

func TestSubscribeSkipsUnexpectedPayloads(t *testing.T) {
	var buf bytes.Buffer
	telemetry.InitWriter(&buf, slog.LevelInfo)
	defer telemetry.Init(slog.LevelInfo)

	bus := events.NewBus()
	subscribe(bus)

	assert.NotPanics(t, func() {
		bus.Publish(events.Event{Type: events.EventMatchStored, Payload: &events.MatchStoredEvent{Key: "g1"}})
		bus.Publish(events.Event{Type: events.EventMatchFailed, Payload: "oops"})
		bus.Publish(events.Event{Type: events.EventSeasonDone})
	})
	assert.Empty(t, buf.String())

	bus.Publish(events.Event{Type: events.EventMatchFailed, Team: "Arsenal",
		Payload: events.MatchFailedEvent{MatchID: "m1", Reason: "no lineup"}})
	assert.Contains(t, buf.String(), "skipped m1: no lineup")
}
