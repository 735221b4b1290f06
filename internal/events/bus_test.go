package events

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBusDispatchesInOrder(t *testing.T) {
	bus := NewBus()
	var got []string
	bus.Subscribe(EventMatchStored, func(Event) error {
		got = append(got, "first")
		return errors.New("ignored")
	})
	bus.Subscribe(EventMatchStored, func(Event) error {
		got = append(got, "second")
		return nil
	})
	bus.Subscribe(EventSeasonDone, func(Event) error {
		got = append(got, "other")
		return nil
	})

	bus.Publish(Event{Type: EventMatchStored})
	assert.Equal(t, []string{"first", "second"}, got)
}

func TestNilBusDropsEvents(t *testing.T) {
	var bus *Bus
	assert.NotPanics(t, func() { bus.Publish(Event{Type: EventSeasonDone}) })
}
