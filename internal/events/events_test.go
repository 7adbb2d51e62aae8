package events

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus_PublishJSON(t *testing.T) {
	bus := NewEventBus()

	var received []ReservationEventPayload
	bus.Subscribe(EventReservationBooked, func(e *Event) error {
		var p ReservationEventPayload
		require.NoError(t, json.Unmarshal(e.Payload, &p))
		received = append(received, p)
		return nil
	})

	payload := ReservationEventPayload{ReservationID: 7, FirstName: "Rick", People: 4, Status: "booked"}
	require.NoError(t, bus.PublishJSON(EventReservationBooked, payload))

	require.Len(t, received, 1)
	assert.Equal(t, int64(7), received[0].ReservationID)
	assert.Equal(t, "Rick", received[0].FirstName)
}

func TestEventBus_TypeIsolation(t *testing.T) {
	bus := NewEventBus()

	var booked, cancelled int
	bus.Subscribe(EventReservationBooked, func(e *Event) error { booked++; return nil })
	bus.Subscribe(EventReservationCancelled, func(e *Event) error { cancelled++; return nil })

	require.NoError(t, bus.PublishJSON(EventReservationBooked, ReservationEventPayload{ReservationID: 1}))
	assert.Equal(t, 1, booked)
	assert.Equal(t, 0, cancelled)
}

func TestEventBus_HandlerErrorDoesNotStopOthers(t *testing.T) {
	bus := NewEventBus()

	var second bool
	bus.Subscribe(EventReservationSeated, func(e *Event) error { return errors.New("boom") })
	bus.Subscribe(EventReservationSeated, func(e *Event) error { second = true; return nil })

	require.NoError(t, bus.PublishJSON(EventReservationSeated, ReservationEventPayload{ReservationID: 1}))
	assert.True(t, second)
}

func TestEventBus_NilReceiver(t *testing.T) {
	var bus *EventBus
	assert.NoError(t, bus.PublishJSON(EventReservationBooked, nil))
}
