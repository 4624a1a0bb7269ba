package events

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublishDeliversToSubscribedTypes(t *testing.T) {
	bus := NewEventBus(nil)

	var got []string
	bus.Subscribe(func(e Event) error {
		got = append(got, e.Type)
		return errors.New("ignored")
	}, ReservationCreated, PaymentApproved)
	bus.Subscribe(func(e Event) error {
		got = append(got, "second:"+e.Type)
		return nil
	}, ReservationCreated)

	bus.Publish(Event{Type: ReservationCreated, ReservationID: 1})
	bus.Publish(Event{Type: PaymentConfirmed})
	bus.Publish(Event{Type: PaymentApproved})

	assert.Equal(t, []string{ReservationCreated, "second:" + ReservationCreated, PaymentApproved}, got)
}

func TestPublishStampsCreatedAt(t *testing.T) {
	bus := NewEventBus(nil)

	var ev Event
	bus.Subscribe(func(e Event) error { ev = e; return nil }, RoomsChanged)
	bus.Publish(Event{Type: RoomsChanged})

	assert.False(t, ev.CreatedAt.IsZero())
}
