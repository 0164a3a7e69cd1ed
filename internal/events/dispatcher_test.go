package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInMemoryDispatcher_DeliversToAllHandlers(t *testing.T) {
	d := NewInMemoryDispatcher()
	var calls []string

	d.Subscribe(EventStaffCreated, func(_ context.Context, e Event) error {
		calls = append(calls, "first")
		return errors.New("boom")
	})
	d.Subscribe(EventStaffCreated, func(_ context.Context, e Event) error {
		calls = append(calls, "second")
		return nil
	})
	d.Subscribe(EventStaffDeleted, func(_ context.Context, e Event) error {
		calls = append(calls, "other")
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventStaffCreated, StaffID: 1})
	assert.EqualError(t, err, "boom")
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestInMemoryDispatcher_NoListeners(t *testing.T) {
	d := NewInMemoryDispatcher()
	assert.NoError(t, d.Publish(context.Background(), Event{Type: EventStaffUpdated}))
}

func TestInMemoryDispatcher_RecoversPanics(t *testing.T) {
	d := NewInMemoryDispatcher()
	delivered := false
	d.Subscribe(EventStaffDeleted, func(context.Context, Event) error { panic("bad handler") })
	d.Subscribe(EventStaffDeleted, func(context.Context, Event) error {
		delivered = true
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventStaffDeleted})
	assert.EqualError(t, err, "staff_deleted handler panicked: bad handler")
	assert.True(t, delivered)
}
