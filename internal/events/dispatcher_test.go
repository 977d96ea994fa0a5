package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherDeliversToSubscribers(t *testing.T) {
	dispatcher := NewInMemoryDispatcher()

	var received []Event
	dispatcher.Subscribe(EventWorkflowCreated, func(_ context.Context, event Event) error {
		received = append(received, event)
		return nil
	})
	dispatcher.Subscribe(EventWorkflowStatusChanged, func(_ context.Context, event Event) error {
		t.Fatal("handler for another event type should not run")
		return nil
	})

	err := dispatcher.Publish(context.Background(), Event{ID: "e1", Type: EventWorkflowCreated, WorkflowID: "w1"})
	require.NoError(t, err)
	require.Len(t, received, 1)
	assert.Equal(t, "w1", received[0].WorkflowID)
}

func TestDispatcherSwallowsHandlerErrors(t *testing.T) {
	dispatcher := NewInMemoryDispatcher()

	calls := 0
	dispatcher.Subscribe(EventUserCreated, func(context.Context, Event) error {
		calls++
		return errors.New("handler failure")
	})
	dispatcher.Subscribe(EventUserCreated, func(context.Context, Event) error {
		calls++
		return nil
	})

	err := dispatcher.Publish(context.Background(), Event{Type: EventUserCreated})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestDispatcherNoSubscribers(t *testing.T) {
	dispatcher := NewInMemoryDispatcher()
	assert.NoError(t, dispatcher.Publish(context.Background(), Event{Type: EventWorkflowAssigned}))
}
