package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherRunsAllHandlers(t *testing.T) {
	d := NewInMemoryDispatcher()
	var calls []string

	d.Subscribe(EventEmployeeRegistered, func(_ context.Context, e Event) error {
		calls = append(calls, "first:"+e.UID)
		return errors.New("mail relay down")
	})
	d.Subscribe(EventEmployeeRegistered, func(_ context.Context, e Event) error {
		calls = append(calls, "second:"+e.UID)
		return nil
	})
	d.Subscribe(EventEmployeeDeleted, func(context.Context, Event) error {
		calls = append(calls, "deleted")
		return nil
	})

	err := d.Publish(context.Background(), NewEvent(EventEmployeeRegistered, "u1", nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mail relay down")
	assert.Equal(t, []string{"first:u1", "second:u1"}, calls)
}

func TestDispatcherWithoutListeners(t *testing.T) {
	d := NewInMemoryDispatcher()
	assert.NoError(t, d.Publish(context.Background(), NewEvent(EventOrphanDetected, "u1", nil)))
}
