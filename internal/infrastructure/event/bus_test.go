package event

import (
	"context"
	"errors"
	"testing"

	"github.com/erp/stockcore/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryEventBus_PublishToSubscriber(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	require.NoError(t, bus.Start(context.Background()))
	defer bus.Stop(context.Background())

	handler := testutil.NewMockEventHandler("stock.movement.recorded")
	bus.Subscribe(handler)

	event := testutil.NewTestEvent("stock.movement.recorded")
	require.NoError(t, bus.Publish(context.Background(), event))

	require.Equal(t, 1, handler.HandledCount())
	assert.Equal(t, event.EventID(), handler.Handled()[0].EventID())
}

func TestInMemoryEventBus_TypeFiltering(t *testing.T) {
	bus := NewInMemoryEventBus(nil)

	movements := testutil.NewMockEventHandler("stock.movement.recorded")
	transfers := testutil.NewMockEventHandler("transfer.shipped")
	bus.Subscribe(movements)
	bus.Subscribe(transfers)

	require.NoError(t, bus.Publish(context.Background(), testutil.NewTestEvent("transfer.shipped")))

	assert.Equal(t, 0, movements.HandledCount())
	assert.Equal(t, 1, transfers.HandledCount())
}

func TestInMemoryEventBus_WildcardSubscriber(t *testing.T) {
	bus := NewInMemoryEventBus(nil)

	// No event types: the handler receives everything
	audit := testutil.NewMockEventHandler()
	bus.Subscribe(audit)

	require.NoError(t, bus.Publish(context.Background(),
		testutil.NewTestEvent("stock.movement.recorded"),
		testutil.NewTestEvent("transfer.completed"),
	))

	assert.Equal(t, 2, audit.HandledCount())
}

func TestInMemoryEventBus_HandlerErrorDoesNotFailPublish(t *testing.T) {
	bus := NewInMemoryEventBus(nil)

	failing := testutil.NewMockEventHandler("transfer.created")
	failing.SetError(errors.New("handler broke"))
	healthy := testutil.NewMockEventHandler("transfer.created")
	bus.Subscribe(failing)
	bus.Subscribe(healthy)

	err := bus.Publish(context.Background(), testutil.NewTestEvent("transfer.created"))
	assert.NoError(t, err, "a failing handler never fails the publish")
	assert.Equal(t, 1, healthy.HandledCount())
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(nil)

	handler := testutil.NewMockEventHandler("transfer.created")
	bus.Subscribe(handler)
	bus.Unsubscribe(handler)

	require.NoError(t, bus.Publish(context.Background(), testutil.NewTestEvent("transfer.created")))
	assert.Equal(t, 0, handler.HandledCount())
}

func TestHandlerRegistry(t *testing.T) {
	registry := NewHandlerRegistry()

	typed := testutil.NewMockEventHandler("a")
	wildcard := testutil.NewMockEventHandler()
	registry.Register(typed, "a")
	registry.Register(wildcard)

	assert.Len(t, registry.GetHandlers("a"), 2)
	assert.Len(t, registry.GetHandlers("b"), 1, "wildcard handlers receive every type")

	registry.Unregister(typed)
	assert.Len(t, registry.GetHandlers("a"), 1)

	registry.Unregister(wildcard)
	assert.Empty(t, registry.GetHandlers("a"))
}

func TestAuditLogHandler_AcceptsAllEvents(t *testing.T) {
	handler := NewAuditLogHandler(nil)
	assert.Nil(t, handler.EventTypes())
	assert.NoError(t, handler.Handle(context.Background(), testutil.NewTestEvent("anything")))
}
