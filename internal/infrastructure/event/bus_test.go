package event

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/autodealer/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type testEvent struct {
	shared.BaseDomainEvent
	Data string `json:"data"`
}

func newTestEvent(eventType string) *testEvent {
	return &testEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "TestAggregate", uuid.New()),
		Data:            "payload",
	}
}

type testHandler struct {
	mu         sync.Mutex
	eventTypes []string
	handled    []shared.DomainEvent
	err        error
	panics     bool
}

func (h *testHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, event)
	if h.panics {
		panic("boom")
	}
	return h.err
}

func (h *testHandler) EventTypes() []string { return h.eventTypes }

func (h *testHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handled)
}

func TestInMemoryEventBus_RoutesByType(t *testing.T) {
	bus := NewInMemoryEventBus(zaptest.NewLogger(t))
	issued := &testHandler{}
	cancelled := &testHandler{}
	all := &testHandler{}
	bus.Subscribe(issued, "DocumentIssued")
	bus.Subscribe(cancelled, "DocumentCancelled")
	bus.Subscribe(all)

	require.NoError(t, bus.Publish(context.Background(),
		newTestEvent("DocumentIssued"),
		newTestEvent("DocumentIssued"),
		newTestEvent("DocumentVoided"),
	))

	assert.Equal(t, 2, issued.count())
	assert.Zero(t, cancelled.count())
	assert.Equal(t, 3, all.count())
}

func TestInMemoryEventBus_UsesHandlerEventTypes(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	h := &testHandler{eventTypes: []string{"DocumentFinalized"}}
	bus.Subscribe(h)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("DocumentIssued"), newTestEvent("DocumentFinalized")))
	assert.Equal(t, 1, h.count())
}

func TestInMemoryEventBus_FailingHandlersDoNotStopDelivery(t *testing.T) {
	bus := NewInMemoryEventBus(zaptest.NewLogger(t))
	failing := &testHandler{err: errors.New("disk full")}
	panicking := &testHandler{panics: true}
	healthy := &testHandler{}
	bus.Subscribe(failing, "DocumentIssued")
	bus.Subscribe(panicking, "DocumentIssued")
	bus.Subscribe(healthy, "DocumentIssued")

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("DocumentIssued")))
	assert.Equal(t, 1, failing.count())
	assert.Equal(t, 1, panicking.count())
	assert.Equal(t, 1, healthy.count())
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	h := &testHandler{}
	bus.Subscribe(h, "DocumentIssued", "DocumentCancelled")
	bus.Unsubscribe(h)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("DocumentIssued")))
	assert.Zero(t, h.count())
}

func TestInMemoryEventBus_NilEvent(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	assert.Error(t, bus.Publish(context.Background(), nil))
}
