package events

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/praedium/internal/interfaces"
)

// TestNewLoggerSubscriber verifies that the logger subscriber logs events
func TestNewLoggerSubscriber(t *testing.T) {
	logger := arbor.NewLogger()
	subscriber := NewLoggerSubscriber(logger)

	ctx := context.Background()
	event := interfaces.Event{
		Type: interfaces.EventWorkerCompleted,
		Payload: map[string]interface{}{
			"job_id": "job-123",
			"worker": "normalize_geocode",
			"status": "success",
		},
	}

	if err := subscriber(ctx, event); err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}

	// Event without payload must not panic
	event2 := interfaces.Event{
		Type:    interfaces.EventJobStatusChange,
		Payload: nil,
	}
	if err := subscriber(ctx, event2); err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}
}

// TestSubscribeLoggerToAllEvents verifies logger is subscribed to all event types
func TestSubscribeLoggerToAllEvents(t *testing.T) {
	logger := arbor.NewLogger()
	eventService := NewService(logger)
	defer eventService.Close()

	if err := SubscribeLoggerToAllEvents(eventService, logger); err != nil {
		t.Fatalf("Failed to subscribe logger: %v", err)
	}

	ctx := context.Background()
	eventTypes := []interfaces.EventType{
		interfaces.EventJobStatusChange,
		interfaces.EventWorkerStarted,
		interfaces.EventWorkerCompleted,
		interfaces.EventJobCompleted,
	}

	for _, eventType := range eventTypes {
		event := interfaces.Event{
			Type:    eventType,
			Payload: map[string]interface{}{"job_id": "job-1"},
		}
		if err := eventService.PublishSync(ctx, event); err != nil {
			t.Errorf("Expected no error publishing %s event, got: %v", eventType, err)
		}
	}
}

// TestLoggerSubscriberDoesNotInterfere verifies logger subscriber doesn't interfere with other handlers
func TestLoggerSubscriberDoesNotInterfere(t *testing.T) {
	logger := arbor.NewLogger()
	eventService := NewService(logger)
	defer eventService.Close()

	if err := SubscribeLoggerToAllEvents(eventService, logger); err != nil {
		t.Fatalf("Failed to subscribe logger: %v", err)
	}

	var callCount atomic.Int64
	customHandler := func(ctx context.Context, event interfaces.Event) error {
		callCount.Add(1)
		return nil
	}

	if err := eventService.Subscribe(interfaces.EventWorkerStarted, customHandler); err != nil {
		t.Fatalf("Failed to subscribe custom handler: %v", err)
	}

	ctx := context.Background()
	event := interfaces.Event{
		Type: interfaces.EventWorkerStarted,
		Payload: map[string]interface{}{
			"job_id": "job-1",
			"worker": "comps_sales",
		},
	}

	if err := eventService.PublishSync(ctx, event); err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}

	if got := callCount.Load(); got != 1 {
		t.Errorf("Expected custom handler to be called once, got: %d", got)
	}
}

// TestUnsubscribe verifies a removed handler no longer receives events
func TestUnsubscribe(t *testing.T) {
	logger := arbor.NewLogger()
	eventService := NewService(logger)
	defer eventService.Close()

	var callCount atomic.Int64
	handler := func(ctx context.Context, event interfaces.Event) error {
		callCount.Add(1)
		return nil
	}

	if err := eventService.Subscribe(interfaces.EventJobCompleted, handler); err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	if err := eventService.Unsubscribe(interfaces.EventJobCompleted, handler); err != nil {
		t.Fatalf("Failed to unsubscribe: %v", err)
	}

	ctx := context.Background()
	event := interfaces.Event{Type: interfaces.EventJobCompleted}
	if err := eventService.PublishSync(ctx, event); err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}

	if got := callCount.Load(); got != 0 {
		t.Errorf("Expected no calls after unsubscribe, got: %d", got)
	}
}
