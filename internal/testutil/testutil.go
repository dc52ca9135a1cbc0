// Package testutil provides testing utilities for twentyq tests.
package testutil

import (
	"context"
	"sync"
	"testing"

	"github.com/Iron-Ham/twentyq/internal/event"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// NewTracerProvider returns a tracer provider that records every ended span.
// The provider is shut down when the test completes.
func NewTracerProvider(t *testing.T) (*sdktrace.TracerProvider, *tracetest.SpanRecorder) {
	t.Helper()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			t.Errorf("failed to shut down tracer provider: %v", err)
		}
	})
	return tp, recorder
}

// SpanNames returns the names of the ended spans in the order they ended.
func SpanNames(recorder *tracetest.SpanRecorder) []string {
	spans := recorder.Ended()
	names := make([]string, len(spans))
	for i, s := range spans {
		names[i] = s.Name()
	}
	return names
}

// SpanAttribute returns the string value of key on span, or "" if unset.
func SpanAttribute(span sdktrace.ReadOnlySpan, key string) string {
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			return kv.Value.Emit()
		}
	}
	return ""
}

// EventRecorder collects every event published on a bus. It is safe for
// handlers running on several goroutines.
type EventRecorder struct {
	mu     sync.Mutex
	events []event.Event
}

// RecordEvents subscribes a recorder to all events on bus and unsubscribes
// it when the test completes.
func RecordEvents(t *testing.T, bus *event.Bus) *EventRecorder {
	t.Helper()

	r := &EventRecorder{}
	id := bus.SubscribeAll(func(e event.Event) {
		r.mu.Lock()
		r.events = append(r.events, e)
		r.mu.Unlock()
	})
	t.Cleanup(func() { bus.Unsubscribe(id) })
	return r
}

// Events returns a copy of the recorded events.
func (r *EventRecorder) Events() []event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]event.Event(nil), r.events...)
}

// Types returns the recorded event types in publish order.
func (r *EventRecorder) Types() []string {
	events := r.Events()
	types := make([]string, len(events))
	for i, e := range events {
		types[i] = e.EventType()
	}
	return types
}

// OfType returns the recorded events of the given type.
func (r *EventRecorder) OfType(eventType string) []event.Event {
	var out []event.Event
	for _, e := range r.Events() {
		if e.EventType() == eventType {
			out = append(out, e)
		}
	}
	return out
}
