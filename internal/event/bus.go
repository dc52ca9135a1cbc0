package event

import (
	"fmt"
	"runtime/debug"
	"slices"
	"sync"

	"github.com/Iron-Ham/twentyq/internal/logging"
	"github.com/google/uuid"
)

// Handler is a function that handles an event.
type Handler func(Event)

type subscriber struct {
	id      string
	handler Handler
}

// Bus delivers game events synchronously to subscribers. The game manager
// and the question sources publish; the transcript printer, the websocket
// stream and test recorders subscribe. Publish returns only after every
// handler has run, so subscribers observe a game's events in order.
type Bus struct {
	mu     sync.RWMutex
	byType map[string][]subscriber
	all    []subscriber
	logger *logging.Logger
}

// NewBus creates an empty bus. Handler panics are recovered and logged to
// logger; nil discards them.
func NewBus(logger *logging.Logger) *Bus {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Bus{
		byType: make(map[string][]subscriber),
		logger: logger,
	}
}

// Subscribe calls handler for every event of eventType and returns an ID
// for Unsubscribe.
func (b *Bus) Subscribe(eventType string, handler Handler) string {
	s := subscriber{id: uuid.NewString(), handler: handler}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.byType[eventType] = append(b.byType[eventType], s)
	return s.id
}

// SubscribeAll calls handler for every event. Such handlers run after the
// ones subscribed to the specific type.
func (b *Bus) SubscribeAll(handler Handler) string {
	s := subscriber{id: uuid.NewString(), handler: handler}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.all = append(b.all, s)
	return s.id
}

// Unsubscribe removes the subscription with id and reports whether it
// existed.
func (b *Bus) Unsubscribe(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	match := func(s subscriber) bool { return s.id == id }
	if i := slices.IndexFunc(b.all, match); i >= 0 {
		b.all = slices.Delete(slices.Clone(b.all), i, i+1)
		return true
	}
	for eventType, subs := range b.byType {
		if i := slices.IndexFunc(subs, match); i >= 0 {
			b.byType[eventType] = slices.Delete(slices.Clone(subs), i, i+1)
			return true
		}
	}
	return false
}

// Publish runs the handlers for e in subscription order. A panicking
// handler is logged and skipped; the others still run.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	// Slices are replaced, never mutated in place, so these stay valid
	// after the lock is released.
	direct, all := b.byType[e.EventType()], b.all
	b.mu.RUnlock()

	for _, s := range direct {
		b.deliver(s, e)
	}
	for _, s := range all {
		b.deliver(s, e)
	}
}

func (b *Bus) deliver(s subscriber, e Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				"event", e.EventType(),
				"subscription", s.id,
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			)
		}
	}()
	s.handler(e)
}

// size returns the number of live subscriptions.
func (b *Bus) size() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	n := len(b.all)
	for _, subs := range b.byType {
		n += len(subs)
	}
	return n
}
