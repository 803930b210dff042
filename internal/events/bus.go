package events

import (
	"context"
	"log/slog"
	"sync"
)

// Handler consumes a single event. Errors are logged at the bus boundary and
// never reach the publisher or sibling handlers.
type Handler func(ctx context.Context, event Event) error

// Bus is a single-process publish/subscribe channel. Publishing does not block
// on handler completion: each event is dispatched on its own goroutine, which
// walks the handlers for that event's kind in registration order.
type Bus struct {
	logger   *slog.Logger
	mu       sync.RWMutex
	handlers map[Kind][]Handler
	wg       sync.WaitGroup
}

// NewBus creates a new event bus
func NewBus(logger *slog.Logger) *Bus {
	return &Bus{
		logger:   logger,
		handlers: make(map[Kind][]Handler),
	}
}

// Subscribe registers a handler for an event kind
func (b *Bus) Subscribe(kind Kind, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[kind] = append(b.handlers[kind], handler)
}

// Publish dispatches the event to every handler registered for its kind.
// Dispatch is detached from the publisher's cancellation so in-flight side
// effects survive the originating request.
func (b *Bus) Publish(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := b.handlers[event.Kind()]
	b.mu.RUnlock()

	if len(handlers) == 0 {
		b.logger.Debug("No subscribers for event",
			slog.String("kind", string(event.Kind())),
		)
		return
	}

	dispatchCtx := context.WithoutCancel(ctx)

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()

		for i, handler := range handlers {
			b.dispatch(dispatchCtx, event, handler, i)
		}
	}()
}

// dispatch invokes one handler, containing panics and logging failures
func (b *Bus) dispatch(ctx context.Context, event Event, handler Handler, index int) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Event handler panicked",
				slog.String("kind", string(event.Kind())),
				slog.Int("handler_index", index),
				slog.Any("panic", r),
			)
		}
	}()

	if err := handler(ctx, event); err != nil {
		b.logger.Error("Event handler failed",
			slog.String("kind", string(event.Kind())),
			slog.Int("handler_index", index),
			slog.Any("error", err),
		)
	}
}

// Wait blocks until all in-flight dispatches have finished
func (b *Bus) Wait() {
	b.wg.Wait()
}
