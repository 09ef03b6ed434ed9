package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sglre6355/sgrmusic/internal/modules/music/application/ports"
	"github.com/sglre6355/sgrmusic/internal/modules/music/domain"
)

// DefaultEventBufferSize is the default buffer size for the event channel.
const DefaultEventBufferSize = 100

var (
	// ErrEventBusClosed is returned when publishing to a closed bus.
	ErrEventBusClosed = errors.New("event bus is closed")
	// ErrEventBufferFull is returned when the event buffer cannot take more events.
	ErrEventBufferFull = errors.New("event buffer full")
)

// Compile-time checks that ChannelEventBus implements ports interfaces.
var (
	_ ports.EventPublisher  = (*ChannelEventBus)(nil)
	_ ports.EventSubscriber = (*ChannelEventBus)(nil)
)

// ChannelEventBus delivers playback events to subscribers on a single
// dispatcher goroutine, so handlers see events in publish order and never run
// on the goroutine that published them.
type ChannelEventBus struct {
	events   chan domain.Event
	handlers []func(context.Context, domain.Event)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool
	mu     sync.RWMutex
}

// NewChannelEventBus creates a new ChannelEventBus with the given buffer size.
func NewChannelEventBus(bufferSize int) *ChannelEventBus {
	if bufferSize <= 0 {
		bufferSize = DefaultEventBufferSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	bus := &ChannelEventBus{
		events: make(chan domain.Event, bufferSize),
		ctx:    ctx,
		cancel: cancel,
	}

	bus.wg.Add(1)
	go bus.dispatch()

	return bus
}

func (b *ChannelEventBus) dispatch() {
	defer b.wg.Done()
	for {
		select {
		case <-b.ctx.Done():
			return
		case event, ok := <-b.events:
			if !ok {
				return
			}
			b.mu.RLock()
			handlers := b.handlers
			b.mu.RUnlock()
			for _, handler := range handlers {
				b.invoke(handler, event)
			}
		}
	}
}

func (b *ChannelEventBus) invoke(handler func(context.Context, domain.Event), event domain.Event) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic in event handler",
				"guild", event.EventGuildID(), "type", fmt.Sprintf("%T", event), "panic", r)
		}
	}()
	handler(b.ctx, event)
}

// Publish queues an event for delivery.
// Non-blocking: if the buffer is full, the event is dropped with a warning.
func (b *ChannelEventBus) Publish(event domain.Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		slog.Warn("attempted to publish to closed event bus", "type", fmt.Sprintf("%T", event))
		return ErrEventBusClosed
	}

	select {
	case b.events <- event:
		slog.Debug("published event", "type", fmt.Sprintf("%T", event), "guild", event.EventGuildID())
		return nil
	default:
		slog.Warn("event buffer full, dropping event", "type", fmt.Sprintf("%T", event))
		return ErrEventBufferFull
	}
}

// Subscribe registers a handler for every event.
func (b *ChannelEventBus) Subscribe(handler func(context.Context, domain.Event)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, handler)
}

// Close stops the dispatcher. Events still buffered are discarded.
func (b *ChannelEventBus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.mu.Unlock()

	b.cancel()
	close(b.events)
	b.wg.Wait()

	slog.Debug("channel event bus closed")
}
