package sync

import (
	"context"
	"errors"
	"sync"

	"github.com/edukit/versioned-cache/types"
)

// ErrHubClosed is returned when publishing on a closed hub.
var ErrHubClosed = errors.New("invalidation hub is closed")

// MemoryHub is an in-process pub/sub substrate. Buses attached to the
// same hub see each other's events, which makes the hub a faithful
// stand-in for the Redis channel in tests and single-node deployments.
type MemoryHub struct {
	mu     sync.Mutex
	buses  []*MemoryBus
	closed bool
}

// NewMemoryHub creates an empty hub.
func NewMemoryHub() *MemoryHub {
	return &MemoryHub{}
}

// Bus attaches a new bus for one simulated process.
func (h *MemoryHub) Bus(processID string) *MemoryBus {
	bus := &MemoryBus{
		hub:       h,
		processID: processID,
		done:      make(chan struct{}),
	}

	h.mu.Lock()
	h.buses = append(h.buses, bus)
	h.mu.Unlock()
	return bus
}

func (h *MemoryHub) broadcast(event types.InvalidationEvent) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return ErrHubClosed
	}
	buses := make([]*MemoryBus, len(h.buses))
	copy(buses, h.buses)
	h.mu.Unlock()

	for _, bus := range buses {
		bus.deliver(event)
	}
	return nil
}

// Close marks the hub closed. Attached buses are closed individually by
// their owners.
func (h *MemoryHub) Close() {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()
}

// MemoryBus is one process's connection to a MemoryHub. Delivery
// semantics mirror PubSubBus: self-origin events are suppressed and
// handlers consume from bounded queues asynchronously.
type MemoryBus struct {
	hub       *MemoryHub
	processID string

	mu       sync.Mutex
	queues   []chan types.InvalidationEvent
	started  bool
	closed   bool

	done chan struct{}
	wg   sync.WaitGroup
}

// Subscribe starts delivering events to registered handlers.
func (mb *MemoryBus) Subscribe(context.Context) error {
	mb.mu.Lock()
	mb.started = true
	mb.mu.Unlock()
	return nil
}

// Publish broadcasts an event to every bus on the hub, including remote
// simulated processes.
func (mb *MemoryBus) Publish(_ context.Context, event types.InvalidationEvent) error {
	return mb.hub.broadcast(event)
}

// OnEvent registers a handler with its own bounded queue and dispatch
// goroutine.
func (mb *MemoryBus) OnEvent(handler func(event types.InvalidationEvent)) {
	queue := make(chan types.InvalidationEvent, handlerQueueSize)

	mb.mu.Lock()
	mb.queues = append(mb.queues, queue)
	mb.mu.Unlock()

	mb.wg.Add(1)
	go func() {
		defer mb.wg.Done()
		for {
			select {
			case <-mb.done:
				return
			case event := <-queue:
				handler(event)
			}
		}
	}()
}

// Close stops dispatching.
func (mb *MemoryBus) Close() error {
	mb.mu.Lock()
	if mb.closed {
		mb.mu.Unlock()
		return nil
	}
	mb.closed = true
	mb.mu.Unlock()

	close(mb.done)
	mb.wg.Wait()
	return nil
}

func (mb *MemoryBus) deliver(event types.InvalidationEvent) {
	if event.OriginProcessID == mb.processID {
		return
	}

	mb.mu.Lock()
	if mb.closed || !mb.started {
		mb.mu.Unlock()
		return
	}
	queues := make([]chan types.InvalidationEvent, len(mb.queues))
	copy(queues, mb.queues)
	mb.mu.Unlock()

	for _, queue := range queues {
		select {
		case queue <- event:
		default:
		}
	}
}
