// Package sync carries invalidation events between processes. The
// production bus rides on Redis pub/sub; an in-process hub backs tests
// and single-node deployments. Both suppress a process's own broadcasts
// and hand events to handlers through bounded queues owned by the bus,
// so a slow handler never stalls the receive loop.
package sync

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/edukit/versioned-cache/types"
)

// handlerQueueSize bounds each subscriber's dispatch queue. When a queue
// overflows the event is dropped; shared-tier TTL expiry recovers the
// missed invalidation eventually.
const handlerQueueSize = 256

// Logger is the minimal logging surface the bus needs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// EncodeEvent serializes an event to its JSON wire form.
func EncodeEvent(event types.InvalidationEvent) ([]byte, error) {
	return json.Marshal(event)
}

// DecodeEvent parses an event from its JSON wire form.
func DecodeEvent(payload []byte) (types.InvalidationEvent, error) {
	var event types.InvalidationEvent
	err := json.Unmarshal(payload, &event)
	return event, err
}

// PubSubBus broadcasts invalidation events over a Redis pub/sub channel.
type PubSubBus struct {
	client    *redis.Client
	channel   string
	processID string
	logger    Logger

	pubsub *redis.PubSub

	mu     sync.Mutex
	queues []chan types.InvalidationEvent
	closed bool

	done chan struct{}
	wg   sync.WaitGroup
}

// NewPubSubBus creates a bus on the given channel. processID is this
// process's identity; events it published are discarded on receipt.
func NewPubSubBus(client *redis.Client, channel, processID string, logger Logger) *PubSubBus {
	if logger == nil {
		logger = noopLogger{}
	}
	return &PubSubBus{
		client:    client,
		channel:   channel,
		processID: processID,
		logger:    logger,
		done:      make(chan struct{}),
	}
}

// OnEvent registers a handler. Each handler gets its own bounded queue
// and dispatch goroutine, so handlers run asynchronously relative to the
// publisher and to each other.
func (pb *PubSubBus) OnEvent(handler func(event types.InvalidationEvent)) {
	queue := make(chan types.InvalidationEvent, handlerQueueSize)

	pb.mu.Lock()
	pb.queues = append(pb.queues, queue)
	pb.mu.Unlock()

	pb.wg.Add(1)
	go pb.dispatch(queue, handler)
}

// Subscribe opens the Redis subscription and starts the receive loop.
func (pb *PubSubBus) Subscribe(ctx context.Context) error {
	pb.pubsub = pb.client.Subscribe(ctx, pb.channel)

	// Force the subscription to be established before returning so no
	// event published after Subscribe is missed.
	if _, err := pb.pubsub.Receive(ctx); err != nil {
		return err
	}

	pb.wg.Add(1)
	go pb.receive()
	return nil
}

// Publish sends an event to every process on the channel.
func (pb *PubSubBus) Publish(ctx context.Context, event types.InvalidationEvent) error {
	payload, err := EncodeEvent(event)
	if err != nil {
		return err
	}
	return pb.client.Publish(ctx, pb.channel, payload).Err()
}

// Close stops the receive loop and all dispatch goroutines. Repeated
// calls are no-ops.
func (pb *PubSubBus) Close() error {
	pb.mu.Lock()
	if pb.closed {
		pb.mu.Unlock()
		return nil
	}
	pb.closed = true
	pb.mu.Unlock()

	close(pb.done)

	var err error
	if pb.pubsub != nil {
		err = pb.pubsub.Close()
	}
	pb.wg.Wait()
	return err
}

func (pb *PubSubBus) receive() {
	defer pb.wg.Done()

	ch := pb.pubsub.Channel()
	for {
		select {
		case <-pb.done:
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}

			event, err := DecodeEvent([]byte(msg.Payload))
			if err != nil {
				// One malformed event must not take down the loop.
				pb.logger.Warn("discarding malformed invalidation event", "error", err)
				continue
			}
			if event.OriginProcessID == pb.processID {
				continue
			}
			pb.fanOut(event)
		}
	}
}

func (pb *PubSubBus) fanOut(event types.InvalidationEvent) {
	pb.mu.Lock()
	queues := pb.queues
	pb.mu.Unlock()

	for _, queue := range queues {
		select {
		case queue <- event:
		default:
			pb.logger.Warn("invalidation queue full, dropping event",
				"type", string(event.Type), "namespace", event.Namespace)
		}
	}
}

func (pb *PubSubBus) dispatch(queue <-chan types.InvalidationEvent, handler func(event types.InvalidationEvent)) {
	defer pb.wg.Done()

	for {
		select {
		case <-pb.done:
			return
		case event := <-queue:
			handler(event)
		}
	}
}
