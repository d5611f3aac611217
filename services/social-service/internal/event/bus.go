package event

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	CreateIndex = "create-index"
	UpdateIndex = "update-index"
	DeleteIndex = "delete-index"
)

var ErrBusStopped = errors.New("event bus stopped")

// IndexPayload describes a searchable resource.
type IndexPayload struct {
	Title    string `json:"title,omitempty"`
	ObjectID string `json:"objectID"`
	Resource string `json:"resource"`
	Image    string `json:"image,omitempty"`
	Keywords string `json:"keywords,omitempty"`
}

type Event struct {
	ID         string
	Name       string
	Payload    IndexPayload
	OccurredAt time.Time
}

// Publisher emits events without waiting for subscribers.
// Publishing never fails from the caller's point of view.
type Publisher interface {
	Publish(name string, payload IndexPayload)
}

// Handler processes one event.
type Handler func(ctx context.Context, evt Event) error

// Metrics is the subset of the metrics collector used by the bus.
type Metrics interface {
	RecordEventPublished(event string)
	RecordEventDropped(event string)
	RecordEventFailed(event string)
}

// Bus is an in-process, at-most-once event bus. Events are queued on a
// bounded buffer and delivered in order by a single worker goroutine.
type Bus struct {
	logger         *zerolog.Logger
	metrics        Metrics
	handlerTimeout time.Duration

	mu       sync.RWMutex
	handlers map[string][]Handler
	queue    chan Event
	closed   bool

	startOnce sync.Once
	stopOnce  sync.Once
	done      chan struct{}
}

func NewBus(bufferSize int, logger *zerolog.Logger, metrics Metrics) *Bus {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}

	return &Bus{
		logger:         logger,
		metrics:        metrics,
		handlerTimeout: 10 * time.Second,
		handlers:       make(map[string][]Handler),
		queue:          make(chan Event, bufferSize),
		done:           make(chan struct{}),
	}
}

// Subscribe registers h for events named name. Subscribe before Start.
func (b *Bus) Subscribe(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[name] = append(b.handlers[name], h)
}

// Publish queues the event. A full buffer or a stopped bus drops it.
func (b *Bus) Publish(name string, payload IndexPayload) {
	evt := Event{
		ID:         uuid.NewString(),
		Name:       name,
		Payload:    payload,
		OccurredAt: time.Now(),
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		b.drop(evt, ErrBusStopped)
		return
	}

	select {
	case b.queue <- evt:
		b.metrics.RecordEventPublished(name)
	default:
		b.drop(evt, errors.New("event buffer full"))
	}
}

// Start launches the delivery worker. Handlers run with contexts derived from ctx.
func (b *Bus) Start(ctx context.Context) {
	b.startOnce.Do(func() {
		go b.run(ctx)
	})
}

// Stop refuses new events and waits for queued ones to be delivered or ctx to expire.
func (b *Bus) Stop(ctx context.Context) error {
	b.stopOnce.Do(func() {
		b.mu.Lock()
		b.closed = true
		close(b.queue)
		b.mu.Unlock()
	})

	// Never started: nothing will drain the queue.
	b.startOnce.Do(func() {
		for evt := range b.queue {
			b.drop(evt, ErrBusStopped)
		}
		close(b.done)
	})

	select {
	case <-b.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("failed to drain event bus: %w", ctx.Err())
	}
}

func (b *Bus) run(ctx context.Context) {
	defer close(b.done)

	for evt := range b.queue {
		b.dispatch(ctx, evt)
	}
}

func (b *Bus) dispatch(ctx context.Context, evt Event) {
	b.mu.RLock()
	handlers := b.handlers[evt.Name]
	b.mu.RUnlock()

	for _, h := range handlers {
		if err := b.invoke(ctx, h, evt); err != nil {
			b.metrics.RecordEventFailed(evt.Name)
			b.logger.Warn().
				Err(err).
				Str("event_id", evt.ID).
				Str("event", evt.Name).
				Str("object_id", evt.Payload.ObjectID).
				Msg("event handler failed")
		}
	}
}

func (b *Bus) invoke(ctx context.Context, h Handler, evt Event) (err error) {
	ctx, cancel := context.WithTimeout(ctx, b.handlerTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()

	return h(ctx, evt)
}

func (b *Bus) drop(evt Event, reason error) {
	b.metrics.RecordEventDropped(evt.Name)
	b.logger.Warn().
		Err(reason).
		Str("event_id", evt.ID).
		Str("event", evt.Name).
		Msg("event dropped")
}

type nopMetrics struct{}

func (nopMetrics) RecordEventPublished(string) {}
func (nopMetrics) RecordEventDropped(string)   {}
func (nopMetrics) RecordEventFailed(string)    {}
