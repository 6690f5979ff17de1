// Package events provides the in-process event bus the pipeline publishes
// task lifecycle notifications on. The bus decouples the upload queue from
// whatever renders progress (CLI bars today, anything else tomorrow).
package events

import (
	"sync"
	"sync/atomic"
	"time"
)

// EventType defines the types of events that can be emitted.
type EventType string

const (
	EventTaskQueued    EventType = "task_queued"    // Task added to the queue
	EventTaskStarted   EventType = "task_started"   // Transfer began (bytes moving)
	EventTaskProgress  EventType = "task_progress"  // Progress update
	EventTaskCompleted EventType = "task_completed" // Record persisted, task done
	EventTaskFailed    EventType = "task_failed"    // Failed with a classified error
	EventTaskCancelled EventType = "task_cancelled" // Returned to pending by user abort
	EventOrphanWarning EventType = "orphan_warning" // Remote artifact left behind, needs operator
	EventBatchFinished EventType = "batch_finished" // StartAll pass over the queue is done
)

// Event is the base interface for all events.
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides common event fields.
type BaseEvent struct {
	EventType EventType
	Time      time.Time
}

func (e BaseEvent) Type() EventType      { return e.EventType }
func (e BaseEvent) Timestamp() time.Time { return e.Time }

// TaskEvent carries per-task lifecycle information.
type TaskEvent struct {
	BaseEvent
	TaskID      string
	FileName    string  // Original local file name
	DisplayName string  // Sequence-numbered name, if assigned
	Category    string  // File category
	SizeBytes   int64   // File size in bytes
	Percent     float64 // 0 to 100
	ErrorKind   string  // Classified error kind when failed
	Err         error   // Error if failed
}

// OrphanEvent flags a remote artifact that exists without a metadata record
// and could not be deleted. These require out-of-band reconciliation.
type OrphanEvent struct {
	BaseEvent
	TaskID   string
	RemoteID string
	FileName string
}

// BatchEvent summarizes one StartAll pass.
type BatchEvent struct {
	BaseEvent
	Completed int
	Failed    int
	Orphans   int
	Duration  time.Duration
}

const (
	defaultBuffer = 256
	maxBuffer     = 4096
)

// EventBus manages event subscriptions and publishing. Publishing is
// non-blocking: a subscriber that stops draining its channel drops events
// rather than stalling the pipeline.
type EventBus struct {
	subscribers map[EventType][]chan Event
	all         []chan Event
	mu          sync.RWMutex
	bufferSize  int
	closed      bool
	dropped     atomic.Int64
}

// NewEventBus creates a new event bus with the specified buffer size per
// subscription channel.
func NewEventBus(bufferSize int) *EventBus {
	if bufferSize <= 0 {
		bufferSize = defaultBuffer
	}
	if bufferSize > maxBuffer {
		bufferSize = maxBuffer
	}
	return &EventBus{
		subscribers: make(map[EventType][]chan Event),
		all:         make([]chan Event, 0),
		bufferSize:  bufferSize,
	}
}

// Subscribe creates a subscription to a specific event type.
func (eb *EventBus) Subscribe(eventType EventType) <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, eb.bufferSize)
	eb.subscribers[eventType] = append(eb.subscribers[eventType], ch)
	return ch
}

// SubscribeAll creates a subscription to all events.
func (eb *EventBus) SubscribeAll() <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, eb.bufferSize)
	eb.all = append(eb.all, ch)
	return ch
}

// Publish sends an event to all subscribers without blocking.
func (eb *EventBus) Publish(event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if eb.closed {
		return
	}

	for _, ch := range eb.subscribers[event.Type()] {
		select {
		case ch <- event:
		default:
			eb.dropped.Add(1)
		}
	}

	for _, ch := range eb.all {
		select {
		case ch <- event:
		default:
			eb.dropped.Add(1)
		}
	}
}

// Unsubscribe removes a subscription channel from a specific event type.
func (eb *EventBus) Unsubscribe(eventType EventType, ch <-chan Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}

	subscribers := eb.subscribers[eventType]
	for i, subCh := range subscribers {
		if subCh == ch {
			subscribers[i] = subscribers[len(subscribers)-1]
			eb.subscribers[eventType] = subscribers[:len(subscribers)-1]
			break
		}
	}
}

// Close shuts down the event bus and closes all subscription channels.
func (eb *EventBus) Close() {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}
	eb.closed = true

	for _, channels := range eb.subscribers {
		for _, ch := range channels {
			close(ch)
		}
	}
	for _, ch := range eb.all {
		close(ch)
	}
}

// DroppedEvents returns the number of events dropped due to full buffers.
func (eb *EventBus) DroppedEvents() int64 {
	return eb.dropped.Load()
}
