package events

import (
	"sync"

	"planner/internal/kanban/models"
)

// Type names what happened on the board
type Type string

const (
	CardCreated   Type = "card_created"
	CardUpdated   Type = "card_updated"
	CardMoved     Type = "card_moved"
	CardArchived  Type = "card_archived"
	CardDeleted   Type = "card_deleted"
	CardRestored  Type = "card_restored"
	UndoExpired   Type = "undo_expired"
	SyncFailed    Type = "sync_failed"
	BoardReloaded Type = "board_reloaded"
)

// Event is published after the in-memory board changed
type Event struct {
	Type   Type
	CardID string
	Column models.ColumnID
	Err    error // Set for SyncFailed
}

const subscriberBuffer = 16

// Bus fans events out to subscribers
type Bus struct {
	subscribers map[chan Event]struct{}
	mu          sync.RWMutex
	closed      bool
}

// NewBus creates an empty bus
func NewBus() *Bus {
	return &Bus{
		subscribers: make(map[chan Event]struct{}),
	}
}

// Subscribe returns a buffered channel receiving future events
func (b *Bus) Subscribe() <-chan Event {
	ch := make(chan Event, subscriberBuffer)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.subscribers[ch] = struct{}{}
	return ch
}

// Unsubscribe removes a subscriber and closes its channel
func (b *Bus) Unsubscribe(sub <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subscribers {
		if ch == sub {
			close(ch)
			delete(b.subscribers, ch)
			return
		}
	}
}

// Publish sends e to every subscriber. A subscriber whose buffer is full
// misses the event.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subscribers {
		select {
		case ch <- e:
		default:
		}
	}
}

// Close closes every subscriber channel; later publishes are dropped
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, ch)
	}
}
