// Package undo remembers the last archive and the last delete for a short
// window so each can be reversed exactly once.
package undo

import (
	"sync"
	"time"

	"planner/internal/kanban/models"
)

// DefaultWindow is how long an archive or delete stays reversible
const DefaultWindow = 7 * time.Second

// Kind selects one of the two independent slots
type Kind int

const (
	KindArchive Kind = iota
	KindDelete
)

func (k Kind) String() string {
	switch k {
	case KindArchive:
		return "archive"
	case KindDelete:
		return "delete"
	}
	return "unknown"
}

// Entry is a snapshot taken just before a destructive action
type Entry struct {
	Kind      Kind
	Card      models.Card     // Card as it was before the action
	ColumnID  models.ColumnID // Column it was removed from
	Index     int             // Position it had in that column
	ExpiresAt time.Time
}

// Clock abstracts time for tests
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a cancellable scheduled task
type Timer interface {
	Stop() bool
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

type slot struct {
	entry Entry
	timer Timer
	seq   uint64
	live  bool
}

// Buffer holds at most one live entry per kind
type Buffer struct {
	mu       sync.Mutex
	window   time.Duration
	clock    Clock
	slots    [2]slot
	seq      uint64
	closed   bool
	onExpire func(Entry)
}

// Option configures a Buffer
type Option func(*Buffer)

// WithWindow overrides DefaultWindow
func WithWindow(d time.Duration) Option {
	return func(b *Buffer) {
		if d > 0 {
			b.window = d
		}
	}
}

// WithClock injects a clock
func WithClock(c Clock) Option {
	return func(b *Buffer) { b.clock = c }
}

// WithOnExpire registers a callback run when an entry times out unused.
// It runs on the timer goroutine, outside the buffer lock.
func WithOnExpire(f func(Entry)) Option {
	return func(b *Buffer) { b.onExpire = f }
}

// NewBuffer creates an empty buffer
func NewBuffer(opts ...Option) *Buffer {
	b := &Buffer{window: DefaultWindow, clock: realClock{}}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Window returns the undo window
func (b *Buffer) Window() time.Duration {
	return b.window
}

// RecordArchive remembers card as it was in previousColumn at previousIndex,
// replacing any earlier archive entry
func (b *Buffer) RecordArchive(card models.Card, previousColumn models.ColumnID, previousIndex int) Entry {
	return b.record(Entry{Kind: KindArchive, Card: card.Clone(), ColumnID: previousColumn, Index: previousIndex})
}

// RecordDelete remembers a deleted card, replacing any earlier delete entry
func (b *Buffer) RecordDelete(card models.Card, previousIndex int) Entry {
	return b.record(Entry{Kind: KindDelete, Card: card.Clone(), ColumnID: card.ColumnID, Index: previousIndex})
}

func (b *Buffer) record(e Entry) Entry {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := &b.slots[e.Kind]
	if s.timer != nil {
		s.timer.Stop()
	}

	e.ExpiresAt = b.clock.Now().Add(b.window)
	b.seq++
	seq := b.seq
	*s = slot{entry: e, seq: seq, live: true}

	if !b.closed {
		kind := e.Kind
		s.timer = b.clock.AfterFunc(b.window, func() { b.expire(kind, seq) })
	}
	return e
}

// expire clears the slot if it still holds the entry the timer was set for
func (b *Buffer) expire(kind Kind, seq uint64) {
	b.mu.Lock()
	s := &b.slots[kind]
	if !s.live || s.seq != seq {
		b.mu.Unlock()
		return
	}
	e := s.entry
	*s = slot{}
	cb := b.onExpire
	b.mu.Unlock()

	if cb != nil {
		cb(e)
	}
}

// Take returns the live entry of kind and clears it. Expired or absent
// entries yield false; expiry is checked against the clock, not the timer.
func (b *Buffer) Take(kind Kind) (Entry, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := &b.slots[kind]
	if !s.live {
		return Entry{}, false
	}
	e := s.entry
	if s.timer != nil {
		s.timer.Stop()
	}
	*s = slot{}

	if !b.clock.Now().Before(e.ExpiresAt) {
		return Entry{}, false
	}
	return e, true
}

// Peek returns the live entry of kind without clearing it
func (b *Buffer) Peek(kind Kind) (Entry, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := b.slots[kind]
	if !s.live || !b.clock.Now().Before(s.entry.ExpiresAt) {
		return Entry{}, false
	}
	return s.entry, true
}

// Remaining returns the time left on the entry of kind, or 0
func (b *Buffer) Remaining(kind Kind) time.Duration {
	e, ok := b.Peek(kind)
	if !ok {
		return 0
	}
	return e.ExpiresAt.Sub(b.clock.Now())
}

// Close cancels pending timers and drops both entries. Later records are
// still accepted but no longer scheduled.
func (b *Buffer) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	for i := range b.slots {
		if b.slots[i].timer != nil {
			b.slots[i].timer.Stop()
		}
		b.slots[i] = slot{}
	}
}
