package store

import (
	"sync"

	"go.uber.org/zap"
)

// EventType names a committed store mutation.
type EventType string

const (
	CardAdded      EventType = "card_added"
	CardUpdated    EventType = "card_updated"
	CardTrashed    EventType = "card_trashed"
	CardRestored   EventType = "card_restored"
	CardPurged     EventType = "card_purged"
	ProjectPut     EventType = "project_put"
	ProjectDeleted EventType = "project_deleted"
)

// Event is published after a mutation commits. A subscriber that re-reads
// the store always sees the write that triggered it.
type Event struct {
	Type      EventType `json:"type"`
	CardID    string    `json:"card_id,omitempty"`
	ProjectID string    `json:"project_id,omitempty"`
	At        int64     `json:"at"`
}

// broker fans events out to listeners registered on one Store.
type broker struct {
	mu        sync.RWMutex
	nextID    int
	listeners map[int]func(Event)
	closed    bool
	log       *zap.SugaredLogger
}

func newBroker(log *zap.SugaredLogger) *broker {
	return &broker{listeners: make(map[int]func(Event)), log: log}
}

func (b *broker) subscribe(fn func(Event)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return func() {}
	}
	id := b.nextID
	b.nextID++
	b.listeners[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.listeners, id)
			b.mu.Unlock()
		})
	}
}

func (b *broker) publish(ev Event) {
	b.mu.RLock()
	fns := make([]func(Event), 0, len(b.listeners))
	for _, fn := range b.listeners {
		fns = append(fns, fn)
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		b.deliver(fn, ev)
	}
}

// deliver invokes one listener; a panicking listener does not affect the others.
func (b *broker) deliver(fn func(Event), ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Warnw("store listener panicked", "event", ev.Type, "panic", r)
		}
	}()
	fn(ev)
}

func (b *broker) close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.listeners = make(map[int]func(Event))
}

// Subscribe registers fn to be called after every committed mutation.
// Calling the returned function removes the listener; it is safe to call more than once.
func (s *Store) Subscribe(fn func(Event)) (unsubscribe func()) {
	return s.events.subscribe(fn)
}

// Events returns a channel receiving every committed mutation. Events are
// dropped when the channel buffer is full. cancel unsubscribes and closes the channel.
func (s *Store) Events(buffer int) (<-chan Event, func()) {
	ch := make(chan Event, buffer)
	var (
		mu     sync.Mutex
		closed bool
	)
	unsubscribe := s.events.subscribe(func(ev Event) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case ch <- ev:
		default:
			s.log.Debugw("dropping store event for slow consumer", "event", ev.Type)
		}
	})

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			unsubscribe()
			mu.Lock()
			closed = true
			close(ch)
			mu.Unlock()
		})
	}
	return ch, cancel
}
