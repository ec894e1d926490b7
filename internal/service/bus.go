package service

import (
	"sync"

	"github.com/joeblew999/geojson-viewer/internal/mapsync"
)

// Event represents a change to the loaded document list.
type Event struct {
	Seq       uint64         // position in the bus's publish order, starting at 1
	Action    string         // "loaded", "cleared", "failed"
	Documents []DocumentInfo // the documents now loaded
	Error     string         // last ingest error, empty when the change succeeded
	Ops       []mapsync.Op   // engine mutations the change produced
}

// EventBus is a simple fan-out pub/sub for document change events.
type EventBus struct {
	mu   sync.RWMutex
	subs map[chan Event]struct{}
	seq  uint64
}

// NewEventBus creates a new event bus.
func NewEventBus() *EventBus {
	return &EventBus{subs: make(map[chan Event]struct{})}
}

// Publish numbers the event and sends it to all subscribers (non-blocking).
// Subscribers detect skipped events by a gap in Seq.
func (b *EventBus) Publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq++
	e.Seq = b.seq
	for ch := range b.subs {
		select {
		case ch <- e:
		default:
			// subscriber too slow, skip
		}
	}
}

// Seq returns the sequence number of the last published event.
func (b *EventBus) Seq() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.seq
}

// Subscribe returns a buffered channel that receives events.
func (b *EventBus) Subscribe() chan Event {
	ch := make(chan Event, 16)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *EventBus) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	delete(b.subs, ch)
	b.mu.Unlock()
	close(ch)
}
