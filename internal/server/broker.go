package server

import (
	"sync"
	"sync/atomic"
	"time"
)

// EventKind names an SSE event. It is sent as the `event:` field so browser
// clients can attach one listener per kind.
type EventKind string

const (
	// EventState is the snapshot sent when a stream opens.
	EventState       EventKind = "state"
	EventPoints      EventKind = "points"
	EventLevelUp     EventKind = "level"
	EventAchievement EventKind = "achievement"
)

// Event is pushed to a user's stream when their points, level or
// achievements change.
type Event struct {
	ID          uint64    `json:"id"`
	Type        EventKind `json:"type"`
	At          time.Time `json:"at"`
	Points      int       `json:"points,omitempty"`
	Total       int       `json:"total"`
	Level       int       `json:"level"`
	Message     string    `json:"message,omitempty"`
	Achievement string    `json:"achievement,omitempty"`
	Title       string    `json:"title,omitempty"`
}

// Broker fans reward events out to the open streams of each user. Slow
// subscribers lose events rather than block the publisher.
type Broker struct {
	seq atomic.Uint64

	mu   sync.RWMutex
	subs map[int64]map[chan Event]struct{}
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[int64]map[chan Event]struct{})}
}

// Subscribe registers a stream for the user.
func (b *Broker) Subscribe(userID int64) chan Event {
	ch := make(chan Event, 16)
	b.mu.Lock()
	if b.subs[userID] == nil {
		b.subs[userID] = make(map[chan Event]struct{})
	}
	b.subs[userID][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Broker) Unsubscribe(userID int64, ch chan Event) {
	b.mu.Lock()
	delete(b.subs[userID], ch)
	if len(b.subs[userID]) == 0 {
		delete(b.subs, userID)
	}
	b.mu.Unlock()
}

// stamp assigns the next sequence number. IDs increase across all users.
func (b *Broker) stamp(e Event) Event {
	e.ID = b.seq.Add(1)
	return e
}

// Publish stamps e and delivers it to every stream of the user. It returns
// the number of streams that accepted it.
func (b *Broker) Publish(userID int64, e Event) int {
	e = b.stamp(e)
	delivered := 0
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs[userID] {
		select {
		case ch <- e:
			delivered++
		default:
		}
	}
	return delivered
}
