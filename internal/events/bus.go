// Package events provides the typed in-process event bus that replaces
// named notifications between the services and their observers.
package events

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"slurpsocial/internal/observability"
)

// Kind identifies an event type.
type Kind string

// Event kinds.
const (
	AuthStateChanged Kind = "AUTH_STATE_CHANGED"
	PostsChanged     Kind = "POSTS_CHANGED"
)

// Event is one published change.
type Event struct {
	Kind   Kind      `json:"kind"`
	PostID string    `json:"postId,omitempty"`
	UserID string    `json:"userId,omitempty"`
	At     time.Time `json:"at"`
	Origin string    `json:"origin,omitempty"`
	// Remote is set on events received from another process.
	Remote bool `json:"-"`
}

// DefaultBuffer is the per-subscriber queue length used when none is given.
const DefaultBuffer = 16

type subscriber struct {
	ch    chan Event
	kinds []Kind
}

func (s *subscriber) wants(k Kind) bool {
	return len(s.kinds) == 0 || slices.Contains(s.kinds, k)
}

// Bus fans events out to subscribers. Publish never blocks: a subscriber
// whose queue is full misses the event.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]*subscriber
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]*subscriber)}
}

// Subscribe registers for kinds, or every kind when none are given. The
// returned function unsubscribes and closes the channel.
func (b *Bus) Subscribe(buffer int, kinds ...Kind) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	sub := &subscriber{ch: make(chan Event, buffer), kinds: kinds}

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = sub
	b.mu.Unlock()

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(sub.ch)
		})
	}
}

// Publish delivers ev to every interested subscriber.
func (b *Bus) Publish(ctx context.Context, ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs {
		if !sub.wants(ev.Kind) {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			observability.EventDrops.WithLabelValues(string(ev.Kind)).Inc()
			observability.GlobalLogger.WarnContext(ctx, "event dropped, subscriber is full",
				slog.String("kind", string(ev.Kind)))
		}
	}
}
