package progression

import (
	"sync"
	"time"

	"github.com/okian/grove/internal/domain/growth"
)

// EventKind identifies what changed.
type EventKind string

// Event kinds emitted by the tracker.
const (
	// EventStateChanged fires after every mutation of XP or rituals.
	EventStateChanged EventKind = "state_changed"
	// EventPromotion fires once when the derived stage moves up.
	EventPromotion EventKind = "promotion"
	// EventDemotion fires once when the derived stage moves down, which
	// happens when a completion is undone across a threshold.
	EventDemotion EventKind = "demotion"
	// EventDailyReset fires when a new day regenerated the rituals.
	EventDailyReset EventKind = "daily_reset"
)

// Event is a notification for the rendering layer.
type Event struct {
	Kind    EventKind    `json:"kind"`
	From    growth.Stage `json:"from"`
	To      growth.Stage `json:"to"`
	TotalXP int          `json:"total_xp"`
	TodayXP int          `json:"today_xp"`
	At      time.Time    `json:"at"`
}

// Publisher receives tracker events.
type Publisher interface {
	Publish(e Event)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(Event)

// Publish calls f(e).
func (f PublisherFunc) Publish(e Event) { f(e) }

// Bus fans events out to channel subscribers. Sends never block: a
// subscriber whose buffer is full misses the event.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan Event
}

// NewBus creates an empty Bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Event)}
}

// Subscribe registers a subscriber with the given buffer size and returns its
// channel together with a cancel function that closes it.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// Publish delivers e to every subscriber that has room.
func (b *Bus) Publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Subscribers returns the number of live subscriptions.
func (b *Bus) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
