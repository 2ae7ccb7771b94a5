package activity

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Hub fans entries out to subscribers. Publish never blocks: a subscriber
// whose channel is full misses the entry.
type Hub struct {
	history *history
	now     func() time.Time

	mu   sync.Mutex
	subs map[chan Entry]struct{}
}

func NewHub(max int) *Hub {
	return &Hub{
		history: newHistory(max),
		now:     time.Now,
		subs:    make(map[chan Entry]struct{}),
	}
}

// Publish stamps e with an id and time when missing, records it and
// forwards it to every subscriber.
func (h *Hub) Publish(e Entry) Entry {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Time.IsZero() {
		e.Time = h.now()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.history.add(e)
	for ch := range h.subs {
		select {
		case ch <- e:
		default:
		}
	}
	return e
}

// Recent returns a copy of the retained entries, oldest first.
func (h *Hub) Recent() []Entry {
	return h.history.snapshot()
}

// Subscribe returns the entries retained so far together with a channel
// receiving every later one. The two never overlap or leave a gap. Call
// cancel when done; it closes the channel.
func (h *Hub) Subscribe(size int) (replay []Entry, ch <-chan Entry, cancel func()) {
	if size <= 0 {
		size = 16
	}
	c := make(chan Entry, size)

	h.mu.Lock()
	replay = h.history.snapshot()
	h.subs[c] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel = func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, c)
			h.mu.Unlock()
			close(c)
		})
	}
	return replay, c, cancel
}

// Subscribers reports how many subscribers are attached.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
