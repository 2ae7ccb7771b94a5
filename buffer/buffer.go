// Package buffer holds the rolling record of what the user just typed.
package buffer

import (
	"strings"
	"time"
)

const (
	DefaultCapacity = 100
	DefaultTTL      = 10 * time.Second
)

type entry struct {
	r  rune
	at time.Time
}

// Buffer is a bounded, time-decayed sequence of typed characters. It has a
// single owner and no internal locking.
type Buffer struct {
	entries  []entry
	capacity int
	ttl      time.Duration
	now      func() time.Time
}

// Option configures a Buffer.
type Option func(*Buffer)

// WithCapacity bounds the number of characters retained.
func WithCapacity(n int) Option {
	return func(b *Buffer) {
		if n > 0 {
			b.capacity = n
		}
	}
}

// WithTTL sets how long a character stays in the buffer.
func WithTTL(d time.Duration) Option {
	return func(b *Buffer) {
		if d > 0 {
			b.ttl = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(b *Buffer) {
		b.now = now
	}
}

func New(opts ...Option) *Buffer {
	b := &Buffer{
		capacity: DefaultCapacity,
		ttl:      DefaultTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.entries = make([]entry, 0, b.capacity)
	return b
}

// Push purges expired characters, appends r, and drops the oldest
// characters beyond capacity.
func (b *Buffer) Push(r rune) {
	now := b.now()
	b.purge(now)
	if len(b.entries) == b.capacity {
		copy(b.entries, b.entries[1:])
		b.entries = b.entries[:len(b.entries)-1]
	}
	b.entries = append(b.entries, entry{r: r, at: now})
}

// Pop removes the most recent character. It is a no-op when empty.
func (b *Buffer) Pop() {
	if len(b.entries) > 0 {
		b.entries = b.entries[:len(b.entries)-1]
	}
}

func (b *Buffer) Clear() {
	b.entries = b.entries[:0]
}

// Len returns the number of characters held.
func (b *Buffer) Len() int {
	return len(b.entries)
}

func (b *Buffer) String() string {
	var sb strings.Builder
	sb.Grow(len(b.entries))
	for _, e := range b.entries {
		sb.WriteRune(e.r)
	}
	return sb.String()
}

func (b *Buffer) purge(now time.Time) {
	cut := 0
	for cut < len(b.entries) && now.Sub(b.entries[cut].at) > b.ttl {
		cut++
	}
	if cut > 0 {
		n := copy(b.entries, b.entries[cut:])
		b.entries = b.entries[:n]
	}
}
