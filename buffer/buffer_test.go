package buffer

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func pushString(b *Buffer, s string) {
	for _, r := range s {
		b.Push(r)
	}
}

func TestPushAndString(t *testing.T) {
	b := New()
	pushString(b, ":héllo")
	assert.Equal(t, ":héllo", b.String())
	assert.Equal(t, 6, b.Len())
}

func TestCapacityDropsOldest(t *testing.T) {
	b := New()
	pushString(b, strings.Repeat("a", 100))
	b.Push('z')
	assert.Equal(t, 100, b.Len())
	assert.True(t, strings.HasSuffix(b.String(), "az"))

	for i := 0; i < 500; i++ {
		b.Push('x')
		assert.LessOrEqual(t, b.Len(), 100)
	}
}

func TestPopOnEmptyIsNoop(t *testing.T) {
	b := New()
	b.Pop()
	assert.Equal(t, 0, b.Len())
	pushString(b, "ab")
	b.Pop()
	assert.Equal(t, "a", b.String())
}

func TestClear(t *testing.T) {
	b := New()
	pushString(b, ":hi")
	b.Clear()
	assert.Equal(t, "", b.String())
	assert.Equal(t, 0, b.Len())
}

func TestExpiredCharactersPurgedOnPush(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	b := New(WithClock(clock.now))

	pushString(b, ":stale")
	clock.advance(11 * time.Second)
	pushString(b, ":hi")
	assert.Equal(t, ":hi", b.String())
}

func TestPartialExpiry(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	b := New(WithClock(clock.now), WithTTL(time.Second))

	b.Push('a')
	clock.advance(600 * time.Millisecond)
	b.Push('b')
	clock.advance(600 * time.Millisecond)
	b.Push('c')
	assert.Equal(t, "bc", b.String())
}

func TestCustomCapacity(t *testing.T) {
	b := New(WithCapacity(3))
	pushString(b, "abcdef")
	assert.Equal(t, "def", b.String())
}
