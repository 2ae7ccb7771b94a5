package desktop

import (
	"testing"

	gohook "github.com/robotn/gohook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snipt/keys"
)

func TestGohookConvert(t *testing.T) {
	h := NewGohook(nil)

	ev, ok := h.convert(gohook.Event{Kind: gohook.KeyDown, Keychar: ':'})
	require.True(t, ok)
	assert.Equal(t, keys.Event{Code: keys.CodeChar, Name: ":"}, ev)

	_, ok = h.convert(gohook.Event{Kind: gohook.KeyDown, Keychar: charUndefined})
	assert.False(t, ok)
	_, ok = h.convert(gohook.Event{Kind: gohook.KeyDown, Keychar: ' '})
	assert.False(t, ok, "space arrives as a press event")

	ev, ok = h.convert(gohook.Event{Kind: gohook.KeyHold, Keycode: gohook.Keycode["space"]})
	require.True(t, ok)
	assert.Equal(t, keys.CodeSpace, ev.Code)

	ev, ok = h.convert(gohook.Event{Kind: gohook.KeyHold, Keycode: gohook.Keycode["backspace"]})
	require.True(t, ok)
	assert.Equal(t, keys.CodeBackspace, ev.Code)

	_, ok = h.convert(gohook.Event{Kind: gohook.KeyHold, Keycode: gohook.Keycode["a"]})
	assert.False(t, ok, "letters arrive as typed events")

	_, ok = h.convert(gohook.Event{Kind: gohook.KeyUp, Keycode: gohook.Keycode["space"]})
	assert.False(t, ok)
}
