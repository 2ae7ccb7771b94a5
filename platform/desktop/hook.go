package desktop

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	gohook "github.com/robotn/gohook"

	"snipt/keys"
	"snipt/platform"
)

// charUndefined is what the hook reports for presses without a character.
const charUndefined = 0xFFFF

// Gohook is a platform.InputHook backed by github.com/robotn/gohook.
type Gohook struct {
	log      *slog.Logger
	controls map[uint16]keys.Code
}

func NewGohook(logger *slog.Logger) *Gohook {
	if logger == nil {
		logger = slog.Default()
	}
	controls := make(map[uint16]keys.Code)
	for name, code := range map[string]keys.Code{
		"space":     keys.CodeSpace,
		"enter":     keys.CodeReturn,
		"tab":       keys.CodeTab,
		"backspace": keys.CodeBackspace,
	} {
		if kc, ok := gohook.Keycode[name]; ok {
			controls[kc] = code
		}
	}
	return &Gohook{log: logger, controls: controls}
}

// Start blocks delivering events to fn until ctx is done. A stream that
// closes before delivering anything is reported as a permission failure.
func (h *Gohook) Start(ctx context.Context, fn func(keys.Event)) error {
	events := gohook.Start()
	defer gohook.End()
	h.log.Debug("input hook started", "os", runtime.GOOS)

	delivered := false
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				if !delivered {
					return fmt.Errorf("%w: %s", platform.ErrPermissionDenied, platform.PermissionHint(runtime.GOOS))
				}
				return platform.ErrHookStopped
			}
			delivered = true
			if kev, ok := h.convert(ev); ok {
				fn(kev)
			}
		}
	}
}

// convert keeps control keys from press events and characters from typed
// events, so each physical key yields exactly one keys.Event.
func (h *Gohook) convert(ev gohook.Event) (keys.Event, bool) {
	switch ev.Kind {
	case gohook.KeyHold:
		if code, ok := h.controls[ev.Keycode]; ok {
			return keys.Event{Code: code}, true
		}
	case gohook.KeyDown:
		ch := ev.Keychar
		if ch == charUndefined || ch < 0x20 || ch == ' ' || ch == 0x7f {
			return keys.Event{}, false
		}
		return keys.Event{Code: keys.CodeChar, Name: string(ch)}, true
	}
	return keys.Event{}, false
}
