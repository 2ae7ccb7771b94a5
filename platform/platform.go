// Package platform defines the OS capabilities the engine depends on and
// their implementations.
package platform

import (
	"context"
	"errors"

	"snipt/keys"
)

var (
	// ErrPermissionDenied means the OS refused the global input hook.
	ErrPermissionDenied = errors.New("input hook permission denied")
	// ErrHookStopped means the hook's event stream ended unexpectedly.
	ErrHookStopped = errors.New("input hook stopped")
)

// InputHook delivers global key presses until ctx is done or the hook fails.
type InputHook interface {
	Start(ctx context.Context, fn func(keys.Event)) error
}

// KeyInjector emits synthetic keystrokes into the focused window.
type KeyInjector interface {
	// Tap presses and releases a named key ("backspace", "enter").
	Tap(key string) error
	// Type types s as-is. s contains no newlines.
	Type(s string) error
}

// ForegroundApp names the application owning the focused window.
type ForegroundApp interface {
	Name() string
}

// URLOpener hands a URL to the OS default handler.
type URLOpener interface {
	Open(ctx context.Context, url string) error
}

// PermissionHint returns the platform-specific advice shown when the hook
// is refused.
func PermissionHint(goos string) string {
	switch goos {
	case "darwin":
		return "grant Accessibility and Input Monitoring access in System Settings → Privacy & Security"
	case "linux":
		return "run under an X11 session and make sure the user can read input devices"
	case "windows":
		return "run snipt with the same privilege level as the target applications"
	default:
		return "check that global keyboard hooks are permitted on this system"
	}
}
