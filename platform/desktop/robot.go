// Package desktop implements the platform capabilities on a real desktop
// session using robotgo and gohook.
package desktop

import (
	"fmt"
	"log/slog"

	"github.com/go-vgo/robotgo"

	"snipt/platform"
)

// Robot injects keystrokes and reads the focused window through robotgo.
type Robot struct{}

func NewRobot() *Robot {
	return &Robot{}
}

func (Robot) Tap(key string) error {
	if err := robotgo.KeyTap(key); err != nil {
		return fmt.Errorf("tap %s: %w", key, err)
	}
	return nil
}

func (Robot) Type(s string) error {
	robotgo.TypeStr(s)
	return nil
}

// Name prefers the owning process name and falls back to the window title.
func (Robot) Name() string {
	if pid := robotgo.GetPid(); pid > 0 {
		if name, err := robotgo.FindName(pid); err == nil && name != "" {
			return name
		}
	}
	return robotgo.GetTitle()
}

// New returns the desktop hook, injector and foreground-app lookup.
func New(logger *slog.Logger) (platform.InputHook, platform.KeyInjector, platform.ForegroundApp) {
	r := NewRobot()
	return NewGohook(logger), r, r
}
