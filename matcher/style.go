package matcher

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// hyperlinkApps are focused-app name fragments that get StyleHyperlink.
var hyperlinkApps = []string{
	"linear",
	"slack",
	"microsoft teams",
	"teams",
	"discord",
	"telegram",
	"chrome",
	"firefox",
	"safari",
	"edge",
	"brave",
	"opera",
}

// Styler picks a Style from the focused application's name.
type Styler struct {
	apps []string
}

func NewStyler(extra []string) *Styler {
	apps := append([]string(nil), hyperlinkApps...)
	for _, a := range extra {
		if a = fold(strings.TrimSpace(a)); a != "" {
			apps = append(apps, a)
		}
	}
	return &Styler{apps: apps}
}

func (s *Styler) Select(app string) Style {
	name := fold(app)
	if name == "" {
		return StyleDefault
	}
	for _, a := range s.apps {
		if strings.Contains(name, a) {
			return StyleHyperlink
		}
	}
	return StyleDefault
}

// SelectStyle applies the built-in app list only.
func SelectStyle(app string) Style {
	return defaultStyler.Select(app)
}

var defaultStyler = NewStyler(nil)

// RenderHyperlink formats url with display text in the markup app accepts:
// markdown for chat tools, an HTML anchor for mail clients, raw otherwise.
func RenderHyperlink(app, display, url string) string {
	name := fold(app)
	switch {
	case containsAny(name, "teams", "microsoft", "discord", "linear"):
		return fmt.Sprintf("[%s](%s)", display, url)
	case containsAny(name, "outlook", "mail"):
		return fmt.Sprintf(`<a href="%s">%s</a>`, url, display)
	default:
		return url
	}
}

// Render returns the text a KindText action injects.
func Render(a Action) string {
	if a.Style == StyleHyperlink && LooksLikeURL(a.Body) {
		return RenderHyperlink(a.App, a.Shortcut, a.Body)
	}
	return a.Body
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// fold case-folds s for matching app names. A Caser keeps state, so each
// call gets its own.
func fold(s string) string {
	return cases.Fold().String(s)
}
