package matcher

import (
	"strings"

	"snipt/store"
)

const (
	TextTrigger = ':'
	ExecTrigger = '!'
)

// Matcher resolves buffers against a snippet snapshot.
type Matcher struct {
	styler *Styler
}

// New returns a Matcher that treats extraApps as hyperlink-capable in
// addition to the built-in list.
func New(extraApps []string) *Matcher {
	return &Matcher{styler: NewStyler(extraApps)}
}

// Style returns the style chosen for app.
func (m *Matcher) Style(app string) Style {
	return m.styler.Select(app)
}

// Match returns the action due for buf, or false when nothing should
// expand. Records are searched in order and the first match wins; exact
// shortcuts take precedence over parameterized ones.
func (m *Matcher) Match(buf string, records []store.Record, app string) (Action, bool) {
	if buf == "" {
		return Action{}, false
	}
	runes := []rune(buf)
	trigger := runes[0]
	if trigger != TextTrigger && trigger != ExecTrigger {
		return Action{}, false
	}
	if len(runes) <= 1 {
		return Action{}, false
	}
	key := string(runes[1:])
	style := m.styler.Select(app)

	for _, r := range records {
		if r.Shortcut != key {
			continue
		}
		kind := KindText
		if trigger == ExecTrigger {
			kind = KindExecute
		}
		return Action{Kind: kind, Body: r.Snippet, Style: style, Shortcut: key, App: app}, true
	}

	if trigger != ExecTrigger || !strings.HasSuffix(key, ")") || !strings.Contains(key, "(") {
		return Action{}, false
	}
	base, args, ok := ParseCall(key)
	if !ok {
		return Action{}, false
	}
	for _, r := range records {
		declBase, names, ok := ParseDecl(r.Shortcut)
		if !ok || declBase != base {
			continue
		}
		body := Substitute(r.Snippet, Bind(names, args), args)
		return Action{
			Kind:     KindExecuteWithParams,
			Body:     body,
			Params:   args,
			Style:    style,
			Shortcut: base,
			App:      app,
		}, true
	}
	return Action{}, false
}
