// Package matcher decides whether the typed buffer names a snippet and
// resolves it into an Action.
package matcher

// Kind tags an Action.
type Kind int

const (
	KindText Kind = iota
	KindExecute
	KindExecuteWithParams
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindExecute:
		return "execute"
	case KindExecuteWithParams:
		return "execute-with-params"
	default:
		return "unknown"
	}
}

// Style selects how URL expansions are rendered for the focused app.
type Style int

const (
	StyleDefault Style = iota
	StyleHyperlink
)

func (s Style) String() string {
	if s == StyleHyperlink {
		return "hyperlink"
	}
	return "default"
}

// Action is the resolved expansion for one commit.
type Action struct {
	Kind Kind
	// Body is the stored snippet; for KindExecuteWithParams it has already
	// had its placeholders substituted.
	Body   string
	Params []string
	Style  Style
	// Shortcut is the matched shortcut, or the base name for a
	// parameterized call.
	Shortcut string
	// App is the focused application name observed at match time.
	App string
}
