// Package keys turns raw keyboard events into the tokens the expansion
// engine acts on.
package keys

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Code is a platform-neutral logical key.
type Code int

const (
	CodeUnknown Code = iota
	CodeChar         // a key producing a character; see Event.Name and Event.Base
	CodeSpace
	CodeReturn
	CodeKeypadEnter
	CodeTab
	CodeBackspace
	CodeShift
	CodeControl
	CodeAlt
	CodeMeta
	CodeCapsLock
	CodeEscape
	CodeArrow
	CodeFunction
	CodeNavigation // home, end, page up/down, insert, delete
	CodeDead       // dead key or IME composition
)

// Event is a raw key press as reported by an input hook.
type Event struct {
	Code Code
	// Name is the character (or X11-style keysym name) the OS reports for
	// the press, already reflecting layout and shift state. May be empty.
	Name string
	// Base is the unshifted US-layout character of the physical key, used
	// only when Name is empty.
	Base  rune
	Shift bool
}

// Kind classifies a Token.
type Kind int

const (
	Ignored Kind = iota
	Char
	Commit
	Backspace
)

func (k Kind) String() string {
	switch k {
	case Char:
		return "char"
	case Commit:
		return "commit"
	case Backspace:
		return "backspace"
	default:
		return "ignored"
	}
}

// CommitKey says which key committed the buffer.
type CommitKey int

const (
	CommitNone CommitKey = iota
	CommitSpace
	CommitTab
	CommitReturn
)

// Token is the translated meaning of an Event.
type Token struct {
	Kind   Kind
	Char   rune
	Commit CommitKey
}

// Translate maps ev to a Token. It never consults modifier state for keys
// whose Name is reported, so `:` and `;` on a shared key are told apart by
// the OS-provided name.
func Translate(ev Event) Token {
	switch ev.Code {
	case CodeSpace:
		return Token{Kind: Commit, Commit: CommitSpace}
	case CodeReturn, CodeKeypadEnter:
		return Token{Kind: Commit, Commit: CommitReturn}
	case CodeTab:
		return Token{Kind: Commit, Commit: CommitTab}
	case CodeBackspace:
		return Token{Kind: Backspace}
	case CodeShift, CodeControl, CodeAlt, CodeMeta, CodeCapsLock, CodeEscape,
		CodeArrow, CodeFunction, CodeNavigation, CodeDead:
		return Token{Kind: Ignored}
	}

	if ev.Name != "" {
		return translateName(ev.Name)
	}
	if ev.Base != 0 {
		return translateBase(ev.Base, ev.Shift)
	}
	return Token{Kind: Ignored}
}

func translateName(name string) Token {
	if utf8.RuneCountInString(name) == 1 {
		r, _ := utf8.DecodeRuneInString(name)
		switch r {
		case ' ':
			return Token{Kind: Commit, Commit: CommitSpace}
		case '\t':
			return Token{Kind: Commit, Commit: CommitTab}
		case '\r', '\n':
			return Token{Kind: Commit, Commit: CommitReturn}
		case '\b', 0x7f:
			return Token{Kind: Backspace}
		}
		if r == utf8.RuneError || !unicode.IsPrint(r) || isCombining(r) {
			return Token{Kind: Ignored}
		}
		return Token{Kind: Char, Char: r}
	}

	lower := strings.ToLower(name)
	if strings.HasPrefix(lower, "dead_") {
		return Token{Kind: Ignored}
	}
	switch lower {
	case "space":
		return Token{Kind: Commit, Commit: CommitSpace}
	case "return", "enter", "kp_enter":
		return Token{Kind: Commit, Commit: CommitReturn}
	case "tab":
		return Token{Kind: Commit, Commit: CommitTab}
	case "backspace":
		return Token{Kind: Backspace}
	}
	if r, ok := keysyms[lower]; ok {
		return Token{Kind: Char, Char: r}
	}
	return Token{Kind: Ignored}
}

func translateBase(base rune, shift bool) Token {
	switch {
	case base >= 'a' && base <= 'z':
		if shift {
			return Token{Kind: Char, Char: unicode.ToUpper(base)}
		}
		return Token{Kind: Char, Char: base}
	case base >= 'A' && base <= 'Z':
		if shift {
			return Token{Kind: Char, Char: base}
		}
		return Token{Kind: Char, Char: unicode.ToLower(base)}
	}
	if shift {
		if r, ok := shifted[base]; ok {
			return Token{Kind: Char, Char: r}
		}
		return Token{Kind: Ignored}
	}
	if _, ok := shifted[base]; ok {
		return Token{Kind: Char, Char: base}
	}
	return Token{Kind: Ignored}
}

// isCombining reports whether r only modifies the preceding character, as
// dead keys deliver on some platforms.
func isCombining(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}
