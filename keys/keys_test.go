package keys

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranslateCommitKeys(t *testing.T) {
	cases := map[Code]CommitKey{
		CodeSpace:       CommitSpace,
		CodeTab:         CommitTab,
		CodeReturn:      CommitReturn,
		CodeKeypadEnter: CommitReturn,
	}
	for code, want := range cases {
		tok := Translate(Event{Code: code})
		assert.Equal(t, Commit, tok.Kind, "code %d", code)
		assert.Equal(t, want, tok.Commit, "code %d", code)
	}
}

func TestTranslateBackspace(t *testing.T) {
	assert.Equal(t, Backspace, Translate(Event{Code: CodeBackspace}).Kind)
	assert.Equal(t, Backspace, Translate(Event{Code: CodeChar, Name: "BackSpace"}).Kind)
}

func TestTranslateIgnoredKeys(t *testing.T) {
	for _, code := range []Code{CodeShift, CodeControl, CodeAlt, CodeMeta, CodeArrow, CodeFunction, CodeEscape, CodeDead, CodeNavigation} {
		// A name reported alongside a non-printing key must not leak through.
		assert.Equal(t, Ignored, Translate(Event{Code: code, Name: "x"}).Kind, "code %d", code)
	}
	assert.Equal(t, Ignored, Translate(Event{}).Kind)
}

func TestTranslateTrustsReportedName(t *testing.T) {
	// Same physical key, disambiguated by the OS-reported name.
	assert.Equal(t, Token{Kind: Char, Char: ':'}, Translate(Event{Code: CodeChar, Name: ":", Base: ';', Shift: true}))
	assert.Equal(t, Token{Kind: Char, Char: ';'}, Translate(Event{Code: CodeChar, Name: ";", Base: ';'}))
	// Non-US layouts: the name wins over the US key-code table.
	assert.Equal(t, Token{Kind: Char, Char: 'é'}, Translate(Event{Code: CodeChar, Name: "é", Base: '2'}))
	assert.Equal(t, Token{Kind: Char, Char: 'ж'}, Translate(Event{Code: CodeChar, Name: "ж"}))
}

func TestTranslateKeysymNames(t *testing.T) {
	assert.Equal(t, Token{Kind: Char, Char: '!'}, Translate(Event{Code: CodeChar, Name: "exclam"}))
	assert.Equal(t, Token{Kind: Char, Char: '('}, Translate(Event{Code: CodeChar, Name: "parenleft"}))
	assert.Equal(t, Token{Kind: Char, Char: ':'}, Translate(Event{Code: CodeChar, Name: "colon"}))
	assert.Equal(t, Ignored, Translate(Event{Code: CodeChar, Name: "dead_acute"}).Kind)
	assert.Equal(t, Ignored, Translate(Event{Code: CodeChar, Name: "XF86AudioPlay"}).Kind)
}

func TestTranslateNameCommitAndControl(t *testing.T) {
	assert.Equal(t, CommitSpace, Translate(Event{Code: CodeChar, Name: " "}).Commit)
	assert.Equal(t, CommitReturn, Translate(Event{Code: CodeChar, Name: "\r"}).Commit)
	assert.Equal(t, Ignored, Translate(Event{Code: CodeChar, Name: "\x1b"}).Kind)
	// A bare combining accent is a dead-key artefact.
	assert.Equal(t, Ignored, Translate(Event{Code: CodeChar, Name: "\u0301"}).Kind)
}

func TestTranslateBaseFallback(t *testing.T) {
	assert.Equal(t, Token{Kind: Char, Char: 'a'}, Translate(Event{Code: CodeChar, Base: 'a'}))
	assert.Equal(t, Token{Kind: Char, Char: 'A'}, Translate(Event{Code: CodeChar, Base: 'a', Shift: true}))
	assert.Equal(t, Token{Kind: Char, Char: '7'}, Translate(Event{Code: CodeChar, Base: '7'}))
	assert.Equal(t, Token{Kind: Char, Char: '!'}, Translate(Event{Code: CodeChar, Base: '1', Shift: true}))
	assert.Equal(t, Token{Kind: Char, Char: '('}, Translate(Event{Code: CodeChar, Base: '9', Shift: true}))
	assert.Equal(t, Token{Kind: Char, Char: ')'}, Translate(Event{Code: CodeChar, Base: '0', Shift: true}))
	assert.Equal(t, Token{Kind: Char, Char: ':'}, Translate(Event{Code: CodeChar, Base: ';', Shift: true}))
	assert.Equal(t, Token{Kind: Char, Char: ','}, Translate(Event{Code: CodeChar, Base: ','}))
}

func TestSequence(t *testing.T) {
	events := Sequence(":hi\b \t\n")
	kinds := make([]Kind, len(events))
	for i, ev := range events {
		kinds[i] = Translate(ev).Kind
	}
	assert.Equal(t, []Kind{Char, Char, Char, Backspace, Commit, Commit, Commit}, kinds)
}
