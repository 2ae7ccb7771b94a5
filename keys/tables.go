package keys

// shifted maps each US-layout digit and punctuation key to the character it
// produces with shift held.
var shifted = map[rune]rune{
	'1': '!', '2': '@', '3': '#', '4': '$', '5': '%',
	'6': '^', '7': '&', '8': '*', '9': '(', '0': ')',
	'-': '_', '=': '+', '[': '{', ']': '}', '\\': '|',
	';': ':', '\'': '"', ',': '<', '.': '>', '/': '?',
	'`': '~',
}

// keysyms maps X11-style symbol names, as some hooks report them, to
// their characters.
var keysyms = map[string]rune{
	"exclam":       '!',
	"at":           '@',
	"numbersign":   '#',
	"dollar":       '$',
	"percent":      '%',
	"asciicircum":  '^',
	"ampersand":    '&',
	"asterisk":     '*',
	"parenleft":    '(',
	"parenright":   ')',
	"minus":        '-',
	"underscore":   '_',
	"equal":        '=',
	"plus":         '+',
	"bracketleft":  '[',
	"bracketright": ']',
	"braceleft":    '{',
	"braceright":   '}',
	"backslash":    '\\',
	"bar":          '|',
	"semicolon":    ';',
	"colon":        ':',
	"apostrophe":   '\'',
	"quotedbl":     '"',
	"comma":        ',',
	"less":         '<',
	"period":       '.',
	"greater":      '>',
	"slash":        '/',
	"question":     '?',
	"grave":        '`',
	"asciitilde":   '~',
}
