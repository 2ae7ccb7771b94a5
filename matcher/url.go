package matcher

import (
	"strings"
	"unicode"
)

// LooksLikeURL reports whether s starts with an explicit URL prefix.
func LooksLikeURL(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "http://") ||
		strings.HasPrefix(s, "https://") ||
		strings.HasPrefix(s, "www.")
}

// IsURL extends LooksLikeURL with a bare-domain heuristic: a single word
// whose host part ends in a dot and a 2 to 63 character top-level label
// containing at least one letter, with no slash before that dot.
func IsURL(s string) bool {
	s = strings.TrimSpace(s)
	if LooksLikeURL(s) {
		return true
	}
	if s == "" || strings.IndexFunc(s, unicode.IsSpace) >= 0 {
		return false
	}
	host := s
	if i := strings.IndexAny(host, "/?#"); i >= 0 {
		host = host[:i]
	}
	if i := strings.LastIndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	dot := strings.LastIndexByte(host, '.')
	if dot <= 0 {
		return false
	}
	return validTLD(host[dot+1:])
}

func validTLD(tld string) bool {
	if len(tld) < 2 || len(tld) > 63 {
		return false
	}
	letter := false
	for _, r := range tld {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			letter = true
		case r >= '0' && r <= '9', r == '-':
		default:
			return false
		}
	}
	return letter
}
