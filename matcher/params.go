package matcher

import (
	"strconv"
	"strings"
)

// ParseCall splits a typed call such as `greet(World,Bob)` into its base
// name and arguments. Blank arguments are dropped.
func ParseCall(key string) (base string, args []string, ok bool) {
	base, inner, ok := splitParens(key)
	if !ok {
		return "", nil, false
	}
	for _, a := range strings.Split(inner, ",") {
		if a = strings.TrimSpace(a); a != "" {
			args = append(args, a)
		}
	}
	return base, args, true
}

// ParseDecl splits a stored shortcut such as `greet(name)` into its base
// name and placeholder names. Shortcuts without a parameter list are not
// declarations.
func ParseDecl(shortcut string) (base string, names []string, ok bool) {
	base, inner, ok := splitParens(shortcut)
	if !ok {
		return "", nil, false
	}
	for _, n := range strings.Split(inner, ",") {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	return base, names, true
}

func splitParens(s string) (base, inner string, ok bool) {
	open := strings.IndexByte(s, '(')
	if open <= 0 || !strings.HasSuffix(s, ")") || open == len(s)-1 {
		return "", "", false
	}
	base = s[:open]
	if !isIdent(base) {
		return "", "", false
	}
	return base, s[open+1 : len(s)-1], true
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isIdentByte(s[i]) {
			return false
		}
	}
	return true
}

func isIdentByte(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

// Bind maps placeholder names to arguments by position and installs the
// numeric aliases "1", "2", … for every argument.
func Bind(names, args []string) map[string]string {
	vars := make(map[string]string, len(names)+len(args))
	for i, a := range args {
		vars[strconv.Itoa(i+1)] = a
		if i < len(names) {
			vars[names[i]] = a
		}
	}
	return vars
}

// Substitute replaces `${name}`, `$name`, `${k}`, `$k`, `$*` and `${*}` in
// body in a single left-to-right pass. Substituted values are not
// rescanned and unknown placeholders are left as written.
func Substitute(body string, vars map[string]string, all []string) string {
	if !strings.Contains(body, "$") {
		return body
	}
	joined := strings.Join(all, " ")
	var sb strings.Builder
	sb.Grow(len(body))

	for i := 0; i < len(body); {
		c := body[i]
		if c != '$' || i+1 >= len(body) {
			sb.WriteByte(c)
			i++
			continue
		}
		next := body[i+1]
		switch {
		case next == '*':
			sb.WriteString(joined)
			i += 2
		case next == '{':
			end := strings.IndexByte(body[i+2:], '}')
			if end < 0 {
				sb.WriteString(body[i:])
				return sb.String()
			}
			name := body[i+2 : i+2+end]
			whole := body[i : i+3+end]
			if name == "*" {
				sb.WriteString(joined)
			} else if v, ok := vars[name]; ok {
				sb.WriteString(v)
			} else {
				sb.WriteString(whole)
			}
			i += len(whole)
		case next >= '1' && next <= '9':
			if v, ok := vars[string(next)]; ok {
				sb.WriteString(v)
			} else {
				sb.WriteString(body[i : i+2])
			}
			i += 2
		case isIdentByte(next):
			j := i + 1
			for j < len(body) && isIdentByte(body[j]) {
				j++
			}
			if v, ok := vars[body[i+1:j]]; ok {
				sb.WriteString(v)
			} else {
				sb.WriteString(body[i:j])
			}
			i = j
		default:
			sb.WriteByte(c)
			i++
		}
	}
	return sb.String()
}
