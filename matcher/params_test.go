package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCall(t *testing.T) {
	base, args, ok := ParseCall("greet(a, b ,,  )")
	assert.True(t, ok)
	assert.Equal(t, "greet", base)
	assert.Equal(t, []string{"a", "b"}, args)

	base, args, ok = ParseCall("now()")
	assert.True(t, ok)
	assert.Equal(t, "now", base)
	assert.Empty(t, args)

	for _, bad := range []string{"(x)", "greet", "greet(x", "gr-eet(x)", "greet)", "gréet(x)"} {
		_, _, ok := ParseCall(bad)
		assert.False(t, ok, bad)
	}
}

func TestParseDecl(t *testing.T) {
	base, names, ok := ParseDecl("mail(to,subject)")
	assert.True(t, ok)
	assert.Equal(t, "mail", base)
	assert.Equal(t, []string{"to", "subject"}, names)

	_, _, ok = ParseDecl("plain")
	assert.False(t, ok)
}

func TestBind(t *testing.T) {
	vars := Bind([]string{"a", "b", "c"}, []string{"x", "y"})
	assert.Equal(t, map[string]string{"a": "x", "b": "y", "1": "x", "2": "y"}, vars)
}

func TestSubstitute(t *testing.T) {
	vars := map[string]string{"name": "World", "1": "World", "n": "N"}
	all := []string{"World", "two"}
	cases := map[string]string{
		"Hello, $name!":       "Hello, World!",
		"Hello, ${name}!":     "Hello, World!",
		"$1 ${1}":             "World World",
		"$* | ${*}":           "World two | World two",
		"$names":              "$names",
		"${missing} $missing": "${missing} $missing",
		"$2 $9":               "$2 $9",
		"cost: $ 5":           "cost: $ 5",
		"trailing $":          "trailing $",
		"unclosed ${name":     "unclosed ${name",
		"${1+2}":              "${1+2}",
		"$n$n":                "NN",
		"no placeholders":     "no placeholders",
		"$11":                 "World1",
	}
	for body, want := range cases {
		assert.Equal(t, want, Substitute(body, vars, all), body)
	}
}

func TestSubstituteIsNotRecursive(t *testing.T) {
	vars := map[string]string{"a": "$b", "b": "boom"}
	assert.Equal(t, "$b", Substitute("$a", vars, nil))
}

func TestSubstituteIdempotent(t *testing.T) {
	vars := Bind([]string{"who"}, []string{"Ann"})
	body := "hi $who, ${who}, $1 and $other ${x} $*"
	once := Substitute(body, vars, []string{"Ann"})
	twice := Substitute(once, vars, []string{"Ann"})
	assert.Equal(t, once, twice)
	assert.Equal(t, once, Substitute(body, vars, []string{"Ann"}))
}
