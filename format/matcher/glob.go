// Package matcher implements the shared glob grammar spec §4.8 underlies
// ignore, attribute, and sparse-checkout pattern-mode evaluation: `**`
// matches any characters including `/`, `*` matches any character except
// `/`, `?` matches a single non-`/` character, everything else is a
// regex-escaped literal, and the whole pattern is anchored.
//
// Grounded on the Matcher interface shape in go-git's
// plumbing/format/gitignore/noder.go (the glob-to-regex translator itself,
// pattern.go, was not present in the retrieval) — rebuilt fresh against
// spec.md's documented grammar.
package matcher

import (
	"regexp"
	"strings"
)

// CompileGlob translates one glob pattern into an anchored *regexp.Regexp
// per spec §4.8's grammar.
func CompileGlob(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")

	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch {
		case c == '*' && i+1 < len(runes) && runes[i+1] == '*':
			b.WriteString(".*")
			i++
		case c == '*':
			b.WriteString("[^/]*")
		case c == '?':
			b.WriteString("[^/]")
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}

	b.WriteString("$")
	return regexp.Compile(b.String())
}

// MustCompileGlob is CompileGlob, panicking on an invalid pattern; used for
// patterns already validated or literal in calling code.
func MustCompileGlob(pattern string) *regexp.Regexp {
	re, err := CompileGlob(pattern)
	if err != nil {
		panic(err)
	}
	return re
}
