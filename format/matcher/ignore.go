package matcher

import "strings"

// ignoreRule is one compiled ignore-file line.
type ignoreRule struct {
	negate bool
	re     matchFunc
}

type matchFunc func(path string) bool

// IgnoreMatcher evaluates ignore patterns in declaration order against a
// "/"-joined relative path: the final matching rule wins, and a
// "!"-prefixed rule un-ignores (spec §4.8).
type IgnoreMatcher struct {
	rules []ignoreRule
}

// NewIgnoreMatcher compiles lines into an IgnoreMatcher, skipping blank
// lines and "#" comments.
func NewIgnoreMatcher(lines []string) (*IgnoreMatcher, error) {
	m := &IgnoreMatcher{}
	for _, raw := range lines {
		line := raw
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		negate := false
		if strings.HasPrefix(line, "!") {
			negate = true
			line = line[1:]
		}

		re, err := CompileGlob(line)
		if err != nil {
			return nil, err
		}
		m.rules = append(m.rules, ignoreRule{negate: negate, re: re.MatchString})
	}
	return m, nil
}

// Match reports whether path is ignored: the last rule whose pattern
// matches determines the outcome (negated rules un-ignore).
func (m *IgnoreMatcher) Match(path string) bool {
	ignored := false
	for _, r := range m.rules {
		if r.re(path) {
			ignored = !r.negate
		}
	}
	return ignored
}
