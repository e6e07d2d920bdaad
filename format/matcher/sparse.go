package matcher

import "strings"

// SparseMode selects how SparseMatcher.Match interprets its rules.
type SparseMode int

const (
	// ConeMode rules are either "." (root) or a slash-separated prefix;
	// a path matches iff its segment prefix equals the rule's segments.
	ConeMode SparseMode = iota
	// PatternMode rules are globs per the shared grammar (spec §4.8).
	PatternMode
)

// SparseMatcher implements sparse-checkout path selection in either cone
// or pattern mode (spec §4.8).
type SparseMatcher struct {
	mode  SparseMode
	rules []string    // cone mode: normalized segment prefixes
	globs []matchFunc // pattern mode: compiled globs
}

// NewSparseMatcher builds a SparseMatcher from already-normalized rules
// (see NormalizeRules).
func NewSparseMatcher(mode SparseMode, rules []string) (*SparseMatcher, error) {
	m := &SparseMatcher{mode: mode}

	if mode == ConeMode {
		m.rules = rules
		return m, nil
	}

	for _, r := range rules {
		re, err := CompileGlob(r)
		if err != nil {
			return nil, err
		}
		m.globs = append(m.globs, re.MatchString)
	}
	return m, nil
}

// Match reports whether path is selected by the sparse-checkout rule set.
func (m *SparseMatcher) Match(path string) bool {
	if m.mode == ConeMode {
		return m.matchCone(path)
	}
	for _, g := range m.globs {
		if g(path) {
			return true
		}
	}
	return false
}

func (m *SparseMatcher) matchCone(path string) bool {
	for _, rule := range m.rules {
		if rule == "." {
			return true
		}
		if path == rule || strings.HasPrefix(path, rule+"/") {
			return true
		}
	}
	return false
}
