// Package capability implements the capability-parity negotiation and
// partial-clone filter negotiation spec §4.11 describes: normalize a
// capability list (trim, drop empty), intersect two lists, and validate a
// partial-clone filter request against the peer's advertised set.
//
// Grounded on plumbing/format/packp's Capabilities type (kept from the
// teacher) for the capability-name vocabulary; this package implements the
// spec's specific parity/negotiation algorithm rather than reusing that
// type's free-form Add/Get API, since the spec's contract is a pure
// normalize-then-intersect function, not a mutable capability set.
package capability

import (
	"sort"
	"strings"

	git "github.com/kvidal/gitcore"
)

// Normalize trims each entry and drops empties, per spec §4.11.
func Normalize(caps []string) []string {
	out := make([]string, 0, len(caps))
	for _, c := range caps {
		c = strings.TrimSpace(c)
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

// Parity returns the sorted lexicographic intersection of two normalized
// capability lists, per spec §4.11.
func Parity(a, b []string) []string {
	bSet := map[string]bool{}
	for _, c := range Normalize(b) {
		bSet[c] = true
	}

	seen := map[string]bool{}
	var out []string
	for _, c := range Normalize(a) {
		if bSet[c] && !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}

	sort.Strings(out)
	return out
}

// NegotiatePartialCloneFilter validates a partial-clone filter negotiation:
// filter must be non-empty after trimming, and caps must contain at least
// one entry equal to "filter" or starting with "filter=" (spec §4.11).
// Returns the trimmed filter and the normalized capability list.
func NegotiatePartialCloneFilter(filter string, caps []string) (string, []string, error) {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return "", nil, git.Errorf(git.InvalidArgument, "partial clone filter must be non-empty")
	}

	normalized := Normalize(caps)
	supported := false
	for _, c := range normalized {
		if c == "filter" || strings.HasPrefix(c, "filter=") {
			supported = true
			break
		}
	}
	if !supported {
		return "", nil, git.Errorf(git.Unsupported, "peer does not advertise filter support")
	}

	return filter, normalized, nil
}

// DedupSorted deduplicates and lexicographically sorts caps, used to build
// the default-plus-extra capability lists receive-pack advertises.
func DedupSorted(caps []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, c := range Normalize(caps) {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out
}
