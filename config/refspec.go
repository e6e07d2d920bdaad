package config

import (
	"strings"

	"github.com/kvidal/gitcore/plumbing"
)

const (
	refSpecWildcard  = "*"
	refSpecForce     = "+"
	refSpecSeparator = ":"
)

// RefSpec is a mapping from remote references to local ones. The format is
// an optional "+", followed by "<src>:<dst>", where <src> is the pattern
// for references on the remote side and <dst> is where those references
// are written locally. A leading "+" tells the fetch/receive-pack layer to
// update the destination even when it is not a fast-forward.
//
// e.g. "+refs/heads/*:refs/remotes/origin/*"
type RefSpec string

// Validate reports whether the RefSpec is well-formed: exactly one ":"
// separator, and the same number of "*" wildcards (0 or 1) on each side.
func (s RefSpec) Validate() error {
	if s.IsValid() {
		return nil
	}
	return ErrInvalid
}

// IsValid reports whether the RefSpec is well-formed.
func (s RefSpec) IsValid() bool {
	spec := string(s)
	if strings.Count(spec, refSpecSeparator) != 1 {
		return false
	}

	sep := strings.Index(spec, refSpecSeparator)
	if sep == len(spec)-1 {
		return false
	}

	ws := strings.Count(spec[:sep], refSpecWildcard)
	wd := strings.Count(spec[sep+1:], refSpecWildcard)
	return ws == wd && ws < 2 && wd < 2
}

// IsForceUpdate reports whether the refspec is "+"-prefixed.
func (s RefSpec) IsForceUpdate() bool {
	return len(s) > 0 && s[0] == refSpecForce[0]
}

// Src returns the source side of the refspec.
func (s RefSpec) Src() string {
	spec := string(s)
	start := 0
	if s.IsForceUpdate() {
		start = 1
	}
	end := strings.Index(spec, refSpecSeparator)
	return spec[start:end]
}

// Match reports whether n matches the refspec's source pattern.
func (s RefSpec) Match(n plumbing.ReferenceName) bool {
	if !s.isGlob() {
		return s.matchExact(n)
	}
	return s.matchGlob(n)
}

func (s RefSpec) isGlob() bool {
	return strings.Contains(string(s), refSpecWildcard)
}

func (s RefSpec) matchExact(n plumbing.ReferenceName) bool {
	return s.Src() == n.String()
}

func (s RefSpec) matchGlob(n plumbing.ReferenceName) bool {
	src := s.Src()
	name := n.String()
	wildcard := strings.Index(src, refSpecWildcard)

	prefix := src[:wildcard]
	var suffix string
	if wildcard+1 < len(src) {
		suffix = src[wildcard+1:]
	}

	return len(name) >= len(prefix)+len(suffix) &&
		strings.HasPrefix(name, prefix) &&
		strings.HasSuffix(name, suffix)
}

// Dst returns the destination reference name for the given matched source.
func (s RefSpec) Dst(n plumbing.ReferenceName) plumbing.ReferenceName {
	spec := string(s)
	start := strings.Index(spec, refSpecSeparator) + 1
	dst := spec[start:]
	src := s.Src()

	if !s.isGlob() {
		return plumbing.ReferenceName(dst)
	}

	name := n.String()
	ws := strings.Index(src, refSpecWildcard)
	wd := strings.Index(dst, refSpecWildcard)
	match := name[ws : len(name)-(len(src)-(ws+1))]

	return plumbing.ReferenceName(dst[:wd] + match + dst[wd+1:])
}

// String returns the refspec as a plain string.
func (s RefSpec) String() string {
	return string(s)
}

// MatchAny reports whether any refspec in l matches n.
func MatchAny(l []RefSpec, n plumbing.ReferenceName) bool {
	for _, r := range l {
		if r.Match(n) {
			return true
		}
	}
	return false
}
