package plumbing

import (
	"errors"
	"fmt"
	"strings"
)

// ErrReferenceNotFound is returned when a reference is not found.
var ErrReferenceNotFound = errors.New("reference not found")

// ReferenceName is the name of a reference, e.g. "refs/heads/main".
type ReferenceName string

const (
	// HEAD is the reference name for the repository's HEAD.
	HEAD ReferenceName = "HEAD"

	refHeadPrefix    = "refs/heads/"
	refTagPrefix     = "refs/tags/"
	refRemotePrefix  = "refs/remotes/"
	refNotePrefix    = "refs/notes/"
	remoteHEADSuffix = "/HEAD"
)

// NewBranchReferenceName builds the canonical name of a local branch.
func NewBranchReferenceName(name string) ReferenceName {
	return ReferenceName(refHeadPrefix + name)
}

// NewTagReferenceName builds the canonical name of a tag.
func NewTagReferenceName(name string) ReferenceName {
	return ReferenceName(refTagPrefix + name)
}

// NewRemoteReferenceName builds the canonical name of a remote-tracking
// branch.
func NewRemoteReferenceName(remote, name string) ReferenceName {
	return ReferenceName(refRemotePrefix + remote + "/" + name)
}

// NewRemoteHEADReferenceName builds the canonical name of a remote's HEAD
// pointer, e.g. "refs/remotes/origin/HEAD".
func NewRemoteHEADReferenceName(remote string) ReferenceName {
	return ReferenceName(refRemotePrefix + remote + remoteHEADSuffix)
}

// NewNoteReferenceName builds the canonical name of a notes ref.
func NewNoteReferenceName(name string) ReferenceName {
	return ReferenceName(refNotePrefix + name)
}

// String returns the name as a plain string.
func (r ReferenceName) String() string {
	return string(r)
}

// Short returns the last path component of the reference name, the form
// users type at the CLI (e.g. "main" for "refs/heads/main").
func (r ReferenceName) Short() string {
	s := string(r)
	if i := strings.LastIndex(s, "/"); i >= 0 {
		return s[i+1:]
	}
	return s
}

// IsBranch reports whether r names a local branch.
func (r ReferenceName) IsBranch() bool {
	return strings.HasPrefix(string(r), refHeadPrefix)
}

// IsTag reports whether r names a tag.
func (r ReferenceName) IsTag() bool {
	return strings.HasPrefix(string(r), refTagPrefix)
}

// IsRemote reports whether r names a remote-tracking ref.
func (r ReferenceName) IsRemote() bool {
	return strings.HasPrefix(string(r), refRemotePrefix)
}

// IsNote reports whether r names a notes ref.
func (r ReferenceName) IsNote() bool {
	return strings.HasPrefix(string(r), refNotePrefix)
}

// Validate reports whether r is a well-formed reference name: non-empty, no
// space or NUL, and (unless it is the bare HEAD sentinel) starting under
// "refs/".
func (r ReferenceName) Validate() error {
	s := string(r)
	if s == "" {
		return fmt.Errorf("%w: empty reference name", ErrReferenceNotFound)
	}
	if strings.ContainsAny(s, " \x00") {
		return fmt.Errorf("%w: invalid characters in %q", ErrReferenceNotFound, s)
	}
	if s == string(HEAD) {
		return nil
	}
	if !strings.HasPrefix(s, "refs/") {
		return fmt.Errorf("%w: %q does not start with refs/", ErrReferenceNotFound, s)
	}
	return nil
}
