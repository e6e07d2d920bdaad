package config

import (
	"errors"

	"github.com/kvidal/gitcore/plumbing"
	format "github.com/kvidal/gitcore/plumbing/format/config"
)

var (
	// ErrBranchEmptyName is returned when a branch has an empty name.
	ErrBranchEmptyName = errors.New("branch config: empty name")
	// ErrBranchInvalidMerge is returned when a branch's merge ref is
	// malformed or its rebase value is not one of "", "true", "false" or
	// "interactive".
	ErrBranchInvalidMerge = errors.New("branch config: invalid merge")
	// ErrBranchBadRemote is returned when a branch references an unknown
	// remote name (validated by the caller, since Branch itself has no
	// view of the Config's Remotes map).
	ErrBranchBadRemote = errors.New("branch config: invalid remote")
)

// Branch describes a local branch's upstream tracking configuration, the
// "[branch \"name\"]" section of a repository config file.
type Branch struct {
	// Name of the branch.
	Name string
	// Remote name of the remote this branch tracks, or "." for a local
	// branch.
	Remote string
	// Merge is the remote reference the branch merges from on pull.
	Merge plumbing.ReferenceName
	// Rebase enables pull --rebase for this branch: "true", "false", or
	// "interactive".
	Rebase string

	raw *format.Subsection
}

// Validate checks the fields and sets any missing default.
func (b *Branch) Validate() error {
	if b.Name == "" {
		return ErrBranchEmptyName
	}

	if b.Merge != "" && b.Merge.Validate() != nil {
		return ErrBranchInvalidMerge
	}

	switch b.Rebase {
	case "", "false", "true", "interactive":
	default:
		return ErrBranchInvalidMerge
	}

	return nil
}

func (b *Branch) unmarshal(s *format.Subsection) error {
	b.raw = s
	b.Name = s.Name
	b.Remote = s.Option(remoteKey)
	b.Rebase = s.Option(rebaseKey)

	if m := s.Option(mergeKey); m != "" {
		b.Merge = plumbing.ReferenceName(m)
	}

	return b.Validate()
}

func (b *Branch) marshal() *format.Subsection {
	if b.raw == nil {
		b.raw = &format.Subsection{}
	}

	b.raw.Name = b.Name

	if b.Remote == "" {
		b.raw.RemoveOption(remoteKey)
	} else {
		b.raw.SetOption(remoteKey, b.Remote)
	}

	if b.Merge == "" {
		b.raw.RemoveOption(mergeKey)
	} else {
		b.raw.SetOption(mergeKey, string(b.Merge))
	}

	if b.Rebase == "" {
		b.raw.RemoveOption(rebaseKey)
	} else {
		b.raw.SetOption(rebaseKey, b.Rebase)
	}

	return b.raw
}
