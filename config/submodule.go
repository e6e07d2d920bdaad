package config

import (
	"errors"

	"github.com/kvidal/gitcore/plumbing/pathsafe"

	format "github.com/kvidal/gitcore/plumbing/format/config"
)

// ErrModuleBadPath is returned when a submodule's path fails the module's
// path-safety predicate (no traversal, no absolute path, no NUL).
var ErrModuleBadPath = errors.New("submodule config: unsafe path")

// Submodule is the repository-config view of a submodule, the
// "[submodule \"name\"]" section. It mirrors a subset of the fields the
// .gitmodules Module carries (Module, see modules.go), minus the ones that
// only make sense in .gitmodules itself.
type Submodule struct {
	// Name of the submodule.
	Name string
	// Path, relative to the worktree root.
	Path string
	// URL the submodule repository is cloned from.
	URL string
	// Branch is the remote branch name tracked for updates.
	Branch string

	raw *format.Subsection
}

// Validate checks the fields, returning ErrModuleEmptyPath for a missing
// Path, ErrModuleBadPath for an unsafe Path and ErrModuleEmptyURL for a
// missing URL.
func (m *Submodule) Validate() error {
	if m.Path == "" {
		return ErrModuleEmptyPath
	}

	if !pathsafe.IsSafe(m.Path) {
		return ErrModuleBadPath
	}

	if m.URL == "" {
		return ErrModuleEmptyURL
	}

	if m.Branch == "" {
		m.Branch = DefaultModuleBranch
	}

	return nil
}

func (m *Submodule) unmarshal(s *format.Subsection) {
	m.raw = s
	m.Name = s.Name
	m.Path = s.Option(pathKey)
	m.URL = s.Option(urlKey)
	m.Branch = s.Option(branchKey)
}

func (m *Submodule) marshal() *format.Subsection {
	if m.raw == nil {
		m.raw = &format.Subsection{}
	}

	m.raw.Name = m.Name

	if m.Path == "" {
		m.raw.RemoveOption(pathKey)
	} else {
		m.raw.SetOption(pathKey, m.Path)
	}

	if m.URL == "" {
		m.raw.RemoveOption(urlKey)
	} else {
		m.raw.SetOption(urlKey, m.URL)
	}

	if m.Branch == "" {
		m.raw.RemoveOption(branchKey)
	} else {
		m.raw.SetOption(branchKey, m.Branch)
	}

	return m.raw
}
