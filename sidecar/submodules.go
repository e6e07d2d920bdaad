// Grounded on config/modules.go's Module{Path,URL,Branch} shape (kept from
// the teacher for .gitmodules parsing), extended with the recorded gitlink
// OID clone materializes each submodule at (spec §4.14 step 11).
package sidecar

import (
	"sort"

	billy "github.com/go-git/go-billy/v5"

	git "github.com/kvidal/gitcore"
	"github.com/kvidal/gitcore/plumbing/pathsafe"
)

const submodulesFile = "submodules-codex.json"

// SubmoduleEntry is one recorded submodule.
type SubmoduleEntry struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	URL    string `json:"url"`
	Branch string `json:"branch,omitempty"`
	OID    string `json:"oid"`
}

// Submodules is the normalized submodules-codex.json payload, keyed by name.
type Submodules struct {
	Entries map[string]SubmoduleEntry `json:"entries"`
}

// LoadSubmodules reads submodules-codex.json, returning an empty set if
// absent.
func LoadSubmodules(fs billy.Filesystem) (*Submodules, error) {
	s := &Submodules{Entries: map[string]SubmoduleEntry{}}
	if err := load(fs, submodulesFile, s); err != nil {
		return nil, err
	}
	if s.Entries == nil {
		s.Entries = map[string]SubmoduleEntry{}
	}
	return s, nil
}

// Set validates and upserts entry, then persists the table.
func (s *Submodules) Set(fs billy.Filesystem, entry SubmoduleEntry) error {
	if entry.Name == "" {
		return git.Errorf(git.InvalidArgument, "submodule name must be non-empty")
	}
	if !pathsafe.IsSafe(entry.Path) {
		return git.Errorf(git.InvalidArgument, "submodule path %q is not worktree-safe", entry.Path)
	}
	if entry.URL == "" {
		return git.Errorf(git.InvalidArgument, "submodule %q: empty URL", entry.Name)
	}
	s.Entries[entry.Name] = entry
	return store(fs, submodulesFile, s)
}

// List returns entries sorted by name.
func (s *Submodules) List() []SubmoduleEntry {
	names := make([]string, 0, len(s.Entries))
	for n := range s.Entries {
		names = append(names, n)
	}
	sort.Strings(names)

	out := make([]SubmoduleEntry, 0, len(names))
	for _, n := range names {
		out = append(out, s.Entries[n])
	}
	return out
}
