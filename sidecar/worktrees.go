// Grounded on spec §4.14's worktree state machine: "entry prunable flag
// toggled by markWorktreePrunable; pruneWorktrees removes flagged entries."
package sidecar

import (
	"sort"

	billy "github.com/go-git/go-billy/v5"

	git "github.com/kvidal/gitcore"
)

const worktreesFile = "worktrees-codex.json"

// WorktreeEntry is one linked worktree.
type WorktreeEntry struct {
	Path     string `json:"path"`
	Branch   string `json:"branch"`
	HeadOID  string `json:"headOid"`
	Prunable bool   `json:"prunable"`
}

// Worktrees is the normalized worktrees-codex.json payload, keyed by path.
type Worktrees struct {
	Entries map[string]WorktreeEntry `json:"entries"`
}

// LoadWorktrees reads worktrees-codex.json, returning an empty set if
// absent.
func LoadWorktrees(fs billy.Filesystem) (*Worktrees, error) {
	w := &Worktrees{Entries: map[string]WorktreeEntry{}}
	if err := load(fs, worktreesFile, w); err != nil {
		return nil, err
	}
	if w.Entries == nil {
		w.Entries = map[string]WorktreeEntry{}
	}
	return w, nil
}

// Add registers a new worktree entry and persists the table.
func (w *Worktrees) Add(fs billy.Filesystem, entry WorktreeEntry) error {
	if entry.Path == "" {
		return git.Errorf(git.InvalidArgument, "worktree path must be non-empty")
	}
	w.Entries[entry.Path] = entry
	return store(fs, worktreesFile, w)
}

// MarkPrunable sets the prunable flag on the entry at path.
func (w *Worktrees) MarkPrunable(fs billy.Filesystem, path string) error {
	entry, ok := w.Entries[path]
	if !ok {
		return git.Errorf(git.NotFound, "worktree %q not found", path)
	}
	entry.Prunable = true
	w.Entries[path] = entry
	return store(fs, worktreesFile, w)
}

// PruneWorktrees removes every entry flagged prunable, returning the
// removed paths in lexicographic order.
func (w *Worktrees) PruneWorktrees(fs billy.Filesystem) ([]string, error) {
	var removed []string
	for path, entry := range w.Entries {
		if entry.Prunable {
			removed = append(removed, path)
		}
	}
	sort.Strings(removed)
	for _, path := range removed {
		delete(w.Entries, path)
	}
	if len(removed) > 0 {
		if err := store(fs, worktreesFile, w); err != nil {
			return nil, err
		}
	}
	return removed, nil
}

// List returns entries sorted by path.
func (w *Worktrees) List() []WorktreeEntry {
	paths := make([]string, 0, len(w.Entries))
	for p := range w.Entries {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	out := make([]WorktreeEntry, 0, len(paths))
	for _, p := range paths {
		out = append(out, w.Entries[p])
	}
	return out
}
