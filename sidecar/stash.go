package sidecar

import billy "github.com/go-git/go-billy/v5"

const stashFile = "stash-codex.json"

// StashEntry records one stashed working-tree snapshot.
type StashEntry struct {
	Message   string `json:"message"`
	TreeOID   string `json:"treeOid"`
	ParentOID string `json:"parentOid"`
}

// Stash is the stack of stashed snapshots, most recent last.
type Stash struct {
	Entries []StashEntry `json:"entries"`
}

// LoadStash reads stash-codex.json, returning an empty stash if absent.
func LoadStash(fs billy.Filesystem) (*Stash, error) {
	s := &Stash{}
	if err := load(fs, stashFile, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Push appends entry and persists the stash.
func (s *Stash) Push(fs billy.Filesystem, entry StashEntry) error {
	s.Entries = append(s.Entries, entry)
	return store(fs, stashFile, s)
}

// Pop removes and returns the most recent entry, persisting the result.
func (s *Stash) Pop(fs billy.Filesystem) (StashEntry, bool, error) {
	if len(s.Entries) == 0 {
		return StashEntry{}, false, nil
	}
	last := s.Entries[len(s.Entries)-1]
	s.Entries = s.Entries[:len(s.Entries)-1]
	if err := store(fs, stashFile, s); err != nil {
		return StashEntry{}, false, err
	}
	return last, true, nil
}
