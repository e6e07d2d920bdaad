package sidecar

import (
	"sort"

	"dario.cat/mergo"
	billy "github.com/go-git/go-billy/v5"

	git "github.com/kvidal/gitcore"
)

const remotesFile = "remotes-codex.json"

// RemoteEntry is one configured remote (spec §4.14 steps 6/10: clone
// rebinds/records "origin" here with its promisor/filter metadata).
type RemoteEntry struct {
	Name               string   `json:"name"`
	URL                string   `json:"url"`
	FetchRefSpecs      []string `json:"fetchRefSpecs"`
	Promisor           bool     `json:"promisor,omitempty"`
	PartialCloneFilter string   `json:"partialCloneFilter,omitempty"`
}

// Remotes is the normalized remotes-codex.json payload, keyed by name.
type Remotes struct {
	Entries map[string]RemoteEntry `json:"entries"`
}

// LoadRemotes reads remotes-codex.json, returning an empty set if absent.
func LoadRemotes(fs billy.Filesystem) (*Remotes, error) {
	r := &Remotes{Entries: map[string]RemoteEntry{}}
	if err := load(fs, remotesFile, r); err != nil {
		return nil, err
	}
	if r.Entries == nil {
		r.Entries = map[string]RemoteEntry{}
	}
	return r, nil
}

// Set upserts entry by name and persists the table. Fields the caller
// leaves zero-valued are filled in from the previously recorded entry (if
// any) via mergo, so a partial update — e.g. one that only changes URL —
// does not revert FetchRefSpecs/Promisor/PartialCloneFilter to zero; a
// brand-new entry with no FetchRefSpecs defaults to origin's standard
// remote-tracking refspec (spec §4.14 step 10).
func (r *Remotes) Set(fs billy.Filesystem, entry RemoteEntry) error {
	if entry.Name == "" {
		return git.Errorf(git.InvalidArgument, "remote name must be non-empty")
	}
	if existing, ok := r.Entries[entry.Name]; ok {
		if err := mergo.Merge(&entry, existing); err != nil {
			return git.Wrap(git.IOError, err)
		}
	}
	if len(entry.FetchRefSpecs) == 0 {
		entry.FetchRefSpecs = []string{"+refs/heads/*:refs/remotes/" + entry.Name + "/*"}
	}
	r.Entries[entry.Name] = entry
	return store(fs, remotesFile, r)
}

// Remove deletes entry name, failing NOT_FOUND if absent.
func (r *Remotes) Remove(fs billy.Filesystem, name string) error {
	if _, ok := r.Entries[name]; !ok {
		return git.Errorf(git.NotFound, "remote %q not found", name)
	}
	delete(r.Entries, name)
	return store(fs, remotesFile, r)
}

// List returns entries sorted by name.
func (r *Remotes) List() []RemoteEntry {
	names := make([]string, 0, len(r.Entries))
	for n := range r.Entries {
		names = append(names, n)
	}
	sort.Strings(names)

	out := make([]RemoteEntry, 0, len(names))
	for _, n := range names {
		out = append(out, r.Entries[n])
	}
	return out
}
