package sidecar

import billy "github.com/go-git/go-billy/v5"

const notesFile = "notes-codex.json"

// Notes is the normalized notes-codex.json payload: target object OID to
// attached note-blob OID.
type Notes struct {
	Entries map[string]string `json:"entries"`
}

// LoadNotes reads notes-codex.json, returning an empty set if absent.
func LoadNotes(fs billy.Filesystem) (*Notes, error) {
	n := &Notes{Entries: map[string]string{}}
	if err := load(fs, notesFile, n); err != nil {
		return nil, err
	}
	if n.Entries == nil {
		n.Entries = map[string]string{}
	}
	return n, nil
}

// Set attaches noteOID to targetOID and persists the table.
func (n *Notes) Set(fs billy.Filesystem, targetOID, noteOID string) error {
	n.Entries[targetOID] = noteOID
	return store(fs, notesFile, n)
}

// Remove detaches the note for targetOID, a no-op if absent.
func (n *Notes) Remove(fs billy.Filesystem, targetOID string) error {
	delete(n.Entries, targetOID)
	return store(fs, notesFile, n)
}
