package sidecar

import billy "github.com/go-git/go-billy/v5"

const replaceFile = "replace-codex.json"

// Replace is the normalized replace-codex.json payload: original object
// OID to replacement object OID.
type Replace struct {
	Entries map[string]string `json:"entries"`
}

// LoadReplace reads replace-codex.json, returning an empty set if absent.
func LoadReplace(fs billy.Filesystem) (*Replace, error) {
	r := &Replace{Entries: map[string]string{}}
	if err := load(fs, replaceFile, r); err != nil {
		return nil, err
	}
	if r.Entries == nil {
		r.Entries = map[string]string{}
	}
	return r, nil
}

// Set records that originalOID resolves to replacementOID and persists the
// table.
func (r *Replace) Set(fs billy.Filesystem, originalOID, replacementOID string) error {
	r.Entries[originalOID] = replacementOID
	return store(fs, replaceFile, r)
}

// Remove deletes the replacement for originalOID, a no-op if absent.
func (r *Replace) Remove(fs billy.Filesystem, originalOID string) error {
	delete(r.Entries, originalOID)
	return store(fs, replaceFile, r)
}

// Resolve returns the replacement OID for oid, or oid itself if unreplaced.
func (r *Replace) Resolve(oid string) string {
	if replacement, ok := r.Entries[oid]; ok {
		return replacement
	}
	return oid
}
