// Package object holds free functions over raw object payload bytes —
// commit/tree parsing and tree materialization — kept independent of any
// storage backend so they are shared between the object store and the
// clone orchestrator, per spec §9 ("Polymorphic object payload").
package object

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"
)

// CommitHeader is the result of parsing a commit payload's header block
// (spec §3): the mandatory tree OID and zero or more parent OIDs.
type CommitHeader struct {
	TreeOID    string
	ParentOIDs []string
}

// ParseCommit extracts {treeOid, parentOids[]} from a commit payload. A
// commit whose header is missing "tree" is rejected (spec §3).
func ParseCommit(payload []byte) (CommitHeader, error) {
	var h CommitHeader

	headerEnd := bytes.Index(payload, []byte("\n\n"))
	header := payload
	if headerEnd >= 0 {
		header = payload[:headerEnd]
	}

	for _, line := range strings.Split(string(header), "\n") {
		switch {
		case strings.HasPrefix(line, "tree "):
			h.TreeOID = strings.TrimSpace(strings.TrimPrefix(line, "tree "))
		case strings.HasPrefix(line, "parent "):
			h.ParentOIDs = append(h.ParentOIDs, strings.TrimSpace(strings.TrimPrefix(line, "parent ")))
		}
	}

	if h.TreeOID == "" {
		return CommitHeader{}, fmt.Errorf("commit payload missing mandatory tree line")
	}
	return h, nil
}

// Tree entry mode kinds, spec §3.
const (
	ModeDir     = 0o040000
	ModeGitlink = 0o160000
	ModeFile    = 0o100644
)

// TreeEntry is one parsed entry of a tree payload.
type TreeEntry struct {
	Mode uint32
	Name string
	OID  string
}

// IsDir reports whether the entry is a directory (mode 0o040000).
func (e TreeEntry) IsDir() bool { return e.Mode == ModeDir }

// IsGitlink reports whether the entry is a submodule commit pointer (mode
// 0o160000).
func (e TreeEntry) IsGitlink() bool { return e.Mode == ModeGitlink }

// ParseTree decodes a tree payload's "<octal-mode> SP <name> NUL
// <raw-oid-bytes>" entries, given the hash's raw byte length (20 for sha1,
// 32 for sha256).
func ParseTree(payload []byte, hashLen int) ([]TreeEntry, error) {
	var entries []TreeEntry
	rest := payload

	for len(rest) > 0 {
		sp := bytes.IndexByte(rest, ' ')
		if sp < 0 {
			return nil, fmt.Errorf("tree entry missing mode separator")
		}
		modeStr := string(rest[:sp])
		var mode uint32
		if _, err := fmt.Sscanf(modeStr, "%o", &mode); err != nil {
			return nil, fmt.Errorf("tree entry invalid mode %q: %w", modeStr, err)
		}
		rest = rest[sp+1:]

		nul := bytes.IndexByte(rest, 0)
		if nul < 0 {
			return nil, fmt.Errorf("tree entry missing name terminator")
		}
		name := string(rest[:nul])
		if name == "" || strings.ContainsRune(name, '/') {
			return nil, fmt.Errorf("tree entry has invalid name %q", name)
		}
		rest = rest[nul+1:]

		if len(rest) < hashLen {
			return nil, fmt.Errorf("tree entry truncated OID")
		}
		oid := hex.EncodeToString(rest[:hashLen])
		rest = rest[hashLen:]

		entries = append(entries, TreeEntry{Mode: mode, Name: name, OID: oid})
	}

	return entries, nil
}

// EncodeTree is the inverse of ParseTree, used by code that synthesizes
// trees (e.g. sidecar fixtures and tests).
func EncodeTree(entries []TreeEntry, hashLen int) ([]byte, error) {
	var buf bytes.Buffer
	for _, e := range entries {
		fmt.Fprintf(&buf, "%o %s\x00", e.Mode, e.Name)
		raw, err := hex.DecodeString(e.OID)
		if err != nil || len(raw) != hashLen {
			return nil, fmt.Errorf("encode tree: invalid oid %q for hash length %d", e.OID, hashLen)
		}
		buf.Write(raw)
	}
	return buf.Bytes(), nil
}
