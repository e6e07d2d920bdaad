package objectstore

import (
	"fmt"
	"path"

	"github.com/kvidal/gitcore/plumbing/object"
)

// Materialized is the flat result of walking a tree to completion (spec
// §4.5): every blob reachable through directory entries, keyed by its
// "/"-joined path, plus the gitlinks encountered along the way (recorded,
// never recursed into).
type Materialized struct {
	Files    map[string][]byte
	Gitlinks []Gitlink
}

// Gitlink is a submodule commit pointer found during tree materialization.
type Gitlink struct {
	Path string
	OID  string
}

// MaterializeTree recursively walks the tree object at oid, composing file
// paths with "/" and recursing into directory entries. Gitlink entries are
// recorded but not followed, matching spec §4.5's contract for clone's
// working-tree population.
func (s *Store) MaterializeTree(oid string) (*Materialized, error) {
	m := &Materialized{Files: map[string][]byte{}}
	if err := s.walkTree(oid, "", m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Store) walkTree(oid, prefix string, m *Materialized) error {
	objType, payload, _, err := s.ReadEnvelope(oid)
	if err != nil {
		return fmt.Errorf("materialize tree: read %s: %w", oid, err)
	}
	if objType != "tree" {
		return fmt.Errorf("materialize tree: %s is a %s, not a tree", oid, objType)
	}

	entries, err := object.ParseTree(payload, s.algo.Size())
	if err != nil {
		return fmt.Errorf("materialize tree: parse %s: %w", oid, err)
	}

	for _, e := range entries {
		full := e.Name
		if prefix != "" {
			full = path.Join(prefix, e.Name)
		}

		switch {
		case e.IsGitlink():
			m.Gitlinks = append(m.Gitlinks, Gitlink{Path: full, OID: e.OID})
		case e.IsDir():
			if err := s.walkTree(e.OID, full, m); err != nil {
				return err
			}
		default:
			blob, err := s.ReadObject(e.OID)
			if err != nil {
				return fmt.Errorf("materialize tree: read blob %s (%s): %w", e.OID, full, err)
			}
			m.Files[full] = blob
		}
	}

	return nil
}

// CommitTreeOID reads the commit at oid and returns its tree OID.
func (s *Store) CommitTreeOID(oid string) (string, error) {
	objType, payload, _, err := s.ReadEnvelope(oid)
	if err != nil {
		return "", err
	}
	if objType != "commit" {
		return "", fmt.Errorf("%s is a %s, not a commit", oid, objType)
	}
	h, err := object.ParseCommit(payload)
	if err != nil {
		return "", err
	}
	return h.TreeOID, nil
}

// CommitParents reads the commit at oid and returns its parent OIDs.
func (s *Store) CommitParents(oid string) ([]string, error) {
	objType, payload, _, err := s.ReadEnvelope(oid)
	if err != nil {
		return nil, err
	}
	if objType != "commit" {
		return nil, fmt.Errorf("%s is a %s, not a commit", oid, objType)
	}
	h, err := object.ParseCommit(payload)
	if err != nil {
		return nil, err
	}
	return h.ParentOIDs, nil
}
