// Package history implements the last-modified-commit resolution spec §4.10
// describes: given a path and a starting ref, walk first-parent history
// until a commit whose path content differs from at least one parent is
// found.
//
// Grounded on the teacher's references.go walkGraph/seen-set pattern
// (kept at the module root) — lastModified is implemented directly against
// storage/objectstore's CommitParents/CommitTreeOID rather than the
// teacher's CommitIter graph, which depends on types this retrieval never
// carried (see DESIGN.md, Component J).
package history

import (
	"fmt"
	"path"
	"strings"

	"github.com/kvidal/gitcore/plumbing/hash"
	"github.com/kvidal/gitcore/plumbing/object"
	"github.com/kvidal/gitcore/storage/index"
	"github.com/kvidal/gitcore/storage/objectstore"
	"github.com/kvidal/gitcore/storage/refstore"
)

// Result is the outcome of LastModified: the commit OID that last changed
// path (nil if the path never existed on the walked line), plus whatever
// OID is currently staged for path in the index (nil if untracked).
type Result struct {
	CommitOID *string
	StagedOID *string
}

// ResolveRef resolves a history start point accepting HEAD, a raw OID, or
// refs/<X>, refs/heads/<X>, refs/tags/<X> shorthand, per spec §4.10.
func ResolveRef(refs *refstore.Store, ref string) (string, error) {
	if ref == "" || ref == "HEAD" {
		return refs.ResolveHead()
	}
	if hash.Valid(ref) {
		return ref, nil
	}

	candidates := []string{ref}
	if !strings.HasPrefix(ref, "refs/") {
		candidates = append(candidates,
			"refs/heads/"+ref,
			"refs/tags/"+ref,
			"refs/"+ref,
		)
	}

	for _, name := range candidates {
		if oid, ok, err := refs.ResolveRef(name); err != nil {
			return "", err
		} else if ok {
			return oid, nil
		}
	}

	return "", fmt.Errorf("history: %q does not resolve to a commit", ref)
}

// LastModified resolves ref to a commit and walks first-parent history to
// find the commit that last changed path, per spec §4.10's full algorithm:
// a root commit returns itself iff the path exists there; otherwise, if any
// parent either lacks the path or has it at a different OID, the current
// commit is the change point; else follow the first parent. A seen-set
// prevents revisits.
func LastModified(objects *objectstore.Store, refs *refstore.Store, idx *index.Index, path_, ref string) (Result, error) {
	start, err := ResolveRef(refs, ref)
	if err != nil {
		return Result{}, err
	}

	var res Result
	if idx != nil {
		for _, e := range idx.Entries {
			if e.Path == path_ {
				oid := e.OID
				res.StagedOID = &oid
				break
			}
		}
	}

	seen := map[string]bool{}
	current := start

	for {
		if seen[current] {
			return res, nil
		}
		seen[current] = true

		curOID, err := pathOIDInCommit(objects, current, path_)
		if err != nil {
			return Result{}, err
		}

		parents, err := objects.CommitParents(current)
		if err != nil {
			return Result{}, err
		}

		if len(parents) == 0 {
			if curOID != nil {
				oid := current
				res.CommitOID = &oid
			}
			return res, nil
		}

		changed := false
		for _, p := range parents {
			pOID, err := pathOIDInCommit(objects, p, path_)
			if err != nil {
				return Result{}, err
			}
			if pOID == nil || curOID == nil || *pOID != *curOID {
				changed = true
				break
			}
		}

		if changed {
			if curOID != nil {
				oid := current
				res.CommitOID = &oid
			}
			return res, nil
		}

		current = parents[0]
	}
}

// pathOIDInCommit looks up path's blob OID in commit's tree, walking
// segment by segment and aborting (nil, nil) on a missing mid-path entry
// or a gitlink, per spec §4.10.
func pathOIDInCommit(objects *objectstore.Store, commit, path_ string) (*string, error) {
	treeOID, err := objects.CommitTreeOID(commit)
	if err != nil {
		return nil, err
	}

	segments := strings.Split(path_, "/")
	current := treeOID

	for i, seg := range segments {
		_, payload, _, err := objects.ReadEnvelope(current)
		if err != nil {
			return nil, err
		}
		entries, err := object.ParseTree(payload, objects.Algo().Size())
		if err != nil {
			return nil, err
		}

		var found *object.TreeEntry
		for j := range entries {
			if entries[j].Name == seg {
				found = &entries[j]
				break
			}
		}
		if found == nil {
			return nil, nil
		}

		last := i == len(segments)-1
		if found.IsGitlink() {
			return nil, nil
		}
		if last {
			if found.IsDir() {
				return nil, nil
			}
			oid := found.OID
			return &oid, nil
		}
		if !found.IsDir() {
			return nil, nil
		}
		current = found.OID
	}

	return nil, nil
}

// JoinPath composes a worktree-relative path from segments, matching the
// "/"-join convention tree materialization uses (spec §4.5).
func JoinPath(dir, name string) string {
	if dir == "" {
		return name
	}
	return path.Join(dir, name)
}
