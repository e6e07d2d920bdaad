// Maintenance implements SPEC_FULL.md §4.14a's bounded prune pass, which
// resolves spec.md §9's open "pruneLooseObjects" point: a reachability walk
// from every ref tip, reflog entry, and promisor OID, followed by an
// explicitly gated deletion of loose objects that are both unreachable and
// older than a grace window (default 2 weeks, mirroring git's own
// gc.pruneExpire).
//
// Grounded on storage/objectstore's ReadEnvelope and plumbing/object's
// ParseCommit/ParseTree for the traversal, and on
// storage/refstore's ListRefs/ReflogOIDs (new additions to that package,
// same file) for the root set.
package sidecar

import (
	"time"

	billy "github.com/go-git/go-billy/v5"

	"github.com/kvidal/gitcore/plumbing/hash"
	"github.com/kvidal/gitcore/plumbing/object"
	"github.com/kvidal/gitcore/storage/objectstore"
	"github.com/kvidal/gitcore/storage/refstore"
	"github.com/kvidal/gitcore/transport/partial"
)

const (
	maintenanceFile = "maintenance-codex.json"
	// DefaultGraceWindow is the minimum age an unreachable loose object
	// must reach before Maintenance will delete it.
	DefaultGraceWindow = 14 * 24 * time.Hour
)

// MaintenanceState is the normalized maintenance-codex.json payload,
// recording the outcome of the most recent run.
type MaintenanceState struct {
	LastRunAt      string   `json:"lastRunAt,omitempty"`
	ReachableCount int      `json:"reachableCount"`
	PrunedOIDs     []string `json:"prunedOids,omitempty"`
}

// LoadMaintenanceState reads maintenance-codex.json, returning a zero-value
// state if absent.
func LoadMaintenanceState(fs billy.Filesystem) (*MaintenanceState, error) {
	ms := &MaintenanceState{}
	if err := load(fs, maintenanceFile, ms); err != nil {
		return nil, err
	}
	return ms, nil
}

// Reachable performs the reachability walk: every ref tip and reflog OID
// (except the all-zero OID a reflog records for an absent ref), every
// commit/tree/blob reached by walking commit parents and tree
// entries from those roots, plus every promisor OID currently deferred.
// The walk stops at any OID it cannot read as a loose object (a promisor
// placeholder, or a pack-only object outside this core's scope).
func Reachable(objects *objectstore.Store, refs *refstore.Store, state *partial.State) (map[string]bool, error) {
	seen := map[string]bool{}

	var roots []string
	refEntries, err := refs.ListRefs("")
	if err != nil {
		return nil, err
	}
	for _, r := range refEntries {
		roots = append(roots, r.OID)
	}
	reflogOIDs, err := refs.ReflogOIDs()
	if err != nil {
		return nil, err
	}
	roots = append(roots, reflogOIDs...)
	for oid := range state.PromisorObjects {
		seen[oid] = true
	}

	queue := append([]string{}, roots...)
	zero := hash.Zero(objects.Algo())
	for len(queue) > 0 {
		oid := queue[0]
		queue = queue[1:]
		if oid == "" || oid == zero || seen[oid] {
			continue
		}
		seen[oid] = true

		if !objects.HasLoose(oid) {
			continue
		}
		objType, payload, _, err := objects.ReadEnvelope(oid)
		if err != nil {
			continue
		}

		switch objType {
		case "commit":
			header, err := object.ParseCommit(payload)
			if err != nil {
				continue
			}
			queue = append(queue, header.TreeOID)
			queue = append(queue, header.ParentOIDs...)
		case "tree":
			entries, err := object.ParseTree(payload, objects.Algo().Size())
			if err != nil {
				continue
			}
			for _, e := range entries {
				if !e.IsGitlink() {
					queue = append(queue, e.OID)
				}
			}
		}
	}

	return seen, nil
}

// Maintenance runs the reachability walk and, when gcPrune is true, deletes
// loose objects that are unreachable and older than graceWindow (zero means
// DefaultGraceWindow). now is supplied by the caller since this package may
// not call time.Now() itself in a deterministic test.
func Maintenance(fs billy.Filesystem, objects *objectstore.Store, refs *refstore.Store, state *partial.State, gcPrune bool, graceWindow time.Duration, now time.Time) (*MaintenanceState, error) {
	if graceWindow <= 0 {
		graceWindow = DefaultGraceWindow
	}

	reachable, err := Reachable(objects, refs, state)
	if err != nil {
		return nil, err
	}

	ms := &MaintenanceState{LastRunAt: now.UTC().Format(time.RFC3339), ReachableCount: len(reachable)}

	if gcPrune {
		loose, err := objects.ListLooseObjects()
		if err != nil {
			return nil, err
		}
		for _, o := range loose {
			if reachable[o.OID] {
				continue
			}
			if now.Sub(o.ModTime) < graceWindow {
				continue
			}
			if err := objects.DeleteLoose(o.OID); err != nil {
				return nil, err
			}
			ms.PrunedOIDs = append(ms.PrunedOIDs, o.OID)
		}
	}

	if err := store(fs, maintenanceFile, ms); err != nil {
		return nil, err
	}
	return ms, nil
}
