// Package partial implements partial-clone filter negotiation, the
// promisor object store, and sparse-filtered backfill batches (spec
// §4.13). State persistence as the "partial-clone-codex.json" sidecar
// file is layered on top by package sidecar; this package is pure
// in-memory state plus the deterministic backfill algorithm.
//
// Grounded on spec §4.13 directly and on storage/filesystem's Alternates()
// promisor-adjacent handling (kept from the teacher, see DESIGN.md) for
// the shape of "defer this object, resolve it later" plumbing.
package partial

import (
	"sort"

	git "github.com/kvidal/gitcore"
	"github.com/kvidal/gitcore/format/matcher"
	"github.com/kvidal/gitcore/storage/index"
	"github.com/kvidal/gitcore/storage/objectstore"
	"github.com/kvidal/gitcore/transport/capability"
)

// State is the partial-clone sidecar data (spec §3): the accepted filter
// spec (nil when no filter has been negotiated), the normalized
// capabilities accepted alongside it, and the promisor objects table
// (deferred content not yet materialized into the object store).
type State struct {
	FilterSpec      *string           `json:"filterSpec"`
	Capabilities    []string          `json:"capabilities"`
	PromisorObjects map[string][]byte `json:"promisorObjects"`
}

// NewState returns an empty partial-clone state.
func NewState() *State {
	return &State{PromisorObjects: map[string][]byte{}}
}

// NegotiateFilter validates filter/caps per spec §4.11 and persists the
// result into the state.
func (s *State) NegotiateFilter(filter string, caps []string) error {
	accepted, normalized, err := capability.NegotiatePartialCloneFilter(filter, caps)
	if err != nil {
		return err
	}
	s.FilterSpec = &accepted
	s.Capabilities = normalized
	return nil
}

// SetPromisorObject stores deferred content keyed by the lowercased OID.
func (s *State) SetPromisorObject(oid string, payload []byte) {
	if s.PromisorObjects == nil {
		s.PromisorObjects = map[string][]byte{}
	}
	s.PromisorObjects[lower(oid)] = payload
}

func lower(oid string) string {
	b := []byte(oid)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// ResolvePromisedObject returns the promisor bytes for oid if present;
// otherwise falls through to the object store's ReadObject, failing
// INTEGRITY_ERROR only if neither source has it (spec §4.13).
func (s *State) ResolvePromisedObject(objects *objectstore.Store, oid string) ([]byte, error) {
	if payload, ok := s.PromisorObjects[lower(oid)]; ok {
		return payload, nil
	}
	payload, err := objects.ReadObject(oid)
	if err != nil {
		return nil, git.Errorf(git.IntegrityError, "promised object %s unavailable: %v", oid, err)
	}
	return payload, nil
}

// BackfillOptions controls Backfill's candidate selection (spec §4.13).
type BackfillOptions struct {
	// MinBatchSize defaults to 1; must be a non-negative integer.
	MinBatchSize int
	// Sparse, when true, intersects candidates with OIDs referenced by
	// sparse-selected index entries.
	Sparse bool
}

// BackfillResult reports the deterministic outcome of one Backfill call.
type BackfillResult struct {
	Status               string // "completed" or "skipped-min-batch-size"
	RequestedOIDs        []string
	FetchedOIDs          []string
	RemainingPromisorOIDs []string
}

// Backfill executes spec §4.13's deterministic contract: normalize
// options, collect lex-sorted promisor candidates, optionally intersect
// with sparse-selected paths' OIDs, skip if under the minimum batch size,
// else materialize every candidate as a loose blob and drop it from the
// promisor table.
func Backfill(store *objectstore.Store, s *State, opts BackfillOptions, sparseMode matcher.SparseMode, sparseRules []string, idx *index.Index) (BackfillResult, error) {
	if opts.MinBatchSize < 0 {
		return BackfillResult{}, git.Errorf(git.InvalidArgument, "minBatchSize must be a non-negative integer")
	}
	minBatch := opts.MinBatchSize
	if minBatch == 0 {
		minBatch = 1
	}

	candidates := make([]string, 0, len(s.PromisorObjects))
	for oid := range s.PromisorObjects {
		candidates = append(candidates, oid)
	}
	sort.Strings(candidates)

	if opts.Sparse && idx != nil && len(sparseRules) > 0 {
		sm, err := matcher.NewSparseMatcher(sparseMode, sparseRules)
		if err != nil {
			return BackfillResult{}, err
		}
		selected := map[string]bool{}
		for _, e := range idx.Entries {
			if sm.Match(e.Path) {
				selected[lower(e.OID)] = true
			}
		}
		filtered := candidates[:0:0]
		for _, c := range candidates {
			if selected[c] {
				filtered = append(filtered, c)
			}
		}
		candidates = filtered
	}

	if len(candidates) < minBatch {
		remaining := make([]string, 0, len(s.PromisorObjects))
		for oid := range s.PromisorObjects {
			remaining = append(remaining, oid)
		}
		sort.Strings(remaining)
		return BackfillResult{
			Status:                "skipped-min-batch-size",
			RequestedOIDs:         candidates,
			FetchedOIDs:           nil,
			RemainingPromisorOIDs: remaining,
		}, nil
	}

	var fetched []string
	for _, oid := range candidates {
		payload, ok := s.PromisorObjects[oid]
		if !ok {
			continue
		}
		if err := validatePayload(payload); err != nil {
			return BackfillResult{}, err
		}
		if _, err := store.WriteLoose(objectTypeOf(oid, store), payload); err != nil {
			return BackfillResult{}, git.Wrap(git.IOError, err)
		}
		delete(s.PromisorObjects, oid)
		fetched = append(fetched, oid)
	}

	remaining := make([]string, 0, len(s.PromisorObjects))
	for oid := range s.PromisorObjects {
		remaining = append(remaining, oid)
	}
	sort.Strings(remaining)

	return BackfillResult{
		Status:                "completed",
		RequestedOIDs:         candidates,
		FetchedOIDs:           fetched,
		RemainingPromisorOIDs: remaining,
	}, nil
}

// validatePayload asserts the promisor payload is well-formed (non-nil);
// spec §4.13 requires an array of byte-valued integers, which Go's []byte
// already guarantees at the type level — any deviation from that shape
// fails to unmarshal before reaching here (see sidecar's JSON decode).
func validatePayload(payload []byte) error {
	if payload == nil {
		return git.Errorf(git.IntegrityError, "promisor payload is nil")
	}
	return nil
}

// objectTypeOf is a placeholder resolving the object's on-disk type. The
// core trusts the promisor table's OID (spec §4.13): since a promisor
// entry only ever buffers blob content (trees/commits/tags are linked via
// existing loose objects reachable from the filter-negotiated tip), the
// backfill writer always stores as "blob".
func objectTypeOf(string, *objectstore.Store) string {
	return "blob"
}
