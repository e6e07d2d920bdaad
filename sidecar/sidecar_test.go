package sidecar_test

import (
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/require"

	"github.com/kvidal/gitcore/format/matcher"
	"github.com/kvidal/gitcore/plumbing/hash"
	"github.com/kvidal/gitcore/plumbing/object"
	"github.com/kvidal/gitcore/sidecar"
	"github.com/kvidal/gitcore/storage/objectstore"
	"github.com/kvidal/gitcore/storage/refstore"
	"github.com/kvidal/gitcore/transport/partial"
)

func TestNotesRoundTrip(t *testing.T) {
	fs := memfs.New()

	n, err := sidecar.LoadNotes(fs)
	require.NoError(t, err)
	require.Empty(t, n.Entries)

	require.NoError(t, n.Set(fs, "deadbeef", "cafef00d"))

	reloaded, err := sidecar.LoadNotes(fs)
	require.NoError(t, err)
	require.Equal(t, "cafef00d", reloaded.Entries["deadbeef"])

	require.NoError(t, reloaded.Remove(fs, "deadbeef"))
	require.NoError(t, reloaded.Remove(fs, "not-there")) // no-op, not an error

	final, err := sidecar.LoadNotes(fs)
	require.NoError(t, err)
	require.Empty(t, final.Entries)
}

func TestReplaceRoundTripAndResolve(t *testing.T) {
	fs := memfs.New()

	r, err := sidecar.LoadReplace(fs)
	require.NoError(t, err)
	require.Equal(t, "unreplaced", r.Resolve("unreplaced"))

	require.NoError(t, r.Set(fs, "original", "replacement"))
	require.Equal(t, "replacement", r.Resolve("original"))

	reloaded, err := sidecar.LoadReplace(fs)
	require.NoError(t, err)
	require.Equal(t, "replacement", reloaded.Resolve("original"))

	require.NoError(t, reloaded.Remove(fs, "original"))
	require.Equal(t, "original", reloaded.Resolve("original"))
}

func TestStashPushPop(t *testing.T) {
	fs := memfs.New()

	s, err := sidecar.LoadStash(fs)
	require.NoError(t, err)
	require.Empty(t, s.Entries)

	require.NoError(t, s.Push(fs, sidecar.StashEntry{Message: "wip 1", TreeOID: "t1", ParentOID: "p1"}))
	require.NoError(t, s.Push(fs, sidecar.StashEntry{Message: "wip 2", TreeOID: "t2", ParentOID: "p2"}))

	reloaded, err := sidecar.LoadStash(fs)
	require.NoError(t, err)
	require.Len(t, reloaded.Entries, 2)

	top, ok, err := reloaded.Pop(fs)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "wip 2", top.Message)

	_, ok, err = reloaded.Pop(fs)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = reloaded.Pop(fs)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRemotesSetMergesDefaultsAndFetchRefSpec(t *testing.T) {
	fs := memfs.New()

	r, err := sidecar.LoadRemotes(fs)
	require.NoError(t, err)

	require.NoError(t, r.Set(fs, sidecar.RemoteEntry{Name: "origin", URL: "https://example.invalid/repo.git"}))
	origin := r.Entries["origin"]
	require.Equal(t, []string{"+refs/heads/*:refs/remotes/origin/*"}, origin.FetchRefSpecs)

	// A partial update that omits URL and FetchRefSpecs must not wipe the
	// previously recorded values of those fields.
	require.NoError(t, r.Set(fs, sidecar.RemoteEntry{
		Name:               "origin",
		Promisor:           true,
		PartialCloneFilter: "blob:none",
	}))
	updated := r.Entries["origin"]
	require.Equal(t, "https://example.invalid/repo.git", updated.URL)
	require.True(t, updated.Promisor)
	require.Equal(t, "blob:none", updated.PartialCloneFilter)
	require.Equal(t, []string{"+refs/heads/*:refs/remotes/origin/*"}, updated.FetchRefSpecs)

	require.NoError(t, r.Remove(fs, "origin"))
	require.Error(t, r.Remove(fs, "origin"))

	require.Error(t, r.Set(fs, sidecar.RemoteEntry{URL: "https://example.invalid"}))
}

func TestSubmodulesValidateAndList(t *testing.T) {
	fs := memfs.New()
	s, err := sidecar.LoadSubmodules(fs)
	require.NoError(t, err)

	require.NoError(t, s.Set(fs, sidecar.SubmoduleEntry{Name: "b", Path: "vendor/b", URL: "https://example.invalid/b.git", OID: "b-oid"}))
	require.NoError(t, s.Set(fs, sidecar.SubmoduleEntry{Name: "a", Path: "vendor/a", URL: "https://example.invalid/a.git", OID: "a-oid"}))

	require.Error(t, s.Set(fs, sidecar.SubmoduleEntry{Path: "vendor/c", URL: "https://example.invalid/c.git"}))
	require.Error(t, s.Set(fs, sidecar.SubmoduleEntry{Name: "c", Path: "../escape", URL: "https://example.invalid/c.git"}))
	require.Error(t, s.Set(fs, sidecar.SubmoduleEntry{Name: "c", Path: "vendor/c"}))

	list := s.List()
	require.Len(t, list, 2)
	require.Equal(t, "a", list[0].Name)
	require.Equal(t, "b", list[1].Name)
}

func TestWorktreesAddMarkPrune(t *testing.T) {
	fs := memfs.New()
	w, err := sidecar.LoadWorktrees(fs)
	require.NoError(t, err)

	require.NoError(t, w.Add(fs, sidecar.WorktreeEntry{Path: "../wt-a", Branch: "feature-a", HeadOID: "oid-a"}))
	require.NoError(t, w.Add(fs, sidecar.WorktreeEntry{Path: "../wt-b", Branch: "feature-b", HeadOID: "oid-b"}))
	require.Error(t, w.Add(fs, sidecar.WorktreeEntry{Branch: "no-path"}))

	require.Error(t, w.MarkPrunable(fs, "../missing"))
	require.NoError(t, w.MarkPrunable(fs, "../wt-a"))

	removed, err := w.PruneWorktrees(fs)
	require.NoError(t, err)
	require.Equal(t, []string{"../wt-a"}, removed)

	list := w.List()
	require.Len(t, list, 1)
	require.Equal(t, "../wt-b", list[0].Path)
}

func TestRebaseStateMachine(t *testing.T) {
	fs := memfs.New()

	empty, err := sidecar.LoadRebaseState(fs)
	require.NoError(t, err)
	require.Equal(t, sidecar.RebaseStatus(""), empty.Status)

	rs, err := sidecar.StartRebase(fs, "orig-head", "onto-oid", []sidecar.RebaseStep{
		{CommitOID: "c1", Message: "first"},
		{CommitOID: "c2", Message: "second"},
	})
	require.NoError(t, err)
	require.Equal(t, sidecar.RebaseActive, rs.Status)
	require.Equal(t, 0, rs.CurrentIndex)

	require.NoError(t, rs.Continue(fs))
	require.Equal(t, sidecar.RebaseActive, rs.Status)
	require.Equal(t, 1, rs.CurrentIndex)

	require.NoError(t, rs.Continue(fs))
	require.Equal(t, sidecar.RebaseCompleted, rs.Status)
	require.Equal(t, 2, rs.CurrentIndex)

	// Continue on a terminal state is a no-op.
	require.NoError(t, rs.Continue(fs))
	require.Equal(t, 2, rs.CurrentIndex)

	reloaded, err := sidecar.LoadRebaseState(fs)
	require.NoError(t, err)
	require.Equal(t, sidecar.RebaseCompleted, reloaded.Status)

	aborting, err := sidecar.StartRebase(fs, "orig-head-2", "onto-2", []sidecar.RebaseStep{{CommitOID: "c3"}})
	require.NoError(t, err)
	require.NoError(t, aborting.Abort(fs))
	require.Equal(t, sidecar.RebaseAborted, aborting.Status)
	require.NoError(t, aborting.Abort(fs)) // terminal: no-op, not an error
}

func TestSparseCheckoutSetAndMatcher(t *testing.T) {
	fs := memfs.New()

	sc, err := sidecar.LoadSparseCheckout(fs)
	require.NoError(t, err)
	require.Equal(t, matcher.ConeMode, sc.Mode)

	require.NoError(t, sc.Set(fs, matcher.ConeMode, []string{"src", "docs"}))

	m, err := sc.Matcher()
	require.NoError(t, err)
	require.True(t, m.Match("src/index.ts"))
	require.True(t, m.Match("docs/g.md"))
	require.False(t, m.Match("tests/x.txt"))

	reloaded, err := sidecar.LoadSparseCheckout(fs)
	require.NoError(t, err)
	require.Equal(t, []string{"src", "docs"}, reloaded.Rules)
}

func TestPartialCloneStateRoundTrip(t *testing.T) {
	fs := memfs.New()

	s, err := sidecar.LoadPartialClone(fs)
	require.NoError(t, err)
	require.Nil(t, s.FilterSpec)

	require.NoError(t, s.NegotiateFilter("blob:none", []string{"filter=blob:none"}))
	s.SetPromisorObject("deadbeef", []byte("payload"))
	require.NoError(t, sidecar.StorePartialClone(fs, s))

	reloaded, err := sidecar.LoadPartialClone(fs)
	require.NoError(t, err)
	require.Equal(t, "blob:none", *reloaded.FilterSpec)
	require.Equal(t, []byte("payload"), reloaded.PromisorObjects["deadbeef"])
}

func TestMaintenanceReachabilityAndGatedPrune(t *testing.T) {
	fs := memfs.New()
	objects := objectstore.New(fs, hash.SHA1)
	refs := refstore.New(fs, hash.SHA1)

	blobOID, err := objects.WriteLoose("blob", []byte("reachable"))
	require.NoError(t, err)
	orphanOID, err := objects.WriteLoose("blob", []byte("orphaned"))
	require.NoError(t, err)

	treePayload, err := object.EncodeTree([]object.TreeEntry{
		{Mode: object.ModeFile, Name: "a.txt", OID: blobOID},
	}, hash.SHA1.Size())
	require.NoError(t, err)
	treeOID, err := objects.WriteLoose("tree", treePayload)
	require.NoError(t, err)

	commitPayload := []byte("tree " + treeOID + "\n\ninitial\n")
	commitOID, err := objects.WriteLoose("commit", commitPayload)
	require.NoError(t, err)

	require.NoError(t, refs.CreateRef("refs/heads/main", commitOID, "branch: main"))

	state := partial.NewState()
	// Loose objects carry the wall-clock time they were written.
	now := time.Now()

	reachable, err := sidecar.Reachable(objects, refs, state)
	require.NoError(t, err)
	require.True(t, reachable[commitOID])
	require.True(t, reachable[treeOID])
	require.True(t, reachable[blobOID])
	require.False(t, reachable[orphanOID])

	// Within the grace window: reported, not deleted.
	ms, err := sidecar.Maintenance(fs, objects, refs, state, true, 0, now)
	require.NoError(t, err)
	require.Equal(t, 3, ms.ReachableCount)
	require.Empty(t, ms.PrunedOIDs)
	_, err = objects.ReadObject(orphanOID)
	require.NoError(t, err)

	// Past the grace window: the orphan is pruned.
	later := now.Add(sidecar.DefaultGraceWindow + time.Hour)
	ms2, err := sidecar.Maintenance(fs, objects, refs, state, true, 0, later)
	require.NoError(t, err)
	require.Equal(t, []string{orphanOID}, ms2.PrunedOIDs)
	_, err = objects.ReadObject(orphanOID)
	require.Error(t, err)

	reloaded, err := sidecar.LoadMaintenanceState(fs)
	require.NoError(t, err)
	require.Equal(t, []string{orphanOID}, reloaded.PrunedOIDs)
}
