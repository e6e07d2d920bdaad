package git_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	git "github.com/kvidal/gitcore"
	"github.com/kvidal/gitcore/plumbing/hash"
)

func TestInitCreatesCanonicalLayout(t *testing.T) {
	dir := t.TempDir()

	repo, err := git.Init(dir, git.InitOptions{})
	require.NoError(t, err)
	require.False(t, repo.IsBare())

	for _, want := range []string{
		".git/branches", ".git/hooks", ".git/info",
		".git/objects/info", ".git/objects/pack",
		".git/refs/heads", ".git/refs/tags",
		".git/logs/refs/heads", ".git/logs/refs/tags",
		".git/HEAD", ".git/description", ".git/config",
	} {
		_, err := os.Stat(filepath.Join(dir, want))
		assert.NoErrorf(t, err, "expected %s to exist", want)
	}

	head, err := os.ReadFile(filepath.Join(dir, ".git", "HEAD"))
	require.NoError(t, err)
	assert.Equal(t, "ref: refs/heads/main\n", string(head))
}

func TestInitBareSkipsWorktreeSplit(t *testing.T) {
	dir := t.TempDir()

	repo, err := git.Init(dir, git.InitOptions{Bare: true})
	require.NoError(t, err)
	assert.True(t, repo.IsBare())

	_, err = os.Stat(filepath.Join(dir, "objects"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, ".git"))
	assert.Error(t, err)
}

func TestOpenRejectsNonRepository(t *testing.T) {
	dir := t.TempDir()
	_, err := git.Open(dir)
	require.Error(t, err)
	assert.Equal(t, git.NotFound, git.CodeOf(err))
}

func TestOpenRoundTripsHashAlgorithm(t *testing.T) {
	dir := t.TempDir()
	_, err := git.Init(dir, git.InitOptions{HashAlgorithm: hash.SHA256})
	require.NoError(t, err)

	repo, err := git.Open(dir)
	require.NoError(t, err)
	assert.Equal(t, hash.SHA256, repo.Algo())
}

func TestWriteAndReadObjectRoundTrip(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.Init(dir, git.InitOptions{})
	require.NoError(t, err)

	payload := []byte("hello world\n")
	oid, err := repo.WriteObject("blob", payload)
	require.NoError(t, err)
	assert.Len(t, oid, 40)

	got, err := repo.ReadObject(oid)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestAddStatusAndCheckoutFiles(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.Init(dir, git.InitOptions{})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("one"), 0o644))
	require.NoError(t, repo.Add("a.txt"))

	idx, err := repo.ReadIndex()
	require.NoError(t, err)
	require.Len(t, idx.Entries, 1)
	assert.Equal(t, "a.txt", idx.Entries[0].Path)

	status, err := repo.Status()
	require.NoError(t, err)
	assert.Equal(t, git.Unmodified, status.File("a.txt").Worktree)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("two"), 0o644))
	status, err = repo.Status()
	require.NoError(t, err)
	assert.Equal(t, git.Modified, status.File("a.txt").Worktree)

	require.NoError(t, repo.CheckoutFiles(map[string][]byte{"b.txt": []byte("checked out")}))
	got, err := os.ReadFile(filepath.Join(dir, "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "checked out", string(got))
}

func TestAddRejectsUnsafePath(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.Init(dir, git.InitOptions{})
	require.NoError(t, err)

	err = repo.Add("../escape.txt")
	require.Error(t, err)
	assert.Equal(t, git.InvalidArgument, git.CodeOf(err))
}

func TestRefCASLifecycle(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.Init(dir, git.InitOptions{})
	require.NoError(t, err)

	oidA := "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	oidB := "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"

	require.NoError(t, repo.CreateRef("refs/heads/main", oidA, "create"))
	err = repo.CreateRef("refs/heads/main", oidB, "create again")
	require.Error(t, err)
	assert.Equal(t, git.AlreadyExists, git.CodeOf(err))

	ok, err := repo.VerifyRef("refs/heads/main", oidA)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, repo.UpdateRef("refs/heads/main", oidB, "fast-forward"))
	oid, ok, err := repo.ResolveRef("refs/heads/main")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, oidB, oid)

	require.NoError(t, repo.DeleteRef("refs/heads/main", "cleanup"))
	err = repo.DeleteRef("refs/heads/main", "cleanup again")
	require.Error(t, err)
	assert.Equal(t, git.NotFound, git.CodeOf(err))
}
