package git_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	git "github.com/kvidal/gitcore"
	"github.com/kvidal/gitcore/plumbing/hash"
	"github.com/kvidal/gitcore/plumbing/object"
)

// seedCommit writes a single-file tree plus a root commit on top of it,
// returning the commit OID.
func seedCommit(t *testing.T, repo *git.Repo, fileContent string) string {
	t.Helper()

	blobOID, err := repo.WriteObject("blob", []byte(fileContent))
	require.NoError(t, err)

	treePayload, err := object.EncodeTree([]object.TreeEntry{
		{Mode: object.ModeFile, Name: "README.md", OID: blobOID},
	}, hash.SHA1.Size())
	require.NoError(t, err)
	treeOID, err := repo.WriteObject("tree", treePayload)
	require.NoError(t, err)

	commitPayload := fmt.Sprintf("tree %s\nauthor t <t@example.com> 0 +0000\ncommitter t <t@example.com> 0 +0000\n\nseed\n", treeOID)
	commitOID, err := repo.WriteObject("commit", []byte(commitPayload))
	require.NoError(t, err)

	return commitOID
}

func newSourceRepo(t *testing.T) (*git.Repo, string) {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.Init(dir, git.InitOptions{})
	require.NoError(t, err)

	mainOID := seedCommit(t, repo, "main content\n")
	require.NoError(t, repo.CreateRef("refs/heads/main", mainOID, "seed main"))

	featureOID := seedCommit(t, repo, "feature content\n")
	require.NoError(t, repo.CreateRef("refs/heads/feature-x", featureOID, "seed feature-x"))

	return repo, dir
}

func TestCloneLocalWithBranch(t *testing.T) {
	_, srcDir := newSourceRepo(t)
	dstDir := filepath.Join(t.TempDir(), "dst")

	repo, err := git.Clone(srcDir, dstDir, git.CloneOptions{Branch: "feature-x"})
	require.NoError(t, err)

	head, _, err := readHeadTarget(t, repo)
	require.NoError(t, err)
	assert.Equal(t, "refs/heads/feature-x", head)

	got, err := os.ReadFile(filepath.Join(dstDir, "README.md"))
	require.NoError(t, err)
	assert.Equal(t, "feature content\n", string(got))

	// Other local heads are dropped once HEAD is rebound to a branch;
	// only the remote-tracking copies remain.
	_, ok, err := repo.ResolveRef("refs/heads/main")
	require.NoError(t, err)
	assert.False(t, ok)

	oid, ok, err := repo.ResolveRef("refs/remotes/origin/feature-x")
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEmpty(t, oid)
}

func TestCloneDefaultBranchMaterializesWorktree(t *testing.T) {
	_, srcDir := newSourceRepo(t)
	dstDir := filepath.Join(t.TempDir(), "dst")

	_, err := git.Clone(srcDir, dstDir, git.CloneOptions{})
	require.NoError(t, err)

	got, err := os.ReadFile(filepath.Join(dstDir, "README.md"))
	require.NoError(t, err)
	assert.Equal(t, "main content\n", string(got))
}

func TestCloneRejectsNonEmptyTarget(t *testing.T) {
	_, srcDir := newSourceRepo(t)
	dstDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dstDir, "existing.txt"), []byte("x"), 0o644))

	_, err := git.Clone(srcDir, dstDir, git.CloneOptions{})
	require.Error(t, err)
	assert.Equal(t, git.AlreadyExists, git.CodeOf(err))
}

func TestCloneRejectsUnknownBranch(t *testing.T) {
	_, srcDir := newSourceRepo(t)
	dstDir := filepath.Join(t.TempDir(), "dst")

	_, err := git.Clone(srcDir, dstDir, git.CloneOptions{Branch: "does-not-exist"})
	require.Error(t, err)
	assert.Equal(t, git.NotFound, git.CodeOf(err))
}

func TestCloneRejectsInvalidDepth(t *testing.T) {
	_, srcDir := newSourceRepo(t)
	dstDir := filepath.Join(t.TempDir(), "dst")

	_, err := git.Clone(srcDir, dstDir, git.CloneOptions{Depth: -1})
	require.Error(t, err)
	assert.Equal(t, git.InvalidArgument, git.CodeOf(err))
}

// readHeadTarget reads the cloned repository's HEAD file directly,
// reporting the symbolic target name and whether it was symbolic.
func readHeadTarget(t *testing.T, repo *git.Repo) (string, bool, error) {
	t.Helper()
	f, err := repo.GitDir().Open("HEAD")
	if err != nil {
		return "", false, err
	}
	defer f.Close()

	buf := make([]byte, 4096)
	n, _ := f.Read(buf)
	content := string(buf[:n])

	const prefix = "ref: "
	if len(content) > len(prefix) && content[:len(prefix)] == prefix {
		end := len(content)
		for end > 0 && (content[end-1] == '\n' || content[end-1] == '\r') {
			end--
		}
		return content[len(prefix):end], true, nil
	}
	return content, false, nil
}
