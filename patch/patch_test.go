package patch_test

import (
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/require"

	"github.com/kvidal/gitcore/patch"
)

func TestDiffAndApplyRoundTrip(t *testing.T) {
	before := []byte("a\nb\nc")
	after := []byte("a\nB\nc\nd")

	text, err := patch.DiffUnified("file.txt", before, after)
	require.NoError(t, err)
	require.Contains(t, text, "--- a/file.txt\n")
	require.Contains(t, text, "+++ b/file.txt\n")

	fs := memfs.New()
	path, err := patch.Apply(fs, text, false)
	require.NoError(t, err)
	require.Equal(t, "file.txt", path)

	f, err := fs.Open("file.txt")
	require.NoError(t, err)
	buf := make([]byte, 64)
	n, _ := f.Read(buf)
	require.Equal(t, string(after), string(buf[:n]))
}

func TestDiffRefusesBinary(t *testing.T) {
	_, err := patch.DiffUnified("bin", []byte("a\x00b"), []byte("c"))
	require.Error(t, err)
}

func TestDiffNoChangeIsEmpty(t *testing.T) {
	text, err := patch.DiffUnified("same.txt", []byte("a\nb"), []byte("a\nb"))
	require.NoError(t, err)
	require.Empty(t, text)
}

func TestApplyReversePathUnsafe(t *testing.T) {
	fs := memfs.New()
	badPatch := "--- a/../escape.txt\n+++ b/../escape.txt\n@@ -1,1 +1,1 @@\n-x\n+y\n"
	_, err := patch.Apply(fs, badPatch, false)
	require.Error(t, err)
}

func TestReplayStopsAtFirstFailure(t *testing.T) {
	fs := memfs.New()

	good, err := patch.DiffUnified("a.txt", nil, []byte("hello"))
	require.NoError(t, err)

	bad := "--- a/../escape.txt\n+++ b/../escape.txt\n@@ -1,1 +1,1 @@\n-x\n+y\n"

	result, err := patch.Replay(fs, []patch.Step{
		{PatchText: good},
		{PatchText: bad},
	})
	require.NoError(t, err)
	require.Equal(t, "conflict", result.Status)
	require.Equal(t, []string{"a.txt"}, result.AppliedPaths)
	require.NotNil(t, result.FailedStep)
	require.Equal(t, 1, *result.FailedStep)

	f, err := fs.Open("a.txt")
	require.NoError(t, err)
	buf := make([]byte, 16)
	n, _ := f.Read(buf)
	require.Equal(t, "hello", string(buf[:n]))
}

func TestReplayCompletes(t *testing.T) {
	fs := memfs.New()
	p1, err := patch.DiffUnified("a.txt", nil, []byte("x"))
	require.NoError(t, err)
	p2, err := patch.DiffUnified("b.txt", nil, []byte("y"))
	require.NoError(t, err)

	result, err := patch.Replay(fs, []patch.Step{{PatchText: p1}, {PatchText: p2}})
	require.NoError(t, err)
	require.Equal(t, "completed", result.Status)
	require.Nil(t, result.FailedStep)
	require.Len(t, result.AppliedPaths, 2)
}
