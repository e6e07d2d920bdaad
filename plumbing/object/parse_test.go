package object_test

import (
	"testing"

	"github.com/kvidal/gitcore/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommitExtractsTreeAndParents(t *testing.T) {
	payload := []byte(
		"tree 4b825dc642cb6eb9a060e54bf8d69288fbee4904\n" +
			"parent aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa\n" +
			"parent bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb\n" +
			"author A <a@example.com> 0 +0000\n" +
			"committer A <a@example.com> 0 +0000\n\n" +
			"message\n")

	h, err := object.ParseCommit(payload)
	require.NoError(t, err)
	assert.Equal(t, "4b825dc642cb6eb9a060e54bf8d69288fbee4904", h.TreeOID)
	assert.Equal(t, []string{
		"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		"bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
	}, h.ParentOIDs)
}

func TestParseCommitRootHasNoParents(t *testing.T) {
	payload := []byte("tree 4b825dc642cb6eb9a060e54bf8d69288fbee4904\n\nroot\n")
	h, err := object.ParseCommit(payload)
	require.NoError(t, err)
	assert.Empty(t, h.ParentOIDs)
}

func TestParseCommitRejectsMissingTree(t *testing.T) {
	_, err := object.ParseCommit([]byte("author A <a@example.com> 0 +0000\n\nmessage\n"))
	assert.Error(t, err)
}

func TestTreeEncodeDecodeRoundTrip(t *testing.T) {
	entries := []object.TreeEntry{
		{Mode: object.ModeFile, Name: "README.md", OID: "0123456789012345678901234567890123456789"},
		{Mode: object.ModeDir, Name: "src", OID: "1111111111111111111111111111111111111111"},
		{Mode: object.ModeGitlink, Name: "vendor/lib", OID: "2222222222222222222222222222222222222222"},
	}

	raw, err := object.EncodeTree(entries, 20)
	require.NoError(t, err)

	got, err := object.ParseTree(raw, 20)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, entries[0].Name, got[0].Name)
	assert.False(t, got[0].IsDir())
	assert.False(t, got[0].IsGitlink())

	assert.True(t, got[1].IsDir())

	assert.True(t, got[2].IsGitlink())
	assert.Equal(t, entries[2].OID, got[2].OID)
}

func TestParseTreeRejectsTruncatedOID(t *testing.T) {
	_, err := object.ParseTree([]byte("100644 a.txt\x00short"), 20)
	assert.Error(t, err)
}

func TestParseTreeRejectsNestedName(t *testing.T) {
	oid := "0123456789012345678901234567890123456789"
	raw, err := object.EncodeTree([]object.TreeEntry{{Mode: object.ModeFile, Name: "a/b", OID: oid}}, 20)
	require.NoError(t, err)
	_, err = object.ParseTree(raw, 20)
	assert.Error(t, err)
}
