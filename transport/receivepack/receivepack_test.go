package receivepack_test

import (
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/require"

	git "github.com/kvidal/gitcore"
	"github.com/kvidal/gitcore/plumbing/hash"
	"github.com/kvidal/gitcore/storage/refstore"
	"github.com/kvidal/gitcore/transport/receivepack"
)

func TestUpdateCASLinearizable(t *testing.T) {
	fs := memfs.New()
	refs := refstore.New(fs, hash.SHA1)

	x := "1111111111111111111111111111111111111111"
	y := "2222222222222222222222222222222222222222"
	zero := hash.Zero(hash.SHA1)

	require.NoError(t, receivepack.Update(refs, hash.SHA1, "refs/heads/main", zero, x, "init"))

	require.NoError(t, receivepack.Update(refs, hash.SHA1, "refs/heads/main", x, y, "update"))

	current, ok, err := refs.ResolveRef("refs/heads/main")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, y, current)

	err = receivepack.Update(refs, hash.SHA1, "refs/heads/main", x, y, "replay")
	require.Error(t, err)
	require.Equal(t, git.LockConflict, git.CodeOf(err))
}

func TestAdvertiseRefsHeadFirst(t *testing.T) {
	x := "1111111111111111111111111111111111111111"
	y := "2222222222222222222222222222222222222222"

	out, err := receivepack.AdvertiseRefs([]receivepack.Ref{
		{Name: "refs/heads/feature", OID: y},
		{Name: "refs/heads/main", OID: x},
	}, "refs/heads/main", receivepack.DefaultCapabilities(hash.SHA1))
	require.NoError(t, err)
	require.Contains(t, string(out), x+" refs/heads/main\x00delete-refs")
	require.Contains(t, string(out), y+" refs/heads/feature\n")
}

func TestRequestBuild(t *testing.T) {
	zero := hash.Zero(hash.SHA1)
	x := "1111111111111111111111111111111111111111"
	out, err := receivepack.Request(zero, x, "refs/heads/main", nil)
	require.NoError(t, err)
	require.Contains(t, string(out), zero+" "+x+" refs/heads/main\n")
}
