package capability_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kvidal/gitcore/transport/capability"
)

func TestParity(t *testing.T) {
	a := []string{" b ", "a", "", "c"}
	b := []string{"c", "a", "d"}
	require.Equal(t, []string{"a", "c"}, capability.Parity(a, b))
}

func TestNegotiatePartialCloneFilter(t *testing.T) {
	filter, caps, err := capability.NegotiatePartialCloneFilter(" blob:none ", []string{"filter=blob:none", "agent=x"})
	require.NoError(t, err)
	require.Equal(t, "blob:none", filter)
	require.Contains(t, caps, "filter=blob:none")

	_, _, err = capability.NegotiatePartialCloneFilter("", []string{"filter"})
	require.Error(t, err)

	_, _, err = capability.NegotiatePartialCloneFilter("blob:none", []string{"agent=x"})
	require.Error(t, err)
}
