package deflate_test

import (
	"bytes"
	"testing"

	"github.com/kvidal/gitcore/plumbing/deflate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCRC32Vector(t *testing.T) {
	assert.Equal(t, "cbf43926", deflate.CRC32Hex([]byte("123456789")))
}

func TestDeflateInflateRoundTrip(t *testing.T) {
	payload := bytes.Repeat([]byte("hello git core "), 100)
	compressed, err := deflate.DeflateRaw(payload)
	require.NoError(t, err)

	out, err := deflate.InflateRaw(compressed, deflate.Limits{})
	require.NoError(t, err)
	assert.Equal(t, payload, out)
}

func TestInflateRejectsOversizeBytes(t *testing.T) {
	payload := bytes.Repeat([]byte{'a'}, 1000)
	compressed, err := deflate.DeflateRaw(payload)
	require.NoError(t, err)

	_, err = deflate.InflateRaw(compressed, deflate.Limits{MaxInflatedBytes: 10, MaxInflateRatio: 200})
	assert.ErrorIs(t, err, deflate.ErrInflationBomb)
}

func TestInflateRejectsOversizeRatio(t *testing.T) {
	payload := bytes.Repeat([]byte{'a'}, 100000)
	compressed, err := deflate.DeflateRaw(payload)
	require.NoError(t, err)

	_, err = deflate.InflateRaw(compressed, deflate.Limits{MaxInflatedBytes: 1 << 30, MaxInflateRatio: 2})
	assert.ErrorIs(t, err, deflate.ErrInflationBomb)
}
