package looseobject_test

import (
	"testing"

	"github.com/kvidal/gitcore/plumbing/looseobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	payload := []byte("hello world")
	raw, err := looseobject.Encode("blob", payload)
	require.NoError(t, err)
	assert.Equal(t, "blob 11\x00hello world", string(raw))

	typ, got, err := looseobject.Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, "blob", typ)
	assert.Equal(t, payload, got)
}

func TestDecodeRejectsSizeMismatch(t *testing.T) {
	_, _, err := looseobject.Decode([]byte("blob 6\x00short"))
	assert.Error(t, err)
}

func TestEncodeRejectsInvalidType(t *testing.T) {
	_, err := looseobject.Encode("widget", []byte("x"))
	assert.Error(t, err)
}

func TestDecodeRejectsMissingNUL(t *testing.T) {
	_, _, err := looseobject.Decode([]byte("blob 5 nonul"))
	assert.Error(t, err)
}
