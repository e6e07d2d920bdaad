package pktline_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kvidal/gitcore/plumbing/format/pktline"
)

func TestWriteReadRoundTrip(t *testing.T) {
	for _, data := range [][]byte{
		[]byte("hello\n"),
		[]byte("a"),
		bytes.Repeat([]byte("x"), pktline.MaxPayloadSize),
	} {
		var buf bytes.Buffer
		_, err := pktline.WritePacket(&buf, data)
		require.NoError(t, err)

		l, p, err := pktline.ReadPacket(&buf)
		require.NoError(t, err)
		require.Equal(t, len(data)+4, l)
		require.Equal(t, data, p)
	}
}

func TestWritePacketHeaderIsLowercaseHex(t *testing.T) {
	var buf bytes.Buffer
	_, err := pktline.WritePacket(&buf, []byte("hello\n"))
	require.NoError(t, err)
	require.Equal(t, "000ahello\n", buf.String())
}

func TestWriteFlush(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, pktline.WriteFlush(&buf))
	require.Equal(t, "0000", buf.String())
}

func TestWritePacketTooLong(t *testing.T) {
	var buf bytes.Buffer
	_, err := pktline.WritePacket(&buf, bytes.Repeat([]byte("a"), pktline.MaxPayloadSize+1))
	require.ErrorIs(t, err, pktline.ErrPayloadTooLong)
}

func TestReadPacketRejectsMalformedLength(t *testing.T) {
	for _, raw := range []string{"gorka", "0001", "0002", "0003"} {
		_, _, err := pktline.ReadPacket(strings.NewReader(raw))
		require.Error(t, err)
	}
}

func TestScannerFlushIsEmptySlice(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, pktline.WriteFlush(&buf))

	sc := pktline.NewScanner(&buf)
	require.True(t, sc.Scan())
	require.Empty(t, sc.Bytes())
	require.NoError(t, sc.Err())
}

func TestScannerReadsSeveralPackets(t *testing.T) {
	var buf bytes.Buffer
	_, err := pktline.WritePacketString(&buf, "first")
	require.NoError(t, err)
	_, err = pktline.WritePacketString(&buf, "second")
	require.NoError(t, err)
	require.NoError(t, pktline.WriteFlush(&buf))

	var got []string
	sc := pktline.NewScanner(&buf)
	for sc.Scan() {
		got = append(got, sc.Text())
	}
	require.NoError(t, sc.Err())
	require.Equal(t, []string{"first", "second", ""}, got)
}

func TestReaderPeekDoesNotConsume(t *testing.T) {
	var buf bytes.Buffer
	_, err := pktline.WritePacketString(&buf, "hello")
	require.NoError(t, err)

	r := pktline.NewReader(&buf)
	l1, p1, err := r.PeekPacket()
	require.NoError(t, err)
	l2, p2, err := r.ReadPacket()
	require.NoError(t, err)
	require.Equal(t, l1, l2)
	require.Equal(t, p1, p2)
}
