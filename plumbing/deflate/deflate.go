// Package deflate provides raw-DEFLATE compression for loose objects, with
// inflation-bomb guards on decompression. Grounded on go-git's
// plumbing/format/objfile use of compress/flate for the identical concern,
// but emits raw DEFLATE (no zlib header) per spec §4.2 — a deliberate
// divergence from on-disk git, documented there.
package deflate

import (
	"bytes"
	"compress/flate"
	"errors"
	"io"
)

// ErrInflationBomb is returned when a compressed payload decompresses to
// more bytes, or a higher compressed/decompressed ratio, than its Limits
// allow.
var ErrInflationBomb = errors.New("deflate: inflation bomb rejected")

// Limits bound how much an inflate call will trust a compressed blob.
type Limits struct {
	// MaxInflatedBytes caps the total decompressed size.
	MaxInflatedBytes int64
	// MaxInflateRatio caps inflated/max(compressed,1).
	MaxInflateRatio int64
}

// DefaultLimits are the guard rails spec §4.2 mandates.
var DefaultLimits = Limits{
	MaxInflatedBytes: 134217728,
	MaxInflateRatio:  200,
}

// MaxDeltaChainDepth is exposed for pack consumers per spec §4.2; this core
// never walks delta chains itself (packs are opaque, spec §4.5).
const MaxDeltaChainDepth = 50

// bombGuard is an io.Reader wrapper that fails once more than limit bytes
// have been read from it.
type bombGuard struct {
	r     io.Reader
	limit int64
	read  int64
}

func (g *bombGuard) Read(p []byte) (int, error) {
	n, err := g.r.Read(p)
	g.read += int64(n)
	if g.read > g.limit {
		return n, ErrInflationBomb
	}
	return n, err
}

// DeflateRaw compresses data with raw DEFLATE (no zlib/gzip framing).
func DeflateRaw(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.DefaultCompression)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// InflateRaw decompresses a raw-DEFLATE stream produced by DeflateRaw,
// rejecting the result as an inflation bomb if it breaches limits (the
// zero Limits value selects DefaultLimits).
func InflateRaw(data []byte, limits Limits) ([]byte, error) {
	if limits == (Limits{}) {
		limits = DefaultLimits
	}

	compressedLen := int64(len(data))
	if compressedLen == 0 {
		compressedLen = 1
	}
	byteCap := limits.MaxInflatedBytes
	if ratioCap := compressedLen * limits.MaxInflateRatio; ratioCap < byteCap {
		byteCap = ratioCap
	}

	r := flate.NewReader(bytes.NewReader(data))
	defer r.Close()

	guarded := &bombGuard{r: r, limit: byteCap}
	out, err := io.ReadAll(guarded)
	if err != nil {
		return nil, ErrInflationBomb
	}
	if int64(len(out)) > limits.MaxInflatedBytes {
		return nil, ErrInflationBomb
	}
	if int64(len(out)) > compressedLen*limits.MaxInflateRatio {
		return nil, ErrInflationBomb
	}
	return out, nil
}
