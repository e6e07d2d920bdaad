package pktline

import (
	"errors"
	"io"
)

// lenSize is the width of the 4-hex-digit length prefix every pkt-line
// carries (spec §4.11).
const lenSize = 4

// MaxPayloadSize is MAX_DATA from spec §4.11: the largest data payload a
// single pkt-line may carry.
const MaxPayloadSize = 65516

// MaxPacketSize is MAX_TOTAL from spec §4.11: the largest a whole pkt-line
// (length prefix included) may be.
const MaxPacketSize = MaxPayloadSize + lenSize

// MaxSize bounds the Scanner's internal buffer; a pkt-line's data never
// exceeds MaxPayloadSize bytes.
const MaxSize = MaxPayloadSize

// OversizePayloadMax is the data-length ceiling ParseLength enforces.
const OversizePayloadMax = MaxPayloadSize

// ErrPayloadTooLong is returned when a write would exceed MaxPayloadSize.
var ErrPayloadTooLong = errors.New("pktline: payload is too long")

// ErrInvalidPktLen is returned when a length prefix is malformed or out of
// range.
var ErrInvalidPktLen = errors.New("pktline: invalid pkt-len")

// emptyPkt is the wire form of a zero-length (but non-flush) pkt-line: the
// 4-byte length header for "just the header", no data.
var emptyPkt = []byte("0004")

const hexDigits = "0123456789abcdef"

// asciiHex16 renders n as 4 lowercase ASCII hex digits, per spec §4.11's
// "lowercase hex padded to 4" framing rule.
func asciiHex16(n int) []byte {
	return []byte{
		hexDigits[(n>>12)&0xf],
		hexDigits[(n>>8)&0xf],
		hexDigits[(n>>4)&0xf],
		hexDigits[n&0xf],
	}
}

// hexDecode parses exactly 4 ASCII hex digits into their integer value,
// rejecting anything outside [0-9a-fA-F].
func hexDecode(b []byte) (int, error) {
	if len(b) != lenSize {
		return 0, ErrInvalidPktLen
	}
	n := 0
	for _, c := range b {
		n <<= 4
		switch {
		case c >= '0' && c <= '9':
			n |= int(c - '0')
		case c >= 'a' && c <= 'f':
			n |= int(c-'a') + 10
		case c >= 'A' && c <= 'F':
			n |= int(c-'A') + 10
		default:
			return 0, ErrInvalidPktLen
		}
	}
	return n, nil
}

// Read reads one pkt-line from r into buf, returning the data length. Flush,
// delim, and response-end packets report a length of 0 with a nil error, the
// convention Scanner.Scan relies on.
func Read(r io.Reader, buf []byte) (int, error) {
	length, data, err := ReadPacket(r)
	if err != nil {
		return 0, err
	}
	switch length {
	case Flush, Delim, ResponseEnd:
		return 0, nil
	}
	return copy(buf, data), nil
}
