package protocol

import (
	"fmt"
	"strconv"
)

// Version represents a Git wire protocol version.
type Version int

const (
	// VersionUnknown is an unknown protocol version.
	VersionUnknown Version = iota - 1

	// V0 is the original Git wire protocol.
	V0

	// V1 is V0 plus an initial capability advertisement line.
	V1

	// V2 is the request/response protocol version.
	V2
)

// String returns the string representation of the protocol version.
func (v Version) String() string {
	if v < 0 {
		return "unknown"
	}

	return "version " + strconv.Itoa(int(v))
}

// Parameter returns the string representation of the protocol version to be
// used in the Git wire protocol (e.g. in a "version=N" capability).
func (v Version) Parameter() string {
	if v < 0 {
		return ""
	}

	return "version=" + strconv.Itoa(int(v))
}

// Parse parses a protocol version number, as found in a "version=N"
// capability value.
func Parse(s string) (Version, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return VersionUnknown, fmt.Errorf("invalid protocol version %q: %w", s, err)
	}

	switch Version(n) {
	case V0, V1, V2:
		return Version(n), nil
	default:
		return VersionUnknown, fmt.Errorf("unsupported protocol version %q", s)
	}
}
