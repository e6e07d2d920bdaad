// Package looseobject implements the on-disk loose-object envelope: the
// ASCII header "<type> SP <size> NUL" concatenated with the raw payload
// (spec §3, §4.4). Grounded on the framing convention of go-git's
// plumbing/format/objfile package (the concrete reader/writer sources were
// not present in the retrieved snapshot; this rebuilds the same contract
// directly against spec.md and the objfile test fixtures' expectations).
package looseobject

import (
	"bytes"
	"fmt"
	"strconv"
)

// ValidTypes are the four object kinds spec §3 recognizes.
var ValidTypes = map[string]bool{
	"blob":   true,
	"tree":   true,
	"commit": true,
	"tag":    true,
}

// Encode returns the loose envelope for objType/payload: header + payload.
func Encode(objType string, payload []byte) ([]byte, error) {
	if !ValidTypes[objType] {
		return nil, fmt.Errorf("looseobject: invalid object type %q", objType)
	}
	header := objType + " " + strconv.Itoa(len(payload)) + "\x00"
	buf := make([]byte, 0, len(header)+len(payload))
	buf = append(buf, header...)
	buf = append(buf, payload...)
	return buf, nil
}

// Decode parses an inflated loose envelope into its type and payload,
// asserting the declared size matches the remaining bytes exactly.
func Decode(raw []byte) (objType string, payload []byte, err error) {
	nul := bytes.IndexByte(raw, 0)
	if nul < 0 {
		return "", nil, fmt.Errorf("looseobject: missing header terminator")
	}

	header := string(raw[:nul])
	sp := bytes.IndexByte([]byte(header), ' ')
	if sp < 0 {
		return "", nil, fmt.Errorf("looseobject: malformed header %q", header)
	}

	objType = header[:sp]
	if !ValidTypes[objType] {
		return "", nil, fmt.Errorf("looseobject: invalid object type %q", objType)
	}

	size, err := strconv.Atoi(header[sp+1:])
	if err != nil || size < 0 {
		return "", nil, fmt.Errorf("looseobject: malformed size in header %q", header)
	}

	payload = raw[nul+1:]
	if len(payload) != size {
		return "", nil, fmt.Errorf("looseobject: size mismatch: header says %d, got %d", size, len(payload))
	}

	return objType, payload, nil
}
