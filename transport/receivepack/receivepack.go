// Package receivepack implements receive-pack advertisement, request
// framing, and the CAS-guarded ref update spec §4.12 describes: the
// client-visible pkt-line framing, plus the server-side compare-and-swap
// semantics this core exposes (no pack data transport, per spec.md §1
// Non-goals).
//
// Grounded on plumbing/format/pktline (kept from the teacher) for framing
// and plumbing/format/packp.Capabilities for the capability vocabulary;
// the advertisement/request builders and the Update CAS are new code
// against spec §4.12 directly.
package receivepack

import (
	"bytes"
	"fmt"
	"strings"

	git "github.com/kvidal/gitcore"
	"github.com/kvidal/gitcore/plumbing/format/pktline"
	"github.com/kvidal/gitcore/plumbing/hash"
	"github.com/kvidal/gitcore/storage/refstore"
	"github.com/kvidal/gitcore/transport/capability"
)

// DefaultCapabilities returns the base set receive-pack advertises, per
// spec §4.12: report-status, report-status-v2, delete-refs, side-band-64k,
// ofs-delta, object-format=<algo>, plus caller-supplied extras,
// deduplicated and sorted.
func DefaultCapabilities(algo hash.Algo, extra ...string) []string {
	base := []string{
		"report-status",
		"report-status-v2",
		"delete-refs",
		"side-band-64k",
		"ofs-delta",
		"object-format=" + algo.String(),
	}
	return capability.DedupSorted(append(base, extra...))
}

// Ref is one (name, oid) pair to advertise.
type Ref struct {
	Name string
	OID  string
}

// AdvertiseRefs builds the receive-pack advertisement: one pkt-line per
// ref (HEAD's resolved target first, if present among refs, then the
// caller's order), the first line carrying capabilities after a NUL
// delimiter, terminated by a flush packet (spec §4.12).
func AdvertiseRefs(refs []Ref, headTarget string, caps []string) ([]byte, error) {
	ordered := make([]Ref, 0, len(refs))
	var head *Ref
	for i := range refs {
		if headTarget != "" && refs[i].Name == headTarget && head == nil {
			h := refs[i]
			head = &h
			continue
		}
		ordered = append(ordered, refs[i])
	}
	if head != nil {
		ordered = append([]Ref{*head}, ordered...)
	}

	var buf []byte
	capsLine := strings.Join(caps, " ")

	for i, r := range ordered {
		var line string
		if i == 0 {
			line = fmt.Sprintf("%s %s\x00%s\n", r.OID, r.Name, capsLine)
		} else {
			line = fmt.Sprintf("%s %s\n", r.OID, r.Name)
		}
		n, err := pktlineEncode([]byte(line))
		if err != nil {
			return nil, err
		}
		buf = append(buf, n...)
	}

	buf = append(buf, flushPkt()...)
	return buf, nil
}

// Request builds a single receive-pack update request pkt-line:
// "<oldOid> SP <newOid> SP <refName>", with a NUL-capabilities suffix when
// capabilities are supplied, followed by a flush packet (spec §4.12).
func Request(oldOID, newOID, refName string, caps []string) ([]byte, error) {
	line := fmt.Sprintf("%s %s %s", oldOID, newOID, refName)
	if len(caps) > 0 {
		line += "\x00" + strings.Join(caps, " ")
	}
	line += "\n"

	buf, err := pktlineEncode([]byte(line))
	if err != nil {
		return nil, err
	}
	return append(buf, flushPkt()...), nil
}

// Update applies a single CAS-guarded ref update, per spec §4.12:
// validates the OIDs are well-formed and of equal length, normalizes the
// ref name, and requires the current value equal old (the zero OID if
// absent) before mutating — a zero-OID new value deletes the ref, any
// other value updates it.
func Update(refs *refstore.Store, algo hash.Algo, refName, oldOID, newOID, message string) error {
	if !hash.Valid(oldOID) && !hash.IsZero(oldOID) {
		return git.Errorf(git.InvalidArgument, "invalid old OID %q", oldOID)
	}
	if !hash.Valid(newOID) {
		return git.Errorf(git.InvalidArgument, "invalid new OID %q", newOID)
	}
	if len(oldOID) != len(newOID) {
		return git.Errorf(git.InvalidArgument, "old/new OID length mismatch")
	}

	name := refstore.Normalize(refName)

	current, ok, err := refs.ResolveRef(name)
	if err != nil {
		return git.Wrap(git.IOError, err)
	}
	if !ok {
		current = hash.Zero(algo)
	}

	if current != oldOID {
		return git.Errorf(git.LockConflict, "ref %s: expected old %s, found %s", name, oldOID, current)
	}

	if hash.IsZero(newOID) {
		if err := refs.DeleteRef(name, message); err != nil {
			return git.Wrap(git.IOError, err)
		}
		return nil
	}

	if err := refs.UpdateRef(name, newOID, message); err != nil {
		return git.Wrap(git.IOError, err)
	}
	return nil
}

func pktlineEncode(data []byte) ([]byte, error) {
	var b bytes.Buffer
	if _, err := pktline.WritePacket(&b, data); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

func flushPkt() []byte {
	var b bytes.Buffer
	_ = pktline.WriteFlush(&b)
	return b.Bytes()
}
