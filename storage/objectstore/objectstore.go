// Package objectstore implements the content-addressed loose-object store
// (spec §4.5): read/write by OID directory sharding, plus opaque
// passthrough for pack/bitmap/multi-pack-index/commit-graph containers.
//
// Grounded on go-git's storage/filesystem/object.go (sharded object
// layout, pack enumeration naming), simplified to the spec's contract:
// packs are written and verified but never delta-decoded, object lookup
// against a pack falls through to the loose store.
package objectstore

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	billy "github.com/go-git/go-billy/v5"

	"github.com/kvidal/gitcore/plumbing/deflate"
	"github.com/kvidal/gitcore/plumbing/hash"
	"github.com/kvidal/gitcore/plumbing/looseobject"
)

// Store is a loose+pack object store rooted at a git directory's objects/
// subtree.
type Store struct {
	fs   billy.Filesystem
	algo hash.Algo
}

// New returns a Store rooted at fs (expected to be chrooted/joined to the
// git directory already), using algo for OID computation.
func New(fs billy.Filesystem, algo hash.Algo) *Store {
	return &Store{fs: fs, algo: algo}
}

func (s *Store) objectPath(oid string) string {
	return s.fs.Join("objects", oid[:2], oid[2:])
}

// WriteLoose hashes, encodes, and raw-deflates payload, writing it at
// objects/<oid[0:2]>/<oid[2:]> iff absent. Idempotent: an existing object
// is never rewritten.
func (s *Store) WriteLoose(objType string, payload []byte) (string, error) {
	oid := hash.Hash(objType, payload, s.algo)
	path := s.objectPath(oid)

	if fi, err := s.fs.Stat(path); err == nil && !fi.IsDir() {
		return oid, nil
	}

	envelope, err := looseobject.Encode(objType, payload)
	if err != nil {
		return "", err
	}
	compressed, err := deflate.DeflateRaw(envelope)
	if err != nil {
		return "", err
	}

	if err := s.fs.MkdirAll(s.fs.Join("objects", oid[:2]), 0o755); err != nil {
		return "", err
	}

	f, err := s.fs.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := f.Write(compressed); err != nil {
		return "", err
	}
	return oid, nil
}

// HasLoose reports whether oid exists as a loose object.
func (s *Store) HasLoose(oid string) bool {
	_, err := s.fs.Stat(s.objectPath(oid))
	return err == nil
}

// ReadEnvelope reads and inflates the loose object at oid, returning its
// type, payload, and on-disk (compressed) size, for repo statistics.
func (s *Store) ReadEnvelope(oid string) (objType string, payload []byte, diskSize int64, err error) {
	path := s.objectPath(oid)
	fi, err := s.fs.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil, 0, fmt.Errorf("object not found: %s", oid)
		}
		return "", nil, 0, err
	}

	f, err := s.fs.Open(path)
	if err != nil {
		return "", nil, 0, err
	}
	defer f.Close()

	raw, err := io.ReadAll(f)
	if err != nil {
		return "", nil, 0, err
	}

	inflated, err := deflate.InflateRaw(raw, deflate.DefaultLimits)
	if err != nil {
		return "", nil, 0, err
	}

	objType, payload, err = looseobject.Decode(inflated)
	if err != nil {
		return "", nil, 0, err
	}

	return objType, payload, fi.Size(), nil
}

// ReadObject returns only the payload of the loose object at oid.
func (s *Store) ReadObject(oid string) ([]byte, error) {
	_, payload, _, err := s.ReadEnvelope(oid)
	return payload, err
}

// packNameRE matches the lowercase hex pack base name spec §4.5 requires.
var packNameRE = regexp.MustCompile(`^pack-[0-9a-f]{40,64}$`)

// ValidatePackBaseName asserts base matches pack-[0-9a-f]{40,64}.
func ValidatePackBaseName(base string) error {
	if !packNameRE.MatchString(base) {
		return fmt.Errorf("invalid pack base name %q", base)
	}
	return nil
}

const (
	idxMagic       = "DIRC"
	bitmapMagic    = "BITM"
	midxMagic      = "MIDX"
	commitGraphMag = "CGPH"
)

func assertMagic(data []byte, want string) error {
	if len(data) < 4 || string(data[:4]) != want {
		return fmt.Errorf("bad magic: expected %q", want)
	}
	return nil
}

// WritePackIndex validates and writes a pack .idx container (magic DIRC per
// spec §4.5) at objects/pack/<base>.idx.
func (s *Store) WritePackIndex(base string, data []byte) error {
	if err := ValidatePackBaseName(base); err != nil {
		return err
	}
	if err := assertMagic(data, idxMagic); err != nil {
		return err
	}
	return s.writePackFile(base+".idx", data)
}

// WriteBitmap validates and writes a .bitmap container (magic BITM).
func (s *Store) WriteBitmap(base string, data []byte) error {
	if err := ValidatePackBaseName(base); err != nil {
		return err
	}
	if err := assertMagic(data, bitmapMagic); err != nil {
		return err
	}
	return s.writePackFile(base+".bitmap", data)
}

// WriteMultiPackIndex validates and writes objects/pack/multi-pack-index
// (magic MIDX).
func (s *Store) WriteMultiPackIndex(data []byte) error {
	if err := assertMagic(data, midxMagic); err != nil {
		return err
	}
	if err := s.fs.MkdirAll(s.fs.Join("objects", "pack"), 0o755); err != nil {
		return err
	}
	f, err := s.fs.Create(s.fs.Join("objects", "pack", "multi-pack-index"))
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write(data)
	return err
}

// WriteCommitGraph validates and writes objects/info/commit-graph (magic
// CGPH).
func (s *Store) WriteCommitGraph(data []byte) error {
	if err := assertMagic(data, commitGraphMag); err != nil {
		return err
	}
	if err := s.fs.MkdirAll(s.fs.Join("objects", "info"), 0o755); err != nil {
		return err
	}
	f, err := s.fs.Create(s.fs.Join("objects", "info", "commit-graph"))
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write(data)
	return err
}

// WritePack writes the raw .pack bytes (no magic assertion — the core does
// not decode pack wire format, spec §4.5).
func (s *Store) WritePack(base string, data []byte) error {
	if err := ValidatePackBaseName(base); err != nil {
		return err
	}
	return s.writePackFile(base+".pack", data)
}

func (s *Store) writePackFile(name string, data []byte) error {
	if err := s.fs.MkdirAll(s.fs.Join("objects", "pack"), 0o755); err != nil {
		return err
	}
	f, err := s.fs.Create(s.fs.Join("objects", "pack", name))
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write(data)
	return err
}

// ReadObjectFromPack verifies that both the .pack and .idx for base exist,
// then falls through to ReadObject — the core guarantees presence, it
// never decodes the pack itself (spec §4.5).
func (s *Store) ReadObjectFromPack(base, oid string) ([]byte, error) {
	if err := ValidatePackBaseName(base); err != nil {
		return nil, err
	}
	if _, err := s.fs.Stat(s.fs.Join("objects", "pack", base+".pack")); err != nil {
		return nil, fmt.Errorf("pack file missing for %s: %w", base, err)
	}
	if _, err := s.fs.Stat(s.fs.Join("objects", "pack", base+".idx")); err != nil {
		return nil, fmt.Errorf("pack index missing for %s: %w", base, err)
	}
	return s.ReadObject(oid)
}

// ListPackBases lists the distinct pack base names under objects/pack,
// lexicographically sorted.
func (s *Store) ListPackBases() ([]string, error) {
	entries, err := s.fs.ReadDir(s.fs.Join("objects", "pack"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	seen := map[string]bool{}
	var bases []string
	for _, e := range entries {
		name := e.Name()
		base := strings.TrimSuffix(strings.TrimSuffix(strings.TrimSuffix(name, ".pack"), ".idx"), ".bitmap")
		if base == name {
			continue
		}
		if !seen[base] {
			seen[base] = true
			bases = append(bases, base)
		}
	}
	hash.Sort(bases)
	return bases, nil
}

// Algo returns the hash algorithm this store computes OIDs with.
func (s *Store) Algo() hash.Algo { return s.algo }

// LooseObjectInfo describes one on-disk loose object for maintenance scans.
type LooseObjectInfo struct {
	OID     string
	ModTime time.Time
}

// ListLooseObjects enumerates every loose object under objects/<xx>/<rest>,
// lex-sorted by OID, for the maintenance reachability/prune pass (spec
// §4.14, §4.14a).
func (s *Store) ListLooseObjects() ([]LooseObjectInfo, error) {
	shards, err := s.fs.ReadDir("objects")
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var out []LooseObjectInfo
	for _, shard := range shards {
		if !shard.IsDir() || len(shard.Name()) != 2 || shard.Name() == "pack" || shard.Name() == "info" {
			continue
		}
		dir := s.fs.Join("objects", shard.Name())
		entries, err := s.fs.ReadDir(dir)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			out = append(out, LooseObjectInfo{OID: shard.Name() + e.Name(), ModTime: e.ModTime()})
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].OID < out[j].OID })
	return out, nil
}

// DeleteLoose removes a loose object by OID, ignoring a not-found error.
func (s *Store) DeleteLoose(oid string) error {
	err := s.fs.Remove(s.objectPath(oid))
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}
