// Package refstore implements the reference store (spec §4.6): loose refs
// under refs/, a consolidated packed-refs file, HEAD resolution, prefix
// listing, and reflog append.
//
// Grounded on go-git's storage/filesystem/dotgit package — the CAS-guarded
// loose-ref rewrite in dotgit_setref.go and the rename-or-copy packed-refs
// rewrite in dotgit_rewrite_packed_refs.go — simplified to the core's
// non-locked CAS contract (callers layering true compare-and-swap,
// e.g. receive-pack, resolve-then-mutate under their own external lock).
package refstore

import (
	"bufio"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	billy "github.com/go-git/go-billy/v5"

	"github.com/kvidal/gitcore/plumbing/hash"
)

// Store is a reference store rooted at a git directory.
type Store struct {
	fs   billy.Filesystem
	algo hash.Algo
}

// New returns a Store rooted at fs, using algo to size/validate OIDs.
func New(fs billy.Filesystem, algo hash.Algo) *Store {
	return &Store{fs: fs, algo: algo}
}

// Normalize prefixes a bare name with refs/, per spec §4.6. HEAD is left
// untouched since it lives outside refs/.
func Normalize(name string) string {
	if name == "HEAD" || strings.HasPrefix(name, "refs/") {
		return name
	}
	return "refs/" + name
}

// fsPath converts a "/"-separated logical ref/reflog name into an
// fs.Join-composed filesystem path.
func (s *Store) fsPath(name string) string {
	return s.fs.Join(strings.Split(name, "/")...)
}

// ResolveRef returns the OID bound to name, checking the loose file first
// (trimmed, must be a valid OID) and falling back to packed-refs. Loose
// wins when both exist. Returns ("", false, nil) when unresolved.
func (s *Store) ResolveRef(name string) (string, bool, error) {
	name = Normalize(name)

	if oid, ok, err := s.readLoose(name); err != nil {
		return "", false, err
	} else if ok {
		return oid, true, nil
	}

	packed, err := s.readPackedRefs()
	if err != nil {
		return "", false, err
	}
	if oid, ok := packed[name]; ok {
		return oid, true, nil
	}

	return "", false, nil
}

func (s *Store) readLoose(name string) (string, bool, error) {
	f, err := s.fs.Open(s.fsPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, err
	}
	defer f.Close()

	buf := make([]byte, 0, 256)
	chunk := make([]byte, 256)
	for {
		n, err := f.Read(chunk)
		buf = append(buf, chunk[:n]...)
		if err != nil {
			break
		}
	}

	content := strings.TrimSpace(string(buf))
	if strings.HasPrefix(content, "ref: ") {
		return "", false, fmt.Errorf("refstore: %s is symbolic, not an OID ref", name)
	}
	if !hash.Valid(content) {
		return "", false, fmt.Errorf("refstore: loose ref %s has invalid content %q", name, content)
	}
	return content, true, nil
}

// ResolveHead resolves HEAD: if symbolic ("ref: <name>"), resolves the
// target; if a detached OID, returns it directly.
func (s *Store) ResolveHead() (string, error) {
	f, err := s.fs.Open("HEAD")
	if err != nil {
		return "", fmt.Errorf("refstore: read HEAD: %w", err)
	}
	defer f.Close()

	buf := make([]byte, 0, 256)
	chunk := make([]byte, 256)
	for {
		n, rerr := f.Read(chunk)
		buf = append(buf, chunk[:n]...)
		if rerr != nil {
			break
		}
	}
	content := strings.TrimSpace(string(buf))

	if target, ok := strings.CutPrefix(content, "ref: "); ok {
		target = strings.TrimSpace(target)
		oid, ok, err := s.ResolveRef(target)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", fmt.Errorf("refstore: HEAD target %s does not resolve", target)
		}
		return oid, nil
	}

	if hash.Valid(content) {
		return content, nil
	}

	return "", fmt.Errorf("refstore: HEAD has unrecognized content %q", content)
}

// RefEntry is one (name, oid) binding returned by ListRefs.
type RefEntry struct {
	Name string
	OID  string
}

// ListRefs returns the union of packed and loose refs matching prefix
// (loose shadows packed for a shared name), lexicographically sorted by
// name. "refs" matches everything; "refs/heads" matches both
// refs/heads/* and the exact name refs/heads.
func (s *Store) ListRefs(prefix string) ([]RefEntry, error) {
	merged := map[string]string{}

	packed, err := s.readPackedRefs()
	if err != nil {
		return nil, err
	}
	for name, oid := range packed {
		merged[name] = oid
	}

	if err := s.walkLoose("refs", merged); err != nil {
		return nil, err
	}

	var out []RefEntry
	for name, oid := range merged {
		if matchesPrefix(name, prefix) {
			out = append(out, RefEntry{Name: name, OID: oid})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func matchesPrefix(name, prefix string) bool {
	if prefix == "" || prefix == "refs" {
		return true
	}
	return name == prefix || strings.HasPrefix(name, prefix+"/")
}

func (s *Store) walkLoose(dir string, merged map[string]string) error {
	entries, err := s.fs.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, e := range entries {
		full := dir + "/" + e.Name()
		if e.IsDir() {
			if err := s.walkLoose(full, merged); err != nil {
				return err
			}
			continue
		}
		oid, ok, err := s.readLoose(full)
		if err != nil {
			return err
		}
		if ok {
			merged[full] = oid
		}
	}
	return nil
}

// UpdateRef writes newOID to refs/<name> and appends a reflog entry under
// logs/<name> recording the previous value (the zero OID if absent).
func (s *Store) UpdateRef(name, newOID, message string) error {
	name = Normalize(name)

	oldOID, _, err := s.ResolveRef(name)
	if err != nil {
		return err
	}
	if oldOID == "" {
		oldOID = hash.Zero(s.algo)
	}

	refPath := s.fsPath(name)
	if dir := path.Dir(name); dir != "." {
		if err := s.fs.MkdirAll(s.fsPath(dir), 0o755); err != nil {
			return err
		}
	}

	f, err := s.fs.Create(refPath)
	if err != nil {
		return err
	}
	if _, err := f.Write([]byte(newOID + "\n")); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	return s.appendReflog(name, oldOID, newOID, message)
}

// CreateRef fails ALREADY_EXISTS if name already resolves; otherwise
// behaves as UpdateRef.
func (s *Store) CreateRef(name, oid, message string) error {
	name = Normalize(name)
	if existing, ok, err := s.ResolveRef(name); err != nil {
		return err
	} else if ok {
		return fmt.Errorf("refstore: ref %s already exists at %s", name, existing)
	}
	return s.UpdateRef(name, oid, message)
}

// DeleteRef fails NOT_FOUND if name is absent; removes the loose file if
// present, scrubs the packed-refs entry (and any following peel line) if
// present, and appends a reflog entry with new = zero OID.
func (s *Store) DeleteRef(name, message string) error {
	name = Normalize(name)

	oldOID, ok, err := s.ResolveRef(name)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("refstore: ref %s not found", name)
	}

	refPath := s.fsPath(name)
	if _, statErr := s.fs.Stat(refPath); statErr == nil {
		if err := s.fs.Remove(refPath); err != nil {
			return err
		}
	}

	if err := s.rewritePackedRefsWithout(name); err != nil {
		return err
	}

	return s.appendReflog(name, oldOID, hash.Zero(s.algo), message)
}

// VerifyRef reports whether name currently resolves to oid.
func (s *Store) VerifyRef(name, oid string) (bool, error) {
	current, ok, err := s.ResolveRef(name)
	if err != nil {
		return false, err
	}
	return ok && current == oid, nil
}

func (s *Store) appendReflog(name, oldOID, newOID, message string) error {
	logPath := s.fsPath("logs/" + name)
	if err := s.fs.MkdirAll(s.fsPath("logs/"+path.Dir(name)), 0o755); err != nil {
		return err
	}

	f, err := s.fs.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	line := fmt.Sprintf("%s %s repo <repo@example.local> %d +0000\t%s\n",
		oldOID, newOID, time.Now().Unix(), message)
	_, err = f.Write([]byte(line))
	return err
}

// ReflogOIDs returns every OID mentioned (old or new) across every reflog
// file under logs/, for the maintenance reachability walk (spec §4.14a).
func (s *Store) ReflogOIDs() ([]string, error) {
	seen := map[string]bool{}
	if err := s.walkReflogs("logs", seen); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(seen))
	for oid := range seen {
		out = append(out, oid)
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) walkReflogs(dir string, seen map[string]bool) error {
	entries, err := s.fs.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, e := range entries {
		full := dir + "/" + e.Name()
		if e.IsDir() {
			if err := s.walkReflogs(full, seen); err != nil {
				return err
			}
			continue
		}
		f, err := s.fs.Open(full)
		if err != nil {
			return err
		}
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			fields := strings.Fields(scanner.Text())
			if len(fields) >= 2 {
				seen[fields[0]] = true
				seen[fields[1]] = true
			}
		}
		f.Close()
		if err := scanner.Err(); err != nil {
			return err
		}
	}
	return nil
}

// readPackedRefs parses packed-refs into a name→OID map, ignoring comment
// lines ("#...") and peeled-tag lines ("^...").
func (s *Store) readPackedRefs() (map[string]string, error) {
	refs := map[string]string{}

	f, err := s.fs.Open("packed-refs")
	if err != nil {
		if os.IsNotExist(err) {
			return refs, nil
		}
		return nil, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "^") {
			continue
		}
		sp := strings.IndexByte(line, ' ')
		if sp < 0 {
			continue
		}
		refs[line[sp+1:]] = line[:sp]
	}
	return refs, sc.Err()
}

// rewritePackedRefsWithout drops name's entry (and its following peel line,
// if any) from packed-refs, preserving a trailing newline only when the
// resulting file is non-empty.
func (s *Store) rewritePackedRefsWithout(name string) error {
	f, err := s.fs.Open("packed-refs")
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var lines []string
	sc := bufio.NewScanner(f)
	skipNext := false
	for sc.Scan() {
		line := sc.Text()
		if skipNext {
			skipNext = false
			if strings.HasPrefix(line, "^") {
				continue
			}
		}
		if !strings.HasPrefix(line, "#") && !strings.HasPrefix(line, "^") {
			sp := strings.IndexByte(line, ' ')
			if sp >= 0 && line[sp+1:] == name {
				skipNext = true
				continue
			}
		}
		lines = append(lines, line)
	}
	f.Close()
	if err := sc.Err(); err != nil {
		return err
	}

	out := s.fs.Join("packed-refs")
	wf, err := s.fs.Create(out)
	if err != nil {
		return err
	}
	defer wf.Close()

	if len(lines) == 0 {
		return nil
	}
	_, err = wf.Write([]byte(strings.Join(lines, "\n") + "\n"))
	return err
}
