// Package sidecar persists the auxiliary "*-codex.json" state spec §3/§6
// names as opaque to the wire format but meaningful to this core: stash,
// remotes, submodules, worktrees, sparse-checkout, partial-clone,
// maintenance, notes, replace, and the rebase state machine. Every file is
// rewritten whole (spec §5's "sidecar JSON files are rewritten whole").
//
// Grounded on storage/refstore's fs.Create/Write/Close idiom (kept from the
// teacher) for the atomic-enough whole-file rewrite, and on
// config/modules.go's Modules map shape for the submodules codec; the JSON
// schemas themselves are new against spec §3/§6 directly, since go-git has
// no sidecar-state concept of its own.
package sidecar

import (
	"bytes"
	"encoding/json"
	"io"
	"path"

	billy "github.com/go-git/go-billy/v5"

	git "github.com/kvidal/gitcore"
)

// load decodes name's JSON contents into out with strict (unknown-field
// rejecting) validation. A missing file leaves out untouched and returns
// nil — every sidecar file is optional until first written.
func load(fs billy.Filesystem, name string, out interface{}) error {
	f, err := fs.Open(name)
	if err != nil {
		return nil
	}
	defer f.Close()

	raw, err := io.ReadAll(f)
	if err != nil {
		return git.Wrap(git.IOError, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return git.Errorf(git.ObjectFormat, "sidecar %s: %v", name, err)
	}
	return nil
}

// store marshals in as indented JSON and rewrites name in full.
func store(fs billy.Filesystem, name string, in interface{}) error {
	payload, err := json.MarshalIndent(in, "", "  ")
	if err != nil {
		return git.Wrap(git.IOError, err)
	}

	if dir := path.Dir(name); dir != "." {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return git.Wrap(git.IOError, err)
		}
	}

	f, err := fs.Create(name)
	if err != nil {
		return git.Wrap(git.IOError, err)
	}
	if _, err := f.Write(payload); err != nil {
		f.Close()
		return git.Wrap(git.IOError, err)
	}
	if _, err := f.Write([]byte("\n")); err != nil {
		f.Close()
		return git.Wrap(git.IOError, err)
	}
	return git.Wrap(git.IOError, f.Close())
}
