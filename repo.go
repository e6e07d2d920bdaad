// Package git is the façade over this module's subsystems: the content
// addressed object store, the reference store, the index/worktree bridge,
// and the signature verification ports. It owns repository init/open/clone
// and the read/write operations that compose those subsystems directly.
//
// The lower-level packages under sidecar/ and transport/ depend on this
// package for its error taxonomy (gitcore.Error/Errorf/Wrap), so this
// package cannot import them back without creating a cycle. Callers that
// need receive-pack framing, partial-clone negotiation, or sidecar state
// (stash, remotes, submodules, worktrees, sparse-checkout, maintenance,
// ...) use those packages directly against the Filesystem, Objects, and
// Refs this façade exposes — see DESIGN.md's Component M entry.
package git

import (
	"bytes"
	"io"
	"os"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/kvidal/gitcore/config"
	cfgformat "github.com/kvidal/gitcore/plumbing/format/config"
	"github.com/kvidal/gitcore/plumbing/hash"
	"github.com/kvidal/gitcore/storage/index"
	"github.com/kvidal/gitcore/storage/objectstore"
	"github.com/kvidal/gitcore/storage/refstore"
)

// ProgressCallback reports long-running operation progress (spec §9):
// a phase label, transferred/total byte counts, and a free-form message.
// Clone accepts one; nil is a valid no-op subscriber.
type ProgressCallback func(phase string, transferredBytes, totalBytes int64, message string)

func reportProgress(cb ProgressCallback, phase string, transferred, total int64, message string) {
	if cb != nil {
		cb(phase, transferred, total, message)
	}
}

// Credential is a resolved username/secret pair, returned by a
// CredentialProvider for ssh:// and authenticated http:// sources.
type Credential struct {
	Username string
	Secret   string
}

// CredentialProvider is the Credential port spec §6 describes: a caller
// supplies one to resolve credentials for a clone source rather than this
// module reading them from the environment itself.
type CredentialProvider interface {
	Get(url string) (*Credential, error)
}

// Repo is the façade over one repository's on-disk state: its git
// directory, optional worktree, and the object/ref/index subsystems
// rooted at that git directory.
type Repo struct {
	gitDir   billy.Filesystem
	worktree billy.Filesystem // nil for a bare repository

	algo   hash.Algo
	config *config.Config

	// Objects is the content-addressed object store rooted at gitDir.
	Objects *objectstore.Store
	// Refs is the reference store rooted at gitDir.
	Refs *refstore.Store
	// Index is the index/worktree bridge, nil for a bare repository.
	Index *index.Bridge

	// Verifiers is consulted by VerifySignature; empty by default.
	Verifiers VerifierChain
}

const (
	indexFile     = "index"
	defaultBranch = "main"
)

// InitOptions configures Init.
type InitOptions struct {
	// HashAlgorithm selects the object ID algorithm, SHA1 (the default
	// zero value) or SHA256.
	HashAlgorithm hash.Algo
	// Bare, when true, skips the worktree/.git split: path itself
	// becomes the git directory.
	Bare bool
}

// Init creates the canonical directory skeleton at path (spec §4.14):
// branches, hooks, info, objects/{info,pack}, refs/{heads,tags},
// logs/refs/{heads,tags}, a HEAD symbolic ref at refs/heads/main, a
// description file, and a config recording the chosen hash algorithm.
func Init(path string, opts InitOptions) (*Repo, error) {
	root := osfs.New(path)

	var gitFS, wtFS billy.Filesystem
	if opts.Bare {
		gitFS = root
	} else {
		if err := root.MkdirAll(".git", 0o755); err != nil {
			return nil, Wrap(IOError, err)
		}
		sub, err := root.Chroot(".git")
		if err != nil {
			return nil, Wrap(IOError, err)
		}
		gitFS, wtFS = sub, root
	}

	for _, dir := range []string{
		"branches", "hooks", "info",
		"objects/info", "objects/pack",
		"refs/heads", "refs/tags",
		"logs/refs/heads", "logs/refs/tags",
	} {
		if err := gitFS.MkdirAll(dir, 0o755); err != nil {
			return nil, Wrap(IOError, err)
		}
	}

	if err := writeFile(gitFS, "HEAD", []byte("ref: refs/heads/"+defaultBranch+"\n")); err != nil {
		return nil, err
	}
	if err := writeFile(gitFS, "description", []byte("Unnamed repository; edit this file to name it for gitweb.\n")); err != nil {
		return nil, err
	}

	cfg := config.NewConfig()
	cfg.Core.IsBare = opts.Bare
	applyHashAlgorithm(cfg, opts.HashAlgorithm)
	if err := writeConfig(gitFS, cfg); err != nil {
		return nil, err
	}

	return newRepo(gitFS, wtFS, opts.HashAlgorithm, cfg), nil
}

func applyHashAlgorithm(cfg *config.Config, algo hash.Algo) {
	if algo == hash.SHA256 {
		cfg.Core.RepositoryFormatVersion = cfgformat.Version1
		cfg.Extensions.ObjectFormat = cfgformat.SHA256
		return
	}
	cfg.Core.RepositoryFormatVersion = cfgformat.Version0
}

// Open accepts either a working tree (containing a .git directory) or a
// bare git directory directly, asserts the canonical objects/refs/config
// layout exists, verifies its extensions (repository_extensions.go) and
// parses its hash algorithm from config (spec §4.14).
func Open(path string) (*Repo, error) {
	root := osfs.New(path)

	var gitFS, wtFS billy.Filesystem
	if fi, err := root.Stat(".git"); err == nil && fi.IsDir() {
		sub, err := root.Chroot(".git")
		if err != nil {
			return nil, Wrap(IOError, err)
		}
		gitFS, wtFS = sub, root
	} else {
		gitFS = root
	}

	for _, must := range []string{"objects", "refs", "config"} {
		if _, err := gitFS.Stat(must); err != nil {
			return nil, Errorf(NotFound, "not a git repository (missing %s): %s", must, path)
		}
	}

	cfg, err := readConfig(gitFS)
	if err != nil {
		return nil, err
	}
	if err := verifyExtensions(cfg); err != nil {
		return nil, Wrap(Unsupported, err)
	}

	algo := hash.SHA1
	if cfg.Core.RepositoryFormatVersion == cfgformat.Version1 && cfg.Extensions.ObjectFormat == cfgformat.SHA256 {
		algo = hash.SHA256
	}

	return newRepo(gitFS, wtFS, algo, cfg), nil
}

func newRepo(gitFS, wtFS billy.Filesystem, algo hash.Algo, cfg *config.Config) *Repo {
	r := &Repo{
		gitDir:   gitFS,
		worktree: wtFS,
		algo:     algo,
		config:   cfg,
		Objects:  objectstore.New(gitFS, algo),
		Refs:     refstore.New(gitFS, algo),
	}
	if wtFS != nil {
		r.Index = &index.Bridge{Objects: r.Objects, Worktree: wtFS}
	}
	return r
}

// GitDir returns the filesystem rooted at the repository's git directory.
func (r *Repo) GitDir() billy.Filesystem { return r.gitDir }

// Worktree returns the filesystem rooted at the repository's working
// tree, or nil for a bare repository.
func (r *Repo) Worktree() billy.Filesystem { return r.worktree }

// Algo returns the hash algorithm this repository's objects and refs use.
func (r *Repo) Algo() hash.Algo { return r.algo }

// Config returns the repository's parsed configuration.
func (r *Repo) Config() *config.Config { return r.config }

// IsBare reports whether the repository has no associated worktree.
func (r *Repo) IsBare() bool { return r.worktree == nil }

// WriteObject hashes and writes payload as a loose object of type objType,
// returning its OID.
func (r *Repo) WriteObject(objType string, payload []byte) (string, error) {
	oid, err := r.Objects.WriteLoose(objType, payload)
	if err != nil {
		return "", Wrap(IOError, err)
	}
	return oid, nil
}

// ReadObject returns the payload of the object at oid.
func (r *Repo) ReadObject(oid string) ([]byte, error) {
	payload, err := r.Objects.ReadObject(oid)
	if err != nil {
		return nil, Wrap(NotFound, err)
	}
	return payload, nil
}

// ReadIndex decodes the git directory's index file, returning an empty
// index if none has been written yet.
func (r *Repo) ReadIndex() (*index.Index, error) {
	f, err := r.gitDir.Open(indexFile)
	if err != nil {
		if os.IsNotExist(err) {
			return index.Empty(), nil
		}
		return nil, Wrap(IOError, err)
	}
	defer f.Close()

	raw, err := io.ReadAll(f)
	if err != nil {
		return nil, Wrap(IOError, err)
	}
	idx, err := index.Decode(raw)
	if err != nil {
		return nil, Wrap(ObjectFormat, err)
	}
	return idx, nil
}

// WriteIndex encodes idx in the canonical JSON form and writes it as the
// git directory's index file.
func (r *Repo) WriteIndex(idx *index.Index) error {
	raw, err := index.Encode(idx)
	if err != nil {
		return Wrap(ObjectFormat, err)
	}
	return writeFile(r.gitDir, indexFile, raw)
}

// Add stages paths: each is blobbed into the object store and upserted
// into the index. Requires a worktree.
func (r *Repo) Add(paths ...string) error {
	if r.Index == nil {
		return Errorf(Unsupported, "add requires a worktree")
	}
	idx, err := r.ReadIndex()
	if err != nil {
		return err
	}
	if err := r.Index.Add(idx, paths); err != nil {
		return Wrap(InvalidArgument, err)
	}
	return r.WriteIndex(idx)
}

// CheckoutFiles writes files into the worktree via the index bridge.
// Requires a worktree.
func (r *Repo) CheckoutFiles(files map[string][]byte) error {
	if r.Index == nil {
		return Errorf(Unsupported, "checkout requires a worktree")
	}
	return Wrap(IOError, r.Index.Checkout(files))
}

// Status reports the worktree's status against the current index: staged
// paths unchanged since add, modified paths whose worktree bytes diverge
// from the index, and untracked paths present in the worktree but absent
// from the index. Requires a worktree.
func (r *Repo) Status() (Status, error) {
	if r.Index == nil {
		return nil, Errorf(Unsupported, "status requires a worktree")
	}

	idx, err := r.ReadIndex()
	if err != nil {
		return nil, err
	}
	bridgeStatus, err := r.Index.Status(idx)
	if err != nil {
		return nil, Wrap(IOError, err)
	}

	modified := map[string]bool{}
	for _, p := range bridgeStatus.Unstaged {
		modified[p] = true
	}

	out := Status{}
	for _, p := range bridgeStatus.Staged {
		fs := out.File(p)
		fs.Staging = Unmodified
		if modified[p] {
			fs.Worktree = Modified
		} else {
			fs.Worktree = Unmodified
		}
	}

	tracked := map[string]bool{}
	for _, e := range idx.Entries {
		tracked[e.Path] = true
	}
	untracked, err := listUntracked(r.worktree, "", tracked)
	if err != nil {
		return nil, Wrap(IOError, err)
	}
	for _, p := range untracked {
		fs := out.File(p)
		fs.Staging = Untracked
		fs.Worktree = Untracked
	}

	return out, nil
}

func listUntracked(fs billy.Filesystem, dir string, tracked map[string]bool) ([]string, error) {
	base := dir
	if base == "" {
		base = "."
	}
	entries, err := fs.ReadDir(base)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var out []string
	for _, e := range entries {
		if dir == "" && e.Name() == ".git" {
			continue
		}
		full := e.Name()
		if dir != "" {
			full = dir + "/" + e.Name()
		}
		if e.IsDir() {
			sub, err := listUntracked(fs, full, tracked)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
			continue
		}
		if !tracked[full] {
			out = append(out, full)
		}
	}
	return out, nil
}

func writeFile(fs billy.Filesystem, name string, data []byte) error {
	f, err := fs.Create(name)
	if err != nil {
		return Wrap(IOError, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return Wrap(IOError, err)
	}
	return Wrap(IOError, f.Close())
}

func readConfig(fs billy.Filesystem) (*config.Config, error) {
	f, err := fs.Open("config")
	if err != nil {
		return nil, Wrap(IOError, err)
	}
	defer f.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(f); err != nil {
		return nil, Wrap(IOError, err)
	}
	cfg, err := config.ReadConfig(&buf)
	if err != nil {
		return nil, Wrap(ObjectFormat, err)
	}
	return cfg, nil
}

func writeConfig(fs billy.Filesystem, cfg *config.Config) error {
	raw, err := cfg.Marshal()
	if err != nil {
		return Wrap(IOError, err)
	}
	return writeFile(fs, "config", raw)
}
