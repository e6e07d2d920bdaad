package git

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"os"
	"path"
	"sort"
	"strings"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"golang.org/x/net/http/httpproxy"

	"github.com/kvidal/gitcore/config"
	"github.com/kvidal/gitcore/internal/iocopy"
	"github.com/kvidal/gitcore/plumbing"
	cfgformat "github.com/kvidal/gitcore/plumbing/format/config"
	"github.com/kvidal/gitcore/plumbing/hash"
	"github.com/kvidal/gitcore/storage/index"
	"github.com/kvidal/gitcore/storage/objectstore"
)

// CloneOptions configures Clone (spec §4.14).
type CloneOptions struct {
	// Branch, if given, is rewritten to HEAD after clone; it must
	// resolve in the source.
	Branch string
	// Depth, if non-zero, must be >= 1 and produces a shallow clone:
	// the boundary commits are recorded in a "shallow" file.
	Depth int
	// Filter, if given, negotiates a partial-clone state recorded
	// alongside the clone.
	Filter string
	// RecurseSubmodules clones every module named in the materialized
	// tree's .gitmodules, checked out at its recorded gitlink commit.
	RecurseSubmodules bool
	// Credentials resolves a username/secret pair for ssh:// sources.
	Credentials CredentialProvider
	// Progress receives progress reports; nil is a valid no-op.
	Progress ProgressCallback
}

// Clone resolves src (a local path, file://, http(s)://, or ssh:// URL) to
// a local git directory, initializes dst with the source's hash
// algorithm, copies the source's git-directory contents, rewires HEAD and
// the origin remote-tracking refs, materializes the worktree, and
// optionally records a shallow boundary, a partial-clone filter, and
// recurses into submodules (spec §4.14 step list).
func Clone(src, dst string, opts CloneOptions) (*Repo, error) {
	if opts.Depth != 0 && opts.Depth < 1 {
		return nil, Errorf(InvalidArgument, "depth must be >= 1 when given")
	}
	branch := strings.TrimSpace(opts.Branch)
	if opts.Branch != "" && branch == "" {
		return nil, Errorf(InvalidArgument, "branch must be non-empty when given")
	}
	filter := strings.TrimSpace(opts.Filter)
	if opts.Filter != "" && filter == "" {
		return nil, Errorf(InvalidArgument, "filter must be non-empty when given")
	}

	sourcePath, err := resolveCloneSource(src, opts)
	if err != nil {
		return nil, err
	}
	srcGitFS, err := resolveLocalGitFS(sourcePath)
	if err != nil {
		return nil, err
	}

	if err := assertCloneTargetAvailable(dst); err != nil {
		return nil, err
	}

	srcCfg, err := readConfig(srcGitFS)
	if err != nil {
		return nil, err
	}
	algo := hash.SHA1
	if srcCfg.Core.RepositoryFormatVersion == cfgformat.Version1 && srcCfg.Extensions.ObjectFormat == cfgformat.SHA256 {
		algo = hash.SHA256
	}

	reportProgress(opts.Progress, "init", 0, 0, "initializing target repository")
	repo, err := Init(dst, InitOptions{HashAlgorithm: algo})
	if err != nil {
		return nil, err
	}

	reportProgress(opts.Progress, "copy", 0, 0, "copying git directory contents")
	if err := copyTree(srcGitFS, repo.gitDir, ""); err != nil {
		return nil, Wrap(IOError, err)
	}
	repo.config, err = readConfig(repo.gitDir)
	if err != nil {
		return nil, err
	}

	if branch != "" {
		target := plumbing.NewBranchReferenceName(branch)
		if _, ok, err := repo.Refs.ResolveRef(string(target)); err != nil {
			return nil, Wrap(IOError, err)
		} else if !ok {
			return nil, Errorf(NotFound, "branch %q does not exist in source", branch)
		}
		if err := writeFile(repo.gitDir, "HEAD", []byte("ref: "+string(target)+"\n")); err != nil {
			return nil, err
		}
	}

	if err := rebindOriginRefs(repo); err != nil {
		return nil, err
	}

	headOID, err := repo.Refs.ResolveHead()
	if err != nil {
		return nil, Wrap(NotFound, err)
	}

	reportProgress(opts.Progress, "checkout", 0, 0, "materializing worktree")
	materialized, err := materializeAndCheckout(repo, headOID)
	if err != nil {
		return nil, err
	}

	if opts.Depth > 0 {
		if err := writeShallowBoundary(repo, headOID, opts.Depth); err != nil {
			return nil, err
		}
	}

	if filter != "" {
		if err := writePartialCloneState(repo, filter, algo); err != nil {
			return nil, err
		}
	}

	if err := patchOriginRemote(repo, src, filter, algo); err != nil {
		return nil, err
	}

	if opts.RecurseSubmodules {
		reportProgress(opts.Progress, "submodules", 0, 0, "recursing into submodules")
		if err := cloneSubmodules(repo, materialized, opts); err != nil {
			return nil, err
		}
	}

	return repo, nil
}

// resolveCloneSource resolves src down to a local filesystem path
// containing (or rooted at) a git directory. http(s) sources are queried
// at "…/info/refs?service=git-upload-pack"; a response header
// "x-codex-repo-path" redirects to the local mirror. ssh sources require
// a CredentialProvider and resolve to the URL's path component. This core
// does not pull a real packfile over the wire — every scheme ultimately
// names a local mirror (spec §4.14 step 2, §9).
func resolveCloneSource(src string, opts CloneOptions) (string, error) {
	switch {
	case strings.HasPrefix(src, "file://"):
		return strings.TrimPrefix(src, "file://"), nil
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		return resolveHTTPCloneSource(src, opts)
	case strings.HasPrefix(src, "ssh://"):
		return resolveSSHCloneSource(src, opts)
	default:
		if strings.Contains(src, "://") {
			return "", Errorf(Unsupported, "unsupported clone source scheme: %s", src)
		}
		return src, nil
	}
}

// httpProxyTransport builds an *http.Transport honoring the standard
// HTTP_PROXY/HTTPS_PROXY/NO_PROXY environment variables via
// golang.org/x/net/http/httpproxy, the same proxy-resolution package the
// broader retrieval pack's HTTP-transport examples reach for instead of
// relying on net/http's unexported default proxy logic.
func httpProxyTransport() *http.Transport {
	cfg := httpproxy.FromEnvironment()
	return &http.Transport{
		Proxy: func(req *http.Request) (*neturl.URL, error) {
			return cfg.ProxyFunc()(req.URL)
		},
	}
}

func resolveHTTPCloneSource(src string, opts CloneOptions) (string, error) {
	reportProgress(opts.Progress, "resolve", 0, 0, "requesting "+src+"/info/refs")

	client := &http.Client{Transport: httpProxyTransport()}
	resp, err := client.Get(src + "/info/refs?service=git-upload-pack")
	if err != nil {
		return "", Wrap(NetworkError, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	mirror := resp.Header.Get("x-codex-repo-path")
	if mirror == "" {
		return "", Errorf(Unsupported, "http(s) source %s did not advertise a local mirror path", src)
	}
	return mirror, nil
}

func resolveSSHCloneSource(src string, opts CloneOptions) (string, error) {
	if opts.Credentials == nil {
		return "", Errorf(AuthRequired, "ssh clone source requires a credential provider")
	}
	cred, err := opts.Credentials.Get(src)
	if err != nil {
		return "", Wrap(AuthRejected, err)
	}
	reportProgress(opts.Progress, "resolve", 0, 0, fmt.Sprintf("authenticating as %s with redacted secret", cred.Username))

	u, err := neturl.Parse(src)
	if err != nil {
		return "", Errorf(InvalidArgument, "invalid ssh clone source %q: %v", src, err)
	}

	// Resolve a ~/.ssh/config Host alias for the URL's host component
	// (spec §4.14 step 2's ssh:// resolution), matching the HostName it
	// would dial under a real transport even though this core never
	// opens that socket itself (spec §9).
	if alias, _, _ := sshHostAlias(sshAliasHost(src)); alias != u.Hostname() {
		reportProgress(opts.Progress, "resolve", 0, 0, "ssh_config HostName alias resolved to "+alias)
	}

	return u.Path, nil
}

// resolveLocalGitFS locates the git directory at or under path, accepting
// either a working tree (containing .git) or a bare git directory.
func resolveLocalGitFS(path string) (billy.Filesystem, error) {
	root := osfs.New(path)
	if fi, err := root.Stat(".git"); err == nil && fi.IsDir() {
		sub, err := root.Chroot(".git")
		if err != nil {
			return nil, Wrap(IOError, err)
		}
		return sub, nil
	}
	if _, err := root.Stat("objects"); err == nil {
		return root, nil
	}
	return nil, Errorf(NotFound, "not a git repository: %s", path)
}

// assertCloneTargetAvailable rejects dst if it exists as a non-directory
// or a non-empty directory (spec §4.14 step 3).
func assertCloneTargetAvailable(dst string) error {
	fi, err := os.Stat(dst)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return Wrap(IOError, err)
	}
	if !fi.IsDir() {
		return Errorf(AlreadyExists, "clone target %s exists and is not a directory", dst)
	}
	entries, err := os.ReadDir(dst)
	if err != nil {
		return Wrap(IOError, err)
	}
	if len(entries) > 0 {
		return Errorf(AlreadyExists, "clone target %s is a non-empty directory", dst)
	}
	return nil
}

// copyTree recursively copies every regular file and directory from src
// to dst, rooted at dir (the empty string meaning both roots).
func copyTree(src, dst billy.Filesystem, dir string) error {
	base := dir
	if base == "" {
		base = "."
	}
	entries, err := src.ReadDir(base)
	if err != nil {
		return err
	}

	for _, e := range entries {
		full := e.Name()
		if dir != "" {
			full = dir + "/" + e.Name()
		}

		if e.IsDir() {
			if err := dst.MkdirAll(full, 0o755); err != nil {
				return err
			}
			if err := copyTree(src, dst, full); err != nil {
				return err
			}
			continue
		}

		in, err := src.Open(full)
		if err != nil {
			return err
		}
		out, err := dst.Create(full)
		if err != nil {
			in.Close()
			return err
		}
		_, copyErr := iocopy.Copy(out, in)
		in.Close()
		closeErr := out.Close()
		if copyErr != nil {
			return copyErr
		}
		if closeErr != nil {
			return closeErr
		}
	}
	return nil
}

// rebindOriginRefs implements spec §4.14 step 6: every local branch gets
// a refs/remotes/origin/<X> pointing at the same OID; if HEAD is symbolic
// to a branch, every other local head is dropped and
// refs/remotes/origin/HEAD is written symbolic to the matching remote
// branch.
func rebindOriginRefs(repo *Repo) error {
	headTarget, symbolic, err := readSymbolicHead(repo.gitDir)
	if err != nil {
		return err
	}

	heads, err := repo.Refs.ListRefs("refs/heads")
	if err != nil {
		return Wrap(IOError, err)
	}

	for _, h := range heads {
		short := strings.TrimPrefix(h.Name, "refs/heads/")
		remoteName := string(plumbing.NewRemoteReferenceName("origin", short))
		if err := repo.Refs.UpdateRef(remoteName, h.OID, "clone: rebind "+remoteName); err != nil {
			return Wrap(IOError, err)
		}
	}

	if !symbolic {
		return nil
	}

	for _, h := range heads {
		if h.Name == headTarget {
			continue
		}
		if err := repo.Refs.DeleteRef(h.Name, "clone: drop non-head local branch"); err != nil {
			return Wrap(IOError, err)
		}
	}

	headBranch := strings.TrimPrefix(headTarget, "refs/heads/")
	remoteHEAD := plumbing.NewRemoteHEADReferenceName("origin")
	remoteTarget := plumbing.NewRemoteReferenceName("origin", headBranch)
	if err := repo.gitDir.MkdirAll("refs/remotes/origin", 0o755); err != nil {
		return Wrap(IOError, err)
	}
	if err := writeFile(repo.gitDir, string(remoteHEAD), []byte("ref: "+string(remoteTarget)+"\n")); err != nil {
		return err
	}
	return nil
}

// readSymbolicHead reads gitDir's HEAD file, reporting its target and
// whether it is symbolic.
func readSymbolicHead(gitDir billy.Filesystem) (target string, symbolic bool, err error) {
	f, err := gitDir.Open("HEAD")
	if err != nil {
		return "", false, Wrap(IOError, err)
	}
	defer f.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(f); err != nil {
		return "", false, Wrap(IOError, err)
	}
	content := strings.TrimSpace(buf.String())

	if t, ok := strings.CutPrefix(content, "ref: "); ok {
		return strings.TrimSpace(t), true, nil
	}
	return content, false, nil
}

// materializeAndCheckout materializes commitOID's tree into the
// repository's worktree and index (gitlinks become empty directories),
// per spec §4.14 step 7.
func materializeAndCheckout(repo *Repo, commitOID string) (*objectstore.Materialized, error) {
	treeOID, err := repo.Objects.CommitTreeOID(commitOID)
	if err != nil {
		return nil, Wrap(ObjectFormat, err)
	}
	materialized, err := repo.Objects.MaterializeTree(treeOID)
	if err != nil {
		return nil, Wrap(ObjectFormat, err)
	}

	if repo.Index == nil {
		return materialized, nil
	}

	if err := repo.Index.Checkout(materialized.Files); err != nil {
		return nil, Wrap(IOError, err)
	}
	for _, gl := range materialized.Gitlinks {
		if err := repo.worktree.MkdirAll(gl.Path, 0o755); err != nil {
			return nil, Wrap(IOError, err)
		}
	}

	idx := index.Empty()
	for p, payload := range materialized.Files {
		oid := hash.Hash("blob", payload, repo.algo)
		idx.Upsert(index.Entry{Path: p, OID: oid, Mode: index.DefaultMode})
	}
	for _, gl := range materialized.Gitlinks {
		idx.Upsert(index.Entry{Path: gl.Path, OID: gl.OID, Mode: 0o160000})
	}
	if err := repo.WriteIndex(idx); err != nil {
		return nil, err
	}

	return materialized, nil
}

// writeShallowBoundary writes the "shallow" file with the lex-sorted
// boundary commits at depth generations back from head (spec §4.14 step
// 8).
func writeShallowBoundary(repo *Repo, head string, depth int) error {
	boundary, err := repo.Objects.ShallowBoundary(head, depth)
	if err != nil {
		return Wrap(ObjectFormat, err)
	}
	sort.Strings(boundary)
	return writeFile(repo.gitDir, "shallow", []byte(strings.Join(boundary, "\n")+"\n"))
}

// partialCloneShape mirrors transport/partial.State's JSON shape. It is
// duplicated here (rather than importing transport/partial, which itself
// depends on this package for its error taxonomy) purely to avoid an
// import cycle; sidecar.LoadPartialClone decodes this file by field name
// and is unaffected by which package produced it.
type partialCloneShape struct {
	FilterSpec      *string           `json:"filterSpec"`
	Capabilities    []string          `json:"capabilities"`
	PromisorObjects map[string][]byte `json:"promisorObjects"`
}

// writePartialCloneState persists partial-clone-codex.json with the
// accepted filter and default capabilities (spec §4.14 step 9).
func writePartialCloneState(repo *Repo, filter string, algo hash.Algo) error {
	state := partialCloneShape{
		FilterSpec:      &filter,
		Capabilities:    []string{"filter", "object-format=" + algo.String()},
		PromisorObjects: map[string][]byte{},
	}
	payload, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return Wrap(IOError, err)
	}
	return writeFile(repo.gitDir, "partial-clone-codex.json", append(payload, '\n'))
}

// patchOriginRemote adds or refreshes [remote "origin"] with url, the
// default fetch refspec, and (when filter is set) promisor/
// partialclonefilter extra options (spec §4.14 step 10).
func patchOriginRemote(repo *Repo, url, filter string, algo hash.Algo) error {
	if repo.config.Remotes == nil {
		repo.config.Remotes = map[string]*config.RemoteConfig{}
	}
	repo.config.Remotes["origin"] = &config.RemoteConfig{
		Name: "origin",
		URLs: []string{url},
		Fetch: []config.RefSpec{
			config.RefSpec(fmt.Sprintf(config.DefaultFetchRefSpec, "origin")),
		},
	}

	// Marshal once to materialize the "origin" subsection under
	// c.Raw, then attach the extra options Marshal's typed fields
	// don't model, then marshal again to produce the final bytes.
	if _, err := repo.config.Marshal(); err != nil {
		return Wrap(IOError, err)
	}
	if filter != "" {
		sub := repo.config.Raw.Section("remote").Subsection("origin")
		sub.SetOption("promisor", "true")
		sub.SetOption("partialclonefilter", filter)
	}

	return writeConfig(repo.gitDir, repo.config)
}

// cloneSubmodules parses .gitmodules from the materialized tree and
// recursively clones each module into its worktree-relative path,
// checking it out at the gitlink OID recorded in the head tree (spec
// §4.14 step 11).
func cloneSubmodules(repo *Repo, materialized *objectstore.Materialized, opts CloneOptions) error {
	raw, ok := materialized.Files[".gitmodules"]
	if !ok {
		return nil
	}
	modules, err := config.ReadModules(bytes.NewReader(raw))
	if err != nil {
		return Wrap(ObjectFormat, err)
	}

	gitlinks := map[string]string{}
	for _, gl := range materialized.Gitlinks {
		gitlinks[gl.Path] = gl.OID
	}

	for _, m := range modules {
		gitlinkOID, ok := gitlinks[m.Path]
		if !ok {
			continue
		}

		subDst := path.Join(repo.worktree.Root(), m.Path)
		subOpts := CloneOptions{
			Depth:             opts.Depth,
			Filter:            opts.Filter,
			RecurseSubmodules: true,
			Credentials:       opts.Credentials,
			Progress:          opts.Progress,
		}

		subRepo, err := Clone(m.URL, subDst, subOpts)
		if err != nil {
			return Errorf(NotFound, "submodule %q: %v", m.Path, err)
		}

		if err := writeFile(subRepo.gitDir, "HEAD", []byte(gitlinkOID+"\n")); err != nil {
			return err
		}
		if _, err := materializeAndCheckout(subRepo, gitlinkOID); err != nil {
			return err
		}
	}

	return nil
}
