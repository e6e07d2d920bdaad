package git

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/kevinburke/ssh_config"
	"github.com/skeema/knownhosts"
	"golang.org/x/crypto/ssh"
	sshagent "github.com/xanzy/ssh-agent"
)

// sshHostAlias resolves the real hostname, port, and user for an ssh://
// clone source's host component through the user's ~/.ssh/config (spec
// §4.14 step 2's ssh:// resolution), grounded on go-git's
// plumbing/transport/ssh.DefaultSSHConfig (ssh_config.DefaultUserSettings)
// convention. A host with no matching Host block passes through unchanged.
func sshHostAlias(host string) (resolvedHost, user, port string) {
	cfg := ssh_config.DefaultUserSettings
	resolvedHost = host
	if hn := cfg.Get(host, "HostName"); hn != "" {
		resolvedHost = hn
	}
	user = cfg.Get(host, "User")
	port = cfg.Get(host, "Port")
	return resolvedHost, user, port
}

// NewSSHAgentCredentials resolves a Credential by asking a running
// ssh-agent for its first available identity, grounded on go-git's
// NewSSHAgentAuth (opens a pipe to the agent and uses its Signers as the
// public-key callback). This core never dials a real SSH socket (spec §9),
// so the resolved Credential carries the configured user (else the URL's
// user, else "git") as Username and a fixed sentinel Secret marking agent-backed auth rather than a literal
// passphrase — any real transport built on top of this core must re-derive
// a live ssh.Signer from the agent itself, not replay this Secret.
func NewSSHAgentCredentials(user string) CredentialProvider {
	return sshAgentCredentials{user: user}
}

type sshAgentCredentials struct{ user string }

const sshAgentSecretSentinel = "ssh-agent"

func (c sshAgentCredentials) Get(rawURL string) (*Credential, error) {
	agent, _, err := sshagent.New()
	if err != nil {
		return nil, Wrap(AuthRequired, fmt.Errorf("ssh-agent: %w", err))
	}
	signers, err := agent.Signers()
	if err != nil {
		return nil, Wrap(AuthRejected, fmt.Errorf("ssh-agent: no identities: %w", err))
	}
	if len(signers) == 0 {
		return nil, Errorf(AuthRequired, "ssh-agent: no identities loaded")
	}

	user := c.user
	if user == "" {
		if u, err := url.Parse(rawURL); err == nil && u.User != nil {
			user = u.User.Username()
		}
	}
	if user == "" {
		user = "git"
	}
	return &Credential{Username: user, Secret: sshAgentSecretSentinel}, nil
}

// KnownHostsVerifier wraps a parsed known_hosts database (spec §6's
// Credential-port-adjacent host verification) so a caller's real SSH
// transport can plug it in as an ssh.HostKeyCallback. Grounded on go-git's
// NewKnownHostsCallback, built on github.com/skeema/knownhosts (the same
// library the teacher's own knownhosts wrapper is transcribed from,
// confirmed by the retrieved test file's attribution comment).
type KnownHostsVerifier struct {
	db *knownhosts.HostKeyDB
}

// NewKnownHostsVerifier loads files (or, if empty, the SSH_KNOWN_HOSTS list
// when that variable is set, else the default ~/.ssh/known_hosts and
// /etc/ssh/ssh_known_hosts locations) into a knownhosts database.
func NewKnownHostsVerifier(files ...string) (*KnownHostsVerifier, error) {
	if len(files) == 0 {
		files = defaultKnownHostsFiles()
	}
	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil, Errorf(NotFound, "no known_hosts files found among %v", files)
	}

	db, err := knownhosts.NewDB(existing...)
	if err != nil {
		return nil, Wrap(ObjectFormat, err)
	}
	return &KnownHostsVerifier{db: db}, nil
}

// Callback returns the ssh.HostKeyCallback a caller's real transport
// should install; this core itself never dials a socket to exercise it.
func (v *KnownHostsVerifier) Callback() ssh.HostKeyCallback {
	return v.db.HostKeyCallback()
}

func defaultKnownHostsFiles() []string {
	if env := os.Getenv("SSH_KNOWN_HOSTS"); env != "" {
		return filepath.SplitList(env)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return []string{"/etc/ssh/ssh_known_hosts"}
	}
	return []string{
		filepath.Join(home, ".ssh", "known_hosts"),
		"/etc/ssh/ssh_known_hosts",
	}
}

// sshAliasHost extracts the bare host component (sans user@ and :port) from
// an ssh:// clone source, for sshHostAlias lookups.
func sshAliasHost(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return strings.TrimSuffix(u.Hostname(), ".")
}
