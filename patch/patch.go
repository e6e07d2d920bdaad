// Package patch implements unified-patch generation and forward/reverse
// application (spec §4.9), plus the ordered multi-step replay that drives
// the worktree forward with conflict-stop semantics (replay writes files
// only; it does not stage them in the index).
//
// The parser is deliberately a minimal equivalence: it treats a patch as a
// full-file replacement rather than attempting hunk merging (spec §4.9's
// own documented simplification). Grounded on go-git's references.go
// walk-and-compare style for the surrounding plumbing, and on
// utils/diff (sergi/go-diff/diffmatchpatch, the same library the teacher's
// commit-history comparison pulls in) to short-circuit the no-change case.
package patch

import (
	"bytes"
	"fmt"
	"strings"

	billy "github.com/go-git/go-billy/v5"

	"github.com/kvidal/gitcore/plumbing/pathsafe"
	"github.com/kvidal/gitcore/utils/diff"
)

// splitLines splits text into lines on LF, after normalizing CRLF to LF
// (spec §4.9). An empty input produces an empty slice.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	return strings.Split(normalized, "\n")
}

// DiffUnified generates a unified patch transforming before into after for
// path, per spec §4.9's single-hunk full-replacement format. It refuses
// binary content (either side containing a NUL byte) with an error, per
// SPEC_FULL §4.9a's binary-safe guard.
func DiffUnified(path string, before, after []byte) (string, error) {
	if bytes.IndexByte(before, 0) >= 0 || bytes.IndexByte(after, 0) >= 0 {
		return "", fmt.Errorf("patch: refusing to diff binary content for %q", path)
	}

	beforeText, afterText := string(before), string(after)
	if beforeText == afterText {
		// Short-circuit the no-change case rather than emit an empty hunk;
		// grounded on diff.Do's line-mode equality check.
		diffs := diff.Do(beforeText, afterText)
		if len(diffs) <= 1 {
			return "", nil
		}
	}

	beforeLines := splitLines(beforeText)
	afterLines := splitLines(afterText)

	var b strings.Builder
	fmt.Fprintf(&b, "--- a/%s\n", path)
	fmt.Fprintf(&b, "+++ b/%s\n", path)
	fmt.Fprintf(&b, "@@ -1,%d +1,%d @@\n", len(beforeLines), len(afterLines))
	for _, l := range beforeLines {
		b.WriteString("-")
		b.WriteString(l)
		b.WriteString("\n")
	}
	for _, l := range afterLines {
		b.WriteString("+")
		b.WriteString(l)
		b.WriteString("\n")
	}
	return b.String(), nil
}

// Parsed is the result of parsing a unified patch: its target path and the
// "+"/"-" line bodies, in patch order.
type Parsed struct {
	Path       string
	PlusLines  []string
	MinusLines []string
}

// Parse extracts the target path and the +/- line bodies from a unified
// patch, per spec §4.9: find the "+++ b/<path>" line, assert path safety,
// then collect +/- lines while ignoring "---"/"+++"/"@@" lines.
func Parse(patchText string) (*Parsed, error) {
	var p Parsed
	found := false

	for _, line := range strings.Split(patchText, "\n") {
		switch {
		case strings.HasPrefix(line, "+++ b/"):
			p.Path = strings.TrimPrefix(line, "+++ b/")
			found = true
		case strings.HasPrefix(line, "+++ "), strings.HasPrefix(line, "--- "), strings.HasPrefix(line, "@@ "):
			continue
		case strings.HasPrefix(line, "+"):
			p.PlusLines = append(p.PlusLines, line[1:])
		case strings.HasPrefix(line, "-"):
			p.MinusLines = append(p.MinusLines, line[1:])
		}
	}

	if !found {
		return nil, fmt.Errorf("patch: no \"+++ b/<path>\" line found")
	}
	if !pathsafe.IsSafe(p.Path) {
		return nil, fmt.Errorf("patch: unsafe target path %q", p.Path)
	}
	return &p, nil
}

// Apply parses patchText and writes either its "+" lines (forward) or its
// "-" lines (reverse) joined by LF to the target path in worktree, per
// spec §4.9. It returns the path written.
func Apply(worktree billy.Filesystem, patchText string, reverse bool) (string, error) {
	p, err := Parse(patchText)
	if err != nil {
		return "", err
	}

	lines := p.PlusLines
	if reverse {
		lines = p.MinusLines
	}
	content := strings.Join(lines, "\n")

	if dir := parentDir(p.Path); dir != "" {
		if err := worktree.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("patch: mkdir %q: %w", dir, err)
		}
	}

	f, err := worktree.Create(p.Path)
	if err != nil {
		return "", fmt.Errorf("patch: create %q: %w", p.Path, err)
	}
	_, werr := f.Write([]byte(content))
	cerr := f.Close()
	if werr != nil {
		return "", fmt.Errorf("patch: write %q: %w", p.Path, werr)
	}
	if cerr != nil {
		return "", cerr
	}
	return p.Path, nil
}

func parentDir(p string) string {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i] == '/' {
			return p[:i]
		}
	}
	return ""
}

// Step is one entry of a replay sequence: a patch plus its apply direction.
type Step struct {
	PatchText string
	Reverse   bool
}

// ReplayResult reports the outcome of Replay: which paths were written
// before either completion or the first conflict.
type ReplayResult struct {
	Status       string // "completed" or "conflict"
	AppliedPaths []string
	FailedStep   *int // nil on completion
}

// Replay applies steps in order against worktree, stopping at the first
// failure (spec §4.9). Previously applied steps remain written to disk —
// a deliberate "make progress" semantics (spec §9) rather than a
// transaction; callers needing all-or-nothing must snapshot beforehand.
func Replay(worktree billy.Filesystem, steps []Step) (ReplayResult, error) {
	if len(steps) == 0 {
		return ReplayResult{}, fmt.Errorf("patch: replay requires a non-empty step list")
	}

	var applied []string
	for i, step := range steps {
		path, err := Apply(worktree, step.PatchText, step.Reverse)
		if err != nil {
			failed := i
			return ReplayResult{
				Status:       "conflict",
				AppliedPaths: applied,
				FailedStep:   &failed,
			}, nil
		}
		applied = append(applied, path)
	}

	return ReplayResult{
		Status:       "completed",
		AppliedPaths: applied,
		FailedStep:   nil,
	}, nil
}
