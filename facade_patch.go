package git

import (
	"github.com/kvidal/gitcore/patch"
)

// PatchStep is one entry of a replay sequence, re-exported from the patch
// package so callers need not import it directly.
type PatchStep = patch.Step

// ReplayResult reports the outcome of ReplayPatchSteps.
type ReplayResult = patch.ReplayResult

// DiffWorktreeFile generates a unified patch transforming before into after
// for path (spec §4.9), refusing binary content per SPEC_FULL §4.9a.
func (r *Repo) DiffWorktreeFile(path string, before, after []byte) (string, error) {
	out, err := patch.DiffUnified(path, before, after)
	if err != nil {
		return "", Wrap(Unsupported, err)
	}
	return out, nil
}

// ApplyPatch parses patchText and writes its forward ("+") or reverse ("-")
// lines to the worktree (spec §4.9). Requires a worktree.
func (r *Repo) ApplyPatch(patchText string, reverse bool) (string, error) {
	if r.worktree == nil {
		return "", Errorf(Unsupported, "apply requires a worktree")
	}
	path, err := patch.Apply(r.worktree, patchText, reverse)
	if err != nil {
		return "", Wrap(InvalidArgument, err)
	}
	return path, nil
}

// ReplayPatchSteps applies steps in order against the worktree, stopping at
// the first failure (spec §4.9). Previously applied steps remain written to
// disk — the "make progress" semantics spec §9 documents. Requires a
// worktree.
func (r *Repo) ReplayPatchSteps(steps []PatchStep) (ReplayResult, error) {
	if r.worktree == nil {
		return ReplayResult{}, Errorf(Unsupported, "replay requires a worktree")
	}
	res, err := patch.Replay(r.worktree, steps)
	if err != nil {
		return ReplayResult{}, Wrap(InvalidArgument, err)
	}
	return res, nil
}
