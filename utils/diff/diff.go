// Package diff provides a small line-oriented diff helper used by the
// patch (unified-diff generation) and history (lastModified content
// comparison) packages. Grounded on go-git's own utils/diff package: line
// contents are folded into single runes via diffmatchpatch's line-mode
// trick, diffed, then expanded back to their original line text.
package diff

import "github.com/sergi/go-diff/diffmatchpatch"

var dmp = diffmatchpatch.New()

// Do returns the line-level diff between src and dst.
func Do(src, dst string) []diffmatchpatch.Diff {
	srcRunes, dstRunes, lineArray := dmp.DiffLinesToRunes(src, dst)
	diffs := dmp.DiffMainRunes(srcRunes, dstRunes, false)
	return dmp.DiffCharsToLines(diffs, lineArray)
}

// Src reconstructs the src-side text implied by diffs (equal + deleted).
func Src(diffs []diffmatchpatch.Diff) string {
	return dmp.DiffText1(diffs)
}

// Dst reconstructs the dst-side text implied by diffs (equal + inserted).
func Dst(diffs []diffmatchpatch.Diff) string {
	return dmp.DiffText2(diffs)
}
