// Package pathsafe validates worktree-relative paths, per spec §4.3: no
// traversal, no absolute paths, no NUL bytes, no Windows drive prefixes.
// Grounded on internal/pathutil's path-handling conventions, generalized
// from tilde-expansion into the stricter safety predicate every worktree
// write, checkout, patch target, sparse rule, and submodule/worktree path
// in this module must pass through.
package pathsafe

import "strings"

// IsSafe reports whether p is safe to resolve relative to a worktree root.
func IsSafe(p string) bool {
	if p == "" {
		return false
	}
	if strings.ContainsRune(p, 0) {
		return false
	}
	if strings.HasPrefix(p, "/") || strings.HasPrefix(p, "\\") {
		return false
	}
	if isDriveLetter(p) {
		return false
	}

	norm := strings.ReplaceAll(p, "\\", "/")
	for _, seg := range strings.Split(norm, "/") {
		switch seg {
		case "", ".", "..":
			return false
		}
	}
	return true
}

// isDriveLetter reports a match against ^[A-Za-z]:[/\\].
func isDriveLetter(p string) bool {
	if len(p) < 3 {
		return false
	}
	c := p[0]
	isAlpha := (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
	return isAlpha && p[1] == ':' && (p[2] == '/' || p[2] == '\\')
}

// Normalize returns p with backslashes turned into forward slashes, for
// callers that need the canonical separator after a safety check passes.
func Normalize(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}
