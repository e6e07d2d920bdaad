package pathsafe_test

import (
	"testing"

	"github.com/kvidal/gitcore/plumbing/pathsafe"
	"github.com/stretchr/testify/assert"
)

func TestIsSafe(t *testing.T) {
	cases := map[string]bool{
		"a.txt":             true,
		"dir/a.txt":         true,
		"":                  false,
		"/abs":              false,
		`\abs`:              false,
		"a/../b":            false,
		"../escape.txt":     false,
		"a/./b":             false,
		"C:/windows":        false,
		"c:\\windows":       false,
		"a\x00b":            false,
		"dir/":              false,
		"noext":             true,
		"deep/nested/a.txt": true,
	}
	for p, want := range cases {
		assert.Equal(t, want, pathsafe.IsSafe(p), "path=%q", p)
	}
}
