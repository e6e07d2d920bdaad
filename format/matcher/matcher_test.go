package matcher_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kvidal/gitcore/format/matcher"
)

func TestCompileGlobStarExcludesSlash(t *testing.T) {
	re, err := matcher.CompileGlob("*.log")
	require.NoError(t, err)
	assert.True(t, re.MatchString("debug.log"))
	assert.False(t, re.MatchString("dir/debug.log"))
}

func TestCompileGlobDoubleStarCrossesSlash(t *testing.T) {
	re, err := matcher.CompileGlob("**/debug.log")
	require.NoError(t, err)
	assert.True(t, re.MatchString("a/b/debug.log"))
	assert.True(t, re.MatchString("debug.log"))
}

func TestCompileGlobQuestionMarkSingleNonSlash(t *testing.T) {
	re, err := matcher.CompileGlob("a?c")
	require.NoError(t, err)
	assert.True(t, re.MatchString("abc"))
	assert.False(t, re.MatchString("a/c"))
}

func TestIgnoreMatcherLastRuleWins(t *testing.T) {
	m, err := matcher.NewIgnoreMatcher([]string{
		"# comment",
		"",
		"*.log",
		"!important.log",
	})
	require.NoError(t, err)

	assert.True(t, m.Match("debug.log"))
	assert.False(t, m.Match("important.log"))
	assert.False(t, m.Match("readme.md"))
}

func TestAttributesMatcherCollectsAssignments(t *testing.T) {
	m, err := matcher.NewAttributesMatcher([]string{
		"*.bin diff=binary -text",
		"secrets.bin filter=crypt",
	})
	require.NoError(t, err)

	attrs := m.Attributes("secrets.bin")
	assert.Equal(t, "binary", attrs["diff"].Value)
	assert.True(t, attrs["text"].Unset)
	assert.True(t, attrs["filter"].Value == "crypt")

	attrs = m.Attributes("readme.md")
	assert.Empty(t, attrs)
}

func TestSparseMatcherConeMode(t *testing.T) {
	m, err := matcher.NewSparseMatcher(matcher.ConeMode, []string{".", "src/lib"})
	require.NoError(t, err)

	assert.True(t, m.Match("anything"), "cone root rule matches everything")

	m, err = matcher.NewSparseMatcher(matcher.ConeMode, []string{"src/lib"})
	require.NoError(t, err)
	assert.True(t, m.Match("src/lib"))
	assert.True(t, m.Match("src/lib/a.go"))
	assert.False(t, m.Match("src/other"))
}

func TestSparseMatcherPatternMode(t *testing.T) {
	m, err := matcher.NewSparseMatcher(matcher.PatternMode, []string{"*.go", "docs/**"})
	require.NoError(t, err)

	assert.True(t, m.Match("main.go"))
	assert.False(t, m.Match("sub/main.go"))
	assert.True(t, m.Match("docs/a/b.md"))
}

func TestNormalizeRules(t *testing.T) {
	out := matcher.NormalizeRules([]string{
		" /src/ ", "src", "src", ".", "  ", "a\\b/",
	})
	assert.Equal(t, []string{".", "a/b", "src"}, out)
}
