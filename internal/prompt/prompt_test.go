package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"testsmith/internal/pyast"
)

func sampleEntries() []Entry {
	return []Entry{
		{Origin: "app.py", Fn: pyast.Descriptor{
			Name:       "add",
			Parameters: []string{"a", "b"},
			Docstring:  "Add two numbers together.",
			Source:     "def add(a, b):\n    return a + b",
		}},
		{Origin: "pkg/more_utils.py", Fn: pyast.Descriptor{
			Name:       "count_vowels",
			Parameters: []string{"text"},
			Source:     "def count_vowels(text):\n    return 0",
		}},
	}
}

func TestBuildTestPrompt_IsDeterministic(t *testing.T) {
	assert.Equal(t, BuildTestPrompt(sampleEntries()), BuildTestPrompt(sampleEntries()))
}

func TestBuildTestPrompt_RendersEveryEntryInOrder(t *testing.T) {
	p := BuildTestPrompt(sampleEntries())

	assert.Contains(t, p, "File: app.py\nModule: app\nFunction name: add\nArguments: a, b\nDocstring: Add two numbers together.\n")
	assert.Contains(t, p, "def add(a, b):\n    return a + b")
	assert.Contains(t, p, "Module: pkg.more_utils\nFunction name: count_vowels\nArguments: text\nDocstring: \n")

	add := strings.Index(p, "Function name: add")
	vowels := strings.Index(p, "Function name: count_vowels")
	require.True(t, add >= 0 && vowels >= 0)
	assert.Less(t, add, vowels)
}

func TestBuildTestPrompt_EndsWithConstantFooter(t *testing.T) {
	p := BuildTestPrompt(sampleEntries())
	assert.True(t, strings.HasSuffix(p, TestFooter))
	assert.Contains(t, TestFooter, "3-5 meaningful")
	assert.Contains(t, TestFooter, "None values")
	assert.Contains(t, TestFooter, "assert True")
	assert.Contains(t, TestFooter, "import")

	empty := BuildTestPrompt(nil)
	assert.True(t, strings.HasSuffix(empty, TestFooter))
	assert.NotContains(t, empty, "Function name:")
}

func TestModuleName(t *testing.T) {
	cases := map[string]string{
		"app.py":              "app",
		"./app.py":            "app",
		"src/pkg/utils.py":    "src.pkg.utils",
		"src/pkg/__init__.py": "src.pkg",
	}
	for in, want := range cases {
		assert.Equal(t, want, ModuleName(in), in)
	}
}

func TestBuildReviewPrompt(t *testing.T) {
	diff := "--- a/app.py\n+++ b/app.py\n@@ -1 +1 @@\n-x = 1\n+x = 2\n"
	p := BuildReviewPrompt(diff, []FileChange{{Name: "app.py", Added: 1, Removed: 1}})
	assert.Contains(t, p, "Senior Code Reviewer")
	assert.Contains(t, p, "hardcoded secrets")
	assert.Contains(t, p, "- app.py (+1/-1)")
	assert.True(t, strings.HasSuffix(p, diff))

	bare := BuildReviewPrompt("not a diff", nil)
	assert.NotContains(t, bare, "Changed files:")
	assert.True(t, strings.HasSuffix(bare, "not a diff\n"))
}

func TestBuildStalePrompt(t *testing.T) {
	p := BuildStalePrompt("src/app.py", "import os\n")
	assert.Contains(t, p, "File: src/app.py")
	assert.Contains(t, p, "import os\n")
	assert.Contains(t, p, `"findings"`)
	assert.Contains(t, p, "Only return the JSON")
}
