// Package prompt renders the text prompts sent to the generation service.
// Every builder is deterministic: identical input yields identical bytes.
package prompt

import (
	"path/filepath"
	"strconv"
	"strings"

	"testsmith/internal/pyast"
)

// TestFooter is appended verbatim to every test-generation prompt.
const TestFooter = `Requirements:
1. Generate 3-5 meaningful pytest test cases for each function above
2. Include edge cases (empty inputs, None values, boundary values)
3. Use descriptive test function names (test_<function>_<behaviour>)
4. Include assertions that actually test behavior
5. Do NOT generate placeholder tests like ` + "`assert True`" + `
6. Add the import statements needed to reach each function from its module
   (for example ` + "`from app import add`" + ` for app.py), plus ` + "`import pytest`" + ` when used

Return ONLY the Python test code, no explanations.
`

// Entry pairs a function descriptor with the file it came from.
type Entry struct {
	Origin string
	Fn     pyast.Descriptor
}

// ModuleName derives the importable module name of a Python source path
// ("pkg/app.py" -> "pkg.app").
func ModuleName(path string) string {
	p := filepath.ToSlash(filepath.Clean(path))
	p = strings.TrimPrefix(p, "./")
	p = strings.TrimSuffix(p, filepath.Ext(p))
	p = strings.TrimLeft(p, "/")
	p = strings.TrimSuffix(p, "/__init__")
	return strings.ReplaceAll(p, "/", ".")
}

// BuildTestPrompt renders one prompt covering every entry in order.
func BuildTestPrompt(entries []Entry) string {
	var b strings.Builder
	b.WriteString("Generate pytest tests for the following Python functions.\n\n")
	for i, e := range entries {
		writeFunctionBlock(&b, i+1, e)
	}
	b.WriteString(TestFooter)
	return b.String()
}

func writeFunctionBlock(b *strings.Builder, n int, e Entry) {
	b.WriteString("### Function ")
	b.WriteString(strconv.Itoa(n))
	b.WriteString("\n")
	b.WriteString("File: " + filepath.ToSlash(e.Origin) + "\n")
	b.WriteString("Module: " + ModuleName(e.Origin) + "\n")
	b.WriteString("Function name: " + e.Fn.Name + "\n")
	b.WriteString("Arguments: " + strings.Join(e.Fn.Parameters, ", ") + "\n")
	b.WriteString("Docstring: " + e.Fn.Docstring + "\n\n")
	b.WriteString("Source code:\n\n")
	b.WriteString(e.Fn.Source)
	b.WriteString("\n\n")
}
