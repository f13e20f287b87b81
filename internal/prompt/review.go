package prompt

import (
	"fmt"
	"strings"
)

// FileChange is the per-file line count of a unified diff.
type FileChange struct {
	Name    string
	Added   int
	Removed int
}

// BuildReviewPrompt asks for a senior code review of a diff. changes may be
// empty when the diff could not be summarised.
func BuildReviewPrompt(diffText string, changes []FileChange) string {
	var b strings.Builder
	b.WriteString(`Act as an expert Senior Code Reviewer.
Review the following code diff for:
- Security vulnerabilities (e.g., hardcoded secrets)
- Logic bugs or edge cases
- Performance bottlenecks

`)
	if len(changes) > 0 {
		b.WriteString("Changed files:\n")
		for _, c := range changes {
			fmt.Fprintf(&b, "- %s (+%d/-%d)\n", c.Name, c.Added, c.Removed)
		}
		b.WriteString("\n")
	}
	b.WriteString("Code Diff:\n")
	b.WriteString(diffText)
	if !strings.HasSuffix(diffText, "\n") {
		b.WriteString("\n")
	}
	return b.String()
}
