package prompt

import "strings"

const staleInstructions = `Analyze the following Python code and identify any dead code.

Look for:
1. Unused functions (defined but never called within this file)
2. Dead imports (imported but never used)
3. Unreachable code (code after return statements, etc.)

For each finding, estimate the cleanup time using these guidelines:
- **simple** (~2-5 min): Single line deletion, unused import, trivial function
- **medium** (~10-15 min): Multiple related items, requires verification, modest refactoring
- **complex** (~30+ min): Deeply coupled code, requires extensive testing, architectural changes
`

const staleFormat = `Respond in JSON format with this structure:
{
    "findings": [
        {
            "type": "unused_function" | "dead_import" | "unreachable_code",
            "name": "name of the function/import/code",
            "line": line_number,
            "description": "brief description of why this is dead code",
            "estimated_minutes": number,
            "complexity": "simple" | "medium" | "complex",
            "reasoning": "explanation for the time estimate"
        }
    ]
}

If no dead code is found, return: {"findings": []}
Only return the JSON, no additional text.
`

// BuildStalePrompt asks for a JSON dead-code report on one file.
func BuildStalePrompt(path, code string) string {
	var b strings.Builder
	b.WriteString(staleInstructions)
	b.WriteString("\nFile: " + path + "\n\nCode:\n\n")
	b.WriteString(code)
	if !strings.HasSuffix(code, "\n") {
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(staleFormat)
	return b.String()
}
