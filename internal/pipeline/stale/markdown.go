package stale

import (
	"fmt"
	"strconv"
	"strings"
)

type section struct {
	key   string
	label string
}

var sections = []section{
	{"simple", "Simple (2-5 min each)"},
	{"medium", "Medium (10-15 min each)"},
	{"complex", "Complex (30+ min each)"},
	{"", "Unclassified"},
}

var typeLabels = map[string]string{
	"unused_function":  "unused function",
	"dead_import":      "dead import",
	"unreachable_code": "unreachable code",
}

// FormatMarkdown renders findings grouped by complexity, simple first.
// Findings with an unknown complexity are listed last as unclassified.
func FormatMarkdown(findings []Finding) string {
	var b strings.Builder
	b.WriteString("## Stale Code Report\n\n")
	if len(findings) == 0 {
		b.WriteString("No dead code detected in this scan.\n")
		return b.String()
	}

	total := totalMinutes(findings)
	fmt.Fprintf(&b, "Found **%d** potential issues.\n", len(findings))
	fmt.Fprintf(&b, "**Estimated cleanup time:** %d minutes (~%.1f hours)\n\n", total, float64(total)/60)

	groups := make(map[string][]Finding, len(sections))
	for _, f := range findings {
		key := strings.ToLower(strings.TrimSpace(f.Complexity))
		switch key {
		case "simple", "medium", "complex":
		default:
			key = ""
		}
		groups[key] = append(groups[key], f)
	}

	for _, sec := range sections {
		fs := groups[sec.key]
		if len(fs) == 0 {
			continue
		}
		fmt.Fprintf(&b, "### %s: %d %s (%d min)\n\n", sec.label, len(fs), plural(len(fs), "item", "items"), totalMinutes(fs))
		for _, f := range fs {
			writeFinding(&b, f)
		}
	}
	return b.String()
}

func writeFinding(b *strings.Builder, f Finding) {
	name := f.Name
	if name == "" {
		name = "unknown"
	}
	line := "?"
	if f.Line > 0 {
		line = strconv.Itoa(f.Line)
	}
	kind := typeLabels[f.Type]
	if kind == "" {
		kind = "finding"
	}
	fmt.Fprintf(b, "- **`%s`** %s (%s:%s), ~%d min\n", name, kind, f.File, line, f.EstimatedMinutes)
	desc := f.Description
	if desc == "" {
		desc = "No description"
	}
	fmt.Fprintf(b, "  - %s\n", desc)
	if f.Reasoning != "" {
		fmt.Fprintf(b, "  - *Why:* %s\n", f.Reasoning)
	}
	b.WriteString("\n")
}

func totalMinutes(fs []Finding) int {
	n := 0
	for _, f := range fs {
		n += f.EstimatedMinutes
	}
	return n
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
