package llm

import "strings"

// StripFences removes a single markdown code fence wrapping text: one opening
// line of ``` (optionally followed by a language tag) and one closing ```.
// Text that is not fenced on both ends is returned unchanged.
func StripFences(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") || !strings.HasSuffix(trimmed, "```") {
		return text
	}
	nl := strings.IndexByte(trimmed, '\n')
	if nl < 0 {
		return text
	}
	tag := strings.TrimSpace(trimmed[3:nl])
	if strings.ContainsAny(tag, " `") {
		return text
	}
	body := strings.TrimSuffix(trimmed[nl+1:], "```")
	return strings.TrimRight(body, " \t\r\n") + "\n"
}
