package pyast

import "strings"

// Descriptor summarises one module-level Python function. Descriptors are
// values; callers must not mutate Parameters after extraction.
type Descriptor struct {
	Name       string
	Parameters []string
	Docstring  string
	Source     string
}

// IsPrivate reports whether name is implementation-private by Python
// convention (leading underscore).
func IsPrivate(name string) bool {
	return strings.HasPrefix(name, "_")
}

// Public returns the descriptors whose names are not private, preserving order.
func Public(ds []Descriptor) []Descriptor {
	out := make([]Descriptor, 0, len(ds))
	for _, d := range ds {
		if IsPrivate(d.Name) {
			continue
		}
		out = append(out, d)
	}
	return out
}
