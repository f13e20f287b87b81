// Package jsonutil decodes JSON produced by language models, which is often
// almost-but-not-quite a bare JSON document.
package jsonutil

import (
	"bytes"
	"encoding/json"
	"errors"
)

// ErrNoJSON is returned when no JSON value can be recovered from the input.
var ErrNoJSON = errors.New("jsonutil: no JSON value found")

// UnmarshalFlex unmarshals raw into v with best effort:
//  1. direct unmarshal
//  2. the payload is a JSON string that itself holds the document
//  3. the first balanced {...} object embedded in surrounding prose
//
// The error from the direct attempt is returned when every fallback fails.
func UnmarshalFlex(raw []byte, v any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ErrNoJSON
	}
	firstErr := json.Unmarshal(raw, v)
	if firstErr == nil {
		return nil
	}

	var inner string
	if err := json.Unmarshal(raw, &inner); err == nil {
		if err := json.Unmarshal([]byte(inner), v); err == nil {
			return nil
		}
	}

	if obj, ok := firstObject(raw); ok {
		if err := json.Unmarshal(obj, v); err == nil {
			return nil
		}
	}
	return firstErr
}

// firstObject returns the first balanced top-level {...} span, honouring
// string literals so braces inside strings do not count.
func firstObject(raw []byte) ([]byte, bool) {
	start := bytes.IndexByte(raw, '{')
	if start < 0 {
		return nil, false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		c := raw[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return raw[start : i+1], true
			}
		}
	}
	return nil, false
}
