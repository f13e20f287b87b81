package stale

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"testsmith/internal/llm"
	"testsmith/internal/util/jsonutil"
)

// Finding is one piece of dead code reported for a file.
type Finding struct {
	Type             string `json:"type"`
	Name             string `json:"name"`
	Line             int    `json:"line"`
	Description      string `json:"description"`
	EstimatedMinutes int    `json:"estimated_minutes"`
	Complexity       string `json:"complexity"`
	Reasoning        string `json:"reasoning"`
	// File is set by the scanner, not decoded.
	File string `json:"-"`
}

// UnmarshalJSON tolerates numeric fields sent as strings or fractions.
func (f *Finding) UnmarshalJSON(b []byte) error {
	type plain Finding
	aux := struct {
		*plain
		Line             flexInt `json:"line"`
		EstimatedMinutes flexInt `json:"estimated_minutes"`
	}{plain: (*plain)(f)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	f.Line = int(aux.Line)
	f.EstimatedMinutes = int(aux.EstimatedMinutes)
	return nil
}

type report struct {
	Findings []Finding `json:"findings"`
}

// flexInt accepts a JSON number, a numeric string, or null. Fractions are
// rounded; anything else decodes to zero.
type flexInt int

func (n *flexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*n = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		b = []byte(strings.TrimSpace(s))
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		*n = 0
		return nil
	}
	*n = flexInt(math.Round(f))
	return nil
}

// Decode parses a generator response into findings. A fenced response is
// unwrapped first.
func Decode(text string) ([]Finding, error) {
	var r report
	if err := jsonutil.UnmarshalFlex([]byte(llm.StripFences(text)), &r); err != nil {
		return nil, fmt.Errorf("stale: decode findings: %w", err)
	}
	if r.Findings == nil {
		return []Finding{}, nil
	}
	return r.Findings, nil
}
