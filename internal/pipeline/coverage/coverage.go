// Package coverage runs pytest with coverage and compares the total against a
// threshold.
package coverage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"path/filepath"

	"go.uber.org/zap"
)

const (
	DefaultThreshold = 80.0
	DefaultSource    = "src"
	// ReportFile is the JSON report pytest-cov writes into the working directory.
	ReportFile = "coverage.json"
)

// CommandFunc runs a command in dir and returns its combined output.
type CommandFunc func(ctx context.Context, dir, name string, args ...string) ([]byte, error)

// Verdict is the outcome of one check.
type Verdict struct {
	Percent    float64
	Threshold  float64
	Sufficient bool
}

type Checker struct {
	// Dir is where pytest runs and coverage.json is read; empty means cwd.
	Dir       string
	Source    string
	Threshold float64
	Run       CommandFunc
	Logger    *zap.Logger
}

// Check runs the test suite and reads the resulting coverage total. A failing
// test run is not an error: the report it leaves behind, if any, is used, and
// a missing or malformed report counts as 0%.
func (c *Checker) Check(ctx context.Context) (Verdict, error) {
	log := c.Logger
	if log == nil {
		log = zap.NewNop()
	}
	src := c.Source
	if src == "" {
		src = DefaultSource
	}
	threshold := c.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	run := c.Run
	if run == nil {
		run = execCommand
	}

	out, err := run(ctx, c.Dir, "pytest", "--cov="+src, "--cov-report=json", "-q")
	if ctx.Err() != nil {
		return Verdict{}, ctx.Err()
	}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return Verdict{}, err
		}
		log.Warn("pytest exited non-zero", zap.Int("code", exitErr.ExitCode()), zap.ByteString("output", tail(out, 2048)))
	}

	pct, err := ReadPercent(filepath.Join(c.Dir, ReportFile))
	if err != nil {
		log.Warn("coverage report unavailable, assuming 0%", zap.Error(err))
		pct = 0
	}
	return Verdict{Percent: pct, Threshold: threshold, Sufficient: pct >= threshold}, nil
}

// ReadPercent returns totals.percent_covered from a pytest-cov JSON report.
func ReadPercent(path string) (float64, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	var rep struct {
		Totals *struct {
			PercentCovered *float64 `json:"percent_covered"`
		} `json:"totals"`
	}
	if err := json.Unmarshal(b, &rep); err != nil {
		return 0, err
	}
	if rep.Totals == nil || rep.Totals.PercentCovered == nil {
		return 0, errors.New("coverage: report has no totals.percent_covered")
	}
	return *rep.Totals.PercentCovered, nil
}

func execCommand(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	return cmd.CombinedOutput()
}

func tail(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[len(b)-n:]
}
