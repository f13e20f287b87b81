// Package review asks the generator for a code review of a unified diff.
package review

import (
	"bytes"
	"context"
	"errors"
	"strings"

	"github.com/sourcegraph/go-diff/diff"
	"go.uber.org/zap"

	"testsmith/internal/llm"
	"testsmith/internal/prompt"
)

// ErrEmptyDiff is returned when there is nothing to review.
var ErrEmptyDiff = errors.New("review: empty diff")

type Reviewer struct {
	Generator llm.Generator
	Logger    *zap.Logger
}

// Review returns the generated review of diffText. The per-file summary is
// best effort: a diff go-diff cannot parse is still sent for review.
func (r *Reviewer) Review(ctx context.Context, diffText string) (string, error) {
	if strings.TrimSpace(diffText) == "" {
		return "", ErrEmptyDiff
	}
	log := r.Logger
	if log == nil {
		log = zap.NewNop()
	}
	changes, err := Summarize(diffText)
	if err != nil {
		log.Warn("diff summary unavailable", zap.Error(err))
		changes = nil
	} else {
		log.Debug("diff summarised", zap.Int("files", len(changes)))
	}
	return r.Generator.Generate(ctx, prompt.BuildReviewPrompt(diffText, changes))
}

// Summarize counts added and removed lines per file in a unified diff.
func Summarize(diffText string) ([]prompt.FileChange, error) {
	fds, err := diff.NewMultiFileDiffReader(strings.NewReader(diffText)).ReadAllFiles()
	if err != nil {
		return nil, err
	}
	out := make([]prompt.FileChange, 0, len(fds))
	for _, fd := range fds {
		if fd.OrigName == "" && fd.NewName == "" && len(fd.Hunks) == 0 {
			continue
		}
		c := prompt.FileChange{Name: fileName(fd)}
		for _, h := range fd.Hunks {
			added, removed := countLines(h.Body)
			c.Added += added
			c.Removed += removed
		}
		out = append(out, c)
	}
	return out, nil
}

func fileName(fd *diff.FileDiff) string {
	name := fd.NewName
	if name == "" || name == "/dev/null" {
		name = fd.OrigName
	}
	for _, p := range []string{"a/", "b/"} {
		if strings.HasPrefix(name, p) {
			return name[len(p):]
		}
	}
	return name
}

func countLines(body []byte) (added, removed int) {
	for _, line := range bytes.Split(body, []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		switch line[0] {
		case '+':
			added++
		case '-':
			removed++
		}
	}
	return added, removed
}
