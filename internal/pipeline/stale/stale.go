// Package stale asks the generator to flag dead code in every Python file of a
// repository and renders the findings as a markdown report.
package stale

import (
	"context"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"testsmith/internal/llm"
	"testsmith/internal/prompt"
	"testsmith/internal/scan"
	"testsmith/internal/ui"
)

// ReportFile is the default name of the markdown report.
const ReportFile = "stale_code_report.md"

type Scanner struct {
	Generator llm.Generator
	Progress  ui.Progress
	Logger    *zap.Logger
	// Workers bounds concurrent file analyses; values below 1 mean 1.
	Workers int
	// IgnoreDirs defaults to scan.DefaultIgnoreDirs.
	IgnoreDirs []string
	// MaxDepth limits how many path segments below root are scanned; 0 means
	// no limit.
	MaxDepth int
}

// Result holds every finding in sorted file order.
type Result struct {
	// Files lists every file analysed or skipped, root-relative.
	Files    []string
	Findings []Finding
	// Skipped counts files that could not be read or analysed.
	Skipped int
}

// Scan analyses every .py file under root. Files that cannot be read or whose
// analysis fails are skipped with a warning; only cancellation aborts the scan.
func (s *Scanner) Scan(ctx context.Context, root string) (Result, error) {
	ignore := s.IgnoreDirs
	if ignore == nil {
		ignore = scan.DefaultIgnoreDirs
	}
	files, err := scan.FilesWithExtensions(root, []string{".py"}, scan.Options{IgnoreDirs: ignore, MaxDepth: s.MaxDepth})
	if err != nil {
		return Result{}, err
	}
	log := s.logger()
	log.Info("stale scan started", zap.String("root", root), zap.Int("files", len(files)))

	workers := s.Workers
	if workers < 1 {
		workers = 1
	}
	perFile := make([][]Finding, len(files))
	skipped := make([]bool, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, rel := range files {
		g.Go(func() error {
			s.progress().Analyzing(rel)
			fs, err := s.analyze(gctx, filepath.Join(root, filepath.FromSlash(rel)), rel)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				skipped[i] = true
				s.progress().Warn("skipping "+rel, err)
				log.Warn("file skipped", zap.String("path", rel), zap.Error(err))
				return nil
			}
			perFile[i] = fs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	res := Result{Files: files, Findings: []Finding{}}
	for i, fs := range perFile {
		if skipped[i] {
			res.Skipped++
		}
		res.Findings = append(res.Findings, fs...)
	}
	log.Info("stale scan finished",
		zap.Int("findings", len(res.Findings)),
		zap.Int("skipped", res.Skipped))
	return res, nil
}

func (s *Scanner) analyze(ctx context.Context, path, rel string) ([]Finding, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	text, err := s.Generator.Generate(ctx, prompt.BuildStalePrompt(rel, string(code)))
	if err != nil {
		return nil, err
	}
	fs, err := Decode(text)
	if err != nil {
		return nil, err
	}
	for i := range fs {
		fs[i].File = rel
	}
	return fs, nil
}

func (s *Scanner) progress() ui.Progress {
	if s.Progress == nil {
		return ui.Discard{}
	}
	return s.Progress
}

func (s *Scanner) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}
