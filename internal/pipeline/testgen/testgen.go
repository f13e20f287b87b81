// Package testgen drives the test-generation pipeline: select Python sources,
// extract their public functions, ask the generator for one batch of pytest
// cases and write the result to a single file.
package testgen

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"testsmith/internal/llm"
	"testsmith/internal/prompt"
	"testsmith/internal/pyast"
	"testsmith/internal/ui"
)

// Extractor yields the module-level functions of one source file.
type Extractor interface {
	Extract(ctx context.Context, path string) ([]pyast.Descriptor, error)
}

// Emitter persists generated text.
type Emitter interface {
	Emit(dir, filename, content string) (string, error)
}

type Options struct {
	// Root anchors relative input paths and TestDir.
	Root       string
	SourceExt  string
	TestDir    string
	OutputDir  string
	OutputFile string
	// StripFences removes a markdown fence wrapping the generated code.
	StripFences bool
	// Workers bounds concurrent extraction; 1 is sequential.
	Workers int
	// SkipUnreadable turns read and parse failures into warnings.
	SkipUnreadable bool
}

// DefaultOptions writes to tests/test_generated.py under the working directory.
func DefaultOptions() Options {
	return Options{
		Root:       ".",
		SourceExt:  ".py",
		TestDir:    "tests",
		OutputDir:  "tests",
		OutputFile: "test_generated.py",
		Workers:    1,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Root == "" {
		o.Root = d.Root
	}
	if o.SourceExt == "" {
		o.SourceExt = d.SourceExt
	}
	if o.TestDir == "" {
		o.TestDir = d.TestDir
	}
	if o.OutputDir == "" {
		o.OutputDir = o.TestDir
	}
	if o.OutputFile == "" {
		o.OutputFile = d.OutputFile
	}
	if o.Workers < 1 {
		o.Workers = 1
	}
	return o
}

// Result describes one run.
type Result struct {
	Accepted   []string
	Batch      []prompt.Entry
	OutputPath string
	// Nothing is set when no public function was found; no call was made.
	Nothing bool
}

// NothingMessage is reported when a run finds no public functions.
const NothingMessage = "No public functions found in the given files; nothing to generate."

type Runner struct {
	Extractor Extractor
	Generator llm.Generator
	Emitter   Emitter
	Progress  ui.Progress
	Logger    *zap.Logger
	Options   Options
}

// Run executes the whole pipeline over paths.
func (r *Runner) Run(ctx context.Context, paths []string) (Result, error) {
	res, err := r.Collect(ctx, paths)
	if err != nil || res.Nothing {
		return res, err
	}
	if r.Generator == nil || r.Emitter == nil {
		return res, errors.New("testgen: runner needs a generator and an emitter")
	}
	opts := r.Options.withDefaults()

	text, err := r.Generator.Generate(ctx, prompt.BuildTestPrompt(res.Batch))
	if err != nil {
		return res, err
	}
	if opts.StripFences {
		text = llm.StripFences(text)
	}
	out, err := r.Emitter.Emit(opts.OutputDir, opts.OutputFile, text)
	if err != nil {
		return res, err
	}
	res.OutputPath = out
	r.progress().Wrote(out)
	r.logger().Info("tests written",
		zap.String("path", out),
		zap.Int("functions", len(res.Batch)),
		zap.Int("bytes", len(text)))
	return res, nil
}

// Collect filters paths and extracts the public functions of every accepted
// file, in input order. It never contacts the generator.
func (r *Runner) Collect(ctx context.Context, paths []string) (Result, error) {
	if r.Extractor == nil {
		return Result{}, errors.New("testgen: runner needs an extractor")
	}
	opts := r.Options.withDefaults()
	accepted, err := Filter(paths, opts)
	if err != nil {
		return Result{}, err
	}
	res := Result{Accepted: accepted}

	found, err := r.extractAll(ctx, accepted, opts)
	if err != nil {
		return res, err
	}
	for i, path := range accepted {
		for _, d := range found[i] {
			res.Batch = append(res.Batch, prompt.Entry{Origin: path, Fn: d})
		}
	}
	if len(res.Batch) == 0 {
		res.Nothing = true
		r.progress().Nothing(NothingMessage)
	}
	return res, nil
}

// extractAll reports each file's functions as soon as it and every file
// before it have finished, so discoveries appear in input order while later
// files are still being parsed.
func (r *Runner) extractAll(ctx context.Context, paths []string, opts Options) ([][]pyast.Descriptor, error) {
	found := make([][]pyast.Descriptor, len(paths))
	errs := make([]error, len(paths))

	var mu sync.Mutex
	done := make([]bool, len(paths))
	next := 0
	settle := func(i int) {
		mu.Lock()
		defer mu.Unlock()
		done[i] = true
		for next < len(paths) && done[next] {
			if errs[next] != nil {
				// Nothing after a failed file is reported.
				next = len(paths)
				return
			}
			for _, d := range found[next] {
				r.progress().Found(d.Name, paths[next])
			}
			next++
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i, path := range paths {
		g.Go(func() error {
			defer settle(i)
			if err := gctx.Err(); err != nil {
				errs[i] = err
				return err
			}
			r.progress().Analyzing(path)
			ds, err := r.Extractor.Extract(gctx, resolve(opts.Root, path))
			if err != nil {
				if opts.SkipUnreadable && isSourceError(err) {
					r.progress().Warn("skipping "+path, err)
					r.logger().Warn("source skipped", zap.String("path", path), zap.Error(err))
					return nil
				}
				errs[i] = err
				return err
			}
			found[i] = pyast.Public(ds)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// Report the earliest failing file so the error does not depend on scheduling.
		for _, e := range errs {
			if e != nil && !errors.Is(e, context.Canceled) {
				return nil, e
			}
		}
		return nil, err
	}
	return found, nil
}

func isSourceError(err error) bool {
	var re *pyast.ReadError
	var pe *pyast.ParseError
	return errors.As(err, &re) || errors.As(err, &pe)
}

// Filter keeps paths with the source extension that do not live under the
// test directory. Paths are compared as cleaned absolute paths.
func Filter(paths []string, opts Options) ([]string, error) {
	opts = opts.withDefaults()
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("testgen: resolve root: %w", err)
	}
	testDir := filepath.Clean(resolve(root, opts.TestDir))

	accepted := make([]string, 0, len(paths))
	for _, p := range paths {
		if !strings.HasSuffix(p, opts.SourceExt) {
			continue
		}
		if underDir(filepath.Clean(resolve(root, p)), testDir) {
			continue
		}
		accepted = append(accepted, p)
	}
	return accepted, nil
}

func resolve(root, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

func underDir(path, dir string) bool {
	if path == dir {
		return true
	}
	return strings.HasPrefix(path, dir+string(os.PathSeparator))
}

func (r *Runner) progress() ui.Progress {
	if r.Progress == nil {
		return ui.Discard{}
	}
	return r.Progress
}

func (r *Runner) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}
