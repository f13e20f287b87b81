// Package scan walks a source tree and selects files by extension.
package scan

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DefaultIgnoreDirs are directory names never descended into: virtualenvs,
// dependency caches and VCS metadata.
var DefaultIgnoreDirs = []string{"venv", ".venv", "node_modules", "__pycache__", ".git"}

// FileVisit carries per-entry metadata to user callbacks.
type FileVisit struct {
	// Root-relative path using forward slashes (e.g., "pkg/app.py").
	Path string
	// Absolute filesystem path.
	AbsPath string
	// True when the entry is a directory.
	IsDir bool
	// Lowercased extension (e.g., ".py"); empty for dirs or no-ext files.
	Ext string
	// File size in bytes; 0 for dirs or when stat fails.
	Size int64
}

// VisitFunc is invoked for every visited entry.
type VisitFunc func(f FileVisit)

// Options tunes a walk.
type Options struct {
	// IgnoreDirs are directory base names skipped entirely.
	IgnoreDirs []string
	// MaxDepth limits how many path segments an entry may have; 0 means no limit.
	MaxDepth int
}

// Walk visits root depth-first in lexical order. Unreadable entries are
// skipped rather than aborting the walk.
func Walk(root string, opts Options, cb VisitFunc) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	if _, err := os.Stat(abs); err != nil {
		return err
	}
	ignore := make(map[string]struct{}, len(opts.IgnoreDirs))
	for _, d := range opts.IgnoreDirs {
		ignore[d] = struct{}{}
	}

	return filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if path == abs {
			return nil
		}
		rel, _ := filepath.Rel(abs, path)
		rel = filepath.ToSlash(rel)
		depth := strings.Count(rel, "/") + 1

		if d.IsDir() {
			if _, skip := ignore[d.Name()]; skip {
				return filepath.SkipDir
			}
			if opts.MaxDepth > 0 && depth >= opts.MaxDepth {
				return filepath.SkipDir
			}
			if cb != nil {
				cb(FileVisit{Path: rel, AbsPath: path, IsDir: true})
			}
			return nil
		}
		if opts.MaxDepth > 0 && depth > opts.MaxDepth {
			return nil
		}

		size := int64(0)
		if fi, e := d.Info(); e == nil {
			size = fi.Size()
		}
		if cb != nil {
			cb(FileVisit{
				Path:    rel,
				AbsPath: path,
				Ext:     strings.ToLower(filepath.Ext(rel)),
				Size:    size,
			})
		}
		return nil
	})
}
