// Package emit writes generated test files beneath a fixed project root.
package emit

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

var (
	ErrTraversal   = errors.New("emit: path escapes root")
	ErrBadFileName = errors.New("emit: invalid file name")
)

// WriteError reports a failure to create the output directory or write the file.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string { return fmt.Sprintf("write %s: %v", e.Path, e.Err) }
func (e *WriteError) Unwrap() error { return e.Err }

// Emitter writes files confined to Root.
type Emitter struct {
	absRoot string // absolute root with symlinks resolved
}

// New binds an Emitter to root, which must be an existing directory.
func New(root string) (*Emitter, error) {
	if root == "" {
		return nil, errors.New("emit: empty root")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	abs, err = filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, errors.New("emit: root is not a directory")
	}
	return &Emitter{absRoot: abs}, nil
}

// Root returns the absolute root directory.
func (e *Emitter) Root() string { return e.absRoot }

// Emit creates dir if needed and replaces dir/filename with content in one
// write. It returns the absolute path written.
func (e *Emitter) Emit(dir, filename, content string) (string, error) {
	if filename == "" || filepath.Base(filename) != filename {
		return "", &WriteError{Path: filepath.Join(dir, filename), Err: ErrBadFileName}
	}
	target, err := e.resolve(filepath.Join(dir, filename))
	if err != nil {
		return "", &WriteError{Path: filepath.Join(dir, filename), Err: err}
	}
	parent := filepath.Dir(target)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return "", &WriteError{Path: target, Err: err}
	}
	// A symlinked component created outside our control must not redirect the write.
	resolved, err := filepath.EvalSymlinks(parent)
	if err != nil {
		return "", &WriteError{Path: target, Err: err}
	}
	if !hasPathPrefix(resolved, e.absRoot) {
		return "", &WriteError{Path: target, Err: ErrTraversal}
	}
	if err := os.WriteFile(target, []byte(content), 0o644); err != nil {
		return "", &WriteError{Path: target, Err: err}
	}
	return target, nil
}

func (e *Emitter) resolve(userPath string) (string, error) {
	clean := filepath.Clean(userPath)
	isAbs := filepath.IsAbs(clean) || (runtime.GOOS == "windows" && filepath.VolumeName(clean) != "")
	if !isAbs {
		if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
			return "", ErrTraversal
		}
		clean = filepath.Join(e.absRoot, clean)
	}
	if !hasPathPrefix(clean, e.absRoot) || clean == e.absRoot {
		return "", ErrTraversal
	}
	return clean, nil
}

func hasPathPrefix(path, root string) bool {
	path = filepath.Clean(path)
	root = filepath.Clean(root)
	if runtime.GOOS == "windows" {
		path = strings.ToLower(path)
		root = strings.ToLower(root)
	}
	if path == root {
		return true
	}
	sep := string(os.PathSeparator)
	if !strings.HasSuffix(root, sep) {
		root += sep
	}
	return strings.HasPrefix(path+sep, root)
}
