package scan

import (
	"os"
	"path/filepath"
	"slices"
	"sort"
	"testing"
)

func write(t *testing.T, root, rel, content string) string {
	t.Helper()
	p := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func TestWalk_IgnoresAndDepth(t *testing.T) {
	root := t.TempDir()
	write(t, root, "a.py", "root file")
	write(t, root, "dir1/b.py", "child file")
	write(t, root, "dir1/c.py", "child file2")
	write(t, root, "dir1/venv/skip.py", "ignored venv")
	write(t, root, "d/e/f.py", "deep")

	var files []string
	cb := func(fv FileVisit) {
		if !fv.IsDir {
			files = append(files, fv.Path)
		}
	}

	if err := Walk(root, Options{MaxDepth: 1}, cb); err != nil {
		t.Fatalf("walk: %v", err)
	}
	if want := []string{"a.py"}; !slices.Equal(files, want) {
		t.Fatalf("depth 1: files=%v want=%v", files, want)
	}

	files = nil
	if err := Walk(root, Options{IgnoreDirs: []string{"venv"}}, cb); err != nil {
		t.Fatalf("walk: %v", err)
	}
	sort.Strings(files)
	want := []string{"a.py", "d/e/f.py", "dir1/b.py", "dir1/c.py"}
	if !slices.Equal(files, want) {
		t.Fatalf("files=%v want=%v", files, want)
	}
}

func TestWalk_Metadata(t *testing.T) {
	root := t.TempDir()
	abs := write(t, root, "pkg/App.PY", "12345")

	var got []FileVisit
	if err := Walk(root, Options{}, func(fv FileVisit) { got = append(got, fv) }); err != nil {
		t.Fatalf("walk: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("visits=%+v", got)
	}
	if !got[0].IsDir || got[0].Path != "pkg" {
		t.Fatalf("dir visit=%+v", got[0])
	}
	f := got[1]
	if f.Path != "pkg/App.PY" || f.Ext != ".py" || f.Size != 5 || f.IsDir {
		t.Fatalf("file visit=%+v", f)
	}
	if filepath.Base(f.AbsPath) != filepath.Base(abs) {
		t.Fatalf("abs path=%s want base of %s", f.AbsPath, abs)
	}
}

func TestWalk_MissingRoot(t *testing.T) {
	if err := Walk(filepath.Join(t.TempDir(), "nope"), Options{}, nil); err == nil {
		t.Fatal("expected error for missing root")
	}
}
