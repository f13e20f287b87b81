// Package ui reports pipeline progress to the operator.
package ui

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Progress receives operator-facing events. Implementations must be safe for
// concurrent use; pipelines call them from worker goroutines.
type Progress interface {
	Analyzing(path string)
	Found(name, path string)
	Wrote(path string)
	Nothing(reason string)
	Warn(msg string, err error)
}

var (
	colorAccent  = lipgloss.Color("#20B9B4")
	colorSuccess = lipgloss.Color("#2CD7C7")
	colorWarning = lipgloss.Color("#F4D03F")
	colorMuted   = lipgloss.Color("#5C7A84")
)

type styles struct {
	step    lipgloss.Style
	name    lipgloss.Style
	success lipgloss.Style
	warning lipgloss.Style
	muted   lipgloss.Style
}

func newStyles(color bool) styles {
	if !color {
		plain := lipgloss.NewStyle()
		return styles{plain, plain, plain, plain, plain}
	}
	return styles{
		step:    lipgloss.NewStyle().Foreground(colorAccent),
		name:    lipgloss.NewStyle().Bold(true),
		success: lipgloss.NewStyle().Foreground(colorSuccess),
		warning: lipgloss.NewStyle().Foreground(colorWarning),
		muted:   lipgloss.NewStyle().Foreground(colorMuted),
	}
}

// Console prints progress lines, styled when writing to a terminal.
type Console struct {
	mu sync.Mutex
	w  io.Writer
	st styles
}

// NewConsole writes to f, enabling color only when f is a terminal.
func NewConsole(f *os.File) *Console {
	fd := f.Fd()
	return NewConsoleWriter(f, isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd))
}

// NewConsoleWriter writes to w with color forced on or off.
func NewConsoleWriter(w io.Writer, color bool) *Console {
	return &Console{w: w, st: newStyles(color)}
}

func (c *Console) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, format, args...)
}

func (c *Console) Analyzing(path string) {
	c.printf("%s %s\n", c.st.step.Render("Analyzing"), path)
}

func (c *Console) Found(name, path string) {
	c.printf("  %s %s %s\n", c.st.muted.Render("found"), c.st.name.Render(name), c.st.muted.Render("in "+path))
}

func (c *Console) Wrote(path string) {
	c.printf("%s %s\n", c.st.success.Render("Wrote"), path)
}

func (c *Console) Nothing(reason string) {
	c.printf("%s\n", c.st.muted.Render(reason))
}

func (c *Console) Warn(msg string, err error) {
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	c.printf("%s %s\n", c.st.warning.Render("warning:"), msg)
}

// Discard drops every event.
type Discard struct{}

func (Discard) Analyzing(string)     {}
func (Discard) Found(string, string) {}
func (Discard) Wrote(string)         {}
func (Discard) Nothing(string)       {}
func (Discard) Warn(string, error)   {}
