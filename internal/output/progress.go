// Package output handles all nexus CLI output formatting.
package output

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Progress writes stage progress updates to stderr. It implements
// engine.ProgressReporter.
type Progress struct {
	w       io.Writer
	verbose bool
	silent  bool
	noColor bool
	mu      sync.Mutex
	start   time.Time
}

var (
	stageStyle = lipgloss.NewStyle().Bold(true)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

// NewProgress creates a progress reporter.
func NewProgress(w io.Writer, verbose, silent, noColor bool) *Progress {
	return &Progress{
		w:       w,
		verbose: verbose,
		silent:  silent,
		noColor: noColor,
		start:   time.Now(),
	}
}

// Stage prints a stage header like "[1/3] Collecting subdomains..."
func (p *Progress) Stage(num, total int, msg string) {
	if p.silent {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.w, p.style(stageStyle, fmt.Sprintf("[%d/%d]", num, total))+" "+msg)
}

// Detail prints verbose detail (only in verbose mode).
func (p *Progress) Detail(msg string) {
	if !p.verbose || p.silent {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, "  %s\n", msg)
}

// Warn prints a warning.
func (p *Progress) Warn(msg string) {
	if p.silent {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.w, "  "+p.style(warnStyle, "!")+" "+msg)
}

// Complete prints the elapsed time.
func (p *Progress) Complete() {
	if p.silent {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, "\nCompleted in %.1fs\n", time.Since(p.start).Seconds())
}

func (p *Progress) style(s lipgloss.Style, text string) string {
	if p.noColor {
		return text
	}
	return s.Render(text)
}
