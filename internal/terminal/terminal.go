// Package terminal holds the single process-wide handle Design Note 9
// calls for: one VT-capability flag plus colored print helpers, created
// once at startup and passed down instead of the teacher's static globals.
package terminal

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/pterm/pterm"
	"golang.org/x/term"
)

// Terminal is shared read-only once constructed.
type Terminal struct {
	mu     sync.Mutex
	vt     bool
	stdout io.Writer
	stderr io.Writer
}

// New detects VT capability on stdout and builds a Terminal bound to the
// process's standard streams.
func New() *Terminal {
	vt := term.IsTerminal(int(os.Stdout.Fd()))
	pterm.DisableColor()
	if vt {
		pterm.EnableColor()
	}
	return &Terminal{vt: vt, stdout: os.Stdout, stderr: os.Stderr}
}

// VTCapable reports whether ANSI color output was enabled.
func (t *Terminal) VTCapable() bool { return t.vt }

func (t *Terminal) colorize(c text.Color, format string, args ...interface{}) string {
	msg := fmt.Sprintf(format, args...)
	if !t.vt {
		return msg
	}
	return c.Sprint(msg)
}

// Info prints a status line to stderr.
func (t *Terminal) Info(format string, args ...interface{}) {
	t.println(t.stderr, text.FgWhite, format, args...)
}

// Verbose prints a status line only when enabled is true.
func (t *Terminal) Verbose(enabled bool, format string, args ...interface{}) {
	if !enabled {
		return
	}
	t.println(t.stderr, text.FgCyan, format, args...)
}

// Success prints a status line to stdout.
func (t *Terminal) Success(format string, args ...interface{}) {
	t.println(t.stdout, text.FgGreen, format, args...)
}

// Error prints a one-line red banner to stderr, per section 7's error
// surfacing rule (red when VT is enabled, plain otherwise).
func (t *Terminal) Error(format string, args ...interface{}) {
	t.println(t.stderr, text.FgRed, format, args...)
}

func (t *Terminal) println(w io.Writer, c text.Color, format string, args ...interface{}) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(w, t.colorize(c, format, args...))
}
