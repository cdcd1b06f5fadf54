package report

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"

	"github.com/warp/ledger-replay/replay"
)

// Diagnostics writes replay diagnostics, one per line. Styling is purely
// cosmetic: with color disabled the output is plain text.
type Diagnostics struct {
	w   io.Writer
	out *termenv.Output
}

var _ replay.DiagnosticSink = (*Diagnostics)(nil)

// NewDiagnostics returns a writer that styles lines in bold red when color is true.
func NewDiagnostics(w io.Writer, color bool) *Diagnostics {
	profile := termenv.Ascii
	if color {
		profile = termenv.ANSI
	}
	return &Diagnostics{w: w, out: termenv.NewOutput(w, termenv.WithProfile(profile))}
}

// ForTerminal enables color only if w is a terminal file and colors were
// not turned off by the caller.
func ForTerminal(w io.Writer, noColor bool) *Diagnostics {
	f, ok := w.(*os.File)
	return NewDiagnostics(w, !noColor && ok && IsTerminal(f))
}

func (d *Diagnostics) Report(diag replay.Diagnostic) {
	msg := d.out.String(diag.String()).Foreground(d.out.Color("1")).Bold().String()
	fmt.Fprintln(d.w, msg)
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
