package diag

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/neknaj/NEPLg2-sub000/internal/source"
)

// Renderer prints reports in the human-readable form:
//
//	severity[code]: message
//	 --> file:line:col
//	     | source line
//	     | ^^^ carets
//
// with one note line per secondary label. Colorization follows ailang's
// cmd/ailang/main.go convention: fatih/color SprintFuncs gated by whether
// the destination writer is an interactive terminal.
type Renderer struct {
	out      io.Writer
	colorize bool

	errColor  func(a ...interface{}) string
	warnColor func(a ...interface{}) string
	dimColor  func(a ...interface{}) string
	boldColor func(a ...interface{}) string
}

// NewRenderer builds a Renderer writing to out. Color is auto-detected via
// go-isatty when out is an *os.File; pass forceColor to override (useful
// for tests and for `--color` CLI flags).
func NewRenderer(out io.Writer, forceColor *bool) *Renderer {
	colorize := false
	if f, ok := out.(*os.File); ok {
		colorize = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	if forceColor != nil {
		colorize = *forceColor
	}
	return &Renderer{
		out:       out,
		colorize:  colorize,
		errColor:  color.New(color.FgRed, color.Bold).SprintFunc(),
		warnColor: color.New(color.FgYellow, color.Bold).SprintFunc(),
		dimColor:  color.New(color.FgCyan).SprintFunc(),
		boldColor: color.New(color.Bold).SprintFunc(),
	}
}

// RenderAll writes every report in m's sink order, in the order given.
func (r *Renderer) RenderAll(reports []*Report, sm *source.Map) {
	for _, rep := range reports {
		r.Render(rep, sm)
	}
}

// Render writes a single report.
func (r *Renderer) Render(rep *Report, sm *source.Map) {
	sevText := rep.Severity.String()
	if r.colorize {
		if rep.Severity == Error {
			sevText = r.errColor(sevText)
		} else {
			sevText = r.warnColor(sevText)
		}
	}
	fmt.Fprintf(r.out, "%s[%s]: %s\n", sevText, rep.Code, rep.Message)

	pos := sm.Position(rep.Span.File, rep.Span.Start)
	arrow := fmt.Sprintf(" --> %s:%d:%d", sm.Path(rep.Span.File), pos.Line, pos.Column)
	if r.colorize {
		arrow = r.dimColor(arrow)
	}
	fmt.Fprintln(r.out, arrow)

	line := sm.Line(rep.Span.File, pos.Line)
	fmt.Fprintf(r.out, "     | %s\n", line)

	width := rep.Span.End - rep.Span.Start
	if width < 1 {
		width = 1
	}
	carets := "     | " + strings.Repeat(" ", pos.Column-1) + strings.Repeat("^", width)
	if r.colorize {
		carets = r.boldColor(carets)
	}
	fmt.Fprintln(r.out, carets)

	for _, lbl := range rep.Labels {
		lp := sm.Position(lbl.Span.File, lbl.Span.Start)
		fmt.Fprintf(r.out, "   note: %s (%s:%d:%d)\n", lbl.Message, sm.Path(lbl.Span.File), lp.Line, lp.Column)
	}
}
