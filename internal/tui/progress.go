package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/danisty/LethalManager/internal/installer"
)

// ProgressPrinter draws install progress as two bars on a terminal line
type ProgressPrinter struct {
	w       io.Writer
	total   progress.Model
	extract progress.Model
	last    string
}

// NewProgressPrinter creates a printer writing to w
func NewProgressPrinter(w io.Writer) *ProgressPrinter {
	return &ProgressPrinter{
		w:       w,
		total:   progress.New(progress.WithDefaultGradient(), progress.WithWidth(30)),
		extract: progress.New(progress.WithSolidFill("62"), progress.WithWidth(20), progress.WithoutPercentage()),
	}
}

// Print redraws the line for p. Passing the method as an
// installer.ProgressFunc renders a whole install.
func (pp *ProgressPrinter) Print(p installer.Progress) {
	line := fmt.Sprintf("%s %s %s", pp.total.ViewAs(p.Total/100), pp.extract.ViewAs(p.Extract/100), p.Step)
	if line == pp.last {
		return
	}
	pp.last = line
	fmt.Fprintf(pp.w, "\r\033[2K%s", line)
	if p.Step == installer.StepDone {
		fmt.Fprintln(pp.w)
		pp.last = ""
	}
}

// LinePrinter writes one plain line per install step, for output that is
// not a terminal.
func LinePrinter(w io.Writer) installer.ProgressFunc {
	var last string
	return func(p installer.Progress) {
		if p.Step == last {
			return
		}
		last = p.Step
		fmt.Fprintf(w, "[%5.1f%%] %s\n", p.Total, p.Step)
	}
}
