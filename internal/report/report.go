// Package report renders per-step progress lines and the run summary to the
// terminal. Styling is applied only when the writer is an interactive
// terminal; piped output stays plain.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/vmseed/vmseed/internal/checks"
	"github.com/vmseed/vmseed/internal/model"
)

var (
	satisfiedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	appliedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	fallbackStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("33"))
	warningStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	failedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	dryRunStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	headerStyle    = lipgloss.NewStyle().Bold(true)
)

// Renderer writes numbered step lines and the final summary.
type Renderer struct {
	out    io.Writer
	styled bool
	dryRun bool
}

// New creates a renderer for the given writer. Color output is enabled only
// when the writer is a terminal.
func New(out io.Writer, dryRun bool) *Renderer {
	return &Renderer{
		out:    out,
		styled: isTerminal(out),
		dryRun: dryRun,
	}
}

func isTerminal(w io.Writer) bool {
	if file, ok := w.(*os.File); ok {
		return term.IsTerminal(int(file.Fd()))
	}
	return false
}

// Start prints the run header.
func (r *Renderer) Start(total int) {
	label := fmt.Sprintf("Provisioning %d steps", total)
	if r.dryRun {
		label += " (dry run)"
	}
	fmt.Fprintln(r.out, r.render(headerStyle, label))
}

// Step prints one numbered result line as the engine reports it.
func (r *Renderer) Step(index, total int, res model.StepResult) {
	style, tag := statusPresentation(res.Status)

	line := fmt.Sprintf("[%d/%d] %-10s %s", index, total, tag, res.StepID)
	if res.Message != "" {
		line += ": " + res.Message
	}
	fmt.Fprintln(r.out, r.render(style, line))

	if r.dryRun && res.Diff != "" {
		for _, diffLine := range strings.Split(strings.TrimRight(res.Diff, "\n"), "\n") {
			fmt.Fprintf(r.out, "      %s\n", r.render(dryRunStyle, diffLine))
		}
	}
}

// Summary prints the final run summary block.
func (r *Renderer) Summary(summary *model.RunSummary) {
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, r.render(headerStyle, "Summary"))

	fmt.Fprintf(r.out, "  satisfied: %d  applied: %d  fallback: %d  warnings: %d\n",
		summary.Satisfied, summary.Applied, summary.Fallback, summary.Warnings)
	if summary.WouldApply > 0 {
		fmt.Fprintf(r.out, "  would apply: %d\n", summary.WouldApply)
	}

	status := summary.Status()
	style := appliedStyle
	if !summary.Success() {
		style = failedStyle
	}
	fmt.Fprintf(r.out, "  result: %s (%s)\n", r.render(style, status), summary.Duration.Round(time.Millisecond))
}

// Validations prints the post-run validation results.
func (r *Renderer) Validations(results []checks.Result) {
	if len(results) == 0 {
		return
	}

	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, r.render(headerStyle, "Validations"))
	for _, res := range results {
		if res.Passed {
			fmt.Fprintf(r.out, "  %s %s\n", r.render(appliedStyle, "ok"), res.Message)
		} else {
			fmt.Fprintf(r.out, "  %s %s\n", r.render(failedStyle, "fail"), res.Message)
		}
	}
}

func (r *Renderer) render(style lipgloss.Style, s string) string {
	if !r.styled {
		return s
	}
	return style.Render(s)
}

func statusPresentation(status string) (lipgloss.Style, string) {
	switch status {
	case model.StatusSatisfied:
		return satisfiedStyle, "ok"
	case model.StatusApplied:
		return appliedStyle, "applied"
	case model.StatusAppliedFallback:
		return fallbackStyle, "fallback"
	case model.StatusWarning:
		return warningStyle, "warning"
	case model.StatusFailed:
		return failedStyle, "failed"
	case model.StatusWouldApply:
		return dryRunStyle, "would"
	}
	return satisfiedStyle, status
}
