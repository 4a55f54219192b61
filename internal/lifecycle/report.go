package lifecycle

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	headStyle = lipgloss.NewStyle().Bold(true)
)

// reporter writes operator-facing progress lines.
type reporter struct {
	w io.Writer
}

func (r reporter) heading(format string, args ...any) {
	fmt.Fprintln(r.w, headStyle.Render(fmt.Sprintf(format, args...)))
}

func (r reporter) ok(format string, args ...any) {
	fmt.Fprintf(r.w, "  %s %s\n", okStyle.Render("✓"), fmt.Sprintf(format, args...))
}

func (r reporter) warn(format string, args ...any) {
	fmt.Fprintf(r.w, "  %s %s\n", warnStyle.Render("⚠"), fmt.Sprintf(format, args...))
}

func (r reporter) fail(format string, args ...any) {
	fmt.Fprintf(r.w, "  %s %s\n", failStyle.Render("✗"), fmt.Sprintf(format, args...))
}
