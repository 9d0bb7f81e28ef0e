package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// palette is the colour set used for terminal output.
type palette struct {
	Primary lipgloss.Color
	Muted   lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
}

func defaultPalette() palette {
	return palette{
		Primary: lipgloss.Color("#7C3AED"), // Purple
		Muted:   lipgloss.Color("#6C7086"), // Medium gray
		Success: lipgloss.Color("#A6E3A1"), // Green
		Warning: lipgloss.Color("#F9E2AF"), // Yellow
		Error:   lipgloss.Color("#F38BA8"), // Red
	}
}

// styles render headings and verdicts. Colour is applied only on a terminal.
type styles struct {
	Title   lipgloss.Style
	Muted   lipgloss.Style
	Pass    lipgloss.Style
	Fail    lipgloss.Style
	Warning lipgloss.Style
}

func newStyles(w io.Writer) styles {
	if !isTerminal(w) {
		plain := lipgloss.NewStyle()
		return styles{Title: plain, Muted: plain, Pass: plain, Fail: plain, Warning: plain}
	}

	p := defaultPalette()
	return styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Primary),

		Muted: lipgloss.NewStyle().
			Foreground(p.Muted),

		Pass: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Success),

		Fail: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Error),

		Warning: lipgloss.NewStyle().
			Foreground(p.Warning),
	}
}

// verdict renders PASS or FAIL.
func (s styles) verdict(passed bool) string {
	if passed {
		return s.Pass.Render("PASS")
	}
	return s.Fail.Render("FAIL")
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
