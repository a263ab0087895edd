// Package ux styles status lines for the terminal.
package ux

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Palette.
var (
	ColorAccent  = lipgloss.Color("#2CD7C7")
	ColorSuccess = lipgloss.Color("#2CD7C7")
	ColorWarning = lipgloss.Color("#F4D03F")
	ColorError   = lipgloss.Color("#E74C3C")
	ColorMuted   = lipgloss.Color("#2C4A54")
)

// Styles provides pre-configured lipgloss styles.
var Styles = struct {
	Title   lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
}{
	Title:   lipgloss.NewStyle().Bold(true).Foreground(ColorAccent),
	Muted:   lipgloss.NewStyle().Foreground(ColorMuted),
	Success: lipgloss.NewStyle().Foreground(ColorSuccess),
	Warning: lipgloss.NewStyle().Foreground(ColorWarning),
	Error:   lipgloss.NewStyle().Foreground(ColorError),
}

// Icon is a status marker.
type Icon string

const (
	IconSuccess Icon = "✓"
	IconWarning Icon = "⚠"
	IconError   Icon = "✗"
)

// Render returns the icon with its style, or bare when w is not a terminal.
func (i Icon) Render(w io.Writer) string {
	if !IsTerminal(w) {
		return string(i)
	}
	switch i {
	case IconSuccess:
		return Styles.Success.Render(string(i))
	case IconWarning:
		return Styles.Warning.Render(string(i))
	case IconError:
		return Styles.Error.Render(string(i))
	default:
		return Styles.Muted.Render(string(i))
	}
}

// IsTerminal reports whether w is an *os.File attached to a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Title writes a styled heading line.
func Title(w io.Writer, text string) {
	if IsTerminal(w) {
		text = Styles.Title.Render(text)
	}
	fmt.Fprintln(w, text)
}

// Success writes "✓ msg".
func Success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", IconSuccess.Render(w), fmt.Sprintf(format, args...))
}

// Warning writes "⚠ msg".
func Warning(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", IconWarning.Render(w), fmt.Sprintf(format, args...))
}

// Error writes "✗ Error: err".
func Error(w io.Writer, err error) {
	fmt.Fprintf(w, "%s Error: %v\n", IconError.Render(w), err)
}
