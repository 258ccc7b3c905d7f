package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the ASCII art banner for Arbor.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	// Green to teal, top to bottom
	lines := []struct{ text, color string }{
		{"     _            _", "#4ade80"},
		{"    / \\   _ __ | |__   ___  _ __", "#34d399"},
		{"   / _ \\ | '__|| '_ \\ / _ \\| '__|", "#2dd4bf"},
		{"  / ___ \\| |   | |_) | (_) | |", "#22d3ee"},
		{" /_/   \\_\\_|   |_.__/ \\___/|_|", "#38bdf8"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}

// Status formats a one-line result of an edit: green when the document
// changed, dimmed when the operation was a no-op.
func Status(changed bool, msg string) string {
	p := termenv.ColorProfile()
	if changed {
		return termenv.String("✓ " + msg).Foreground(p.Color("#4ade80")).String()
	}
	return termenv.String("· " + msg + " (no change)").Faint().String()
}
