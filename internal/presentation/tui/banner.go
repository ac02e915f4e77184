package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the flume banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"   __ _", "#38bdf8"},
		{"  / _| |_   _ _ __ ___   ___", "#22d3ee"},
		{" | |_| | | | | '_ ` _ \\ / _ \\", "#2dd4bf"},
		{" |  _| | |_| | | | | | |  __/", "#34d399"},
		{" |_| |_|\\__,_|_| |_| |_|\\___|", "#4ade80"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}

// Success styles a confirmation message in green.
func Success(msg string) string {
	p := termenv.ColorProfile()
	return termenv.String("✓ " + msg).Foreground(p.Color("#22c55e")).String()
}

// Failure styles an error message in bold red.
func Failure(msg string) string {
	p := termenv.ColorProfile()
	return termenv.String("✗ " + msg).Foreground(p.Color("#ef4444")).Bold().String()
}

// Muted styles secondary information.
func Muted(msg string) string {
	p := termenv.ColorProfile()
	return termenv.String(msg).Foreground(p.Color("#9ca3af")).String()
}
