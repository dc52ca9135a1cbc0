// Package util provides small string helpers shared by the LLM clients and
// the terminal renderer.
package util

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

const ellipsis = "..."

// TruncateString truncates s to maxLen runes, ending in "..." when cut.
// It ignores ANSI escape codes; use TruncateANSI for styled output.
func TruncateString(s string, maxLen int) string {
	if maxLen <= len(ellipsis) {
		return ellipsis
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-len(ellipsis)]) + ellipsis
}

// TruncateANSI truncates s to maxWidth terminal columns, keeping escape
// sequences intact and counting wide characters as two columns.
func TruncateANSI(s string, maxWidth int) string {
	if maxWidth <= len(ellipsis) {
		return ellipsis
	}
	if lipgloss.Width(s) <= maxWidth {
		return s
	}
	// ansi.Truncate counts the tail towards maxWidth
	return ansi.Truncate(s, maxWidth, ellipsis)
}

// FitWidth truncates s to width columns. A width below 1 means the width is
// unknown and s is returned unchanged.
func FitWidth(s string, width int) string {
	if width < 1 {
		return s
	}
	return TruncateANSI(s, width)
}

// Plural formats n with the singular or plural noun: "1 question",
// "3 questions".
func Plural(n int, singular, plural string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, singular)
	}
	return fmt.Sprintf("%d %s", n, plural)
}
