package common

import (
	"fmt"
	"io"
	"strings"
)

const (
	DefaultWidth = 80
	WideWidth    = 100
)

// PrintHeader writes a title framed by separator lines
func PrintHeader(w io.Writer, title string, width int) {
	fmt.Fprintln(w, "\n"+strings.Repeat("=", width))
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("=", width))
}

// PrintFooter writes a closing message framed by separator lines
func PrintFooter(w io.Writer, message string, width int) {
	fmt.Fprintln(w, "\n"+strings.Repeat("=", width))
	fmt.Fprintln(w, message)
	fmt.Fprintln(w, strings.Repeat("=", width)+"\n")
}

// PrintField writes one aligned "label: value" line
func PrintField(w io.Writer, label string, value interface{}) {
	fmt.Fprintf(w, "  %-14s %v\n", label+":", value)
}

// BoxPrefix returns the box-drawing prefix for list items
func BoxPrefix(isLast bool) string {
	if isLast {
		return "└  "
	}
	return "│  "
}

// BoxDetailPrefix returns the prefix for detail lines under list items
func BoxDetailPrefix(isLast bool) string {
	if isLast {
		return "   "
	}
	return "│  "
}
