package ui

import (
	"os"

	"github.com/charmbracelet/x/term"
)

// fallbackWidth is used when stdout is not a terminal or its size is unknown.
const fallbackWidth = 120

// DisplayContext decides how results are rendered: a width-fitted table on
// a terminal, TSV everywhere else.
type DisplayContext struct {
	TermWidth int
	IsTTY     bool
}

// NewDisplayContext inspects stdout.
func NewDisplayContext() *DisplayContext {
	d := &DisplayContext{TermWidth: fallbackWidth}
	fd := os.Stdout.Fd()
	if !term.IsTerminal(fd) {
		return d
	}
	d.IsTTY = true
	if w, _, err := term.GetSize(fd); err == nil && w > 0 {
		d.TermWidth = w
	}
	return d
}

// NewDisplayContextWithWidth returns a terminal context of a fixed width.
func NewDisplayContextWithWidth(width int) *DisplayContext {
	return &DisplayContext{TermWidth: width, IsTTY: true}
}
