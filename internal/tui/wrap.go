package tui

import (
	"github.com/rivo/uniseg"
)

// WrappedRows returns how many rows text occupies in a word-wrapping
// tview.TextView that is width columns wide. Lines break the way the text
// view breaks them: at the last Unicode line break opportunity that fits
// (after a space or a hyphen, between ideographs), mid word when there is
// none, and always at a newline. A space trailing a word takes a column.
func WrappedRows(text string, width int) int {
	if width <= 0 || text == "" {
		return 0
	}

	var (
		rows        = 1
		lineWidth   int
		optionWidth int // line width at the last optional break, 0 if none
		boundaries  int
		state       = -1
	)
	for text != "" {
		_, text, boundaries, state = uniseg.StepString(text, state)
		w := boundaries >> uniseg.ShiftWidth

		if lineWidth+w > width {
			rows++
			if optionWidth == 0 {
				lineWidth = 0
			} else {
				lineWidth -= optionWidth
			}
			optionWidth = 0
		}
		lineWidth += w

		switch boundaries & uniseg.MaskLine {
		case uniseg.LineCanBreak:
			optionWidth = lineWidth
		case uniseg.LineMustBreak:
			// The end of the text is a mandatory break too.
			if text != "" {
				rows++
				lineWidth, optionWidth = 0, 0
			}
		}
	}
	return rows
}
