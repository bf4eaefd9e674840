package tui

import (
	"github.com/gdamore/tcell/v2"
)

// Action is what a key press or click asks the reader to do.
type Action int

const (
	ActionNone Action = iota
	ActionAdvance
	ActionBack
	ActionLineUp
	ActionLineDown
	ActionPageUp
	ActionPageDown
	ActionTop
	ActionQuit
)

// Click zones as fractions of the page width.
const (
	backZone    = 0.30
	advanceZone = 0.70
)

// KeyAction maps a key event to an action.
func KeyAction(ev *tcell.EventKey) Action {
	switch ev.Key() {
	case tcell.KeyRight:
		return ActionAdvance
	case tcell.KeyLeft:
		return ActionBack
	case tcell.KeyUp:
		return ActionLineUp
	case tcell.KeyDown:
		return ActionLineDown
	case tcell.KeyPgUp:
		return ActionPageUp
	case tcell.KeyPgDn:
		return ActionPageDown
	case tcell.KeyHome:
		return ActionTop
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return ActionQuit
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'd', 'l':
			return ActionAdvance
		case 'a', 'h':
			return ActionBack
		case 'k':
			return ActionLineUp
		case 'j':
			return ActionLineDown
		case ' ':
			return ActionPageDown
		case 'g':
			return ActionTop
		case 'q':
			return ActionQuit
		}
	}
	return ActionNone
}

// ClickAction maps a click at column x of a page width columns wide: the
// left 30% goes back, the right 30% advances.
func ClickAction(x, width int) Action {
	if width <= 0 || x < 0 || x >= width {
		return ActionNone
	}
	switch pos := float64(x) / float64(width); {
	case pos < backZone:
		return ActionBack
	case pos > advanceZone:
		return ActionAdvance
	default:
		return ActionNone
	}
}
