package navigation

import "time"

// Effect is a transient visual signal on a page.
type Effect int

const (
	EffectExit   Effect = iota // outgoing page fades out
	EffectEnter                // incoming page fades in
	EffectBounce               // advance refused
)

// Duration returns the nominal length of the effect. Surfaces may ignore it.
func (e Effect) Duration() time.Duration {
	switch e {
	case EffectExit:
		return 300 * time.Millisecond
	case EffectEnter:
		return 400 * time.Millisecond
	case EffectBounce:
		return 500 * time.Millisecond
	default:
		return 0
	}
}

func (e Effect) String() string {
	switch e {
	case EffectExit:
		return "exit"
	case EffectEnter:
		return "enter"
	case EffectBounce:
		return "bounce"
	default:
		return "unknown"
	}
}

// ScrollPosition describes how far a page has been scrolled, in whatever
// unit the surface measures (pixels, terminal rows).
type ScrollPosition struct {
	Top      int // first visible unit
	Viewport int // visible extent
	Content  int // total extent of the page
}

// AtBottom reports whether the visible window reaches the end of the
// content, within BottomTolerance.
func (p ScrollPosition) AtBottom() bool {
	return p.Top+p.Viewport >= p.Content-BottomTolerance
}

// Surface renders pages for a Navigator.
type Surface interface {
	// Show makes page visible with its scroll position reset to the top.
	Show(page int)
	// Hide makes page invisible.
	Hide(page int)
	Effect(page int, effect Effect)
	Scroll(page int) ScrollPosition
	SetPageNumber(label string)
	// SetMoreBelow toggles the "more content below" indicator.
	SetMoreBelow(page int, more bool)
}
