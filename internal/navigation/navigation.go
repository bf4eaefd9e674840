// Package navigation implements the page navigation state machine of the
// viewer: page index, scroll-to-bottom gating and the double-trigger back
// gesture.
package navigation

import (
	"fmt"
	"log/slog"
	"time"
)

const (
	// BottomTolerance is how close, in surface units, the scroll position
	// must be to the end of the page for it to count as read.
	BottomTolerance = 5
	// BackWindow is the time within which a second back trigger must
	// follow the first.
	BackWindow = 400 * time.Millisecond
)

// Phase is the coarse state of a Navigator.
type Phase int

const (
	Idle    Phase = iota // nothing loaded
	Viewing              // at least one page, Current is valid
	Empty                // a book was loaded but had no pages
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Viewing:
		return "viewing"
	case Empty:
		return "empty"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Outcome reports what a navigation request did.
type Outcome int

const (
	Ignored Outcome = iota // no-op
	Moved                  // current page changed
	Bounced                // advance refused, page not read to the bottom
	Armed                  // first back trigger recorded
)

func (o Outcome) String() string {
	switch o {
	case Ignored:
		return "ignored"
	case Moved:
		return "moved"
	case Bounced:
		return "bounced"
	case Armed:
		return "armed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// State is a snapshot of the navigator.
type State struct {
	Phase    Phase
	Current  int
	Total    int
	LastBack time.Time // zero when no back trigger is pending
	AtBottom bool
}

// Navigator drives a Surface through page transitions.
type Navigator struct {
	surface Surface
	now     func() time.Time
	logger  *slog.Logger
	state   State
}

// Option configures a Navigator.
type Option func(*Navigator)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(n *Navigator) { n.now = now }
}

// WithLogger sets the logger used for transition traces.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Navigator) { n.logger = logger }
}

// New creates an idle navigator bound to surface.
func New(surface Surface, opts ...Option) *Navigator {
	n := &Navigator{
		surface: surface,
		now:     time.Now,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// State returns a copy of the current state.
func (n *Navigator) State() State {
	return n.state
}

// Label returns the page number display, e.g. "3 / 10".
func (n *Navigator) Label() string {
	if n.state.Phase != Viewing {
		return "0 / 0"
	}
	return fmt.Sprintf("%d / %d", n.state.Current+1, n.state.Total)
}

// Load resets the navigator for a freshly paginated book of total pages.
// Every page but the first is hidden and the first is shown from the top.
func (n *Navigator) Load(total int) {
	n.state = State{Total: max(total, 0)}
	if n.state.Total == 0 {
		n.state.Phase = Empty
		n.surface.SetPageNumber(n.Label())
		n.logger.Debug("loaded empty book")
		return
	}

	n.state.Phase = Viewing
	for i := 1; i < n.state.Total; i++ {
		n.surface.Hide(i)
	}
	n.surface.Show(0)
	n.surface.SetPageNumber(n.Label())
	n.Scrolled()
	n.logger.Debug("loaded book", "pages", n.state.Total)
}

// Advance moves to the next page once the current page has been scrolled
// to its bottom. Otherwise the surface gets a bounce and nothing moves.
func (n *Navigator) Advance() Outcome {
	if n.state.Phase != Viewing {
		return Ignored
	}
	if !n.atBottom() {
		n.surface.Effect(n.state.Current, EffectBounce)
		return Bounced
	}
	return n.Goto(n.state.Current + 1)
}

// GoBack records a back trigger. Only a second trigger arriving within
// BackWindow of the first moves to the previous page.
func (n *Navigator) GoBack() Outcome {
	if n.state.Phase != Viewing {
		return Ignored
	}

	now := n.now()
	last := n.state.LastBack
	if last.IsZero() || now.Sub(last) >= BackWindow {
		n.state.LastBack = now
		return Armed
	}

	n.state.LastBack = time.Time{}
	return n.Goto(n.state.Current - 1)
}

// Goto switches to page i. Out of range requests are ignored.
func (n *Navigator) Goto(i int) Outcome {
	if n.state.Phase != Viewing || i < 0 || i >= n.state.Total || i == n.state.Current {
		return Ignored
	}

	old := n.state.Current
	n.surface.Effect(old, EffectExit)
	n.surface.Hide(old)

	n.state.Current = i
	n.surface.Show(i)
	n.surface.Effect(i, EffectEnter)
	n.surface.SetPageNumber(n.Label())
	n.Scrolled()

	n.logger.Debug("page changed", "from", old, "to", i, "total", n.state.Total)
	return Moved
}

// Scrolled recomputes whether the current page is read to its bottom and
// updates the "more below" indicator.
func (n *Navigator) Scrolled() {
	if n.state.Phase != Viewing {
		return
	}
	n.state.AtBottom = n.atBottom()
	n.surface.SetMoreBelow(n.state.Current, !n.state.AtBottom)
}

func (n *Navigator) atBottom() bool {
	return n.surface.Scroll(n.state.Current).AtBottom()
}
