// Package tui renders paginated books in the terminal.
package tui

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
	"github.com/rivo/tview"
	"golang.org/x/term"

	"github.com/yuanying/epubpager/internal/navigation"
	"github.com/yuanying/epubpager/internal/paginator"
)

const (
	// CellWidth is the nominal width of a terminal column in pixels, used
	// to map the terminal onto the viewport width tiers.
	CellWidth = 8

	defaultColumns = 80
	hintDuration   = 1500 * time.Millisecond
	moreMarker     = "▼"
	maxTitleCells  = 40
)

// Options configures a Surface.
type Options struct {
	Title string
	// Columns overrides the detected terminal width.
	Columns int
	Logger  *slog.Logger
}

// Surface shows one page at a time in a scrollable text view with a status
// bar underneath.
type Surface struct {
	app    *tview.Application
	text   *tview.TextView
	status *tview.TextView
	logger *slog.Logger

	title   string
	columns int
	nav     *navigation.Navigator

	// geometry reports the text view's inner x offset, width and height.
	geometry func() (x, width, height int)
	lastW    int
	lastH    int

	pages   []paginator.Page
	current int
	label   string
	more    bool

	mu        sync.Mutex
	hint      string
	hintTimer *time.Timer
}

// New creates a surface. Nothing is drawn until Run.
func New(opts Options) *Surface {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	columns := opts.Columns
	if columns <= 0 {
		columns = terminalColumns()
	}

	app := tview.NewApplication()
	text := tview.NewTextView().
		SetWrap(true).
		SetWordWrap(true).
		SetScrollable(true)
	text.SetBorderPadding(0, 0, 1, 1)
	status := tview.NewTextView().
		SetTextColor(tcell.ColorGray)

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(text, 0, 1, true).
		AddItem(status, 1, 0, false)
	app.SetRoot(flex, true).EnableMouse(true)

	s := &Surface{
		app:     app,
		text:    text,
		status:  status,
		logger:  logger,
		title:   opts.Title,
		columns: columns,
		current: -1,
		label:   "0 / 0",
	}
	s.geometry = func() (int, int, int) {
		x, _, w, h := text.GetInnerRect()
		return x, w, h
	}
	s.refreshStatus()
	return s
}

func terminalColumns() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return defaultColumns
	}
	return w
}

// Bind routes input to nav. It must be called before Run.
func (s *Surface) Bind(nav *navigation.Navigator) {
	s.nav = nav

	s.app.SetInputCapture(func(ev *tcell.EventKey) *tcell.EventKey {
		if a := KeyAction(ev); a != ActionNone {
			s.handle(a)
			return nil
		}
		return ev
	})

	s.app.SetMouseCapture(func(ev *tcell.EventMouse, action tview.MouseAction) (*tcell.EventMouse, tview.MouseAction) {
		switch action {
		case tview.MouseScrollUp:
			s.handle(ActionLineUp)
			return nil, 0
		case tview.MouseScrollDown:
			s.handle(ActionLineDown)
			return nil, 0
		case tview.MouseLeftClick:
			x, _ := ev.Position()
			left, width, _ := s.geometry()
			if a := ClickAction(x-left, width); a != ActionNone {
				s.handle(a)
			}
			return nil, 0
		}
		return ev, action
	})

	// The text view has no size until the first draw, and the terminal may
	// be resized later. Either way the bottom check has to be redone.
	s.app.SetAfterDrawFunc(func(tcell.Screen) {
		_, w, h := s.geometry()
		if w == s.lastW && h == s.lastH {
			return
		}
		s.lastW, s.lastH = w, h
		go s.app.QueueUpdateDraw(func() {
			s.clampScroll()
			s.nav.Scrolled()
		})
	})
}

// Run starts the event loop and blocks until the reader quits.
func (s *Surface) Run() error {
	return s.app.Run()
}

// Stop ends the event loop.
func (s *Surface) Stop() {
	s.app.Stop()
}

func (s *Surface) handle(a Action) {
	if s.nav == nil {
		return
	}
	_, _, h := s.geometry()

	switch a {
	case ActionAdvance:
		switch s.nav.Advance() {
		case navigation.Bounced:
			s.logger.Debug("advance refused, page not read to the bottom", "page", s.current)
		case navigation.Moved:
			s.setHint("")
		}
	case ActionBack:
		switch s.nav.GoBack() {
		case navigation.Armed:
			s.setHint("press back again to return")
		case navigation.Moved:
			s.setHint("")
		}
	case ActionLineUp:
		s.scrollBy(-1)
	case ActionLineDown:
		s.scrollBy(1)
	case ActionPageUp:
		s.scrollBy(-max(h, 1))
	case ActionPageDown:
		s.scrollBy(max(h, 1))
	case ActionTop:
		s.text.ScrollToBeginning()
		s.nav.Scrolled()
	case ActionQuit:
		s.Stop()
	}
}

func (s *Surface) scrollBy(delta int) {
	row, _ := s.text.GetScrollOffset()
	s.text.ScrollTo(s.clampRow(row+delta), 0)
	s.nav.Scrolled()
}

func (s *Surface) clampScroll() {
	row, _ := s.text.GetScrollOffset()
	if c := s.clampRow(row); c != row {
		s.text.ScrollTo(c, 0)
	}
}

func (s *Surface) clampRow(row int) int {
	pos := s.Scroll(s.current)
	return min(max(row, 0), max(pos.Content-pos.Viewport, 0))
}

// SetPages replaces the book's pages. Nothing is shown until the navigator
// picks a page.
func (s *Surface) SetPages(pages []paginator.Page) {
	s.pages = pages
	s.current = -1
	s.text.Clear()
}

// ViewportWidth returns the width of the text area in nominal pixels.
func (s *Surface) ViewportWidth() int {
	if _, w, _ := s.geometry(); w > 0 {
		return w * CellWidth
	}
	return s.columns * CellWidth
}

// Show displays page from its first row.
func (s *Surface) Show(page int) {
	if page < 0 || page >= len(s.pages) {
		return
	}
	s.current = page
	s.text.SetText(s.pages[page].Text)
	s.text.ScrollToBeginning()
}

// Hide clears the view if page is the one displayed.
func (s *Surface) Hide(page int) {
	if page == s.current {
		s.current = -1
		s.text.Clear()
	}
}

// Effect shows the bounce as a status hint. Page transitions are instant
// in a terminal, so the other effects are only traced.
func (s *Surface) Effect(page int, effect navigation.Effect) {
	if effect == navigation.EffectBounce {
		s.setHint("scroll to the end of the page to continue")
	}
	s.logger.Debug("page effect", "page", page, "effect", effect.String(), "duration", effect.Duration())
}

// Scroll reports the scroll position of page in rows. Pages that are not
// displayed report a zero position.
func (s *Surface) Scroll(page int) navigation.ScrollPosition {
	if page != s.current || page < 0 || page >= len(s.pages) {
		return navigation.ScrollPosition{}
	}
	row, _ := s.text.GetScrollOffset()
	_, w, h := s.geometry()
	return navigation.ScrollPosition{
		Top:      row,
		Viewport: h,
		Content:  WrappedRows(s.pages[page].Text, w),
	}
}

// SetTitle sets the title shown in the status bar.
func (s *Surface) SetTitle(title string) {
	s.title = title
	s.refreshStatus()
}

// SetPageNumber updates the page label in the status bar.
func (s *Surface) SetPageNumber(label string) {
	s.label = label
	s.refreshStatus()
}

// SetMoreBelow toggles the more-content marker in the status bar.
func (s *Surface) SetMoreBelow(page int, more bool) {
	if page != s.current {
		return
	}
	s.more = more
	s.refreshStatus()
}

// StatusText returns the current status bar contents.
func (s *Surface) StatusText() string {
	return s.status.GetText(false)
}

func (s *Surface) setHint(hint string) {
	s.mu.Lock()
	s.hint = hint
	if s.hintTimer != nil {
		s.hintTimer.Stop()
		s.hintTimer = nil
	}
	if hint != "" {
		s.hintTimer = time.AfterFunc(hintDuration, func() {
			s.app.QueueUpdateDraw(func() { s.setHint("") })
		})
	}
	s.mu.Unlock()
	s.refreshStatus()
}

func (s *Surface) refreshStatus() {
	s.mu.Lock()
	hint := s.hint
	s.mu.Unlock()

	s.status.SetText(statusLine(s.title, s.label, s.more, hint))
}

func statusLine(title, label string, more bool, hint string) string {
	var b strings.Builder
	if title != "" {
		fmt.Fprintf(&b, "%s  ", runewidth.Truncate(title, maxTitleCells, "..."))
	}
	b.WriteString(label)
	if more {
		b.WriteString(" " + moreMarker)
	}
	if hint != "" {
		fmt.Fprintf(&b, "  (%s)", hint)
	}
	return b.String()
}
