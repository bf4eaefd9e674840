package book

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/yuanying/epubpager/internal/navigation"
	"github.com/yuanying/epubpager/internal/paginator"
)

// ErrStaleLoad is returned when a load finishes after a newer one started.
var ErrStaleLoad = errors.New("load superseded by a newer one")

// Surface renders a loaded book.
type Surface interface {
	navigation.Surface
	// SetPages replaces every rendered page.
	SetPages(pages []paginator.Page)
	// ViewportWidth reports the current display width.
	ViewportWidth() int
}

// Session owns the currently loaded book and its navigator. Each load is
// stamped with a generation id; only the newest generation may replace the
// book, and a failed load leaves the previous book in place.
type Session struct {
	mu         sync.Mutex
	surface    Surface
	nav        *navigation.Navigator
	opts       Options
	generation string
	book       *Book
}

// NewSession creates an idle session rendering to surface.
func NewSession(surface Surface, opts Options, navOpts ...navigation.Option) *Session {
	navOpts = append([]navigation.Option{navigation.WithLogger(opts.logger())}, navOpts...)
	return &Session{
		surface: surface,
		nav:     navigation.New(surface, navOpts...),
		opts:    opts,
	}
}

// Navigator returns the session's navigator.
func (s *Session) Navigator() *navigation.Navigator {
	return s.nav
}

// Book returns the current book, or nil before the first successful load.
func (s *Session) Book() *Book {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.book
}

// Generation returns the id of the most recently started load.
func (s *Session) Generation() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// Open loads data and, on success, shows its first page.
func (s *Session) Open(data []byte) (*Book, error) {
	gen, opts := s.begin()
	b, err := Load(data, opts)
	if err := s.commit(gen, b, err); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Session) begin() (string, Options) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation = uuid.NewString()
	opts := s.opts
	if opts.ViewportWidth <= 0 {
		opts.ViewportWidth = s.surface.ViewportWidth()
	}
	s.opts.logger().Debug("load started", "generation", s.generation, "viewport_width", opts.ViewportWidth)
	return s.generation, opts
}

func (s *Session) commit(gen string, b *Book, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	logger := s.opts.logger()
	if gen != s.generation {
		logger.Debug("discarding stale load", "generation", gen, "current", s.generation)
		return ErrStaleLoad
	}
	if err != nil {
		logger.Error("failed to load book", "generation", gen, "error", err)
		return err
	}

	s.book = b
	s.surface.SetPages(b.Pages)
	s.nav.Load(len(b.Pages))
	return nil
}
