// Package paginator re-chunks the word stream of a book into fixed-size
// pages.
package paginator

import (
	"iter"
	"strings"
)

// Viewport width tiers and their page sizes.
const (
	SmallViewportWidth  = 480
	MediumViewportWidth = 768

	SmallWordsPerPage  = 250
	MediumWordsPerPage = 400
	LargeWordsPerPage  = 500
)

// Config controls how words are grouped into pages.
type Config struct {
	WordsPerPage int
	// ChapterBreaks flushes the word buffer at the end of every chapter
	// instead of letting a page run across chapters.
	ChapterBreaks bool
}

// ConfigForWidth derives the page size from the viewport width at load time.
func ConfigForWidth(width int) Config {
	switch {
	case width <= SmallViewportWidth:
		return Config{WordsPerPage: SmallWordsPerPage}
	case width <= MediumViewportWidth:
		return Config{WordsPerPage: MediumWordsPerPage}
	default:
		return Config{WordsPerPage: LargeWordsPerPage}
	}
}

// Page is one rendered page of text.
type Page struct {
	Index int
	Text  string
	Words int
}

// Paginator accumulates words and emits a page each time the buffer fills.
type Paginator struct {
	cfg   Config
	buf   []string
	pages []Page
}

// New creates a paginator. A non-positive page size falls back to the
// large viewport size.
func New(cfg Config) *Paginator {
	if cfg.WordsPerPage <= 0 {
		cfg.WordsPerPage = LargeWordsPerPage
	}
	return &Paginator{
		cfg: cfg,
		buf: make([]string, 0, cfg.WordsPerPage),
	}
}

// AddLine splits a line on single spaces and appends its words.
func (p *Paginator) AddLine(line string) {
	for _, word := range strings.Split(line, " ") {
		if word == "" {
			continue
		}
		p.buf = append(p.buf, word)
		if len(p.buf) >= p.cfg.WordsPerPage {
			p.flush()
		}
	}
}

// EndChapter marks a chapter boundary.
func (p *Paginator) EndChapter() {
	if p.cfg.ChapterBreaks {
		p.flush()
	}
}

// Pages flushes any partial page and returns the page sequence.
func (p *Paginator) Pages() []Page {
	p.flush()
	return p.pages
}

func (p *Paginator) flush() {
	if len(p.buf) == 0 {
		return
	}
	p.pages = append(p.pages, Page{
		Index: len(p.pages),
		Text:  strings.Join(p.buf, " "),
		Words: len(p.buf),
	})
	p.buf = p.buf[:0]
}

// Paginate paginates chapters given as line sequences, in order.
func Paginate(cfg Config, chapters ...iter.Seq[string]) []Page {
	p := New(cfg)
	for _, lines := range chapters {
		for line := range lines {
			p.AddLine(line)
		}
		p.EndChapter()
	}
	return p.Pages()
}
