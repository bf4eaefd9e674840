// Package book loads EPUB files into paginated books and drives a
// navigation surface through them.
package book

import (
	"fmt"
	"iter"
	"log/slog"

	"github.com/spf13/afero"

	"github.com/yuanying/epubpager/internal/epub"
	"github.com/yuanying/epubpager/internal/metadata"
	"github.com/yuanying/epubpager/internal/paginator"
)

// Options controls how a book is loaded.
type Options struct {
	// ViewportWidth selects the page size tier. Zero means the widest tier.
	ViewportWidth int
	ChapterBreaks bool
	Logger        *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

// PaginatorConfig returns the pagination settings for these options.
func (o Options) PaginatorConfig() paginator.Config {
	cfg := paginator.Config{WordsPerPage: paginator.LargeWordsPerPage}
	if o.ViewportWidth > 0 {
		cfg = paginator.ConfigForWidth(o.ViewportWidth)
	}
	cfg.ChapterBreaks = o.ChapterBreaks
	return cfg
}

// Book is a paginated EPUB.
type Book struct {
	Pages    []paginator.Page
	Metadata metadata.Metadata
	Config   paginator.Config
	Chapters int // renderable spine items that produced text
}

// Empty reports whether the book has no pages.
func (b *Book) Empty() bool {
	return len(b.Pages) == 0
}

// Load parses an EPUB from memory and paginates its spine. Archive,
// container and package document failures abort the load; unreadable
// chapters are logged and skipped. A book without text is returned with no
// pages and a nil error.
func Load(data []byte, opts Options) (*Book, error) {
	logger := opts.logger()

	a, err := epub.OpenArchive(data)
	if err != nil {
		return nil, err
	}
	pkg, err := epub.Resolve(a)
	if err != nil {
		return nil, err
	}
	opf, err := epub.Index(pkg)
	if err != nil {
		return nil, err
	}

	var (
		chapters []iter.Seq[string]
		first    epub.Chapter
	)
	for ch := range epub.NewExtractor(a, opf, logger).Chapters() {
		if len(chapters) == 0 {
			first = ch
		}
		chapters = append(chapters, ch.Lines())
	}
	firstChapter := func() (epub.Chapter, bool) {
		return first, len(chapters) > 0
	}

	cfg := opts.PaginatorConfig()
	b := &Book{
		Pages:    paginator.Paginate(cfg, chapters...),
		Metadata: metadata.FromPackage(a, pkg, opf, firstChapter),
		Config:   cfg,
		Chapters: len(chapters),
	}
	logger.Debug("book loaded",
		"title", b.Metadata.Title,
		"chapters", b.Chapters,
		"pages", len(b.Pages),
		"words_per_page", cfg.WordsPerPage)
	return b, nil
}

// LoadFile reads path from fs and loads it.
func LoadFile(fs afero.Fs, path string, opts Options) (*Book, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	b, err := Load(data, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return b, nil
}

// ExtractMetadata reads library metadata from raw EPUB bytes. It never
// fails; see metadata.Extract.
func ExtractMetadata(data []byte) metadata.Result {
	return metadata.Extract(data, nil)
}
