package epub

import (
	"bytes"
	"fmt"
	"iter"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
)

// Content represents a parsed XHTML content file
type Content struct {
	ID       string            // Manifest ID
	Path     string            // File path
	Document *goquery.Document // Parsed HTML document
}

// LoadContent loads and parses an XHTML content file
// id: manifest item ID
// path: file path within EPUB
// content: XHTML file content, in any charset the document declares
func LoadContent(id, path string, content []byte) (*Content, error) {
	r, err := charset.NewReader(bytes.NewReader(content), "text/html")
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse XHTML: %w", err)
	}

	return &Content{
		ID:       id,
		Path:     path,
		Document: doc,
	}, nil
}

// BodyText returns the text content of the document body.
func (c *Content) BodyText() string {
	return c.Document.Find("body").First().Text()
}

// FirstImage returns the reference of the first image in the document: the
// src of an img element or the href of an SVG image element.
func (c *Content) FirstImage() (string, bool) {
	var ref string
	c.Document.Find("img, image").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if goquery.NodeName(s) == "img" {
			ref, _ = s.Attr("src")
		} else {
			// xlink:href is parsed into the xlink namespace with key href.
			ref, _ = s.Attr("href")
		}
		ref = strings.TrimSpace(ref)
		return ref == ""
	})
	return ref, ref != ""
}

// Chapter is the extracted text of one renderable spine item.
type Chapter struct {
	ID   string
	Path string
	Text string
}

// Lines yields the non-empty trimmed lines of the chapter text. The
// sequence can be ranged over more than once.
func (ch Chapter) Lines() iter.Seq[string] {
	return func(yield func(string) bool) {
		rest := ch.Text
		for rest != "" {
			line, tail, _ := strings.Cut(rest, "\n")
			rest = tail
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if !yield(line) {
				return
			}
		}
	}
}

// PlainText returns the chapter text with all whitespace collapsed.
func (ch Chapter) PlainText() string {
	return strings.Join(strings.Fields(ch.Text), " ")
}

// IsRenderable reports whether a manifest item is an HTML content document,
// judged by its media type or, failing that, by its path extension.
func IsRenderable(mediaType, path string) bool {
	if strings.Contains(strings.ToLower(mediaType), "html") {
		return true
	}
	return looksLikeXHTML(path)
}

func looksLikeXHTML(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".xhtml") || strings.HasSuffix(lower, ".html") || strings.HasSuffix(lower, ".htm")
}

// Extractor walks the spine and extracts the text of renderable items.
type Extractor struct {
	archive *Archive
	opf     *OPF
	logger  *slog.Logger
}

// NewExtractor creates an extractor. A nil logger means slog.Default().
func NewExtractor(a *Archive, opf *OPF, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{archive: a, opf: opf, logger: logger}
}

// Chapters yields renderable spine items in spine order. Dangling spine ids
// and non-HTML items are skipped; items that cannot be read or parsed are
// logged and skipped so one broken chapter does not lose the whole book.
func (e *Extractor) Chapters() iter.Seq[Chapter] {
	return func(yield func(Chapter) bool) {
		for _, id := range e.opf.Spine {
			res, ok := e.opf.Resolve(id)
			if !ok {
				e.logger.Debug("spine item not found in manifest, skipping", "idref", id)
				continue
			}
			if !IsRenderable(res.MediaType, res.Path) {
				e.logger.Debug("spine item is not a content document, skipping", "idref", id, "media_type", res.MediaType)
				continue
			}

			ch, err := e.extract(res)
			if err != nil {
				e.logger.Warn("failed to extract spine item, skipping", "idref", id, "path", res.Path, "error", err)
				continue
			}
			if !yield(ch) {
				return
			}
		}
	}
}

// FirstChapter returns the first renderable spine item, if any.
func (e *Extractor) FirstChapter() (Chapter, bool) {
	for ch := range e.Chapters() {
		return ch, true
	}
	return Chapter{}, false
}

func (e *Extractor) extract(res ResolvedResource) (Chapter, error) {
	data, err := e.archive.ReadBinary(res.Path)
	if err != nil {
		return Chapter{}, err
	}
	content, err := LoadContent(res.ID, res.Path, data)
	if err != nil {
		return Chapter{}, err
	}
	return Chapter{
		ID:   res.ID,
		Path: res.Path,
		Text: content.BodyText(),
	}, nil
}
