// Package metadata extracts library metadata (title, author, description,
// cover) from an EPUB package document.
package metadata

import (
	"html"
	"log/slog"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
	"github.com/microcosm-cc/bluemonday"

	"github.com/yuanying/epubpager/internal/epub"
)

// Placeholders for absent fields.
const (
	DefaultTitle  = "Untitled"
	DefaultAuthor = "Unknown"
	ErrorTitle    = "Error reading EPUB"
)

const (
	excerptRunes = 500
	ellipsis     = "..."
)

// Metadata describes a book for the library view.
type Metadata struct {
	Title          string `json:"title"`
	Author         string `json:"author"`
	Description    string `json:"description"`
	Language       string `json:"language"`
	Rights         string `json:"rights"`
	Date           string `json:"date"`
	CoverImagePath string `json:"cover_image_path"`
}

// ErrorRecord is the placeholder returned when a book cannot be read.
func ErrorRecord() Metadata {
	return Metadata{
		Title:  ErrorTitle,
		Author: DefaultAuthor,
	}
}

// Status tags how a Result was produced.
type Status int

const (
	StatusOK       Status = iota // read from the package document
	StatusFallback               // the book could not be read; Metadata is ErrorRecord
)

func (s Status) String() string {
	if s == StatusOK {
		return "ok"
	}
	return "fallback"
}

// Result is the outcome of a best-effort extraction.
type Result struct {
	Metadata
	Status Status
	Err    error // cause of a fallback; nil when Status is StatusOK
}

// OK reports whether the metadata was read from the book.
func (r Result) OK() bool {
	return r.Status == StatusOK
}

var (
	titleExpr       = fieldExpr("title")
	creatorExpr     = fieldExpr("creator")
	descriptionExpr = fieldExpr("description")
	languageExpr    = fieldExpr("language")
	rightsExpr      = fieldExpr("rights")
	dateExpr        = fieldExpr("date")

	strictPolicy = bluemonday.StrictPolicy()
)

// fieldExpr matches a metadata child by local name, so dc:title and a bare
// title both match.
func fieldExpr(name string) *xpath.Expr {
	return xpath.MustCompile("//*[local-name()='metadata']//*[local-name()='" + name + "']")
}

// Extract reads metadata from raw EPUB bytes. It never fails: a book that
// cannot be opened yields ErrorRecord with StatusFallback and the cause.
func Extract(data []byte, logger *slog.Logger) Result {
	if logger == nil {
		logger = slog.Default()
	}

	a, err := epub.OpenArchive(data)
	if err != nil {
		return fallback(logger, err)
	}
	pkg, err := epub.Resolve(a)
	if err != nil {
		return fallback(logger, err)
	}
	opf, err := epub.Index(pkg)
	if err != nil {
		logger.Debug("package document has no manifest or spine", "error", err)
		opf = &epub.OPF{Manifest: map[string]epub.ManifestItem{}}
	}

	return Result{Metadata: FromPackage(a, pkg, opf, epub.NewExtractor(a, opf, logger).FirstChapter)}
}

func fallback(logger *slog.Logger, err error) Result {
	logger.Warn("failed to extract EPUB metadata", "error", err)
	return Result{
		Metadata: ErrorRecord(),
		Status:   StatusFallback,
		Err:      err,
	}
}

// FromPackage extracts metadata from an already resolved package.
// firstChapter supplies the description fallback and is only called when
// the package has no description.
func FromPackage(a *epub.Archive, pkg *epub.Package, opf *epub.OPF, firstChapter func() (epub.Chapter, bool)) Metadata {
	md := Metadata{
		Title:       orDefault(text(pkg.Doc, titleExpr), DefaultTitle),
		Author:      orDefault(text(pkg.Doc, creatorExpr), DefaultAuthor),
		Description: StripMarkup(text(pkg.Doc, descriptionExpr)),
		Language:    text(pkg.Doc, languageExpr),
		Rights:      text(pkg.Doc, rightsExpr),
		Date:        text(pkg.Doc, dateExpr),
	}

	if path, ok := opf.FindCoverImage(a); ok {
		md.CoverImagePath = path
	}

	if md.Description == "" && firstChapter != nil {
		if ch, ok := firstChapter(); ok {
			md.Description = Excerpt(ch.PlainText())
		}
	}

	return md
}

// StripMarkup removes any markup from s and collapses whitespace.
func StripMarkup(s string) string {
	if s == "" {
		return ""
	}
	plain := html.UnescapeString(strictPolicy.Sanitize(s))
	return strings.Join(strings.Fields(plain), " ")
}

// Excerpt returns the first 500 characters of text followed by an ellipsis.
// Empty text stays empty.
func Excerpt(text string) string {
	if text == "" {
		return ""
	}
	runes := []rune(text)
	if len(runes) > excerptRunes {
		runes = runes[:excerptRunes]
	}
	return string(runes) + ellipsis
}

func text(doc *xmlquery.Node, expr *xpath.Expr) string {
	n := xmlquery.QuerySelector(doc, expr)
	if n == nil {
		return ""
	}
	return strings.TrimSpace(n.InnerText())
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
