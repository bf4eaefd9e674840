package book

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/spf13/afero"

	"github.com/yuanying/epubpager/internal/epub"
	"github.com/yuanying/epubpager/internal/epubtest"
	"github.com/yuanying/epubpager/internal/metadata"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func twoChapterBook(t *testing.T, first, second string) []byte {
	t.Helper()
	return epubtest.Zip(t,
		epubtest.Mimetype(),
		epubtest.Container("OEBPS/content.opf"),
		epubtest.Entry{Name: "OEBPS/content.opf", Body: epubtest.OPF(
			`<dc:title>Two</dc:title><dc:creator>A. Writer</dc:creator>`,
			`<item id="c1" href="c1.xhtml" media-type="application/xhtml+xml"/>
<item id="c2" href="c2.xhtml" media-type="application/xhtml+xml"/>`,
			`<itemref idref="c1"/><itemref idref="c2"/>`)},
		epubtest.Entry{Name: "OEBPS/c1.xhtml", Body: epubtest.XHTML("1", "<p>"+first+"</p>")},
		epubtest.Entry{Name: "OEBPS/c2.xhtml", Body: epubtest.XHTML("2", "<p>"+second+"</p>")},
	)
}

func TestLoad_1200Words(t *testing.T) {
	data := epubtest.Book(t, `<dc:title>Long</dc:title>`, "<p>"+epubtest.Words(1200)+"</p>")

	b, err := Load(data, Options{ViewportWidth: 1024, Logger: quiet})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	var sizes []int
	for _, p := range b.Pages {
		sizes = append(sizes, p.Words)
	}
	if len(sizes) != 3 || sizes[0] != 500 || sizes[1] != 500 || sizes[2] != 200 {
		t.Fatalf("page sizes = %v, want [500 500 200]", sizes)
	}
	if !strings.HasPrefix(b.Pages[0].Text, "w1 w2 ") || !strings.HasSuffix(b.Pages[2].Text, " w1200") {
		t.Errorf("pages do not preserve word order")
	}
	if b.Metadata.Title != "Long" {
		t.Errorf("Title = %q", b.Metadata.Title)
	}
	if b.Chapters != 1 {
		t.Errorf("Chapters = %d, want 1", b.Chapters)
	}
}

func TestLoad_ViewportTiers(t *testing.T) {
	data := epubtest.Book(t, "", "<p>"+epubtest.Words(1000)+"</p>")

	tests := []struct {
		width int
		pages int
	}{
		{320, 4},  // 250 words per page
		{600, 3},  // 400
		{1200, 2}, // 500
		{0, 2},
	}
	for _, tt := range tests {
		b, err := Load(data, Options{ViewportWidth: tt.width, Logger: quiet})
		if err != nil {
			t.Fatalf("Load(width=%d) error = %v", tt.width, err)
		}
		if len(b.Pages) != tt.pages {
			t.Errorf("width %d: %d pages, want %d", tt.width, len(b.Pages), tt.pages)
		}
	}
}

func TestLoad_SpansChapters(t *testing.T) {
	data := twoChapterBook(t, epubtest.Words(300), epubtest.Words(300))

	b, err := Load(data, Options{ViewportWidth: 1000, Logger: quiet})
	if err != nil {
		t.Fatal(err)
	}
	if len(b.Pages) != 2 || b.Pages[0].Words != 500 || b.Pages[1].Words != 100 {
		t.Errorf("pages = %d (%v), want 500+100", len(b.Pages), b.Pages)
	}

	b, err = Load(data, Options{ViewportWidth: 1000, ChapterBreaks: true, Logger: quiet})
	if err != nil {
		t.Fatal(err)
	}
	if len(b.Pages) != 2 || b.Pages[0].Words != 300 || b.Pages[1].Words != 300 {
		t.Errorf("chapter-break pages = %v, want 300+300", b.Pages)
	}
}

func TestLoad_Deterministic(t *testing.T) {
	data := twoChapterBook(t, epubtest.Words(420), "tail words here")

	a, err := Load(data, Options{ViewportWidth: 500, Logger: quiet})
	if err != nil {
		t.Fatal(err)
	}
	b, err := Load(data, Options{ViewportWidth: 500, Logger: quiet})
	if err != nil {
		t.Fatal(err)
	}
	if len(a.Pages) != len(b.Pages) {
		t.Fatalf("page counts differ: %d vs %d", len(a.Pages), len(b.Pages))
	}
	for i := range a.Pages {
		if a.Pages[i] != b.Pages[i] {
			t.Errorf("page %d differs", i)
		}
	}
}

func TestLoad_EmptyBook(t *testing.T) {
	data := epubtest.Book(t, "", "")

	b, err := Load(data, Options{Logger: quiet})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !b.Empty() {
		t.Errorf("Empty() = false, pages = %v", b.Pages)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"missing container", epubtest.Zip(t, epubtest.Mimetype()), epub.ErrMissingContainer},
		{"missing package", epubtest.Zip(t, epubtest.Container("nope.opf")), epub.ErrEntryNotFound},
		{"malformed package", epubtest.Zip(t, epubtest.Container("a.opf"), epubtest.Entry{Name: "a.opf", Body: "<package><manifest></package>"}), epub.ErrMalformedXML},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.data, Options{Logger: quiet})
			if !errors.Is(err, tt.want) {
				t.Errorf("Load() error = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := Load([]byte("not a zip"), Options{Logger: quiet}); err == nil {
		t.Error("Load(garbage) error = nil")
	}
}

func TestLoadFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	data := epubtest.Book(t, `<dc:title>On Disk</dc:title>`, "<p>hello world</p>")
	if err := afero.WriteFile(fs, "/books/a.epub", data, 0o644); err != nil {
		t.Fatal(err)
	}

	b, err := LoadFile(fs, "/books/a.epub", Options{Logger: quiet})
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if b.Metadata.Title != "On Disk" || len(b.Pages) != 1 || b.Pages[0].Text != "hello world" {
		t.Errorf("book = %+v", b)
	}

	if _, err := LoadFile(fs, "/books/missing.epub", Options{Logger: quiet}); err == nil {
		t.Error("LoadFile(missing) error = nil")
	}
}

func TestLoad_BrokenChapterReadOnce(t *testing.T) {
	data := epubtest.Zip(t,
		epubtest.Mimetype(),
		epubtest.Container("OEBPS/content.opf"),
		epubtest.Entry{Name: "OEBPS/content.opf", Body: epubtest.OPF(
			`<dc:title>Gaps</dc:title>`,
			`<item id="gone" href="gone.xhtml" media-type="application/xhtml+xml"/>
<item id="c1" href="c1.xhtml" media-type="application/xhtml+xml"/>`,
			`<itemref idref="gone"/><itemref idref="c1"/>`)},
		epubtest.Entry{Name: "OEBPS/c1.xhtml", Body: epubtest.XHTML("1", "<p>First readable words.</p>")},
	)

	var logs bytes.Buffer
	b, err := Load(data, Options{Logger: slog.New(slog.NewTextHandler(&logs, nil))})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if b.Chapters != 1 || len(b.Pages) != 1 {
		t.Errorf("chapters = %d, pages = %d, want 1, 1", b.Chapters, len(b.Pages))
	}
	if b.Metadata.Description != "First readable words...." {
		t.Errorf("Description = %q", b.Metadata.Description)
	}
	if n := strings.Count(logs.String(), "failed to extract spine item"); n != 1 {
		t.Errorf("broken item logged %d times, want 1:\n%s", n, logs.String())
	}
}

func TestExtractMetadata(t *testing.T) {
	res := ExtractMetadata(epubtest.Book(t, `<dc:title>Meta</dc:title>`, "<p>x</p>"))
	if !res.OK() || res.Title != "Meta" {
		t.Errorf("ExtractMetadata() = %+v", res)
	}

	res = ExtractMetadata([]byte("junk"))
	if res.Status != metadata.StatusFallback || res.Title != metadata.ErrorTitle {
		t.Errorf("ExtractMetadata(junk) = %+v", res)
	}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := imaging.New(w, h, color.NRGBA{R: 200, G: 40, B: 40, A: 255})
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func coverBook(t *testing.T, meta, manifest string, img []byte) []byte {
	t.Helper()
	return epubtest.Zip(t,
		epubtest.Mimetype(),
		epubtest.Container("OEBPS/content.opf"),
		epubtest.Entry{Name: "OEBPS/content.opf", Body: epubtest.OPF(meta, manifest, ``)},
		epubtest.Entry{Name: "OEBPS/images/cover.png", Body: string(img)},
	)
}

func TestExtractCoverImage(t *testing.T) {
	data := coverBook(t,
		`<meta name="cover" content="cov"/>`,
		`<item id="cov" href="images/cover.png" media-type="image/png"/>`,
		pngBytes(t, 800, 1200))

	c, err := ExtractCoverImage(data)
	if err != nil {
		t.Fatalf("ExtractCoverImage() error = %v", err)
	}
	if c == nil {
		t.Fatal("ExtractCoverImage() = nil")
	}
	if c.Path != "OEBPS/images/cover.png" || c.MediaType != "image/png" || c.DetectionMethod != "meta" {
		t.Errorf("cover = %+v", c)
	}
	if b := c.Image.Bounds(); b.Dx() != 800 || b.Dy() != 1200 {
		t.Errorf("bounds = %v", b)
	}

	thumb, err := c.Thumbnail(200)
	if err != nil {
		t.Fatalf("Thumbnail() error = %v", err)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(thumb))
	if err != nil {
		t.Fatalf("thumbnail does not decode: %v", err)
	}
	if format != "jpeg" || cfg.Width != 200 || cfg.Height != 300 {
		t.Errorf("thumbnail = %s %dx%d, want jpeg 200x300", format, cfg.Width, cfg.Height)
	}

	full, err := c.Thumbnail(0)
	if err != nil {
		t.Fatal(err)
	}
	if cfg, _, _ := image.DecodeConfig(bytes.NewReader(full)); cfg.Width != 800 {
		t.Errorf("Thumbnail(0) width = %d, want 800", cfg.Width)
	}
}

func TestExtractCoverImage_IDFallback(t *testing.T) {
	data := coverBook(t, ``,
		`<item id="cover-image" href="images/cover.png" media-type="image/png"/>`,
		pngBytes(t, 10, 10))

	c, err := ExtractCoverImage(data)
	if err != nil || c == nil {
		t.Fatalf("ExtractCoverImage() = %v, %v", c, err)
	}
	if c.DetectionMethod != "id" {
		t.Errorf("DetectionMethod = %q, want id", c.DetectionMethod)
	}
}

// coverPageBook is an EPUB 2.0 style book whose only cover item is an XHTML
// page.
func coverPageBook(t *testing.T, page string, img []byte) []byte {
	t.Helper()
	return epubtest.Zip(t,
		epubtest.Mimetype(),
		epubtest.Container("OEBPS/content.opf"),
		epubtest.Entry{Name: "OEBPS/content.opf", Body: epubtest.OPF(``,
			`<item id="cover" href="cover.xhtml" media-type="application/xhtml+xml"/>
<item id="c1" href="text/c1.xhtml" media-type="application/xhtml+xml"/>`,
			`<itemref idref="cover"/><itemref idref="c1"/>`)},
		epubtest.Entry{Name: "OEBPS/cover.xhtml", Body: epubtest.XHTML("Cover", page)},
		epubtest.Entry{Name: "OEBPS/text/c1.xhtml", Body: epubtest.XHTML("1", "<p>Chapter text.</p>")},
		epubtest.Entry{Name: "OEBPS/images/cover.png", Body: string(img)},
	)
}

func TestExtractCoverImage_CoverPage(t *testing.T) {
	data := coverPageBook(t, `<div><img src="images/cover.png" alt=""/></div>`, pngBytes(t, 60, 90))

	c, err := ExtractCoverImage(data)
	if err != nil {
		t.Fatalf("ExtractCoverImage() error = %v", err)
	}
	if c == nil {
		t.Fatal("ExtractCoverImage() = nil, want the image shown by the cover page")
	}
	if c.Path != "OEBPS/images/cover.png" || c.MediaType != "image/png" || c.DetectionMethod != "id-xhtml-first-img" {
		t.Errorf("cover = %+v", c)
	}
	if b := c.Image.Bounds(); b.Dx() != 60 || b.Dy() != 90 {
		t.Errorf("bounds = %v", b)
	}

	if got := ExtractMetadata(data).CoverImagePath; got != "OEBPS/images/cover.png" {
		t.Errorf("CoverImagePath = %q, want the image, not the page", got)
	}
}

func TestExtractCoverImage_CoverPageWithoutImage(t *testing.T) {
	data := coverPageBook(t, `<h1>A Title</h1>`, pngBytes(t, 10, 10))

	c, err := ExtractCoverImage(data)
	if err != nil || c != nil {
		t.Errorf("ExtractCoverImage() = %v, %v, want nil, nil", c, err)
	}
	if got := ExtractMetadata(data).CoverImagePath; got != "" {
		t.Errorf("CoverImagePath = %q, want empty", got)
	}
}

func TestExtractCoverImage_None(t *testing.T) {
	c, err := ExtractCoverImage(epubtest.Book(t, "", "<p>x</p>"))
	if err != nil || c != nil {
		t.Errorf("ExtractCoverImage() = %v, %v, want nil, nil", c, err)
	}
}

func TestExtractCoverImage_Broken(t *testing.T) {
	missing := coverBook(t, `<meta name="cover" content="cov"/>`,
		`<item id="cov" href="images/gone.png" media-type="image/png"/>`, nil)
	if _, err := ExtractCoverImage(missing); !errors.Is(err, epub.ErrEntryNotFound) {
		t.Errorf("missing cover error = %v, want ErrEntryNotFound", err)
	}

	corrupt := coverBook(t, `<meta name="cover" content="cov"/>`,
		`<item id="cov" href="images/cover.png" media-type="image/png"/>`, []byte("not an image"))
	if _, err := ExtractCoverImage(corrupt); err == nil {
		t.Error("corrupt cover error = nil")
	}
}
