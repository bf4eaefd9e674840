// Package epubtest builds small in-memory EPUB archives for tests.
package epubtest

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"
	"testing"
)

// Entry is a single file written into a test archive.
type Entry struct {
	Name string
	Body string
}

// Zip writes entries, in order, into a zip archive. The mimetype entry is
// stored uncompressed as the OCF requires.
func Zip(t testing.TB, entries ...Entry) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, e := range entries {
		method := zip.Deflate
		if e.Name == "mimetype" {
			method = zip.Store
		}
		fw, err := w.CreateHeader(&zip.FileHeader{Name: e.Name, Method: method})
		if err != nil {
			t.Fatalf("failed to create %s: %v", e.Name, err)
		}
		if _, err := fw.Write([]byte(e.Body)); err != nil {
			t.Fatalf("failed to write %s: %v", e.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close zip: %v", err)
	}
	return buf.Bytes()
}

// Mimetype returns the standard mimetype entry.
func Mimetype() Entry {
	return Entry{Name: "mimetype", Body: "application/epub+zip"}
}

// Container returns a container.xml entry pointing at opfPath.
func Container(opfPath string) Entry {
	return Entry{
		Name: "META-INF/container.xml",
		Body: fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="%s" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`, opfPath),
	}
}

// OPF returns a package document with the given metadata, manifest and
// spine inner XML.
func OPF(metadata, manifest, spine string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="2.0" unique-identifier="bookid">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:opf="http://www.idpf.org/2007/opf">
` + metadata + `
  </metadata>
  <manifest>
` + manifest + `
  </manifest>
  <spine toc="ncx">
` + spine + `
  </spine>
</package>`
}

// XHTML wraps body markup in a minimal XHTML document.
func XHTML(title, body string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml">
<head><title>` + title + `</title></head>
<body>
` + body + `
</body>
</html>`
}

// Words returns n space-separated words of the form w1 w2 ... wn.
func Words(n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i+1)
	}
	return strings.Join(words, " ")
}

// Book builds a complete single-chapter EPUB with its package document at
// OEBPS/content.opf and the chapter body at OEBPS/chapter1.xhtml.
func Book(t testing.TB, metadata, chapterBody string) []byte {
	t.Helper()
	return Zip(t,
		Mimetype(),
		Container("OEBPS/content.opf"),
		Entry{Name: "OEBPS/content.opf", Body: OPF(metadata,
			`<item id="chapter1" href="chapter1.xhtml" media-type="application/xhtml+xml"/>`,
			`<itemref idref="chapter1"/>`)},
		Entry{Name: "OEBPS/chapter1.xhtml", Body: XHTML("Chapter 1", chapterBody)},
	)
}
