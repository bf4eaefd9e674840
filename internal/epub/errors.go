package epub

import "errors"

var (
	ErrMissingContainer       = errors.New("META-INF/container.xml not found")
	ErrMissingPackageDocument = errors.New("package document path not found in container.xml")
	ErrEntryNotFound          = errors.New("entry not found in archive")
	ErrMalformedXML           = errors.New("malformed XML")
	ErrMissingManifest        = errors.New("package document has no manifest")
	ErrMissingSpine           = errors.New("package document has no spine")

	// ErrEmptyBook is reported when a book yields no renderable pages.
	// Navigation treats it as a valid empty state, not a failure.
	ErrEmptyBook = errors.New("book has no renderable text")
)
