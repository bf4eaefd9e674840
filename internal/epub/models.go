package epub

// OPF holds the manifest and spine of a package document as plain records.
type OPF struct {
	Manifest      map[string]ManifestItem // id -> item
	ManifestOrder []string                // manifest ids in document order
	Spine         []string                // spine idrefs in reading order
	BaseDir       string                  // directory of the package document
	CoverID       string                  // EPUB 2.0 cover image manifest item ID (from meta name="cover")
}

// ManifestItem represents an item in the manifest. Href is kept as written
// in the package document; use OPF.ResolveHref for the archive path.
type ManifestItem struct {
	ID         string
	Href       string
	MediaType  string
	Properties []string
}

// ResolvedResource is a manifest item located inside the archive.
type ResolvedResource struct {
	ID        string
	Path      string
	MediaType string
}
