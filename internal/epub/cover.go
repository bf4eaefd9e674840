package epub

import (
	"mime"
	"net/url"
	"path"
	"strings"
)

// CoverInfo holds information about the detected cover image.
type CoverInfo struct {
	ManifestID      string
	Path            string // archive path, resolved against the package directory
	MediaType       string
	DetectionMethod string // "meta", "properties", "id"; "-xhtml-first-img" is appended when taken from a cover page
}

// DetectCover detects the cover image from the OPF manifest.
// Methods are tried in priority order:
//  1. meta name="cover" (EPUB 2.0)
//  2. properties="cover-image" (EPUB 3.0)
//  3. first manifest item whose id contains "cover" (case-insensitive),
//     image items first
//
// Returns nil if no cover image is found.
func (opf *OPF) DetectCover() *CoverInfo {
	// Method 1: EPUB 2.0 - check for meta name="cover"
	if opf.CoverID != "" {
		if item, ok := opf.Manifest[opf.CoverID]; ok {
			return opf.coverInfo(item, "meta")
		}
	}

	// Method 2: EPUB 3.0 - check for cover-image property
	for _, id := range opf.ManifestOrder {
		item := opf.Manifest[id]
		for _, prop := range item.Properties {
			if prop == "cover-image" {
				return opf.coverInfo(item, "properties")
			}
		}
	}

	// Method 3: id pattern
	var fallback *ManifestItem
	for _, id := range opf.ManifestOrder {
		if !strings.Contains(strings.ToLower(id), "cover") {
			continue
		}
		item := opf.Manifest[id]
		if isImageMediaType(item.MediaType) {
			return opf.coverInfo(item, "id")
		}
		if fallback == nil {
			fallback = &item
		}
	}
	if fallback != nil {
		return opf.coverInfo(*fallback, "id")
	}

	return nil
}

// ResolveCoverImage returns the cover image of the book. When the detected
// cover is an XHTML page, as in many EPUB 2.0 books, the first image shown
// by that page is used instead. Returns nil if no image can be found.
func (opf *OPF) ResolveCoverImage(a *Archive) *CoverInfo {
	info := opf.DetectCover()
	if info == nil {
		return nil
	}
	if isImageMediaType(info.MediaType) {
		return info
	}
	if !IsRenderable(info.MediaType, info.Path) {
		return nil
	}

	data, err := a.ReadBinary(info.Path)
	if err != nil {
		return nil
	}
	content, err := LoadContent(info.ManifestID, info.Path, data)
	if err != nil {
		return nil
	}
	ref, ok := content.FirstImage()
	if !ok {
		return nil
	}
	target, ok := resolveRef(info.Path, ref)
	if !ok || !a.Has(target) {
		return nil
	}

	img := &CoverInfo{
		Path:            target,
		MediaType:       mime.TypeByExtension(strings.ToLower(path.Ext(target))),
		DetectionMethod: info.DetectionMethod + "-xhtml-first-img",
	}
	if item, ok := opf.itemByPath(target); ok {
		img.ManifestID = item.ID
		if item.MediaType != "" {
			img.MediaType = item.MediaType
		}
	}
	if !isImageMediaType(img.MediaType) {
		return nil
	}
	return img
}

// FindCoverImage returns the archive path of the cover image.
// This is a convenience wrapper around ResolveCoverImage.
func (opf *OPF) FindCoverImage(a *Archive) (string, bool) {
	if c := opf.ResolveCoverImage(a); c != nil {
		return c.Path, true
	}
	return "", false
}

func (opf *OPF) itemByPath(p string) (ManifestItem, bool) {
	for _, id := range opf.ManifestOrder {
		item := opf.Manifest[id]
		if path.Clean(opf.ResolveHref(item.Href)) == p {
			return item, true
		}
	}
	return ManifestItem{}, false
}

// resolveRef resolves an image reference found in the document at docPath
// to an archive path.
func resolveRef(docPath, ref string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil || u.Scheme != "" || u.Host != "" || u.Path == "" {
		return "", false
	}
	if strings.HasPrefix(u.Path, "/") {
		return strings.TrimPrefix(path.Clean(u.Path), "/"), true
	}
	p := path.Join(path.Dir(docPath), u.Path)
	if p == ".." || strings.HasPrefix(p, "../") {
		return "", false
	}
	return p, true
}

func (opf *OPF) coverInfo(item ManifestItem, method string) *CoverInfo {
	return &CoverInfo{
		ManifestID:      item.ID,
		Path:            opf.ResolveHref(item.Href),
		MediaType:       item.MediaType,
		DetectionMethod: method,
	}
}

// isImageMediaType checks if a media type is an image type.
func isImageMediaType(mediaType string) bool {
	return strings.HasPrefix(strings.ToLower(mediaType), "image/")
}
