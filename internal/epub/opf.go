package epub

import (
	"regexp"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
)

var (
	manifestExpr  = xpath.MustCompile("//*[local-name()='manifest']")
	spineExpr     = xpath.MustCompile("//*[local-name()='spine']")
	itemExpr      = xpath.MustCompile("*[local-name()='item']")
	itemrefExpr   = xpath.MustCompile("*[local-name()='itemref']")
	coverMetaExpr = xpath.MustCompile("//*[local-name()='meta'][@name='cover']")

	slashRunRe = regexp.MustCompile(`/{2,}`)
)

// Index builds the manifest and spine records of a package document.
// It fails only when the manifest or spine element is missing entirely.
func Index(pkg *Package) (*OPF, error) {
	manifest := xmlquery.QuerySelector(pkg.Doc, manifestExpr)
	if manifest == nil {
		return nil, ErrMissingManifest
	}
	spine := xmlquery.QuerySelector(pkg.Doc, spineExpr)
	if spine == nil {
		return nil, ErrMissingSpine
	}

	opf := &OPF{
		Manifest: make(map[string]ManifestItem),
		BaseDir:  baseDir(pkg.Path),
	}

	for _, n := range xmlquery.QuerySelectorAll(manifest, itemExpr) {
		id := n.SelectAttr("id")
		if id == "" {
			continue
		}
		item := ManifestItem{
			ID:        id,
			Href:      n.SelectAttr("href"),
			MediaType: n.SelectAttr("media-type"),
		}
		if props := n.SelectAttr("properties"); props != "" {
			item.Properties = strings.Fields(props)
		}
		if _, seen := opf.Manifest[id]; !seen {
			opf.ManifestOrder = append(opf.ManifestOrder, id)
		}
		opf.Manifest[id] = item
	}

	for _, n := range xmlquery.QuerySelectorAll(spine, itemrefExpr) {
		if idref := n.SelectAttr("idref"); idref != "" {
			opf.Spine = append(opf.Spine, idref)
		}
	}

	for _, n := range xmlquery.QuerySelectorAll(pkg.Doc, coverMetaExpr) {
		if content := n.SelectAttr("content"); content != "" {
			opf.CoverID = content
			break
		}
	}

	return opf, nil
}

// ResolveHref joins the package directory and href with a single
// separator. Runs of separators are collapsed; ".." is left alone.
func (opf *OPF) ResolveHref(href string) string {
	if opf.BaseDir == "" {
		return href
	}
	return slashRunRe.ReplaceAllString(opf.BaseDir+"/"+href, "/")
}

// Resolve looks up a manifest item and returns its archive location.
func (opf *OPF) Resolve(id string) (ResolvedResource, bool) {
	item, ok := opf.Manifest[id]
	if !ok {
		return ResolvedResource{}, false
	}
	return ResolvedResource{
		ID:        item.ID,
		Path:      opf.ResolveHref(item.Href),
		MediaType: item.MediaType,
	}, true
}

// baseDir returns the package document path minus its final segment.
func baseDir(opfPath string) string {
	i := strings.LastIndex(opfPath, "/")
	if i < 0 {
		return ""
	}
	return opfPath[:i]
}
