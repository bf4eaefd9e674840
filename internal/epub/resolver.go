package epub

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
)

var rootfileExpr = xpath.MustCompile("//*[local-name()='rootfile']")

// Package is the parsed package document (OPF) of an EPUB.
type Package struct {
	Path string         // archive path of the OPF file
	Doc  *xmlquery.Node // parsed OPF tree
}

// Resolve locates container.xml, reads the package document path from its
// first rootfile element and parses that document.
func Resolve(a *Archive) (*Package, error) {
	cpath, ok := a.ContainerPath()
	if !ok {
		return nil, ErrMissingContainer
	}

	data, err := a.ReadBinary(cpath)
	if err != nil {
		return nil, fmt.Errorf("failed to read container.xml: %w", err)
	}

	container, err := parseXML(cpath, data)
	if err != nil {
		return nil, err
	}

	rootfile := xmlquery.QuerySelector(container, rootfileExpr)
	if rootfile == nil {
		return nil, ErrMissingPackageDocument
	}
	opfPath := normalizePath(strings.TrimSpace(rootfile.SelectAttr("full-path")))
	if opfPath == "" {
		return nil, ErrMissingPackageDocument
	}

	opfData, err := a.ReadBinary(opfPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read package document: %w", err)
	}

	doc, err := parseXML(opfPath, opfData)
	if err != nil {
		return nil, err
	}

	return &Package{Path: opfPath, Doc: doc}, nil
}

// parseXML parses an XML entry, tagging failures with ErrMalformedXML.
func parseXML(name string, data []byte) (*xmlquery.Node, error) {
	doc, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w: %w", name, ErrMalformedXML, err)
	}
	return doc, nil
}
