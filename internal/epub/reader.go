package epub

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"
)

// containerPath is the well-known location of container.xml.
const containerPath = "META-INF/container.xml"

// Archive provides access to the entries of an in-memory EPUB archive.
type Archive struct {
	files map[string]*zip.File
}

// OpenArchive opens raw EPUB bytes as a zip archive.
func OpenArchive(data []byte) (*Archive, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open EPUB: %w", err)
	}

	a := &Archive{files: make(map[string]*zip.File, len(zr.File))}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		a.files[normalizePath(f.Name)] = f
	}
	return a, nil
}

// Paths returns the sorted entry paths of the archive.
func (a *Archive) Paths() []string {
	paths := make([]string, 0, len(a.files))
	for p := range a.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Has reports whether the archive contains an entry at path.
func (a *Archive) Has(path string) bool {
	_, ok := a.files[normalizePath(path)]
	return ok
}

// ContainerPath returns the entry path of container.xml, matched
// case-insensitively.
func (a *Archive) ContainerPath() (string, bool) {
	if _, ok := a.files[containerPath]; ok {
		return containerPath, true
	}
	for _, p := range a.Paths() {
		if strings.EqualFold(p, containerPath) {
			return p, true
		}
	}
	return "", false
}

// ReadBinary reads the contents of an entry. Lookup is case-sensitive.
func (a *Archive) ReadBinary(path string) ([]byte, error) {
	path = normalizePath(path)
	f, ok := a.files[path]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrEntryNotFound)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer rc.Close()

	return io.ReadAll(rc)
}

// ReadText reads an entry as a string.
func (a *Archive) ReadText(path string) (string, error) {
	data, err := a.ReadBinary(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// normalizePath normalizes file paths (removes ./ prefix)
func normalizePath(path string) string {
	return strings.TrimPrefix(path, "./")
}
