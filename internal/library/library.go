// Package library lists the EPUB books found under a directory.
package library

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/gosimple/slug"
	"github.com/spf13/afero"

	"github.com/yuanying/epubpager/internal/metadata"
)

// Pattern matches book files relative to the library root.
const Pattern = "**/*.epub"

// Entry is one book of the library.
type Entry struct {
	Slug     string
	Path     string // path as passed to the file system
	Metadata metadata.Metadata
	Status   metadata.Status
	Err      error // cause of a fallback record
}

// Scan walks root and extracts the metadata of every book matching
// Pattern. Books that cannot be read are listed with the error record
// rather than dropped. Slugs are unique within one scan.
func Scan(fs afero.Fs, root string, logger *slog.Logger) ([]Entry, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var entries []Entry
	seen := make(map[string]int)

	err := afero.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			logger.Warn("failed to access path, skipping", "path", path, "error", err)
			return nil
		}
		if info.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		ok, err := doublestar.Match(Pattern, filepath.ToSlash(strings.ToLower(rel)))
		if err != nil || !ok {
			return nil
		}

		entry := Entry{Path: path}
		data, err := afero.ReadFile(fs, path)
		if err != nil {
			logger.Warn("failed to read book", "path", path, "error", err)
			entry.Metadata = metadata.ErrorRecord()
			entry.Status = metadata.StatusFallback
			entry.Err = err
		} else {
			res := metadata.Extract(data, logger.With("path", path))
			entry.Metadata = res.Metadata
			entry.Status = res.Status
			entry.Err = res.Err
		}

		entry.Slug = uniqueSlug(seen, slugFor(entry, rel))
		entries = append(entries, entry)
		logger.Debug("book indexed", "path", path, "slug", entry.Slug, "status", entry.Status)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}
	return entries, nil
}

// Find returns the entry with the given slug.
func Find(entries []Entry, s string) (Entry, bool) {
	for _, e := range entries {
		if e.Slug == s {
			return e, true
		}
	}
	return Entry{}, false
}

func slugFor(e Entry, rel string) string {
	if e.Status == metadata.StatusOK && e.Metadata.Title != metadata.DefaultTitle {
		if s := slug.Make(e.Metadata.Title); s != "" {
			return s
		}
	}
	base := filepath.Base(rel)
	return slug.Make(strings.TrimSuffix(base, filepath.Ext(base)))
}

func uniqueSlug(seen map[string]int, s string) string {
	if s == "" {
		s = "book"
	}
	seen[s]++
	if n := seen[s]; n > 1 {
		return fmt.Sprintf("%s-%d", s, n)
	}
	return s
}
