package book

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/yuanying/epubpager/internal/epub"
)

const (
	coverJPEGQuality = 90
	maxCoverPixels   = 100 * 1000 * 1000
)

// Cover is a decoded cover image.
type Cover struct {
	Path            string // archive path
	MediaType       string
	DetectionMethod string
	Data            []byte // raw bytes as stored in the archive
	Image           image.Image
}

// ExtractCoverImage locates and decodes the cover image of an EPUB. It
// returns a nil Cover and a nil error when the book has no cover image,
// including a cover page that shows no image.
func ExtractCoverImage(data []byte) (*Cover, error) {
	a, err := epub.OpenArchive(data)
	if err != nil {
		return nil, err
	}
	pkg, err := epub.Resolve(a)
	if err != nil {
		return nil, err
	}
	opf, err := epub.Index(pkg)
	if err != nil {
		return nil, err
	}

	info := opf.ResolveCoverImage(a)
	if info == nil {
		return nil, nil
	}

	raw, err := a.ReadBinary(info.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cover: %w", err)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to decode cover %s: %w", info.Path, err)
	}
	if pixels := uint64(cfg.Width) * uint64(cfg.Height); pixels > maxCoverPixels {
		return nil, fmt.Errorf("cover %s too large to decode: %dx%d", info.Path, cfg.Width, cfg.Height)
	}

	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode cover %s: %w", info.Path, err)
	}

	return &Cover{
		Path:            info.Path,
		MediaType:       info.MediaType,
		DetectionMethod: info.DetectionMethod,
		Data:            raw,
		Image:           img,
	}, nil
}

// Thumbnail returns the cover as JPEG, scaled down to maxWidth pixels wide
// when it is wider. A non-positive maxWidth keeps the original size.
func (c *Cover) Thumbnail(maxWidth int) ([]byte, error) {
	img := c.Image
	if maxWidth > 0 && img.Bounds().Dx() > maxWidth {
		img = imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(coverJPEGQuality)); err != nil {
		return nil, fmt.Errorf("jpeg encode failed: %w", err)
	}
	return buf.Bytes(), nil
}
