// Package photo prepares attached images for analysis. Every photo is
// decoded and re-encoded as JPEG, which drops EXIF data such as GPS
// coordinates, and is scaled down to a bounded size.
package photo

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/taxiwatch/taxiwatch-backend/internal/report/domain"
	"github.com/taxiwatch/taxiwatch-backend/pkg/config"
	"github.com/taxiwatch/taxiwatch-backend/pkg/errors"
)

// OutputMimeType is the media type of every normalized photo.
const OutputMimeType = "image/jpeg"

// Normalizer re-encodes photos within configured bounds.
type Normalizer struct {
	maxDimension int
	quality      int
	maxBytes     int64
}

// NewNormalizer creates a normalizer from the photo configuration.
func NewNormalizer(cfg *config.PhotoConfig) *Normalizer {
	n := &Normalizer{
		maxDimension: cfg.MaxDimension,
		quality:      cfg.JPEGQuality,
		maxBytes:     cfg.MaxBytes,
	}
	if n.maxDimension <= 0 {
		n.maxDimension = 1600
	}
	if n.quality <= 0 || n.quality > 100 {
		n.quality = 85
	}
	return n
}

// Normalize returns a stripped, resized JPEG copy of p. A nil photo is
// returned as nil. The caller's buffer is zeroed once it has been decoded.
func (n *Normalizer) Normalize(p *domain.Photo) (*domain.Photo, error) {
	if p == nil {
		return nil, nil
	}
	if !strings.HasPrefix(strings.ToLower(p.MimeType), "image/") {
		return nil, errors.BadRequest(fmt.Sprintf("photo media type %q is not an image", p.MimeType))
	}
	if len(p.Data) == 0 {
		return nil, errors.BadRequest("photo is empty")
	}
	if n.maxBytes > 0 && int64(len(p.Data)) > n.maxBytes {
		return nil, errors.BadRequest(fmt.Sprintf("photo exceeds %d bytes", n.maxBytes))
	}

	img, err := imaging.Decode(bytes.NewReader(p.Data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.BadRequest("photo could not be decoded")
	}
	ZeroBytes(p.Data)

	b := img.Bounds()
	if b.Dx() > n.maxDimension || b.Dy() > n.maxDimension {
		img = imaging.Fit(img, n.maxDimension, n.maxDimension, imaging.Lanczos)
	}

	var out bytes.Buffer
	if err := imaging.Encode(&out, img, imaging.JPEG, imaging.JPEGQuality(n.quality)); err != nil {
		return nil, errors.Internal("photo could not be re-encoded")
	}

	return &domain.Photo{Data: out.Bytes(), MimeType: OutputMimeType}, nil
}

// ZeroBytes overwrites a byte slice with zeros so raw image data does not
// linger in memory.
func ZeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
