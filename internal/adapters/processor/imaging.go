package processor

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"imgforge/internal/core/port"

	"github.com/disintegration/imaging"
)

// ImagingProcessor is the image-processing backend built on the pure-Go
// imaging library. It decodes JPEG, PNG, GIF, TIFF and BMP.
type ImagingProcessor struct{}

func NewImagingProcessor() *ImagingProcessor {
	return &ImagingProcessor{}
}

// Decode parses image bytes into a mutable handle. The raw bytes are
// retained so auto-orientation can re-read the embedded metadata.
func (p *ImagingProcessor) Decode(data []byte) (port.Image, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("unsupported or corrupt image: %w", err)
	}

	return &handle{img: img, format: format, raw: data}, nil
}

type handle struct {
	img    image.Image
	format string
	raw    []byte
}

func (h *handle) Width() int {
	return h.img.Bounds().Dx()
}

func (h *handle) Height() int {
	return h.img.Bounds().Dy()
}

func (h *handle) Format() string {
	return h.format
}

func (h *handle) MimeType() string {
	switch h.format {
	case "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "bmp":
		return "image/bmp"
	case "tiff":
		return "image/tiff"
	default:
		return "application/octet-stream"
	}
}

func (h *handle) Rotate(angle float64) {
	h.img = imaging.Rotate(h.img, angle, color.Transparent)
}

// AutoOrient re-decodes the original bytes honoring the EXIF
// orientation tag. Formats without orientation metadata come back
// unchanged.
func (h *handle) AutoOrient() error {
	img, err := imaging.Decode(bytes.NewReader(h.raw), imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("auto-orientation failed: %w", err)
	}
	h.img = img
	return nil
}

func (h *handle) Resize(width, height int) {
	h.img = imaging.Resize(h.img, width, height, imaging.Lanczos)
}

func (h *handle) Crop(x, y, width, height int) {
	h.img = imaging.Crop(h.img, image.Rect(x, y, x+width, y+height))
}

func (h *handle) Flatten(background color.Color) {
	base := imaging.New(h.Width(), h.Height(), background)
	h.img = imaging.Overlay(base, h.img, image.Pt(0, 0), 1.0)
}

func (h *handle) Encode(format string, quality int) ([]byte, error) {
	f, err := imaging.FormatFromExtension(format)
	if err != nil {
		return nil, fmt.Errorf("unsupported output format %q: %w", format, err)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, h.img, f, imaging.JPEGQuality(quality)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
