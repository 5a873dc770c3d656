package service

import (
	"context"
	"fmt"
	"image/color"
	"math"

	"imgforge/internal/core/domain"
	"imgforge/internal/core/domain/modifier"
	"imgforge/internal/core/port"
)

// Applicator is one ordered pixel-transform step. Applicators mutate
// the image handle in place; any failure is fatal to the request.
type Applicator interface {
	Apply(img port.Image, path domain.PathInfo, values modifier.Values) error
}

// OrientationApplicator rotates by an explicit angle or applies the
// orientation recorded in embedded metadata for the "auto" sentinel.
type OrientationApplicator struct{}

func (OrientationApplicator) Apply(img port.Image, _ domain.PathInfo, values modifier.Values) error {
	v, ok := values.Get(modifier.Orientation)
	if !ok {
		return nil
	}

	switch angle := v.(type) {
	case string:
		return img.AutoOrient()
	case int:
		img.Rotate(float64(angle))
		return nil
	default:
		return fmt.Errorf("unexpected orientation value %v", v)
	}
}

// ResizeApplicator scales to the requested box: missing dimensions are
// derived from the source aspect ratio, both are multiplied by the
// pixel density, the image is resized to cover the box and then
// center-cropped to it.
type ResizeApplicator struct{}

func (ResizeApplicator) Apply(img port.Image, _ domain.PathInfo, values modifier.Values) error {
	width, hasWidth := values.Int(modifier.Width)
	height, hasHeight := values.Int(modifier.Height)
	density, hasDensity := values.Float(modifier.PixelDensity)
	if !hasDensity {
		density = 1.0
	}
	if !hasWidth && !hasHeight && density == 1.0 {
		return nil
	}

	srcW, srcH := img.Width(), img.Height()
	if srcW <= 0 || srcH <= 0 {
		return fmt.Errorf("image has no dimensions (%dx%d)", srcW, srcH)
	}

	fw, fh := float64(width), float64(height)
	switch {
	case hasWidth && !hasHeight:
		fh = fw * float64(srcH) / float64(srcW)
	case hasHeight && !hasWidth:
		fw = fh * float64(srcW) / float64(srcH)
	case !hasWidth && !hasHeight:
		fw, fh = float64(srcW), float64(srcH)
	}

	targetW := int(math.Round(fw * density))
	targetH := int(math.Round(fh * density))
	if targetW <= 0 || targetH <= 0 {
		return fmt.Errorf("target box %dx%d is empty", targetW, targetH)
	}
	if targetW == srcW && targetH == srcH {
		return nil
	}

	// Intermediate size covers the target box while preserving the
	// source aspect ratio; the overshoot is cropped off afterwards.
	ratio := float64(srcH) / float64(srcW)
	resizeW, resizeH := targetW, targetH
	if float64(targetH) > float64(targetW)*ratio {
		resizeW = int(math.Round(float64(targetH) / ratio))
	} else {
		resizeH = int(math.Round(float64(targetW) * ratio))
	}

	img.Resize(resizeW, resizeH)

	if resizeW != targetW || resizeH != targetH {
		x := (resizeW - targetW) / 2
		y := (resizeH - targetH) / 2
		if x < 0 {
			x = 0
		}
		if y < 0 {
			y = 0
		}
		img.Crop(x, y, min(targetW, resizeW), min(targetH, resizeH))
	}

	return nil
}

// FormatEncoder is the final pipeline step: it picks the output codec
// and produces the derived bytes.
type FormatEncoder struct {
	cfg   domain.EncodeConfig
	types domain.TypeTable
}

func NewFormatEncoder(cfg domain.EncodeConfig, types domain.TypeTable) *FormatEncoder {
	return &FormatEncoder{cfg: cfg, types: types}
}

// Encode serializes the transformed image. With the preserve-format
// flag and quality 100 the original bytes pass through unchanged.
// Otherwise the requested extension picks the codec, falling back to
// the source format and finally the configured default; non-transparent
// targets are flattened over an opaque background first.
func (e *FormatEncoder) Encode(img port.Image, path domain.PathInfo,
	values modifier.Values, original []byte) ([]byte, string, error) {
	quality := e.cfg.DefaultQuality
	if q, ok := values.Int(modifier.Quality); ok {
		quality = q
	}

	if values.Bool(modifier.PreserveFormat) && quality == 100 {
		return original, img.MimeType(), nil
	}

	format := path.Extension
	if !e.types.Supported(format) {
		format = img.Format()
	}
	if !e.types.Supported(format) {
		format = e.cfg.DefaultFormat
	}
	if !e.types.Supported(format) {
		return nil, "", fmt.Errorf("no encodable format for %q", path.FileName())
	}

	if opaqueFormat(format) {
		img.Flatten(color.White)
	}

	data, err := img.Encode(format, quality)
	if err != nil {
		return nil, "", fmt.Errorf("encoding %q as %s failed: %w", path.FileName(), format, err)
	}
	return data, e.types.MimeType(format), nil
}

func opaqueFormat(format string) bool {
	switch format {
	case "jpg", "jpeg", "bmp":
		return true
	default:
		return false
	}
}

// Pipeline runs the ordered applicators and the final encode against
// the image-processing backend, replacing the resource bytes with the
// derived variant.
type Pipeline struct {
	processor   port.Processor
	applicators []Applicator
	encoder     *FormatEncoder
}

func NewPipeline(processor port.Processor, cfg domain.EncodeConfig, types domain.TypeTable) *Pipeline {
	return &Pipeline{
		processor:   processor,
		applicators: []Applicator{OrientationApplicator{}, ResizeApplicator{}},
		encoder:     NewFormatEncoder(cfg, types),
	}
}

// Transform derives the variant described by values from the resource
// bytes. Abandoned requests stop before decoding starts.
func (p *Pipeline) Transform(ctx context.Context, res *domain.Resource, values modifier.Values) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	img, err := p.processor.Decode(res.Data)
	if err != nil {
		return fmt.Errorf("decoding %q failed: %w", res.Path.SourcePath(), err)
	}

	for _, a := range p.applicators {
		if err := a.Apply(img, res.Path, values); err != nil {
			return err
		}
	}

	data, mime, err := p.encoder.Encode(img, res.Path, values, res.Data)
	if err != nil {
		return err
	}

	res.Data = data
	res.MimeType = mime
	res.Modified = true
	return nil
}
