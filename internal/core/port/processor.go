package port

import "image/color"

// Image is a decoded image handle. Pixel operations mutate the handle
// in place; Encode produces the final bytes.
type Image interface {
	// Width returns the current pixel width.
	Width() int
	// Height returns the current pixel height.
	Height() int
	// Format returns the detected source format, e.g. "jpeg".
	Format() string
	// MimeType returns the MIME type of the detected source format.
	MimeType() string
	// Rotate turns the image counter-clockwise by the given angle in degrees.
	Rotate(angle float64)
	// AutoOrient applies the orientation recorded in embedded metadata.
	AutoOrient() error
	// Resize scales the image to exactly width x height.
	Resize(width, height int)
	// Crop cuts the rectangle at (x, y) with the given size.
	Crop(x, y, width, height int)
	// Flatten composes the image over an opaque background color.
	Flatten(background color.Color)
	// Encode serializes the image in the given format and quality.
	Encode(format string, quality int) ([]byte, error)
}

// Processor is the image-processing backend boundary.
type Processor interface {
	// Decode parses image bytes into a mutable handle.
	Decode(data []byte) (Image, error)
}
