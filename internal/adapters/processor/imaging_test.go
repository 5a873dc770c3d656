package processor

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func TestDecode(t *testing.T) {
	p := NewImagingProcessor()

	img, err := p.Decode(pngBytes(t, 40, 20))
	require.NoError(t, err)

	assert.Equal(t, 40, img.Width())
	assert.Equal(t, 20, img.Height())
	assert.Equal(t, "png", img.Format())
	assert.Equal(t, "image/png", img.MimeType())
}

func TestDecodeRejectsGarbage(t *testing.T) {
	p := NewImagingProcessor()

	_, err := p.Decode([]byte("not an image"))
	require.Error(t, err)
}

func TestResize(t *testing.T) {
	p := NewImagingProcessor()

	img, err := p.Decode(pngBytes(t, 40, 20))
	require.NoError(t, err)

	img.Resize(10, 5)
	assert.Equal(t, 10, img.Width())
	assert.Equal(t, 5, img.Height())
}

func TestCrop(t *testing.T) {
	p := NewImagingProcessor()

	img, err := p.Decode(pngBytes(t, 40, 20))
	require.NoError(t, err)

	img.Crop(10, 5, 20, 10)
	assert.Equal(t, 20, img.Width())
	assert.Equal(t, 10, img.Height())
}

func TestRotateSwapsDimensions(t *testing.T) {
	p := NewImagingProcessor()

	img, err := p.Decode(pngBytes(t, 40, 20))
	require.NoError(t, err)

	img.Rotate(90)
	assert.Equal(t, 20, img.Width())
	assert.Equal(t, 40, img.Height())
}

func TestAutoOrientWithoutMetadata(t *testing.T) {
	p := NewImagingProcessor()

	img, err := p.Decode(pngBytes(t, 40, 20))
	require.NoError(t, err)

	// no orientation tag, dimensions stay put
	require.NoError(t, img.AutoOrient())
	assert.Equal(t, 40, img.Width())
	assert.Equal(t, 20, img.Height())
}

func TestEncode(t *testing.T) {
	p := NewImagingProcessor()

	img, err := p.Decode(pngBytes(t, 40, 20))
	require.NoError(t, err)

	t.Run("jpg", func(t *testing.T) {
		data, err := img.Encode("jpg", 80)
		require.NoError(t, err)

		decoded, format, err := image.Decode(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, "jpeg", format)
		assert.Equal(t, 40, decoded.Bounds().Dx())
	})

	t.Run("png", func(t *testing.T) {
		data, err := img.Encode("png", 80)
		require.NoError(t, err)

		_, format, err := image.Decode(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, "png", format)
	})

	t.Run("unsupported", func(t *testing.T) {
		_, err := img.Encode("webp", 80)
		require.Error(t, err)
	})
}

func TestFlatten(t *testing.T) {
	p := NewImagingProcessor()

	img, err := p.Decode(pngBytes(t, 4, 2))
	require.NoError(t, err)

	img.Flatten(color.White)
	assert.Equal(t, 4, img.Width())

	data, err := img.Encode("jpg", 90)
	require.NoError(t, err)

	decoded, _, err := image.Decode(bytes.NewReader(data))
	require.NoError(t, err)

	// the transparent source now sits on a white background
	r, g, b, _ := decoded.At(0, 0).RGBA()
	assert.Greater(t, r, uint32(0xf000))
	assert.Greater(t, g, uint32(0xf000))
	assert.Greater(t, b, uint32(0xf000))
}
