package imaging_test

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"estatemap/internal/imaging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buffer bytes.Buffer
	require.NoError(t, png.Encode(&buffer, img))
	return buffer.Bytes()
}

func solidPNG(t *testing.T, width, height int, fill color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, fill)
		}
	}
	return encodePNG(t, img)
}

func TestOptimize_DownscalesToFitBounds(t *testing.T) {
	raw := solidPNG(t, 4000, 2000, color.RGBA{R: 10, G: 120, B: 30, A: 255})

	result := imaging.Optimize(raw, imaging.DefaultOptions())
	require.True(t, result.Optimized)
	assert.Equal(t, 1920, result.Width)
	assert.Equal(t, 960, result.Height, "aspect ratio is preserved")
	assert.Equal(t, imaging.FormatWEBP, result.Format)

	// The emitted bytes decode back to the reported dimensions.
	decoded, format, err := image.Decode(bytes.NewReader(result.Bytes))
	require.NoError(t, err)
	assert.Equal(t, "webp", format)
	assert.Equal(t, 1920, decoded.Bounds().Dx())
	assert.Equal(t, 960, decoded.Bounds().Dy())
}

func TestOptimize_TallImageBoundByHeight(t *testing.T) {
	raw := solidPNG(t, 1000, 4000, color.RGBA{R: 200, G: 40, B: 40, A: 255})

	result := imaging.Optimize(raw, imaging.DefaultOptions())
	require.True(t, result.Optimized)
	assert.Equal(t, 480, result.Width)
	assert.Equal(t, 1920, result.Height)
}

func TestOptimize_NeverUpscales(t *testing.T) {
	raw := solidPNG(t, 640, 480, color.RGBA{R: 0, G: 0, B: 255, A: 255})

	result := imaging.Optimize(raw, imaging.DefaultOptions())
	require.True(t, result.Optimized)
	assert.Equal(t, 640, result.Width)
	assert.Equal(t, 480, result.Height)
}

func TestOptimize_FlattensTransparencyOnWhite(t *testing.T) {
	// Fully transparent input must come out opaque white, not black.
	img := image.NewNRGBA(image.Rect(0, 0, 300, 300))
	raw := encodePNG(t, img)

	result := imaging.Optimize(raw, imaging.Options{
		MaxWidth:  1920,
		MaxHeight: 1920,
		Quality:   100,
		Format:    imaging.FormatPNG,
	})
	require.True(t, result.Optimized)

	decoded, _, err := image.Decode(bytes.NewReader(result.Bytes))
	require.NoError(t, err)
	r, g, b, a := decoded.At(150, 150).RGBA()
	assert.Equal(t, uint32(0xffff), a)
	assert.Equal(t, uint32(0xffff), r)
	assert.Equal(t, uint32(0xffff), g)
	assert.Equal(t, uint32(0xffff), b)
}

func TestOptimize_CorruptInputFallsBack(t *testing.T) {
	raw := []byte("this is not an image at all")

	result := imaging.Optimize(raw, imaging.DefaultOptions())
	assert.False(t, result.Optimized)
	assert.Equal(t, raw, result.Bytes, "original bytes pass through unchanged")
	assert.Equal(t, int64(len(raw)), result.OriginalSize)
	assert.Equal(t, int64(len(raw)), result.OptimizedSize)
}

func TestOptimize_TruncatedInputKeepsHeaderDimensions(t *testing.T) {
	raw := solidPNG(t, 800, 600, color.RGBA{R: 1, G: 2, B: 3, A: 255})[:60]

	result := imaging.Optimize(raw, imaging.DefaultOptions())
	assert.False(t, result.Optimized)
	assert.Equal(t, 800, result.Width)
	assert.Equal(t, 600, result.Height)
}

func TestOptimize_JPEGOutput(t *testing.T) {
	raw := solidPNG(t, 500, 500, color.RGBA{R: 90, G: 90, B: 90, A: 255})

	result := imaging.Optimize(raw, imaging.Options{
		MaxWidth:  1920,
		MaxHeight: 1920,
		Quality:   85,
		Format:    imaging.FormatJPEG,
	})
	require.True(t, result.Optimized)

	_, format, err := image.Decode(bytes.NewReader(result.Bytes))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
}

func TestThumbnail(t *testing.T) {
	raw := solidPNG(t, 1600, 1200, color.RGBA{R: 10, G: 10, B: 10, A: 255})

	thumb := imaging.Thumbnail(raw, imaging.ThumbnailWidth, imaging.ThumbnailHeight, imaging.ThumbnailQuality)
	require.NotNil(t, thumb)
	assert.Equal(t, 400, thumb.Width)
	assert.Equal(t, 300, thumb.Height)
	assert.Equal(t, imaging.FormatWEBP, thumb.Format)

	assert.Nil(t, imaging.Thumbnail([]byte("garbage"), 400, 400, 80))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "jpg", imaging.FormatJPEG.Ext())
	assert.Equal(t, "webp", imaging.FormatWEBP.Ext())
	assert.Equal(t, "png", imaging.FormatPNG.Ext())
	assert.Equal(t, "image/jpeg", imaging.FormatJPEG.ContentType())
	assert.Equal(t, "image/webp", imaging.FormatWEBP.ContentType())
}

func TestSavingsPercent(t *testing.T) {
	assert.Equal(t, 75.0, imaging.SavingsPercent(1000, 250))
	assert.Equal(t, 0.0, imaging.SavingsPercent(0, 10))
	assert.Equal(t, -50.0, imaging.SavingsPercent(100, 150))
	assert.Equal(t, 33.33, imaging.SavingsPercent(3, 2))
}
