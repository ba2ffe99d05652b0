package imaging

import (
	"bytes"
	"image"
	"image/color"
	"math"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

type Format string

const (
	FormatWEBP Format = "webp"
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
)

func (f Format) Ext() string {
	if f == FormatJPEG {
		return "jpg"
	}
	return string(f)
}

func (f Format) ContentType() string {
	return "image/" + string(f)
}

const (
	DefaultMaxWidth  = 1920
	DefaultMaxHeight = 1920
	DefaultQuality   = 85

	ThumbnailWidth   = 400
	ThumbnailHeight  = 400
	ThumbnailQuality = 80
)

type Options struct {
	MaxWidth  int
	MaxHeight int
	Quality   int
	Format    Format
}

func DefaultOptions() Options {
	return Options{
		MaxWidth:  DefaultMaxWidth,
		MaxHeight: DefaultMaxHeight,
		Quality:   DefaultQuality,
		Format:    FormatWEBP,
	}
}

// Result is one encoded artifact. When Optimized is false the pipeline hit a
// decode or encode failure and Bytes holds the caller's original input
// unchanged; the upload must proceed with those bytes instead of failing.
type Result struct {
	Bytes         []byte
	Width         int
	Height        int
	Format        Format
	Quality       int
	OriginalSize  int64
	OptimizedSize int64
	Optimized     bool
}

// Optimize decodes, flattens transparency onto white, downscales to fit the
// configured bounds and re-encodes. It never fails outward.
func Optimize(raw []byte, opts Options) *Result {
	fallback := &Result{
		Bytes:         raw,
		OriginalSize:  int64(len(raw)),
		OptimizedSize: int64(len(raw)),
	}

	decoded, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		if config, _, cfgErr := image.DecodeConfig(bytes.NewReader(raw)); cfgErr == nil {
			fallback.Width = config.Width
			fallback.Height = config.Height
		}
		return fallback
	}
	fallback.Width = decoded.Bounds().Dx()
	fallback.Height = decoded.Bounds().Dy()

	img := flattenOnWhite(decoded)
	img = fitWithin(img, opts.MaxWidth, opts.MaxHeight)

	encoded, err := encode(img, opts.Format, opts.Quality)
	if err != nil {
		return fallback
	}

	bounds := img.Bounds()
	return &Result{
		Bytes:         encoded,
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
		Format:        opts.Format,
		Quality:       opts.Quality,
		OriginalSize:  int64(len(raw)),
		OptimizedSize: int64(len(encoded)),
		Optimized:     true,
	}
}

// Thumbnail constrains the image to fit within the box and encodes it as
// webp at thumbnail quality. It returns nil on any failure; a missing
// thumbnail is not an error condition for the upload flow.
func Thumbnail(raw []byte, boxWidth, boxHeight, quality int) *Result {
	decoded, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil
	}

	img := fitWithin(flattenOnWhite(decoded), boxWidth, boxHeight)

	encoded, err := encode(img, FormatWEBP, quality)
	if err != nil {
		return nil
	}

	bounds := img.Bounds()
	return &Result{
		Bytes:         encoded,
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
		Format:        FormatWEBP,
		Quality:       quality,
		OriginalSize:  int64(len(raw)),
		OptimizedSize: int64(len(encoded)),
		Optimized:     true,
	}
}

// SavingsPercent reports how much smaller the optimized artifact is,
// rounded to two decimals. It can be negative for pathological inputs that
// grow on re-encoding.
func SavingsPercent(originalSize, optimizedSize int64) float64 {
	if originalSize == 0 {
		return 0
	}
	savings := float64(originalSize-optimizedSize) / float64(originalSize) * 100
	return math.Round(savings*100) / 100
}

// flattenOnWhite composites the image onto an opaque white background.
// Encoding a paletted or alpha image straight to a format without alpha
// renders transparent regions black, so transparency is removed first.
func flattenOnWhite(img image.Image) *image.NRGBA {
	bounds := img.Bounds()
	background := imaging.New(bounds.Dx(), bounds.Dy(), color.White)
	return imaging.Overlay(background, img, image.Pt(0, 0), 1.0)
}

// fitWithin scales the image down, never up, to satisfy both bounds while
// preserving aspect ratio within integer rounding.
func fitWithin(img *image.NRGBA, maxWidth, maxHeight int) *image.NRGBA {
	if maxWidth <= 0 || maxHeight <= 0 {
		return img
	}
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= maxWidth && height <= maxHeight {
		return img
	}
	ratio := math.Min(float64(maxWidth)/float64(width), float64(maxHeight)/float64(height))
	newWidth := int(math.Round(float64(width) * ratio))
	newHeight := int(math.Round(float64(height) * ratio))
	if newWidth > maxWidth {
		newWidth = maxWidth
	}
	if newHeight > maxHeight {
		newHeight = maxHeight
	}
	return imaging.Resize(img, newWidth, newHeight, imaging.Lanczos)
}

func encode(img *image.NRGBA, format Format, quality int) ([]byte, error) {
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}
	var buffer bytes.Buffer
	switch format {
	case FormatJPEG:
		if err := imaging.Encode(&buffer, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
			return nil, err
		}
	case FormatPNG:
		if err := imaging.Encode(&buffer, img, imaging.PNG); err != nil {
			return nil, err
		}
	default:
		if err := webp.Encode(&buffer, img, &webp.Options{Quality: float32(quality)}); err != nil {
			return nil, err
		}
	}
	return buffer.Bytes(), nil
}
