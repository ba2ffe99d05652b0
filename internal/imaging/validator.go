package imaging

import (
	"bytes"
	"fmt"
	"image"
	"path/filepath"
	"strings"
)

const (
	DefaultMaxUploadBytes = 10 << 20
	DefaultMinDimension   = 200
	DefaultMaxDimension   = 8000
)

var DefaultAllowedExtensions = []string{"jpg", "jpeg", "png", "webp"}

// ValidationError carries the offending metric alongside the limit it broke.
type ValidationError struct {
	Check   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

type UploadValidator struct {
	MaxBytes          int64
	MinDimension      int
	MaxDimension      int
	AllowedExtensions []string
}

func NewUploadValidator() UploadValidator {
	return UploadValidator{
		MaxBytes:          DefaultMaxUploadBytes,
		MinDimension:      DefaultMinDimension,
		MaxDimension:      DefaultMaxDimension,
		AllowedExtensions: DefaultAllowedExtensions,
	}
}

// Validate runs every check and reports the first failure, so the reported
// reason is deterministic regardless of which checks fail together.
func (v UploadValidator) Validate(filename string, data []byte) error {
	var failures []*ValidationError

	if failure := v.checkSize(int64(len(data))); failure != nil {
		failures = append(failures, failure)
	}
	if failure := v.checkDimensions(data); failure != nil {
		failures = append(failures, failure)
	}
	if failure := v.checkExtension(filename); failure != nil {
		failures = append(failures, failure)
	}

	if len(failures) > 0 {
		return failures[0]
	}
	return nil
}

func (v UploadValidator) checkSize(size int64) *ValidationError {
	if size <= v.MaxBytes {
		return nil
	}
	return &ValidationError{
		Check: "size",
		Message: fmt.Sprintf("image size cannot exceed %dMB, got %.2fMB",
			v.MaxBytes>>20, float64(size)/(1<<20)),
	}
}

func (v UploadValidator) checkDimensions(data []byte) *ValidationError {
	config, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return &ValidationError{
			Check:   "dimensions",
			Message: fmt.Sprintf("could not read image dimensions: %v", err),
		}
	}
	if config.Width < v.MinDimension || config.Height < v.MinDimension {
		return &ValidationError{
			Check: "dimensions",
			Message: fmt.Sprintf("image must be at least %dx%d pixels, got %dx%d",
				v.MinDimension, v.MinDimension, config.Width, config.Height),
		}
	}
	if config.Width > v.MaxDimension || config.Height > v.MaxDimension {
		return &ValidationError{
			Check: "dimensions",
			Message: fmt.Sprintf("image cannot exceed %dx%d pixels, got %dx%d",
				v.MaxDimension, v.MaxDimension, config.Width, config.Height),
		}
	}
	return nil
}

func (v UploadValidator) checkExtension(filename string) *ValidationError {
	extension := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	for _, allowed := range v.AllowedExtensions {
		if extension == allowed {
			return nil
		}
	}
	return &ValidationError{
		Check: "format",
		Message: fmt.Sprintf("image format not allowed, use one of: %s, got %q",
			strings.Join(v.AllowedExtensions, ", "), extension),
	}
}
