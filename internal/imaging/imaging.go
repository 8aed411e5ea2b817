// Package imaging normalizes uploaded pictures before text detection.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif" // decoder registration
	"image/jpeg"
	_ "image/png" // decoder registration

	_ "golang.org/x/image/bmp" // decoder registration
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // decoder registration
)

var (
	ErrTooLarge      = errors.New("image file too large")
	ErrInvalidFormat = errors.New("invalid image format")
	ErrEmpty         = errors.New("empty image data")
)

// Options bounds the preprocessing step.
type Options struct {
	MaxBytes    int64
	MaxWidth    int
	MaxHeight   int
	JPEGQuality int
}

// DefaultOptions returns the limits used by the bot.
func DefaultOptions() Options {
	return Options{
		MaxBytes:    20 * 1024 * 1024,
		MaxWidth:    1920,
		MaxHeight:   1080,
		JPEGQuality: 85,
	}
}

// Processed is a re-encoded JPEG and its final dimensions.
type Processed struct {
	Data           []byte
	Width          int
	Height         int
	OriginalWidth  int
	OriginalHeight int
	Format         string
}

// Preprocess validates data, flattens it onto an opaque RGB canvas, shrinks
// it to fit within the configured box and re-encodes it as JPEG.
func Preprocess(data []byte, opts Options) (*Processed, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	if opts.MaxBytes > 0 && int64(len(data)) > opts.MaxBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, len(data))
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	bounds := src.Bounds()
	w, h := Fit(bounds.Dx(), bounds.Dy(), opts.MaxWidth, opts.MaxHeight)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	if w == bounds.Dx() && h == bounds.Dy() {
		draw.Draw(dst, dst.Bounds(), src, bounds.Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
	}

	quality := opts.JPEGQuality
	if quality <= 0 || quality > 100 {
		quality = jpeg.DefaultQuality
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encoding jpeg: %w", err)
	}

	return &Processed{
		Data:           buf.Bytes(),
		Width:          w,
		Height:         h,
		OriginalWidth:  bounds.Dx(),
		OriginalHeight: bounds.Dy(),
		Format:         format,
	}, nil
}

// Fit returns the largest size with the aspect ratio of w x h that fits in
// maxW x maxH. Images already inside the box are returned unchanged, and a
// non-positive bound disables that axis.
func Fit(w, h, maxW, maxH int) (int, int) {
	if w <= 0 || h <= 0 {
		return w, h
	}
	scale := 1.0
	if maxW > 0 && w > maxW {
		scale = float64(maxW) / float64(w)
	}
	if maxH > 0 && h > maxH {
		if s := float64(maxH) / float64(h); s < scale {
			scale = s
		}
	}
	if scale >= 1 {
		return w, h
	}
	nw := max(int(float64(w)*scale), 1)
	nh := max(int(float64(h)*scale), 1)
	return nw, nh
}
