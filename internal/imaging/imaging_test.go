package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filmscout/filmscout/internal/testutil"
)

func TestPreprocess_KeepsSmallImage(t *testing.T) {
	out, err := Preprocess(testutil.PNGImage(t, 300, 450), DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 300, out.Width)
	assert.Equal(t, 450, out.Height)
	assert.Equal(t, "png", out.Format)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(out.Data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 300, cfg.Width)
}

func TestPreprocess_ShrinksToFit(t *testing.T) {
	out, err := Preprocess(testutil.JPEGImage(t, 3840, 1080), DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 1920, out.Width)
	assert.Equal(t, 540, out.Height)
	assert.Equal(t, 3840, out.OriginalWidth)
	assert.Equal(t, 1080, out.OriginalHeight)
}

func TestPreprocess_FlattensTransparency(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	out, err := Preprocess(buf.Bytes(), DefaultOptions())
	require.NoError(t, err)

	decoded, err := jpeg.Decode(bytes.NewReader(out.Data))
	require.NoError(t, err)
	r, g, b, _ := decoded.At(1, 1).RGBA()
	white := color.White
	wr, wg, wb, _ := white.RGBA()
	assert.InDelta(t, float64(wr), float64(r), 2048)
	assert.InDelta(t, float64(wg), float64(g), 2048)
	assert.InDelta(t, float64(wb), float64(b), 2048)
}

func TestPreprocess_Errors(t *testing.T) {
	_, err := Preprocess(nil, DefaultOptions())
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = Preprocess([]byte("definitely not an image"), DefaultOptions())
	assert.ErrorIs(t, err, ErrInvalidFormat)

	opts := DefaultOptions()
	opts.MaxBytes = 10
	_, err = Preprocess(testutil.PNGImage(t, 10, 10), opts)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestFit(t *testing.T) {
	tests := []struct {
		name         string
		w, h         int
		wantW, wantH int
	}{
		{"inside box", 800, 600, 800, 600},
		{"too wide", 3840, 1080, 1920, 540},
		{"too tall", 1000, 2000, 540, 1080},
		{"both", 4000, 4000, 1080, 1080},
		{"zero", 0, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := Fit(tt.w, tt.h, 1920, 1080)
			assert.Equal(t, tt.wantW, w)
			assert.Equal(t, tt.wantH, h)
		})
	}
}
