package utils

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func solidImage(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestReadAllLimit(t *testing.T) {
	b, err := ReadAllLimit(strings.NewReader("12345"), 5)
	require.NoError(t, err)
	require.Equal(t, "12345", string(b))

	_, err = ReadAllLimit(strings.NewReader("123456"), 5)
	require.ErrorIs(t, err, ErrTooLarge)
}

func TestNormalizeToJPGConvertsPNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, solidImage(40, 20, color.RGBA{R: 200, A: 255})))

	out, err := NormalizeToJPG(buf.Bytes(), 1024, 0)
	require.NoError(t, err)

	img, err := jpeg.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 40, 20), img.Bounds())
}

func TestNormalizeToJPGResizes(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, solidImage(200, 100, color.White)))

	out, err := NormalizeToJPG(buf.Bytes(), 50, 80)
	require.NoError(t, err)

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	require.Equal(t, 50, cfg.Width)
	require.Equal(t, 25, cfg.Height)
}

func TestNormalizeToJPGRejectsGarbage(t *testing.T) {
	_, err := NormalizeToJPG([]byte("definitely not an image"), 0, 0)
	require.ErrorIs(t, err, ErrUnsupportedImage)

	_, err = NormalizeToJPG(nil, 0, 0)
	require.Error(t, err)
}

func TestOrientRotatesClockwise(t *testing.T) {
	red := color.RGBA{R: 255, A: 255}
	src := solidImage(4, 2, color.RGBA{B: 255, A: 255})
	src.Set(0, 0, red)

	out := orient(src, 6)

	require.Equal(t, image.Rect(0, 0, 2, 4), out.Bounds())
	r, g, b, _ := out.At(1, 0).RGBA()
	require.Equal(t, uint32(0xffff), r)
	require.Zero(t, g)
	require.Zero(t, b)
}

func TestOrientMirror(t *testing.T) {
	red := color.RGBA{R: 255, A: 255}
	src := solidImage(3, 1, color.Black)
	src.Set(0, 0, red)

	out := orient(src, 2)

	require.Equal(t, src.Bounds(), out.Bounds())
	r, _, _, _ := out.At(2, 0).RGBA()
	require.Equal(t, uint32(0xffff), r)
}

func TestOrientIgnoresNormal(t *testing.T) {
	src := solidImage(3, 1, color.Black)
	require.Same(t, image.Image(src), orient(src, 1))
}
