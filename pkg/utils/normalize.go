package utils

import (
	"bytes"
	"errors"
	"image"
	"image/jpeg"
	_ "image/png"
	"math"

	"github.com/rwcarlsen/goexif/exif"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
	_ "golang.org/x/image/webp"
)

var ErrUnsupportedImage = errors.New("unsupported image format (need jpeg/png/webp)")

// NormalizeToJPG decodes a jpeg/png/webp image, applies its EXIF orientation,
// shrinks it to maxWidth (0 keeps the size) and re-encodes it as JPEG.
func NormalizeToJPG(input []byte, maxWidth int, quality int) ([]byte, error) {
	if len(input) == 0 {
		return nil, errors.New("empty image")
	}
	if quality <= 0 || quality > 100 {
		quality = 85
	}

	img, _, err := image.Decode(bytes.NewReader(input))
	if err != nil {
		return nil, ErrUnsupportedImage
	}

	img = orient(img, exifOrientation(input))
	if maxWidth > 0 {
		img = resizeMaxWidth(img, maxWidth)
	}

	var out bytes.Buffer
	if err := jpeg.Encode(&out, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func exifOrientation(input []byte) int {
	x, err := exif.Decode(bytes.NewReader(input))
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	o, err := tag.Int(0)
	if err != nil {
		return 1
	}
	return o
}

// orient maps src onto an upright canvas with a single affine transform.
// Orientations 5-8 swap width and height.
func orient(src image.Image, o int) image.Image {
	if o < 2 || o > 8 {
		return src
	}

	b := src.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())

	// dst = (a*x + b*y + c, d*x + e*y + f) in coordinates relative to b.Min
	var m f64.Aff3
	switch o {
	case 2: // mirror horizontal
		m = f64.Aff3{-1, 0, w, 0, 1, 0}
	case 3: // rotate 180
		m = f64.Aff3{-1, 0, w, 0, -1, h}
	case 4: // mirror vertical
		m = f64.Aff3{1, 0, 0, 0, -1, h}
	case 5: // transpose
		m = f64.Aff3{0, 1, 0, 1, 0, 0}
	case 6: // rotate 90 cw
		m = f64.Aff3{0, -1, h, 1, 0, 0}
	case 7: // transverse
		m = f64.Aff3{0, -1, h, -1, 0, w}
	case 8: // rotate 90 ccw
		m = f64.Aff3{0, 1, 0, -1, 0, w}
	}

	minX, minY := float64(b.Min.X), float64(b.Min.Y)
	m[2] -= m[0]*minX + m[1]*minY
	m[5] -= m[3]*minX + m[4]*minY

	dw, dh := b.Dx(), b.Dy()
	if o >= 5 {
		dw, dh = dh, dw
	}
	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.NearestNeighbor.Transform(dst, m, src, b, draw.Src, nil)
	return dst
}

func resizeMaxWidth(src image.Image, maxW int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxW || w <= 0 || h <= 0 {
		return src
	}

	newH := int(math.Round(float64(h) * float64(maxW) / float64(w)))
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, maxW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}
