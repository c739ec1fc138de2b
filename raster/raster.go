/*
Package raster implements the pixel matching shared by the mask and region
encoders.

Colours are compared as non-premultiplied 8-bit RGB triples so that a PNG
decoded as *image.RGBA, *image.NRGBA or *image.Paletted matches the same
catalog colour. Fully transparent pixels never match.
*/
package raster

import (
	"errors"
	"image"
	"image/color"
)

// ErrMalformedGeometry is returned when a dimension, offset, length or count
// does not fit in the field reserved for it by an encoding.
var ErrMalformedGeometry = errors.New("raster: malformed geometry")

// Match returns a function reporting whether a pixel colour equals c.
func Match(c color.Color) func(color.Color) bool {
	want := color.NRGBAModel.Convert(c).(color.NRGBA)
	return func(p color.Color) bool {
		got := color.NRGBAModel.Convert(p).(color.NRGBA)
		if got.A == 0 {
			return false
		}
		return got.R == want.R && got.G == want.G && got.B == want.B
	}
}

// Any returns a function reporting whether a pixel colour matches any of cs.
func Any(cs ...color.Color) func(color.Color) bool {
	fs := make([]func(color.Color) bool, len(cs))
	for i, c := range cs {
		fs[i] = Match(c)
	}
	return func(p color.Color) bool {
		for _, f := range fs {
			if f(p) {
				return true
			}
		}
		return false
	}
}

// Bounds returns the smallest rectangle containing every pixel of m for
// which match returns true, translated so that m.Bounds().Min is the
// origin. The rectangle is empty if no pixel matched.
func Bounds(m image.Image, match func(color.Color) bool) image.Rectangle {
	b := m.Bounds()
	r := image.Rectangle{}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if !match(m.At(x, y)) {
				continue
			}
			p := image.Rect(x, y, x+1, y+1).Sub(b.Min)
			if r.Empty() {
				r = p
			} else {
				r = r.Union(p)
			}
		}
	}
	return r
}

// At reports whether the pixel at (x, y), relative to m.Bounds().Min,
// matches. Pixels outside of m never match.
func At(m image.Image, match func(color.Color) bool, x, y int) bool {
	p := image.Pt(x, y).Add(m.Bounds().Min)
	if !p.In(m.Bounds()) {
		return false
	}
	return match(m.At(p.X, p.Y))
}
