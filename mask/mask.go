/*
Package mask implements a bit-packed membership mask encoder and decoder for
small glyphs stored in program memory.

The blob is written as one byte of width and one byte of height of the
bounding box of all pixels matching the target colour, followed by one bit
per pixel of that box. Pixels are visited row by row, left to right, and
packed least significant bit first; the last byte is padded with zero bits.
A colour that appears nowhere in the image produces no blob at all.
*/
package mask

import (
	"image"
	"image/color"
)

const (
	headerBytes = 2
	maxSize     = 0xff
)

// Mask is a decoded mask blob. It implements image.Image as an alpha mask
// that is opaque wherever the target colour was found, so it can be passed
// to draw.DrawMask.
type Mask struct {
	Width  int
	Height int
	Bits   []byte
}

func bodySize(w, h int) int {
	return (w*h + 7) >> 3
}

// Len returns the size in bytes of the encoded blob.
func (m *Mask) Len() int {
	return headerBytes + bodySize(m.Width, m.Height)
}

// Contains reports whether the pixel at (x, y), relative to the top-left
// corner of the bounding box, matched the target colour.
func (m *Mask) Contains(x, y int) bool {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return false
	}
	k := y*m.Width + x
	return m.Bits[k>>3]&(1<<uint(k&7)) != 0
}

// ColorModel implements image.Image.
func (m *Mask) ColorModel() color.Model {
	return color.Alpha16Model
}

// Bounds implements image.Image.
func (m *Mask) Bounds() image.Rectangle {
	return image.Rect(0, 0, m.Width, m.Height)
}

// At implements image.Image.
func (m *Mask) At(x, y int) color.Color {
	if m.Contains(x, y) {
		return color.Opaque
	}
	return color.Transparent
}
