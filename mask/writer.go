package mask

import (
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/bodgit/progmem/raster"
)

// New builds the mask of all pixels in m matching c. It returns nil without
// an error if c does not appear in m.
func New(m image.Image, c color.Color) (*Mask, error) {
	match := raster.Match(c)

	r := raster.Bounds(m, match)
	if r.Empty() {
		return nil, nil
	}

	if r.Dx() > maxSize || r.Dy() > maxSize {
		return nil, fmt.Errorf("mask: %dx%d exceeds %dx%d: %w", r.Dx(), r.Dy(), maxSize, maxSize, raster.ErrMalformedGeometry)
	}

	mask := &Mask{
		Width:  r.Dx(),
		Height: r.Dy(),
		Bits:   make([]byte, bodySize(r.Dx(), r.Dy())),
	}

	k := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if raster.At(m, match, x, y) {
				mask.Bits[k>>3] |= 1 << uint(k&7)
			}
			k++
		}
	}

	return mask, nil
}

// MarshalBinary encodes the mask into its blob form.
func (m *Mask) MarshalBinary() ([]byte, error) {
	if m.Width < 1 || m.Width > maxSize || m.Height < 1 || m.Height > maxSize {
		return nil, fmt.Errorf("mask: %dx%d: %w", m.Width, m.Height, raster.ErrMalformedGeometry)
	}
	if len(m.Bits) != bodySize(m.Width, m.Height) {
		return nil, fmt.Errorf("mask: %d bytes of bits for %dx%d: %w", len(m.Bits), m.Width, m.Height, raster.ErrMalformedGeometry)
	}

	b := make([]byte, 0, m.Len())
	b = append(b, byte(m.Width), byte(m.Height))
	return append(b, m.Bits...), nil
}

// Encode writes the mask of all pixels in m matching c to w. Nothing is
// written if c does not appear in m.
func Encode(w io.Writer, m image.Image, c color.Color) error {
	mask, err := New(m, c)
	if err != nil || mask == nil {
		return err
	}

	b, err := mask.MarshalBinary()
	if err != nil {
		return err
	}

	_, err = w.Write(b)
	return err
}
