package progmem

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/bodgit/progmem/mask"
	"github.com/bodgit/progmem/raster"
	"github.com/bodgit/progmem/region"
)

// Mismatch records the pixels of a blob that decode differently from the
// source image.
type Mismatch struct {
	Name   string
	Pixels int
	First  image.Point
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s: %d pixels differ, first at %v", m.Name, m.Pixels, m.First)
}

// Report is the outcome of decoding a result and comparing it with the
// source image.
type Report struct {
	// Preview is painted from the decoded blobs only
	Preview    *image.NRGBA
	Mismatches []Mismatch
}

func (r *Report) compare(name string, same func(x, y int) bool, bounds image.Rectangle) {
	var mm *Mismatch
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if same(x, y) {
				continue
			}
			if mm == nil {
				mm = &Mismatch{Name: name, First: image.Pt(x, y)}
			}
			mm.Pixels++
		}
	}
	if mm != nil {
		r.Mismatches = append(r.Mismatches, *mm)
	}
}

func (r *Report) verifyMask(name string, m image.Image, c color.Color, b []byte) error {
	match := raster.Match(c)
	box := raster.Bounds(m, match)
	if len(b) == 0 {
		if !box.Empty() {
			r.Mismatches = append(r.Mismatches, Mismatch{Name: name, Pixels: 1, First: box.Min})
		}
		return nil
	}

	var dec mask.Mask
	if err := dec.UnmarshalBinary(b); err != nil {
		return err
	}
	if dec.Width != box.Dx() || dec.Height != box.Dy() {
		return fmt.Errorf("decoded as %dx%d, expected %dx%d", dec.Width, dec.Height, box.Dx(), box.Dy())
	}

	// Masks carry no position, so place them over the matching pixels
	draw.DrawMask(r.Preview, dec.Bounds().Add(box.Min), image.NewUniform(c), image.Point{}, &dec, image.Point{}, draw.Over)

	r.compare(name, func(x, y int) bool {
		return raster.At(m, match, x, y) == dec.Contains(x-box.Min.X, y-box.Min.Y)
	}, box)

	return nil
}

func (r *Report) verifyRegion(name string, m image.Image, d Definition, b []byte) error {
	bulk, detail := raster.Match(d.Bulk), raster.Match(d.Color)
	if len(b) == 0 {
		if box := raster.Bounds(m, raster.Any(d.Bulk, d.Color)); !box.Empty() {
			r.Mismatches = append(r.Mismatches, Mismatch{Name: name, Pixels: 1, First: box.Min})
		}
		return nil
	}

	var dec region.Region
	if err := dec.UnmarshalBinary(b); err != nil {
		return err
	}

	size := m.Bounds().Size()
	got := image.NewNRGBA(image.Rectangle{Max: size})
	dec.Draw(got, d.Bulk, d.Color)
	dec.Draw(r.Preview, d.Bulk, d.Color)

	// A pixel should be painted with the colour it has in the source,
	// so the bulk rectangle must not cover anything but the pair
	classify := func(m image.Image) func(x, y int) int {
		return func(x, y int) int {
			switch {
			case raster.At(m, detail, x, y):
				return 2
			case raster.At(m, bulk, x, y):
				return 1
			default:
				return 0
			}
		}
	}
	want, have := classify(m), classify(got)
	r.compare(name, func(x, y int) bool {
		return want(x, y) == have(x, y)
	}, got.Bounds())

	return nil
}

// Verify decodes every blob of r and compares it pixel by pixel with m, the
// image r was encoded from.
func (r *Result) Verify(m image.Image) (*Report, error) {
	report := &Report{
		Preview: image.NewNRGBA(image.Rectangle{Max: m.Bounds().Size()}),
	}

	for i, b := range r.Blobs {
		if b.Err != nil {
			continue
		}
		d := r.Catalog.Definitions[i]

		var err error
		switch r.Catalog.Kind {
		case MaskKind:
			err = report.verifyMask(b.Name, m, d.Color, b.Data)
		case RegionKind:
			err = report.verifyRegion(b.Name, m, d, b.Data)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", b.Name, err)
		}
	}

	return report, nil
}
