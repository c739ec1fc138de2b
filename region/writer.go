package region

import (
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/bodgit/progmem/raster"
)

func checkField(name string, v, min int) error {
	if v < min || v > maxField {
		return fmt.Errorf("region: %s %d outside %d-%d: %w", name, v, min, maxField, raster.ErrMalformedGeometry)
	}
	return nil
}

type scanner struct {
	m      image.Image
	detail func(color.Color) bool
	region *Region

	skipRows int
	firstRow bool
}

func (s *scanner) flushSkip() error {
	if s.skipRows == 0 {
		return nil
	}
	if err := checkField("skipped rows", s.skipRows, 1); err != nil {
		return err
	}
	s.region.Detail = append(s.region.Detail, Instruction{Op: Skip, Count: s.skipRows})
	s.skipRows = 0
	return nil
}

// scanRow appends a run for every horizontal sequence of detail pixels on
// row y right of the origin and reports whether there were any.
func (s *scanner) scanRow(y, width int) (bool, error) {
	found := false
	x := s.region.Origin.X
	for x < width {
		for x < width && !raster.At(s.m, s.detail, x, y) {
			x++
		}
		if x == width {
			break
		}

		if err := s.flushSkip(); err != nil {
			return false, err
		}

		start := x
		for x < width && raster.At(s.m, s.detail, x, y) {
			x++
		}

		s.region.Detail = append(s.region.Detail, Instruction{
			Op:     Run,
			Count:  x - start,
			Offset: start - s.region.Origin.X,
			NewRow: !found && !s.firstRow,
		})
		found = true
	}
	if found {
		s.firstRow = false
	}
	return found, nil
}

// Scan builds the region for the bulk and detail colours in m. It returns
// nil without an error if neither colour appears in m.
func Scan(m image.Image, bulk, detail color.Color) (*Region, error) {
	b := m.Bounds()
	if err := checkField("image width", b.Dx(), 0); err != nil {
		return nil, err
	}
	if err := checkField("image height", b.Dy(), 0); err != nil {
		return nil, err
	}

	all := raster.Bounds(m, raster.Any(bulk, detail))
	if all.Empty() {
		return nil, nil
	}

	s := scanner{
		m:      m,
		detail: raster.Match(detail),
		region: &Region{
			Origin: all.Min,
		},
		firstRow: true,
	}

	if r := raster.Bounds(m, raster.Match(bulk)); !r.Empty() {
		s.region.Bulk = r.Sub(all.Min)
	}

	// Scan to the bottom of the image rather than the bottom of the
	// detail pixels; trailing empty rows are never flushed
	for y := all.Min.Y; y < b.Dy(); y++ {
		found, err := s.scanRow(y, b.Dx())
		if err != nil {
			return nil, err
		}
		if !found {
			s.skipRows++
		}
	}

	return s.region, nil
}

// MarshalBinary encodes the region into its blob form.
func (r *Region) MarshalBinary() ([]byte, error) {
	if err := checkField("origin x", r.Origin.X, 0); err != nil {
		return nil, err
	}
	if err := checkField("origin y", r.Origin.Y, 0); err != nil {
		return nil, err
	}

	b := make([]byte, 0, r.Len())
	b = append(b, byte(r.Origin.X), byte(r.Origin.Y))

	if r.Bulk.Empty() {
		b = append(b, noBulk)
	} else {
		for _, f := range []struct {
			name   string
			v, min int
		}{
			{"bulk width", r.Bulk.Dx(), 1},
			{"bulk height", r.Bulk.Dy(), 1},
			{"bulk x", r.Bulk.Min.X, 0},
			{"bulk y", r.Bulk.Min.Y, 0},
		} {
			if err := checkField(f.name, f.v, f.min); err != nil {
				return nil, err
			}
			b = append(b, byte(f.v))
		}
	}

	for _, i := range r.Detail {
		switch i.Op {
		case Skip:
			if err := checkField("skipped rows", i.Count, 1); err != nil {
				return nil, err
			}
			b = append(b, flag|byte(i.Count))
		case Run:
			if err := checkField("run length", i.Count, 1); err != nil {
				return nil, err
			}
			if err := checkField("run offset", i.Offset, 0); err != nil {
				return nil, err
			}
			offs := byte(i.Offset)
			if i.NewRow {
				offs |= flag
			}
			b = append(b, byte(i.Count), offs)
		default:
			return nil, fmt.Errorf("region: unexpected %s instruction", i.Op)
		}
	}

	return append(b, endMarker), nil
}

// Encode writes the region for the bulk and detail colours in m to w.
// Nothing is written if neither colour appears in m.
func Encode(w io.Writer, m image.Image, bulk, detail color.Color) error {
	r, err := Scan(m, bulk, detail)
	if err != nil || r == nil {
		return err
	}

	b, err := r.MarshalBinary()
	if err != nil {
		return err
	}

	_, err = w.Write(b)
	return err
}
