/*
Package region implements the bulk and detail encoder and decoder used for
large irregular shapes such as the segments of a digit display.

A region is drawn from two colours in the source image: a bulk colour whose
bounding box is filled as one solid rectangle and a detail colour whose pixels
are stored as horizontal runs. The blob is laid out as follows:

	x0, y0            origin of the region
	w, h, dx, dy      bulk rectangle relative to the origin, or a single 0x00
	...               detail instructions
	0x00              end

Each detail instruction is either one byte 0x80|n, skip n rows, or two bytes
w, offs, a run of w pixels starting offs columns right of the origin. Bit 7
of offs is set on the first run of every row after the first row that holds
any run, moving the run down one row. Rows are scanned from the origin to the
bottom of the image, so every field must fit in seven bits and images are
limited to 127 by 127 pixels.
*/
package region

import (
	"image"
	"image/color"
	"image/draw"
)

const (
	maxField  = 0x7f
	flag      = 0x80
	endMarker = 0x00
	noBulk    = 0x00
)

// Op identifies the kind of an Instruction.
type Op int

// Detail instructions.
const (
	End Op = iota
	Skip
	Run
)

func (o Op) String() string {
	switch o {
	case End:
		return "end"
	case Skip:
		return "skip"
	case Run:
		return "run"
	default:
		return "unknown"
	}
}

// Instruction is one step of the detail scanline stream.
type Instruction struct {
	Op Op
	// Count is the number of rows skipped or the length of the run
	Count int
	// Offset is the first column of the run relative to the origin
	Offset int
	// NewRow moves a run down to the next row
	NewRow bool
}

// Span is a horizontal run of detail pixels in image coordinates.
type Span struct {
	X, Y   int
	Length int
}

// Region is a decoded region blob. Coordinates are relative to the top-left
// corner of the source image.
type Region struct {
	Origin image.Point
	// Bulk is relative to Origin and empty if there is no bulk fill
	Bulk   image.Rectangle
	Detail []Instruction
}

// Len returns the size in bytes of the encoded blob.
func (r *Region) Len() int {
	n := 2 + 1 + 1
	if !r.Bulk.Empty() {
		n += 3
	}
	for _, i := range r.Detail {
		switch i.Op {
		case Skip:
			n++
		case Run:
			n += 2
		}
	}
	return n
}

// Spans replays the detail instructions and returns every run in image
// coordinates, in the order they were encoded. The new row flag is ignored
// on the first run of the stream.
func (r *Region) Spans() []Span {
	var spans []Span
	y := r.Origin.Y
	for _, i := range r.Detail {
		switch i.Op {
		case Skip:
			y += i.Count
		case Run:
			if i.NewRow && len(spans) > 0 {
				y++
			}
			spans = append(spans, Span{
				X:      r.Origin.X + i.Offset,
				Y:      y,
				Length: i.Count,
			})
		}
	}
	return spans
}

// Draw paints the region onto dst at dst.Bounds().Min, the bulk rectangle
// first and then the detail runs, in the same order as the firmware.
func (r *Region) Draw(dst draw.Image, bulk, detail color.Color) {
	off := dst.Bounds().Min
	if !r.Bulk.Empty() {
		draw.Draw(dst, r.Bulk.Add(r.Origin).Add(off), image.NewUniform(bulk), image.Point{}, draw.Src)
	}
	src := image.NewUniform(detail)
	for _, s := range r.Spans() {
		draw.Draw(dst, image.Rect(s.X, s.Y, s.X+s.Length, s.Y+1).Add(off), src, image.Point{}, draw.Src)
	}
}
