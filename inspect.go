package progmem

import (
	"fmt"
	"image"
	"image/color"
	"sort"

	"github.com/bodgit/progmem/raster"
	"github.com/ericpauley/go-quantize/quantize"
)

// Swatch is one colour found in an image.
type Swatch struct {
	Color  color.NRGBA
	Pixels int
	// Exact is false if Color stands in for several similar colours
	Exact bool
	// Uses lists the catalog definitions using Color, such as "3 bulk"
	Uses []string
}

func countColors(m image.Image) map[color.NRGBA]int {
	colors := make(map[color.NRGBA]int)
	b := m.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			colors[color.NRGBAModel.Convert(m.At(x, y)).(color.NRGBA)]++
		}
	}
	return colors
}

func (c *Catalog) uses(p color.Color) []string {
	var uses []string
	for i, d := range c.Definitions {
		if d.Bulk != nil && raster.Match(d.Bulk)(p) {
			uses = append(uses, fmt.Sprintf("%d bulk", i))
		}
		if raster.Match(d.Color)(p) {
			if c.Kind == RegionKind {
				uses = append(uses, fmt.Sprintf("%d detail", i))
			} else {
				uses = append(uses, fmt.Sprint(i))
			}
		}
	}
	return uses
}

// Inspect lists the colours of m, most frequent first, along with the
// catalog definitions that use them. If m has more than n distinct colours
// they are reduced to n with a median cut quantizer, which helps spot
// anti-aliased artwork that will not match any definition. An n below one
// is treated as one.
func Inspect(m image.Image, n int, c *Catalog) []Swatch {
	if n < 1 {
		n = 1
	}
	colors := countColors(m)

	var swatches []Swatch
	if len(colors) <= n {
		for k, v := range colors {
			swatches = append(swatches, Swatch{
				Color:  k,
				Pixels: v,
				Exact:  true,
			})
		}
	} else {
		q := quantize.MedianCutQuantizer{}
		p := q.Quantize(make(color.Palette, 0, n), m)

		counts := make([]int, len(p))
		for k, v := range colors {
			counts[p.Index(k)] += v
		}
		for i, v := range counts {
			if v == 0 {
				continue
			}
			swatches = append(swatches, Swatch{
				Color:  color.NRGBAModel.Convert(p[i]).(color.NRGBA),
				Pixels: v,
			})
		}
	}

	for i := range swatches {
		swatches[i].Uses = c.uses(swatches[i].Color)
	}

	sort.Slice(swatches, func(i, j int) bool {
		if swatches[i].Pixels != swatches[j].Pixels {
			return swatches[i].Pixels > swatches[j].Pixels
		}
		return formatColor(swatches[i].Color) < formatColor(swatches[j].Color)
	})

	return swatches
}
