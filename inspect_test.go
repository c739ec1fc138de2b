package progmem

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInspectExact(t *testing.T) {
	c := RegionCatalog()
	m := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	fill(m, m.Bounds(), color.White)
	fill(m, image.Rect(0, 0, 4, 2), c.Definitions[2].Bulk)
	fill(m, image.Rect(0, 0, 1, 1), c.Definitions[2].Color)

	swatches := Inspect(m, 16, c)
	require.Len(t, swatches, 3)

	assert.Equal(t, Swatch{
		Color:  color.NRGBA{0xff, 0xff, 0xff, 0xff},
		Pixels: 8,
		Exact:  true,
	}, swatches[0])
	assert.Equal(t, Swatch{
		Color:  color.NRGBA{0x64, 0x64, 0xff, 0xff},
		Pixels: 7,
		Exact:  true,
		Uses:   []string{"2 bulk"},
	}, swatches[1])
	assert.Equal(t, Swatch{
		Color:  color.NRGBA{0x00, 0x00, 0xff, 0xff},
		Pixels: 1,
		Exact:  true,
		Uses:   []string{"2 detail"},
	}, swatches[2])
}

func TestInspectMask(t *testing.T) {
	c := BlockCatalog()
	m := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	m.Set(0, 0, c.Definitions[9].Color)
	m.Set(1, 0, c.Definitions[9].Color)

	swatches := Inspect(m, 16, c)
	require.Len(t, swatches, 1)
	assert.Equal(t, []string{"9"}, swatches[0].Uses)
	assert.Equal(t, 2, swatches[0].Pixels)
}

func TestInspectQuantized(t *testing.T) {
	m := image.NewNRGBA(image.Rect(0, 0, 64, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 64; x++ {
			m.Set(x, y, color.NRGBA{uint8(x * 4), uint8(x * 4), uint8(x * 4), 0xff})
		}
	}

	swatches := Inspect(m, 4, BlockCatalog())
	assert.NotEmpty(t, swatches)
	assert.True(t, len(swatches) <= 4)

	total := 0
	for i, s := range swatches {
		assert.False(t, s.Exact)
		total += s.Pixels
		if i > 0 {
			assert.True(t, swatches[i-1].Pixels >= s.Pixels)
		}
	}
	assert.Equal(t, 64*4, total)
}

func TestInspectNoColors(t *testing.T) {
	m := image.NewNRGBA(image.Rect(0, 0, 4, 1))
	for x := 0; x < 4; x++ {
		m.Set(x, 0, BlockCatalog().Definitions[x].Color)
	}

	for _, n := range []int{0, -1} {
		swatches := Inspect(m, n, BlockCatalog())
		require.Len(t, swatches, 1)
		assert.False(t, swatches[0].Exact)
		assert.Equal(t, 4, swatches[0].Pixels)
	}
}
