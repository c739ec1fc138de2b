package progmem

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyRegions(t *testing.T) {
	c := RegionCatalog()
	m := segmentImage(c, 0, 3, 9)

	result, err := newEncoder(t, c, nil).Encode(context.Background(), "Seg", &Raster{Image: m})
	require.NoError(t, err)

	report, err := result.Verify(m)
	require.NoError(t, err)
	assert.Empty(t, report.Mismatches)

	// Segment 3 starts at (2, 14)
	assert.Equal(t, color.NRGBA{0xc8, 0x64, 0x64, 0xff}, report.Preview.NRGBAAt(4, 14))
	assert.Equal(t, color.NRGBA{0xc8, 0x00, 0x00, 0xff}, report.Preview.NRGBAAt(3, 15))
	assert.Equal(t, color.NRGBA{}, report.Preview.NRGBAAt(0, 0))
}

func TestVerifyBulkOverlap(t *testing.T) {
	c := RegionCatalog()
	d := c.Definitions[0]
	m := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	fill(m, m.Bounds(), color.White)
	m.Set(0, 0, d.Bulk)
	m.Set(1, 0, d.Bulk)
	m.Set(0, 1, d.Bulk)
	m.Set(2, 2, d.Color)

	result, err := newEncoder(t, c, nil).Encode(context.Background(), "L", &Raster{Image: m})
	require.NoError(t, err)

	report, err := result.Verify(m)
	require.NoError(t, err)
	assert.Equal(t, []Mismatch{
		{Name: "L0", Pixels: 1, First: image.Pt(1, 1)},
	}, report.Mismatches)
	assert.Equal(t, "L0: 1 pixels differ, first at (1,1)", report.Mismatches[0].String())
}

func TestVerifyBlocks(t *testing.T) {
	c := BlockCatalog()
	m := segmentImage(RegionCatalog(), 1, 8)

	result, err := newEncoder(t, c, nil).Encode(context.Background(), "Seg", &Raster{Image: m})
	require.NoError(t, err)

	report, err := result.Verify(m)
	require.NoError(t, err)
	assert.Empty(t, report.Mismatches)

	// Segment 1 has its left detail pixel at (3, 7)
	assert.Equal(t, color.NRGBA{0x00, 0xff, 0x00, 0xff}, report.Preview.NRGBAAt(3, 7))

	// Clear the first pixel of the mask
	result.Blobs[1].Data[2] &^= 0x01
	report, err = result.Verify(m)
	require.NoError(t, err)
	require.Len(t, report.Mismatches, 1)
	assert.Equal(t, "Seg1", report.Mismatches[0].Name)
	assert.Equal(t, 1, report.Mismatches[0].Pixels)
	assert.Equal(t, image.Pt(3, 7), report.Mismatches[0].First)
}

func TestVerifyMissing(t *testing.T) {
	c := BlockCatalog()
	m := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	m.Set(5, 6, c.Definitions[4].Color)

	r := newResult("Seg", c, 8, 8)
	report, err := r.Verify(m)
	require.NoError(t, err)
	assert.Equal(t, []Mismatch{
		{Name: "Seg4", Pixels: 1, First: image.Pt(5, 6)},
	}, report.Mismatches)
}

func TestVerifyMalformed(t *testing.T) {
	c := BlockCatalog()
	m := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	m.Set(5, 6, c.Definitions[4].Color)

	r := newResult("Seg", c, 8, 8)
	r.Blobs[4].Data = []byte{0x02, 0x01, 0x03}
	_, err := r.Verify(m)
	assert.EqualError(t, err, "Seg4: decoded as 2x1, expected 1x1")

	r.Blobs[4].Data = []byte{0x01}
	_, err = r.Verify(m)
	assert.Error(t, err)
}

func TestVerifyBundle(t *testing.T) {
	c := RegionCatalog()
	m := segmentImage(c, 2, 7, 15)

	result, err := newEncoder(t, c, nil).Encode(context.Background(), "Seg", &Raster{Image: m})
	require.NoError(t, err)

	bb, err := result.Bundle()
	require.NoError(t, err)
	data, err := bb.MarshalBinary()
	require.NoError(t, err)

	dup, err := ReadBundle("Seg", c, result.Width, result.Height, data)
	require.NoError(t, err)

	report, err := dup.Verify(m)
	require.NoError(t, err)
	assert.Empty(t, report.Mismatches)
}
