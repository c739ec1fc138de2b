package mask

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"math/rand"
	"testing"

	"github.com/bodgit/progmem/raster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	red   = color.NRGBA{0xff, 0x00, 0x00, 0xff}
	green = color.NRGBA{0x00, 0xff, 0x00, 0xff}
)

func TestEncodeBitOrder(t *testing.T) {
	// Red is a single pixel, green a 3x1 box with a hole in the middle
	m := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	m.Set(2, 1, red)
	m.Set(1, 2, green)
	m.Set(3, 2, green)

	b := new(bytes.Buffer)
	require.NoError(t, Encode(b, m, red))
	assert.Equal(t, []byte{0x01, 0x01, 0x01}, b.Bytes())

	b.Reset()
	require.NoError(t, Encode(b, m, green))
	assert.Equal(t, []byte{0x03, 0x01, 0x05}, b.Bytes())
}

func TestMarshalThreeByTwo(t *testing.T) {
	// Only the second pixel of the first row is set
	m := &Mask{Width: 3, Height: 2, Bits: []byte{0x02}}

	b, err := m.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x03, 0x02, 0x02}, b)

	_, err = (&Mask{Width: 3, Height: 2}).MarshalBinary()
	assert.True(t, errors.Is(err, raster.ErrMalformedGeometry))
}

func TestEncodePartialByte(t *testing.T) {
	m := image.NewNRGBA(image.Rect(0, 0, 3, 3))
	draw.Draw(m, m.Bounds(), image.NewUniform(red), image.Point{}, draw.Src)

	b := new(bytes.Buffer)
	require.NoError(t, Encode(b, m, red))
	// Nine pixels, the second byte only carries bit 0
	assert.Equal(t, []byte{0x03, 0x03, 0xff, 0x01}, b.Bytes())
}

func TestEncodeAbsent(t *testing.T) {
	m := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	m.Set(1, 1, green)

	b := new(bytes.Buffer)
	require.NoError(t, Encode(b, m, red))
	assert.Zero(t, b.Len())

	mask, err := New(m, red)
	assert.NoError(t, err)
	assert.Nil(t, mask)
}

func TestEncodeTooLarge(t *testing.T) {
	m := image.NewNRGBA(image.Rect(0, 0, 300, 2))
	m.Set(0, 0, red)
	m.Set(299, 1, red)

	err := Encode(new(bytes.Buffer), m, red)
	assert.True(t, errors.Is(err, raster.ErrMalformedGeometry))
}

func TestRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		m := image.NewNRGBA(image.Rect(0, 0, 1+r.Intn(40), 1+r.Intn(40)))
		for y := 0; y < m.Bounds().Dy(); y++ {
			for x := 0; x < m.Bounds().Dx(); x++ {
				if r.Intn(3) == 0 {
					m.Set(x, y, red)
				}
			}
		}

		b := new(bytes.Buffer)
		require.NoError(t, Encode(b, m, red))

		box := raster.Bounds(m, raster.Match(red))
		if box.Empty() {
			assert.Zero(t, b.Len())
			continue
		}

		mask, err := Decode(b)
		require.NoError(t, err)
		assert.Zero(t, b.Len())
		assert.Equal(t, box.Dx(), mask.Width)
		assert.Equal(t, box.Dy(), mask.Height)

		for y := 0; y < mask.Height; y++ {
			for x := 0; x < mask.Width; x++ {
				assert.Equal(t, m.At(box.Min.X+x, box.Min.Y+y) == color.Color(red), mask.Contains(x, y), "pixel (%d,%d)", x, y)
			}
		}
	}
}

func TestDeterministic(t *testing.T) {
	m := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	for i := 0; i < 10; i += 3 {
		m.Set(i, 9-i, red)
	}

	b1, b2 := new(bytes.Buffer), new(bytes.Buffer)
	require.NoError(t, Encode(b1, m, red))
	require.NoError(t, Encode(b2, m, red))
	assert.Equal(t, b1.Bytes(), b2.Bytes())
}

func TestDecodeTruncated(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte{0x04, 0x04, 0xff}))
	assert.Equal(t, ErrTruncated, err)

	_, err = Decode(bytes.NewReader([]byte{0x04}))
	assert.Equal(t, ErrTruncated, err)

	_, err = Decode(bytes.NewReader([]byte{0x00, 0x04}))
	assert.Error(t, err)
}

func TestUnmarshalBinary(t *testing.T) {
	var m Mask
	require.NoError(t, m.UnmarshalBinary([]byte{0x03, 0x02, 0x02}))
	assert.True(t, m.Contains(1, 0))
	assert.False(t, m.Contains(0, 0))
	assert.False(t, m.Contains(3, 0))
	assert.Equal(t, color.Opaque, m.At(1, 0))
	assert.Equal(t, color.Transparent, m.At(2, 1))
	assert.Equal(t, image.Rect(0, 0, 3, 2), m.Bounds())
	assert.Equal(t, 3, m.Len())

	assert.Error(t, m.UnmarshalBinary([]byte{0x03, 0x02, 0x02, 0x00}))
}
