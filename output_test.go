package progmem

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testResult(kind Kind, blobs map[int][]byte) *Result {
	c := BlockCatalog()
	if kind == RegionKind {
		c = RegionCatalog()
	}
	r := newResult("Seg", c, 64, 48)
	for i, b := range blobs {
		r.Blobs[i].Data = b
	}
	return r
}

func TestWriteSourceMask(t *testing.T) {
	r := testResult(MaskKind, map[int][]byte{
		2: {0x03, 0x02, 0x21},
	})

	b := new(bytes.Buffer)
	require.NoError(t, r.WriteSource(b, true))

	assert.Equal(t, strings.Join([]string{
		"// ---------------------------------",
		"static const uint8_t Seg2[] PROGMEM =",
		"{",
		"  0x03, 0x02, 0x21",
		"};  // 3 bytes",
		"",
		"static const uint8_t* const SegTable[] PROGMEM =",
		"{",
		"  NULL,",
		"  NULL,",
		"  Seg2,",
		"};",
		"",
		"// (3 bytes total)",
		"",
		"",
	}, "\n"), b.String())
}

func TestWriteSourceRegion(t *testing.T) {
	long := make([]byte, 18)
	for i := range long {
		long[i] = byte(i + 0xf0)
	}
	r := testResult(RegionKind, map[int][]byte{
		0: long,
		3: {0x00, 0x00, 0x00, 0x01, 0x00, 0x00},
	})

	b := new(bytes.Buffer)
	require.NoError(t, r.WriteSource(b, false))

	assert.Equal(t, strings.Join([]string{
		"// ---------------------------------",
		"#define Seg_WIDTH  64",
		"#define Seg_HEIGHT 48",
		"static const uint8_t Seg0[] PROGMEM =",
		"{",
		"  0xF0, 0xF1, 0xF2, 0xF3, 0xF4, 0xF5, 0xF6, 0xF7, 0xF8, 0xF9, 0xFA, 0xFB, 0xFC, 0xFD, 0xFE, 0xFF,",
		"  0x00, 0x01",
		"};  // 18 bytes",
		"",
		"static const uint8_t Seg3[] PROGMEM =",
		"{",
		"  0x00, 0x00, 0x00, 0x01, 0x00, 0x00",
		"};  // 6 bytes",
		"",
		"// (24 bytes total)",
		"",
		"",
	}, "\n"), b.String())
}

func TestWriteSourceTableGaps(t *testing.T) {
	r := testResult(MaskKind, map[int][]byte{
		0: {0x01, 0x01, 0x01},
		2: {0x01, 0x01, 0x01},
	})

	b := new(bytes.Buffer)
	require.NoError(t, r.WriteSource(b, true))

	// Entry 1 keeps its slot and nothing follows the last present blob
	assert.Contains(t, b.String(), strings.Join([]string{
		"static const uint8_t* const SegTable[] PROGMEM =",
		"{",
		"  Seg0,",
		"  NULL,",
		"  Seg2,",
		"};",
		"",
	}, "\n"))
}

func TestWriteSourceEmpty(t *testing.T) {
	r := testResult(MaskKind, nil)

	b := new(bytes.Buffer)
	require.NoError(t, r.WriteSource(b, true))
	assert.Equal(t, "// ---------------------------------\n// (0 bytes total)\n\n", b.String())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, assert.AnError
}

func TestWriteSourceError(t *testing.T) {
	r := testResult(MaskKind, map[int][]byte{0: {0x01, 0x01, 0x01}})
	assert.Equal(t, assert.AnError, r.WriteSource(failingWriter{}, false))
}

func TestBundleRoundTrip(t *testing.T) {
	r := testResult(RegionKind, map[int][]byte{
		1:  {0x00, 0x00, 0x00, 0x01, 0x00, 0x00},
		15: {0x01, 0x01, 0x02, 0x02, 0x00, 0x00, 0x00},
	})

	bb, err := r.Bundle()
	require.NoError(t, err)
	assert.Equal(t, 16, bb.Entries())
	assert.Equal(t, 2, bb.Length())

	data, err := bb.MarshalBinary()
	require.NoError(t, err)
	assert.Len(t, data, 1+16*2+13)

	dup, err := ReadBundle("Seg", RegionCatalog(), 64, 48, data)
	require.NoError(t, err)
	for i := range r.Blobs {
		assert.Equal(t, r.Blobs[i].Name, dup.Blobs[i].Name)
		assert.Equal(t, len(r.Blobs[i].Data), len(dup.Blobs[i].Data))
		if len(r.Blobs[i].Data) > 0 {
			assert.Equal(t, r.Blobs[i].Data, dup.Blobs[i].Data)
		}
	}

	_, err = ReadBundle("Seg", &Catalog{Kind: RegionKind, Definitions: RegionCatalog().Definitions[:4]}, 64, 48, data)
	assert.Error(t, err)
}
