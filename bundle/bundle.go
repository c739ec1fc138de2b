/*
Package bundle implements the binary container written when the blobs of a
catalog are loaded from flash or an SD card rather than compiled into
program memory.

The container starts with one byte holding the number of entries, followed by
one little-endian 16-bit offset per entry relative to the end of the offset
table, or 0xffff if the entry has no blob. The blobs follow in entry order.
*/
package bundle

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
)

const (
	// MaxEntries is the largest number of entries in a bundle
	MaxEntries = 0xff

	absent    = 0xffff
	maxOffset = absent - 1
)

// Bundle is a set of numbered blobs. It implements the
// encoding.BinaryMarshaler and encoding.BinaryUnmarshaler interfaces.
type Bundle struct {
	entries int
	blobs   map[int][]byte
}

// New returns an empty bundle with room for n entries.
func New(n int) (*Bundle, error) {
	if n < 0 || n > MaxEntries {
		return nil, fmt.Errorf("bundle: %d entries, at most %d", n, MaxEntries)
	}
	return &Bundle{
		entries: n,
		blobs:   make(map[int][]byte),
	}, nil
}

// Entries returns the number of entries, present or not.
func (b *Bundle) Entries() int {
	return b.entries
}

// Length returns the number of entries holding a blob.
func (b *Bundle) Length() int {
	return len(b.blobs)
}

// Set stores the blob for entry i. An empty blob clears the entry.
func (b *Bundle) Set(i int, blob []byte) error {
	if i < 0 || i >= b.entries {
		return fmt.Errorf("bundle: entry %d out of range", i)
	}
	if len(blob) == 0 {
		delete(b.blobs, i)
		return nil
	}
	b.blobs[i] = blob
	return nil
}

// Get returns the blob for entry i, or nil if the entry is absent.
func (b *Bundle) Get(i int) []byte {
	return b.blobs[i]
}

// MarshalBinary encodes the bundle into binary form and returns the result
func (b *Bundle) MarshalBinary() ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.WriteByte(byte(b.entries))

	offsets := make([]uint16, b.entries)
	offset := 0
	for i := range offsets {
		blob, ok := b.blobs[i]
		if !ok {
			offsets[i] = absent
			continue
		}
		if offset > maxOffset {
			return nil, errors.New("bundle: too much data")
		}
		offsets[i] = uint16(offset)
		offset += len(blob)
	}

	// Write out offsets
	if err := binary.Write(buf, binary.LittleEndian, offsets); err != nil {
		return nil, err
	}

	// Write out blobs
	for i := 0; i < b.entries; i++ {
		if _, err := buf.Write(b.blobs[i]); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

// UnmarshalBinary decodes the bundle from binary form. Each blob runs up to
// the start of the next present blob or the end of the data.
func (b *Bundle) UnmarshalBinary(data []byte) error {
	r := bytes.NewReader(data)

	n, err := r.ReadByte()
	if err != nil {
		return errors.New("bundle: insufficient data")
	}

	offsets := make([]uint16, n)
	if err := binary.Read(r, binary.LittleEndian, offsets); err != nil {
		return errors.New("bundle: insufficient data")
	}

	body := data[len(data)-r.Len():]

	var present []int
	for i, o := range offsets {
		if o == absent {
			continue
		}
		if int(o) >= len(body) {
			return fmt.Errorf("bundle: entry %d offset %d beyond end of data", i, o)
		}
		present = append(present, i)
	}
	if !sort.SliceIsSorted(present, func(i, j int) bool { return offsets[present[i]] < offsets[present[j]] }) {
		return errors.New("bundle: offsets out of order")
	}

	b.entries = int(n)
	b.blobs = make(map[int][]byte)
	for j, i := range present {
		end := len(body)
		if j+1 < len(present) {
			end = int(offsets[present[j+1]])
		}
		if end <= int(offsets[i]) {
			return fmt.Errorf("bundle: entry %d is empty", i)
		}
		b.blobs[i] = body[offsets[i]:end]
	}

	return nil
}
