package mask

import (
	"bytes"
	"errors"
	"io"
)

var (
	// ErrTruncated is returned when a blob ends before its last byte.
	ErrTruncated = errors.New("mask: not enough data")

	errBadHeader = errors.New("mask: zero width or height")
)

func readFull(r io.Reader, b []byte) error {
	_, err := io.ReadFull(r, b)
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return err
}

type decoder struct {
	r    io.Reader
	mask Mask
}

func (d *decoder) decode(r io.Reader) error {
	d.r = r

	var header [headerBytes]byte
	if err := readFull(d.r, header[:]); err != nil {
		return err
	}
	if header[0] == 0 || header[1] == 0 {
		return errBadHeader
	}

	d.mask.Width, d.mask.Height = int(header[0]), int(header[1])
	d.mask.Bits = make([]byte, bodySize(d.mask.Width, d.mask.Height))

	return readFull(d.r, d.mask.Bits)
}

// Decode reads exactly one mask blob from r.
func Decode(r io.Reader) (*Mask, error) {
	var d decoder
	if err := d.decode(r); err != nil {
		if err == io.ErrUnexpectedEOF {
			return nil, ErrTruncated
		}
		return nil, err
	}
	return &d.mask, nil
}

// UnmarshalBinary decodes the mask from its blob form. Trailing bytes are an
// error.
func (m *Mask) UnmarshalBinary(b []byte) error {
	r := bytes.NewReader(b)
	d, err := Decode(r)
	if err != nil {
		return err
	}
	if r.Len() > 0 {
		return errors.New("mask: too much data")
	}
	*m = *d
	return nil
}
