package region

import (
	"bytes"
	"errors"
	"image"
	"io"
)

var (
	// ErrTruncated is returned when a blob ends before its end marker.
	ErrTruncated = errors.New("region: not enough data")

	errBadBulk = errors.New("region: zero bulk height")
	errBadSkip = errors.New("region: zero row skip")
)

func readFull(r io.Reader, b []byte) error {
	_, err := io.ReadFull(r, b)
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return err
}

type decoder struct {
	r      io.Reader
	region Region

	tmp [3]byte
}

func (d *decoder) readByte() (byte, error) {
	if err := readFull(d.r, d.tmp[:1]); err != nil {
		return 0, err
	}
	return d.tmp[0], nil
}

func (d *decoder) readHeader() error {
	if err := readFull(d.r, d.tmp[:2]); err != nil {
		return err
	}
	d.region.Origin = image.Pt(int(d.tmp[0]), int(d.tmp[1]))

	w, err := d.readByte()
	if err != nil {
		return err
	}
	if w == noBulk {
		return nil
	}

	// h, dx, dy
	if err := readFull(d.r, d.tmp[:3]); err != nil {
		return err
	}
	if d.tmp[0] == 0 {
		return errBadBulk
	}
	d.region.Bulk = image.Rect(0, 0, int(w), int(d.tmp[0])).Add(image.Pt(int(d.tmp[1]), int(d.tmp[2])))

	return nil
}

func (d *decoder) readInstruction() (Instruction, error) {
	b, err := d.readByte()
	if err != nil {
		return Instruction{}, err
	}

	switch {
	case b == endMarker:
		return Instruction{Op: End}, nil
	case b&flag != 0:
		if b&maxField == 0 {
			return Instruction{}, errBadSkip
		}
		return Instruction{Op: Skip, Count: int(b & maxField)}, nil
	}

	offs, err := d.readByte()
	if err != nil {
		return Instruction{}, err
	}

	return Instruction{
		Op:     Run,
		Count:  int(b),
		Offset: int(offs & maxField),
		NewRow: offs&flag != 0,
	}, nil
}

func (d *decoder) decode(r io.Reader) error {
	d.r = r

	if err := d.readHeader(); err != nil {
		return err
	}

	for {
		i, err := d.readInstruction()
		if err != nil {
			return err
		}
		if i.Op == End {
			return nil
		}
		d.region.Detail = append(d.region.Detail, i)
	}
}

// Decode reads exactly one region blob from r, up to and including its end
// marker.
func Decode(r io.Reader) (*Region, error) {
	var d decoder
	if err := d.decode(r); err != nil {
		if err == io.ErrUnexpectedEOF {
			return nil, ErrTruncated
		}
		return nil, err
	}
	return &d.region, nil
}

// UnmarshalBinary decodes the region from its blob form. Bytes after the end
// marker are an error.
func (r *Region) UnmarshalBinary(b []byte) error {
	br := bytes.NewReader(b)
	d, err := Decode(br)
	if err != nil {
		return err
	}
	if br.Len() > 0 {
		return errors.New("region: too much data")
	}
	*r = *d
	return nil
}
