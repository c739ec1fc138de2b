package progmem

import (
	"fmt"
	"io"
	"strings"

	"github.com/bodgit/progmem/bundle"
)

const bytesPerLine = 16

type sourceWriter struct {
	w   io.Writer
	err error
}

func (s *sourceWriter) printf(format string, a ...interface{}) {
	if s.err != nil {
		return
	}
	_, s.err = fmt.Fprintf(s.w, format, a...)
}

func (s *sourceWriter) bytes(b []byte) {
	for i := 0; i < len(b); i += bytesPerLine {
		end := i + bytesPerLine
		if end > len(b) {
			end = len(b)
		}
		literals := make([]string, 0, end-i)
		for _, v := range b[i:end] {
			literals = append(literals, fmt.Sprintf("0x%02X", v))
		}
		sep := ","
		if end == len(b) {
			sep = ""
		}
		s.printf("  %s%s\n", strings.Join(literals, ", "), sep)
	}
}

// WriteSource renders the result as C source: one PROGMEM array per present
// blob with its size, and a running total. If table is set, a table of
// pointers follows with one slot per definition up to the last present
// blob, NULL where a definition has no blob.
func (r *Result) WriteSource(w io.Writer, table bool) error {
	s := &sourceWriter{w: w}

	s.printf("// ---------------------------------\n")
	if r.Catalog.Kind == RegionKind {
		s.printf("#define %s_WIDTH  %d\n", r.Name, r.Width)
		s.printf("#define %s_HEIGHT %d\n", r.Name, r.Height)
	}

	// The table is indexed by definition number, so absent blobs up to the
	// last present one keep their slot as NULL
	slots := make([]string, len(r.Blobs))
	last := -1
	for i, b := range r.Blobs {
		slots[i] = "NULL"
		if len(b.Data) == 0 {
			continue
		}
		slots[i] = b.Name
		last = i

		s.printf("static const uint8_t %s[] PROGMEM =\n", b.Name)
		s.printf("{\n")
		s.bytes(b.Data)
		s.printf("};  // %d bytes\n\n", len(b.Data))
	}

	if table && last >= 0 {
		s.printf("static const uint8_t* const %sTable[] PROGMEM =\n", r.Name)
		s.printf("{\n")
		for _, n := range slots[:last+1] {
			s.printf("  %s,\n", n)
		}
		s.printf("};\n\n")
	}

	s.printf("// (%d bytes total)\n\n", r.Size())

	return s.err
}

// Bundle collects the present blobs of r into a bundle.
func (r *Result) Bundle() (*bundle.Bundle, error) {
	bb, err := bundle.New(len(r.Blobs))
	if err != nil {
		return nil, err
	}
	for _, b := range r.Blobs {
		if err := bb.Set(b.Index, b.Data); err != nil {
			return nil, err
		}
	}
	return bb, nil
}

// ReadBundle restores the blobs of a bundle written for the catalog c.
func ReadBundle(name string, c *Catalog, width, height int, data []byte) (*Result, error) {
	var bb bundle.Bundle
	if err := bb.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	if bb.Entries() != len(c.Definitions) {
		return nil, fmt.Errorf("bundle has %d entries, catalog has %d", bb.Entries(), len(c.Definitions))
	}

	r := newResult(name, c, width, height)
	for i := range r.Blobs {
		r.Blobs[i].Data = bb.Get(i)
	}
	return r, nil
}
