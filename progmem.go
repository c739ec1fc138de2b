/*
Package progmem is a library for turning the coloured regions of an image
into compact byte arrays for firmware that draws them straight out of
program memory.

Each colour, or pair of colours, listed in a Catalog becomes one blob. Mask
catalogs produce bit-packed masks suited to small glyphs, region catalogs
produce a solid rectangle plus run-length detail suited to the segments of
large digits.
*/
package progmem

import (
	"crypto/sha1"
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"os"

	"github.com/bodgit/progmem/raster"
)

var (
	// ErrMalformedGeometry is returned when a dimension, length, offset
	// or count does not fit the encoding.
	ErrMalformedGeometry = raster.ErrMalformedGeometry

	// ErrRasterUnavailable is returned when an image cannot be read or
	// decoded.
	ErrRasterUnavailable = errors.New("raster unavailable")
)

const defaultWorkers = 4

// Raster is a decoded image along with the SHA-1 of the file it came from.
type Raster struct {
	image.Image
	SHA1 string
}

// Open reads and decodes the image in file. Any image format registered
// with the image package can be used.
func Open(file string) (*Raster, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRasterUnavailable, err)
	}
	defer f.Close()

	h := sha1.New()
	m, _, err := image.Decode(io.TeeReader(f, h))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRasterUnavailable, file, err)
	}

	return &Raster{
		Image: m,
		SHA1:  fmt.Sprintf("%X", h.Sum(nil)),
	}, nil
}

// Encoder encodes images against a catalog.
type Encoder struct {
	catalog *Catalog
	db      *DB
	logger  *log.Logger

	// Workers is the number of definitions encoded in parallel
	Workers int
}

// New returns an Encoder for the catalog c. If db is not nil, results are
// stored in it and reused for images that have been encoded before.
func New(c *Catalog, db *DB, logger *log.Logger) (*Encoder, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &Encoder{
		catalog: c,
		db:      db,
		logger:  logger,
		Workers: defaultWorkers,
	}, nil
}
