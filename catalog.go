package progmem

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/xml"
	"errors"
	"fmt"
	"image/color"
	"io/ioutil"
	"os"
	"strings"

	"github.com/bodgit/progmem/bundle"
)

// Kind selects the encoding used for every definition in a catalog.
type Kind int

const (
	// MaskKind encodes each colour as a bit-packed mask
	MaskKind Kind = iota
	// RegionKind encodes each colour pair as a bulk rectangle plus
	// detail runs
	RegionKind
)

func (k Kind) String() string {
	switch k {
	case MaskKind:
		return "mask"
	case RegionKind:
		return "region"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Definition is one entry of a catalog. Bulk is only used by region
// catalogs.
type Definition struct {
	Bulk  color.Color
	Color color.Color
}

// Catalog is an ordered list of colour definitions. The position of a
// definition decides the name of its blob.
type Catalog struct {
	Kind        Kind
	Definitions []Definition
}

// Validate checks every definition carries the colours its kind needs.
func (c *Catalog) Validate() error {
	if len(c.Definitions) > bundle.MaxEntries {
		return fmt.Errorf("more than %d definitions", bundle.MaxEntries)
	}
	for i, d := range c.Definitions {
		if d.Color == nil {
			return fmt.Errorf("definition %d has no colour", i)
		}
		switch c.Kind {
		case MaskKind:
			if d.Bulk != nil {
				return fmt.Errorf("definition %d has a bulk colour in a mask catalog", i)
			}
		case RegionKind:
			if d.Bulk == nil {
				return fmt.Errorf("definition %d has no bulk colour", i)
			}
		default:
			return fmt.Errorf("unknown catalog kind %d", int(c.Kind))
		}
	}
	return nil
}

func formatColor(c color.Color) string {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return fmt.Sprintf("#%02X%02X%02X", n.R, n.G, n.B)
}

func parseColor(s string) (color.Color, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(s, "#"))
	if err != nil || len(b) != 3 {
		return nil, fmt.Errorf("invalid colour \"%s\"", s)
	}
	return color.NRGBA{b[0], b[1], b[2], 0xff}, nil
}

// Fingerprint returns a digest of the kind and colours of the catalog, used
// to tell stored blobs of different catalogs apart.
func (c *Catalog) Fingerprint() string {
	h := sha1.New()
	fmt.Fprintln(h, c.Kind)
	for _, d := range c.Definitions {
		if d.Bulk != nil {
			fmt.Fprint(h, formatColor(d.Bulk))
		}
		fmt.Fprintln(h, formatColor(d.Color))
	}
	return fmt.Sprintf("%X", h.Sum(nil))
}

func rgb(r, g, b uint8) color.Color {
	return color.NRGBA{r, g, b, 0xff}
}

// BlockCatalog returns the built-in mask catalog of sixteen colours.
func BlockCatalog() *Catalog {
	return &Catalog{
		Kind: MaskKind,
		Definitions: []Definition{
			{Color: rgb(255, 0, 0)},
			{Color: rgb(0, 255, 0)},
			{Color: rgb(0, 0, 255)},

			{Color: rgb(200, 0, 0)},
			{Color: rgb(0, 200, 0)},
			{Color: rgb(0, 0, 200)},

			{Color: rgb(150, 0, 0)},
			{Color: rgb(0, 150, 0)},
			{Color: rgb(0, 0, 150)},

			{Color: rgb(255, 255, 0)},
			{Color: rgb(0, 255, 255)},
			{Color: rgb(255, 0, 255)},

			{Color: rgb(200, 200, 0)},
			{Color: rgb(0, 200, 200)},
			{Color: rgb(200, 0, 200)},

			{Color: rgb(175, 0, 0)},
		},
	}
}

// RegionCatalog returns the built-in region catalog of sixteen colour
// pairs. Each detail colour is the mask colour of the same index, each bulk
// colour a lighter shade of it.
func RegionCatalog() *Catalog {
	c := BlockCatalog()
	c.Kind = RegionKind
	for i, d := range c.Definitions {
		n := d.Color.(color.NRGBA)
		for _, v := range []*uint8{&n.R, &n.G, &n.B} {
			if *v == 0 {
				*v = 100
			}
		}
		c.Definitions[i].Bulk = n
	}
	return c
}

type xmlCatalog struct {
	XMLName     xml.Name        `xml:"Catalog"`
	Kind        string          `xml:"kind,attr"`
	Definitions []xmlDefinition `xml:"Definition"`
}

type xmlDefinition struct {
	XMLName xml.Name `xml:"Definition"`
	Color   string   `xml:"color,attr"`
	Bulk    string   `xml:"bulk,attr"`
	Detail  string   `xml:"detail,attr"`
}

// LoadCatalog reads a catalog from an XML file.
func LoadCatalog(file string) (*Catalog, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	b, err := ioutil.ReadAll(f)
	if err != nil {
		return nil, err
	}

	var xc xmlCatalog
	if err := xml.Unmarshal(b, &xc); err != nil {
		return nil, err
	}

	c := new(Catalog)
	switch xc.Kind {
	case "mask":
		c.Kind = MaskKind
	case "region":
		c.Kind = RegionKind
	default:
		return nil, fmt.Errorf("unknown catalog kind \"%s\"", xc.Kind)
	}

	for i, xd := range xc.Definitions {
		var d Definition
		switch c.Kind {
		case MaskKind:
			if xd.Bulk != "" || xd.Detail != "" {
				return nil, fmt.Errorf("definition %d: mask catalogs only take a colour", i)
			}
			if d.Color, err = parseColor(xd.Color); err != nil {
				return nil, fmt.Errorf("definition %d: %w", i, err)
			}
		case RegionKind:
			if xd.Color != "" {
				return nil, fmt.Errorf("definition %d: region catalogs take a bulk and detail colour", i)
			}
			if d.Bulk, err = parseColor(xd.Bulk); err != nil {
				return nil, fmt.Errorf("definition %d: %w", i, err)
			}
			if d.Color, err = parseColor(xd.Detail); err != nil {
				return nil, fmt.Errorf("definition %d: %w", i, err)
			}
		}
		c.Definitions = append(c.Definitions, d)
	}

	if len(c.Definitions) == 0 {
		return nil, errors.New("catalog has no definitions")
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}
