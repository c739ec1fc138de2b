package main

import (
	"context"
	"errors"
	"fmt"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"io/ioutil"
	"log"
	"os"
	"text/tabwriter"

	"github.com/bodgit/progmem"
	"github.com/urfave/cli/v2"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	formatSource = "c"
	formatBundle = "bin"
)

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func newLogger(c *cli.Context) *log.Logger {
	logger := log.New(ioutil.Discard, "", 0)
	if c.Bool("verbose") {
		logger.SetOutput(os.Stderr)
	}
	return logger
}

func loadCatalog(c *cli.Context, kind progmem.Kind) (*progmem.Catalog, error) {
	if file := c.String("catalog"); file != "" {
		catalog, err := progmem.LoadCatalog(file)
		if err != nil {
			return nil, err
		}
		if catalog.Kind != kind {
			return nil, fmt.Errorf("%s is a %s catalog, expected %s", file, catalog.Kind, kind)
		}
		return catalog, nil
	}

	if kind == progmem.MaskKind {
		return progmem.BlockCatalog(), nil
	}
	return progmem.RegionCatalog(), nil
}

func parseKind(s string) (progmem.Kind, error) {
	switch s {
	case "mask":
		return progmem.MaskKind, nil
	case "region":
		return progmem.RegionKind, nil
	default:
		return 0, fmt.Errorf("unknown kind \"%s\"", s)
	}
}

func openDB(c *cli.Context) (*progmem.DB, error) {
	if c.String("db") == "" {
		return nil, nil
	}
	return progmem.NewDB(c.String("db"))
}

func encode(c *cli.Context, kind progmem.Kind) (*progmem.Result, *progmem.Raster, error) {
	catalog, err := loadCatalog(c, kind)
	if err != nil {
		return nil, nil, err
	}

	m, err := progmem.Open(c.Args().Get(1))
	if err != nil {
		return nil, nil, err
	}

	db, err := openDB(c)
	if err != nil {
		return nil, nil, err
	}
	if db != nil {
		defer db.Close()
	}

	e, err := progmem.New(catalog, db, newLogger(c))
	if err != nil {
		return nil, nil, err
	}
	e.Workers = c.Int("workers")

	result, err := e.Encode(context.Background(), c.Args().First(), m)
	return result, m, err
}

func writeResult(c *cli.Context, result *progmem.Result) (err error) {
	var w io.Writer = os.Stdout
	if file := c.String("output"); file != "" {
		f, ferr := os.Create(file)
		if ferr != nil {
			return ferr
		}
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()
		w = f
	}

	switch c.String("format") {
	case formatSource:
		return result.WriteSource(w, c.Bool("table"))
	case formatBundle:
		bb, err := result.Bundle()
		if err != nil {
			return err
		}
		b, err := bb.MarshalBinary()
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	default:
		return fmt.Errorf("unknown format \"%s\"", c.String("format"))
	}
}

func encodeAction(kind progmem.Kind) cli.ActionFunc {
	return func(c *cli.Context) error {
		if c.NArg() < 2 {
			cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
		}

		result, _, err := encode(c, kind)
		if result == nil {
			return cli.NewExitError(err, 1)
		}

		// Any blobs that did encode are still written out
		if werr := writeResult(c, result); werr != nil {
			return cli.NewExitError(werr, 1)
		}
		if err != nil {
			return cli.NewExitError(err, 1)
		}

		return nil
	}
}

func verifyAction(c *cli.Context) error {
	if c.NArg() < 2 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	kind, err := parseKind(c.String("kind"))
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	var result *progmem.Result
	var m *progmem.Raster
	if file := c.String("bundle"); file != "" {
		catalog, err := loadCatalog(c, kind)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		if m, err = progmem.Open(c.Args().Get(1)); err != nil {
			return cli.NewExitError(err, 1)
		}
		b, err := ioutil.ReadFile(file)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		if result, err = progmem.ReadBundle(c.Args().First(), catalog, m.Bounds().Dx(), m.Bounds().Dy(), b); err != nil {
			return cli.NewExitError(err, 1)
		}
	} else {
		if result, m, err = encode(c, kind); err != nil {
			return cli.NewExitError(err, 1)
		}
	}

	report, err := result.Verify(m)
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	if file := c.String("preview"); file != "" {
		f, err := os.Create(file)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		defer f.Close()

		if err := png.Encode(f, report.Preview); err != nil {
			return cli.NewExitError(err, 1)
		}
	}

	for _, mm := range report.Mismatches {
		fmt.Println(mm)
	}
	if len(report.Mismatches) > 0 {
		return cli.NewExitError(errors.New("decoded blobs do not match the image"), 1)
	}

	fmt.Printf("%d blobs, %d bytes, all match\n", len(result.Blobs), result.Size())

	return nil
}

func inspectAction(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	if c.Int("colors") < 1 {
		return cli.NewExitError(errors.New("--colors must be at least 1"), 1)
	}

	kind, err := parseKind(c.String("kind"))
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	catalog, err := loadCatalog(c, kind)
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	m, err := progmem.Open(c.Args().First())
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintf(w, "COLOUR\tPIXELS\tUSED BY\n")
	for _, s := range progmem.Inspect(m, c.Int("colors"), catalog) {
		colour := fmt.Sprintf("#%02X%02X%02X", s.Color.R, s.Color.G, s.Color.B)
		if !s.Exact {
			colour = "~" + colour
		}
		fmt.Fprintf(w, "%s\t%d\t%v\n", colour, s.Pixels, s.Uses)
	}

	return w.Flush()
}

func listAction(c *cli.Context) error {
	db, err := openDB(c)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	if db == nil {
		return cli.NewExitError(errors.New("no database, use --db"), 1)
	}
	defer db.Close()

	assets, err := db.Assets()
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintf(w, "NAME\tKIND\tSIZE\tBLOBS\tBYTES\tSHA1\n")
	for _, a := range assets {
		fmt.Fprintf(w, "%s\t%s\t%dx%d\t%d\t%d\t%s\n", a.Name, a.Kind, a.Width, a.Height, a.Blobs, a.Bytes, a.SHA1)
	}

	return w.Flush()
}

func main() {
	app := cli.NewApp()

	app.Name = "progmem"
	app.Usage = "Encode coloured image regions as PROGMEM byte arrays"
	app.Version = "1.0.0"

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			EnvVars: []string{"PROGMEM_DB"},
			Usage:   "path to database of encoded images",
		},
		&cli.StringFlag{
			Name:    "catalog",
			EnvVars: []string{"PROGMEM_CATALOG"},
			Usage:   "path to XML catalog replacing the built-in one",
		},
		&cli.IntFlag{
			Name:  "workers",
			Value: 4,
			Usage: "number of definitions encoded in parallel",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}

	outputFlags := []cli.Flag{
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "write to `FILE` instead of standard output",
		},
		&cli.StringFlag{
			Name:  "format",
			Value: formatSource,
			Usage: "output format, \"c\" or \"bin\"",
		},
		&cli.BoolFlag{
			Name:  "table",
			Usage: "also write a table of pointers to the arrays",
		},
	}

	kindFlag := &cli.StringFlag{
		Name:  "kind",
		Value: "region",
		Usage: "catalog kind, \"region\" or \"mask\"",
	}

	app.Commands = []*cli.Command{
		{
			Name:      "regions",
			Usage:     "Encode colour pairs as bulk rectangles and detail runs",
			ArgsUsage: "NAME FILE",
			Flags:     outputFlags,
			Action:    encodeAction(progmem.RegionKind),
		},
		{
			Name:      "blocks",
			Usage:     "Encode colours as bit-packed masks",
			ArgsUsage: "NAME FILE",
			Flags:     outputFlags,
			Action:    encodeAction(progmem.MaskKind),
		},
		{
			Name:      "verify",
			Usage:     "Decode the blobs for an image and compare them with it",
			ArgsUsage: "NAME FILE",
			Flags: []cli.Flag{
				kindFlag,
				&cli.StringFlag{
					Name:  "bundle",
					Usage: "verify the blobs in bundle `FILE` instead of encoding",
				},
				&cli.StringFlag{
					Name:  "preview",
					Usage: "write a PNG painted from the decoded blobs to `FILE`",
				},
			},
			Action: verifyAction,
		},
		{
			Name:      "inspect",
			Usage:     "List the colours of an image and the definitions using them",
			ArgsUsage: "FILE",
			Flags: []cli.Flag{
				kindFlag,
				&cli.IntFlag{
					Name:  "colors",
					Value: 32,
					Usage: "reduce the image to at most this many colours",
				},
			},
			Action: inspectAction,
		},
		{
			Name:   "list",
			Usage:  "List the images stored in the database",
			Action: listAction,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
