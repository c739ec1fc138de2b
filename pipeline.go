package progmem

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/bodgit/progmem/mask"
	"github.com/bodgit/progmem/region"
)

// Blob is the encoded form of one catalog definition.
type Blob struct {
	Name  string
	Index int
	// Data is empty if none of the definition's colours were found
	Data []byte
	Err  error
}

// Result holds one blob per catalog definition, in catalog order.
type Result struct {
	Name    string
	Catalog *Catalog
	Width   int
	Height  int
	Blobs   []Blob
}

// Size returns the total number of bytes across all blobs.
func (r *Result) Size() int {
	n := 0
	for _, b := range r.Blobs {
		n += len(b.Data)
	}
	return n
}

// Err returns the errors of all failed blobs joined together, or nil.
func (r *Result) Err() error {
	var errs []error
	for _, b := range r.Blobs {
		if b.Err != nil {
			errs = append(errs, b.Err)
		}
	}
	return errors.Join(errs...)
}

func encodeDefinition(m image.Image, kind Kind, d Definition) ([]byte, error) {
	b := new(bytes.Buffer)
	switch kind {
	case MaskKind:
		if err := mask.Encode(b, m, d.Color); err != nil {
			return nil, err
		}
	case RegionKind:
		if err := region.Encode(b, m, d.Bulk, d.Color); err != nil {
			return nil, err
		}
	}
	return b.Bytes(), nil
}

func (e *Encoder) findDefinitions(ctx context.Context) (<-chan int, <-chan error, error) {
	out := make(chan int)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		for i := range e.catalog.Definitions {
			if err := ctx.Err(); err != nil {
				errc <- err
				return
			}
			select {
			case out <- i:
			case <-ctx.Done():
				errc <- ctx.Err()
				return
			}
		}
	}()
	return out, errc, nil
}

// Each worker only writes the blobs for the indices it receives so no
// locking is needed around result.
func (e *Encoder) definitionWorker(m image.Image, result *Result, in <-chan int) (<-chan error, error) {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for i := range in {
			blob := &result.Blobs[i]
			blob.Data, blob.Err = encodeDefinition(m, e.catalog.Kind, e.catalog.Definitions[i])
			switch {
			case blob.Err != nil:
				blob.Err = fmt.Errorf("%s: %w", blob.Name, blob.Err)
				e.logger.Printf("Failed to encode \"%s\": %v\n", blob.Name, blob.Err)
			case len(blob.Data) == 0:
				e.logger.Printf("No pixels for \"%s\"\n", blob.Name)
			default:
				e.logger.Printf("Encoded \"%s\" in %d bytes\n", blob.Name, len(blob.Data))
			}
		}
	}()
	return errc, nil
}

func waitForPipeline(errs ...<-chan error) error {
	errc := mergeErrors(errs...)
	for err := range errc {
		if err != nil {
			return err
		}
	}
	return nil
}

func mergeErrors(cs ...<-chan error) <-chan error {
	var wg sync.WaitGroup
	out := make(chan error, len(cs))
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan error) {
			for n := range c {
				out <- n
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

func newResult(name string, c *Catalog, width, height int) *Result {
	r := &Result{
		Name:    name,
		Catalog: c,
		Width:   width,
		Height:  height,
		Blobs:   make([]Blob, len(c.Definitions)),
	}
	for i := range r.Blobs {
		r.Blobs[i] = Blob{
			Name:  fmt.Sprintf("%s%d", name, i),
			Index: i,
		}
	}
	return r
}

// Encode encodes every definition of the catalog against m, naming each blob
// after name and its index. A definition that fails does not stop the
// others; the returned error joins every failure and the Result is still
// returned.
func (e *Encoder) Encode(ctx context.Context, name string, m *Raster) (*Result, error) {
	b := m.Bounds()
	result := newResult(name, e.catalog, b.Dx(), b.Dy())

	if e.db != nil && m.SHA1 != "" {
		blobs, ok, err := e.db.FindBlobs(m.SHA1, e.catalog.Fingerprint())
		if err != nil {
			return nil, err
		}
		if ok {
			e.logger.Printf("Using stored blobs for \"%s\", with SHA1 \"%s\"\n", name, m.SHA1)
			for i := range result.Blobs {
				result.Blobs[i].Data = blobs[i]
			}
			return result, nil
		}
	}

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	var errcList []<-chan error

	indices, errc, err := e.findDefinitions(ctx)
	if err != nil {
		return nil, err
	}
	errcList = append(errcList, errc)

	workers := e.Workers
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		errc, err := e.definitionWorker(m.Image, result, indices)
		if err != nil {
			return nil, err
		}
		errcList = append(errcList, errc)
	}

	if err := waitForPipeline(errcList...); err != nil {
		return nil, err
	}

	if err := result.Err(); err != nil {
		return result, err
	}

	if e.db != nil && m.SHA1 != "" {
		if err := e.db.AddResult(m.SHA1, result); err != nil {
			return nil, err
		}
	}

	return result, nil
}
