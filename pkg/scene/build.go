package scene

import (
	"context"

	"golang.org/x/sync/errgroup"

	mockuperr "github.com/matzehuels/mockup/pkg/errors"
	"github.com/matzehuels/mockup/pkg/layer"
	"github.com/matzehuels/mockup/pkg/resource"
)

// BuildOptions describes an off-screen scene.
type BuildOptions struct {
	Side     layer.Side
	Records  []layer.Record
	BaseURI  string
	Backdrop bool
	Fill     string

	// Parallelism bounds concurrent image loads. Zero means 4.
	Parallelism int
}

// Build constructs an isolated surface from records. All images, including
// the garment, are loaded before Build returns. Elements whose image fails
// to load are left out; their failures are returned alongside the surface.
// The caller owns the surface and should Release it.
func Build(ctx context.Context, loader Loader, opts BuildOptions) (*Surface, []error) {
	type slot struct {
		res *resource.Resource
		err error
	}
	slots := make([]slot, len(opts.Records))
	var garment slot

	g, gctx := errgroup.WithContext(ctx)
	limit := opts.Parallelism
	if limit <= 0 {
		limit = 4
	}
	g.SetLimit(limit)

	if opts.BaseURI != "" {
		g.Go(func() error {
			garment.res, garment.err = loader.Load(gctx, opts.BaseURI)
			return nil
		})
	}
	for i, rec := range opts.Records {
		if rec.Kind != layer.KindImage || rec.Image == nil {
			continue
		}
		g.Go(func() error {
			slots[i].res, slots[i].err = loader.Load(gctx, rec.Image.SourceURI)
			return nil
		})
	}
	_ = g.Wait()

	s := NewSurface()
	var errs []error
	if opts.Backdrop {
		s.Add(NewBackdrop(opts.Fill))
	}
	if garment.err != nil {
		errs = append(errs, mockuperr.Wrap(mockuperr.ErrCodeResourceLoad, garment.err, "load %s mockup", opts.Side))
	} else if garment.res != nil {
		s.Add(NewGarment(garment.res))
	}

	for i, rec := range opts.Records {
		if slots[i].err != nil {
			errs = append(errs, mockuperr.Wrap(mockuperr.ErrCodeResourceLoad, slots[i].err, "layer %s", rec.ID))
			continue
		}
		obj, err := NewObject(rec, slots[i].res)
		if err != nil {
			errs = append(errs, mockuperr.Wrap(mockuperr.ErrCodeResourceLoad, err, "layer %s", rec.ID))
			continue
		}
		h, _ := s.Add(obj)
		if err := s.SetTag(h, TagFor(rec, opts.Side)); err != nil {
			s.Remove(h)
			errs = append(errs, err)
		}
	}
	return s, errs
}
