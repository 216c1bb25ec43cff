package design

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/matzehuels/mockup/pkg/catalog"
	"github.com/matzehuels/mockup/pkg/errors"
	"github.com/matzehuels/mockup/pkg/layer"
	"github.com/matzehuels/mockup/pkg/payload"
	"github.com/matzehuels/mockup/pkg/preview"
	"github.com/matzehuels/mockup/pkg/pricing"
	"github.com/matzehuels/mockup/pkg/scene"
	"github.com/matzehuels/mockup/pkg/sched"
)

var _ payload.Source = (*Editor)(nil)

// =============================================================================
// payload.Source
// =============================================================================

// Flush syncs the active side into its stack and reprices it, whether or
// not a batch is pending.
func (e *Editor) Flush() {
	if e.session != nil {
		e.sync.Run()
	}
}

// Quote returns the latest pricing of both sides.
func (e *Editor) Quote() pricing.Quote {
	base := decimal.Zero
	if e.session != nil {
		base = e.session.BasePrice()
	}
	return e.ledger.Quote(base)
}

// Capture dumps and previews side. The active side is read from the live
// surface; the other side is built off-screen and released. Building the
// other side blocks the calling task until its images load, so queued
// tasks and timers wait behind it.
func (e *Editor) Capture(ctx context.Context, side layer.Side) (payload.Capture, error) {
	if err := e.requireSession(); err != nil {
		return payload.Capture{}, err
	}
	s := e.adapter.Surface()
	if side != e.session.ActiveSide || !e.adapter.Mounted() {
		built, errs := scene.Build(ctx, e.loader, e.buildOptions(side))
		defer built.Release()
		for _, err := range errs {
			e.logger.Warn("layer missing from capture", "side", side, "err", err)
		}
		s = built
	} else if !e.adapter.Settled() {
		e.logger.Warn("capturing before all images loaded", "side", side)
	}

	dump, err := s.MarshalDump()
	if err != nil {
		return payload.Capture{}, errors.Wrap(errors.ErrCodeInternal, err, "dump %s", side)
	}
	uri, err := e.renderer.Snapshot(ctx, s, side)
	if err != nil {
		return payload.Capture{}, errors.Wrap(errors.ErrCodeInternal, err, "preview %s", side)
	}
	return payload.Capture{Dump: dump, Preview: uri}, nil
}

// =============================================================================
// Previews and downloads
// =============================================================================

// Preview returns the compressed preview of side as a data URI.
func (e *Editor) Preview(ctx context.Context, side layer.Side) (string, error) {
	if err := e.requireSession(); err != nil {
		return "", err
	}
	if side == e.session.ActiveSide && e.adapter.Mounted() {
		uri, err := e.renderer.Snapshot(ctx, e.adapter.Surface(), side)
		return uri, e.fail(err)
	}
	opts := e.buildOptions(side)
	uri, errs, err := e.renderer.Offscreen(ctx, preview.Request{
		Side:     side,
		Records:  opts.Records,
		BaseURI:  opts.BaseURI,
		Backdrop: opts.Backdrop,
		Fill:     opts.Fill,
	})
	for _, le := range errs {
		e.notify(le)
	}
	return uri, e.fail(err)
}

// Download renders side at full resolution times scale as PNG. Like
// Capture it blocks the loop while the inactive side builds; interactive
// callers use DownloadAsync.
func (e *Editor) Download(ctx context.Context, side layer.Side, scale float64) ([]byte, error) {
	if err := e.requireSession(); err != nil {
		return nil, err
	}
	if side == e.session.ActiveSide && e.adapter.Mounted() {
		return e.renderDownload(e.adapter.Surface(), nil, scale)
	}
	s, errs := scene.Build(ctx, e.loader, e.buildOptions(side))
	defer s.Release()
	return e.renderDownload(s, errs, scale)
}

// DownloadAsync is Download without blocking the loop: the inactive side is
// built off the loop from the records as they are now, and done runs on
// the loop with the PNG.
func (e *Editor) DownloadAsync(ctx context.Context, side layer.Side, scale float64, done func([]byte, error)) {
	if err := e.requireSession(); err != nil {
		done(nil, err)
		return
	}
	if side == e.session.ActiveSide && e.adapter.Mounted() {
		done(e.renderDownload(e.adapter.Surface(), nil, scale))
		return
	}
	e.buildOffscreen(ctx, e.buildOptions(side), func(s *scene.Surface, errs []error) {
		defer s.Release()
		done(e.renderDownload(s, errs, scale))
	})
}

func (e *Editor) renderDownload(s *scene.Surface, errs []error, scale float64) ([]byte, error) {
	for _, err := range errs {
		e.notify(err)
	}
	if scale <= 0 {
		scale = 1
	}
	data, err := e.renderer.Download(s, scale)
	return data, e.fail(err)
}

func (e *Editor) buildOptions(side layer.Side) scene.BuildOptions {
	on, fill := e.adapter.Backdrop()
	return scene.BuildOptions{
		Side:     side,
		Records:  e.session.Stack(side).Records(),
		BaseURI:  scene.SelectBaseImage(e.session.ImageURLs(), side),
		Backdrop: on,
		Fill:     fill,
	}
}

// buildOffscreen builds opts off the loop and runs then on the loop. then
// owns the surface.
func (e *Editor) buildOffscreen(ctx context.Context, opts scene.BuildOptions, then func(*scene.Surface, []error)) {
	type built struct {
		s    *scene.Surface
		errs []error
	}
	sched.Go(e.loop, func() (built, error) {
		s, errs := scene.Build(ctx, e.loader, opts)
		return built{s, errs}, nil
	}, func(b built, _ error) {
		then(b.s, b.errs)
	})
}

// =============================================================================
// Save, cart, load
// =============================================================================

// Save serializes the session and stores it. Nothing is stored when the
// payload exceeds the ceiling.
func (e *Editor) Save(ctx context.Context) (string, error) {
	if e.designs == nil {
		return "", e.fail(errors.New(errors.ErrCodePersistence, "no design store configured"))
	}
	start := time.Now()
	d, data, err := payload.Assemble(ctx, e, e.opts.PayloadLimit)
	if err != nil {
		return "", e.fail(err)
	}
	id, err := e.designs.SaveDesign(ctx, d)
	if err != nil {
		return "", e.fail(err)
	}
	e.logger.Info("saved design", "id", id, "bytes", len(data), "total", d.TotalPrice.StringFixed(2),
		"duration", time.Since(start))
	return id, nil
}

// AddToCart serializes the session and appends it to the cart. A size
// must be selected.
func (e *Editor) AddToCart(ctx context.Context, quantity int) (*payload.CartItem, error) {
	if err := e.requireSession(); err != nil {
		return nil, err
	}
	if e.cart == nil {
		return nil, e.fail(errors.New(errors.ErrCodePersistence, "no cart configured"))
	}
	if e.session.SelectedSize == "" {
		return nil, e.fail(errors.New(errors.ErrCodeValidation, "no size selected"))
	}
	d, _, err := payload.Assemble(ctx, e, e.opts.PayloadLimit)
	if err != nil {
		return nil, e.fail(err)
	}
	item, err := payload.NewCartItem(e.opts.CartID, d, quantity)
	if err != nil {
		return nil, e.fail(err)
	}
	if err := e.cart.AddItem(ctx, item); err != nil {
		return nil, e.fail(err)
	}
	e.logger.Info("added to cart", "cart", item.CartID, "item", item.ID, "quantity", quantity,
		"total", item.TotalPrice.StringFixed(2))
	return item, nil
}

// Load resumes editing d on product, on the front side. The back side is
// priced off-screen.
func (e *Editor) Load(ctx context.Context, d *payload.Design, product *catalog.Product) error {
	if d == nil || product == nil {
		return e.fail(errors.New(errors.ErrCodeValidation, "no design or product"))
	}
	if d.ProductID != product.ID && d.ProductSlug != product.Slug {
		return e.fail(errors.New(errors.ErrCodeValidation, "design %s belongs to product %s", d.ID, d.ProductSlug))
	}
	s, err := layer.NewSession(product, d.SelectedColor, d.SelectedSize)
	if err != nil {
		return e.fail(err)
	}
	for _, side := range layer.Sides {
		if err := s.Stack(side).Load(d.Side(side).DesignLayers); err != nil {
			return e.fail(errors.Wrap(errors.ErrCodeValidation, err, "load %s layers", side))
		}
	}
	e.install(ctx, s)
	e.repriceOffscreen(ctx, layer.Back, false)
	e.logger.Info("loaded design", "id", d.ID, "front", s.Stack(layer.Front).Len(), "back", s.Stack(layer.Back).Len())
	return nil
}

// LoadDesign fetches id from the store and resumes editing it.
func (e *Editor) LoadDesign(ctx context.Context, id string, products catalog.Source) error {
	if e.designs == nil {
		return e.fail(errors.New(errors.ErrCodePersistence, "no design store configured"))
	}
	d, err := e.designs.GetDesign(ctx, id)
	if err != nil {
		return e.fail(err)
	}
	p, err := products.ProductBySlug(ctx, d.ProductSlug)
	if err != nil {
		return e.fail(err)
	}
	return e.Load(ctx, d, p)
}
