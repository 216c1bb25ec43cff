package design

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"

	"github.com/matzehuels/mockup/pkg/catalog"
	"github.com/matzehuels/mockup/pkg/errors"
	"github.com/matzehuels/mockup/pkg/layer"
	"github.com/matzehuels/mockup/pkg/preview"
	"github.com/matzehuels/mockup/pkg/pricing"
	"github.com/matzehuels/mockup/pkg/reconcile"
	"github.com/matzehuels/mockup/pkg/scene"
	"github.com/matzehuels/mockup/pkg/sched"
	"github.com/matzehuels/mockup/pkg/store"
)

// Notifier receives non-blocking user notifications.
type Notifier func(error)

// State is the read-only view published to the UI.
type State struct {
	Side       layer.Side
	BasePrice  decimal.Decimal
	FrontCost  decimal.Decimal
	BackCost   decimal.Decimal
	TotalPrice decimal.Decimal

	// Selected is the id of the selected layer, if any, and ActiveLayer
	// its latest metric.
	Selected    string
	ActiveLayer *pricing.LayerMetric
}

// Option configures an Editor's collaborators.
type Option func(*Editor)

// WithRenderer sets the preview renderer.
func WithRenderer(r *preview.Renderer) Option {
	return func(e *Editor) {
		if r != nil {
			e.renderer = r
		}
	}
}

// WithStore sets the design store used by Save.
func WithStore(s store.Designs) Option {
	return func(e *Editor) { e.designs = s }
}

// WithCart sets the cart used by AddToCart.
func WithCart(c store.Cart) Option {
	return func(e *Editor) { e.cart = c }
}

// WithNotifier sets the receiver of user notifications. The default logs
// them at warn level.
func WithNotifier(n Notifier) Option {
	return func(e *Editor) {
		if n != nil {
			e.notify = n
		}
	}
}

// Editor drives one design session. See the package documentation for
// threading rules.
type Editor struct {
	opts   Options
	loop   *sched.Loop
	loader scene.Loader
	logger *log.Logger
	notify Notifier

	base     *pricing.Engine
	pricing  *pricing.Engine
	ledger   *pricing.Ledger
	adapter  *scene.Adapter
	sync     *reconcile.Engine
	renderer *preview.Renderer
	designs  store.Designs
	cart     store.Cart

	session       *layer.Session
	selected      string
	defaultPreset string

	// sides whose stored scales predate the current preset table
	stale map[layer.Side]bool

	subscribers map[int]func(State)
	nextSub     int
}

// New creates an editor without a session. Call Open or Load to start one.
func New(loop *sched.Loop, loader scene.Loader, opts Options, logger *log.Logger, extra ...Option) (*Editor, error) {
	if logger == nil {
		logger = log.Default()
	}
	opts.SetDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	base, err := pricing.NewEngine(opts.Pricing, logger)
	if err != nil {
		return nil, err
	}

	e := &Editor{
		opts:          opts,
		loop:          loop,
		loader:        loader,
		logger:        logger,
		base:          base,
		pricing:       base,
		ledger:        pricing.NewLedger(),
		defaultPreset: opts.DefaultPreset,
		stale:         make(map[layer.Side]bool),
		subscribers:   make(map[int]func(State)),
	}
	e.notify = func(err error) {
		logger.Warn(errors.UserMessage(err), "code", errors.GetCode(err))
	}
	e.renderer = preview.NewRenderer(loader, logger)
	for _, opt := range extra {
		opt(e)
	}

	e.adapter = scene.NewAdapter(loop, loader, logger)
	e.adapter.SetNotifier(func(err error) { e.notify(err) })
	e.adapter.SetBackdrop(opts.Backdrop, opts.BackdropFill)
	e.sync = reconcile.New(loop, e.adapter, nil, base.Catalog(),
		reconcile.WithDebounce(opts.Debounce),
		reconcile.WithBatch(e.price),
		reconcile.WithLogger(logger),
	)
	return e, nil
}

// Do runs fn on the loop and waits for it. Use it from goroutines that do
// not drive the loop.
func (e *Editor) Do(ctx context.Context, fn func(*Editor) error) error {
	done := make(chan error, 1)
	e.loop.Post(func() { done <- fn(e) })
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Loop returns the editor's loop.
func (e *Editor) Loop() *sched.Loop { return e.loop }

// Adapter returns the scene adapter owning the live surface.
func (e *Editor) Adapter() *scene.Adapter { return e.adapter }

// Presets returns the preset table in effect for the current product.
func (e *Editor) Presets() *catalog.Catalog { return e.pricing.Catalog() }

// =============================================================================
// Session lifecycle
// =============================================================================

// Open starts an empty session for product in color on the front side.
// Any previous session is discarded.
func (e *Editor) Open(ctx context.Context, product *catalog.Product, color, size string) error {
	s, err := layer.NewSession(product, color, size)
	if err != nil {
		return e.fail(err)
	}
	e.install(ctx, s)
	e.logger.Info("opened design", "product", product.Slug, "color", color, "size", size)
	return nil
}

// install makes s the current session and projects its active side.
func (e *Editor) install(ctx context.Context, s *layer.Session) {
	e.session = s
	e.selected = ""
	e.stale = make(map[layer.Side]bool)
	e.ledger.Reset()
	e.pricing = e.base.ForProduct(s.Product)
	e.sync.SetPresets(e.pricing.Catalog())
	e.sync.SetSession(s)

	e.adapter.SetBaseImages(s.ImageURLs())
	mounted := e.adapter.Mounted()
	e.adapter.RebuildForSide(ctx, s.ActiveStack(), s.ActiveSide)
	if !mounted {
		e.sync.Attach()
	}
	e.adapter.OnSettled(e.sync.Run)
	e.publish()
}

// Session returns the current session, or nil.
func (e *Editor) Session() *layer.Session { return e.session }

// SetColor switches the garment color, keeping both stacks.
func (e *Editor) SetColor(ctx context.Context, color string) error {
	if err := e.requireSession(); err != nil {
		return err
	}
	if _, ok := e.session.Product.Variant(color); !ok {
		return e.fail(errors.New(errors.ErrCodeValidation, "color %q not offered for %s", color, e.session.Product.Slug))
	}
	e.sync.Run()
	e.session.SelectedColor = color
	e.adapter.SetBaseImages(e.session.ImageURLs())
	mounted := e.adapter.Mounted()
	e.sync.Rebuild(ctx)
	if !mounted {
		e.sync.Attach()
	}
	e.adapter.OnSettled(e.sync.Run)
	return nil
}

// SetSize selects the garment size required for checkout.
func (e *Editor) SetSize(size string) error {
	if err := e.requireSession(); err != nil {
		return err
	}
	if !e.session.Product.HasSize(size) {
		return e.fail(errors.New(errors.ErrCodeValidation, "size %q not offered for %s", size, e.session.Product.Slug))
	}
	e.session.SelectedSize = size
	return nil
}

// Close tears down the live surface.
func (e *Editor) Close() {
	e.sync.Cancel()
	e.adapter.Teardown()
}

// =============================================================================
// Observable state
// =============================================================================

// State returns the current observable state.
func (e *Editor) State() State {
	st := State{BasePrice: decimal.Zero}
	if e.session != nil {
		st.Side = e.session.ActiveSide
		st.BasePrice = e.session.BasePrice()
	}
	q := e.ledger.Quote(st.BasePrice)
	st.FrontCost, st.BackCost, st.TotalPrice = q.FrontCost, q.BackCost, q.Total
	st.Selected = e.selected
	if m, ok := e.ActiveLayerMetric(); ok {
		st.ActiveLayer = &m
	}
	return st
}

// Subscribe calls fn with the new state after every change and returns a
// function that unsubscribes.
func (e *Editor) Subscribe(fn func(State)) (off func()) {
	e.nextSub++
	id := e.nextSub
	e.subscribers[id] = fn
	return func() { delete(e.subscribers, id) }
}

func (e *Editor) publish() {
	if len(e.subscribers) == 0 {
		return
	}
	st := e.State()
	for _, fn := range e.subscribers {
		fn(st)
	}
}

// price is the batch run after every outbound sync: it reprices the side
// on the live surface and publishes the result.
func (e *Editor) price(changed []layer.Side) {
	s := e.adapter.Surface()
	if s == nil || e.session == nil {
		return
	}
	m := e.pricing.Compute(s, e.adapter.Side())
	e.ledger.Publish(m)
	e.logger.Debug("priced", "side", m.Side, "cost", m.Cost.StringFixed(2), "changed", len(changed))
	e.publish()
}

// fail notifies err and returns it.
func (e *Editor) fail(err error) error {
	if err != nil {
		e.notify(err)
	}
	return err
}

func (e *Editor) requireSession() error {
	if e.session == nil {
		return e.fail(errors.New(errors.ErrCodeValidation, "no product selected"))
	}
	return nil
}
