package scene

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"

	mockuperr "github.com/matzehuels/mockup/pkg/errors"
	"github.com/matzehuels/mockup/pkg/layer"
	"github.com/matzehuels/mockup/pkg/resource"
	"github.com/matzehuels/mockup/pkg/sched"
)

// ErrStale is passed to an AddRecord callback whose load resolved after a
// rebuild or teardown replaced the scene it was meant for.
var ErrStale = errors.New("scene was rebuilt before the load resolved")

// Loader resolves image sources.
type Loader interface {
	Load(ctx context.Context, uri string) (*resource.Resource, error)
}

// Notifier receives non-fatal failures.
type Notifier func(error)

// Adapter owns the live surface. All methods must run on the loop.
type Adapter struct {
	loop   *sched.Loop
	loader Loader
	logger *log.Logger
	notify Notifier

	surface   *Surface
	baseURIs  []string
	backdrop  bool
	fill      string
	side      layer.Side
	listeners []func()

	gen       uint64
	pending   int
	order     map[string]int
	nextOrder int
	waiters   []func()
	replaying bool
}

// NewAdapter creates an unmounted adapter.
func NewAdapter(loop *sched.Loop, loader Loader, logger *log.Logger) *Adapter {
	if logger == nil {
		logger = log.Default()
	}
	return &Adapter{
		loop:   loop,
		loader: loader,
		logger: logger,
		notify: func(error) {},
		fill:   DefaultBackdropColor,
		order:  make(map[string]int),
	}
}

// SetNotifier sets the receiver of non-fatal load failures.
func (a *Adapter) SetNotifier(n Notifier) {
	if n != nil {
		a.notify = n
	}
}

// SetBaseImages sets the mockup images of the selected color.
func (a *Adapter) SetBaseImages(urls []string) {
	a.baseURIs = append([]string(nil), urls...)
}

// Surface returns the live surface, or nil when unmounted.
func (a *Adapter) Surface() *Surface { return a.surface }

// Side returns the side the surface currently projects.
func (a *Adapter) Side() layer.Side { return a.side }

// Mounted reports whether a live surface exists.
func (a *Adapter) Mounted() bool { return a.surface != nil && !a.surface.Released() }

// Mount initializes the surface for side and loads its garment. A second
// call while mounted is a no-op.
func (a *Adapter) Mount(ctx context.Context, side layer.Side) {
	if a.Mounted() {
		return
	}
	a.surface = NewSurface()
	a.side = side
	a.gen++
	a.pending = 0
	if a.backdrop {
		a.surface.InsertAt(NewBackdrop(a.fill), 0)
	}
	a.loadGarment(ctx, a.gen, side)
	a.checkSettled()
}

// Replaying reports whether the surface event being delivered comes from
// projecting the store (a rebuild, a late image of a rebuild or the
// garment) rather than from an edit.
func (a *Adapter) Replaying() bool { return a.replaying }

func (a *Adapter) replay(fn func()) {
	prev := a.replaying
	a.replaying = true
	defer func() { a.replaying = prev }()
	fn()
}

// Listen attaches fn to the live surface until Teardown.
func (a *Adapter) Listen(event EventType, fn Listener) {
	if !a.Mounted() {
		return
	}
	a.listeners = append(a.listeners, a.surface.On(event, fn))
}

// SetBackdrop toggles the backdrop on the live surface.
func (a *Adapter) SetBackdrop(on bool, fill string) {
	a.backdrop = on
	if fill != "" {
		a.fill = fill
	}
	if !a.Mounted() {
		return
	}
	if h, ok := a.surface.FindByName(BackdropName); ok {
		a.surface.Remove(h)
	}
	if on {
		a.surface.InsertAt(NewBackdrop(a.fill), 0)
	}
}

// Backdrop reports whether the backdrop is enabled, and its fill.
func (a *Adapter) Backdrop() (bool, string) { return a.backdrop, a.fill }

// RebuildForSide replaces every non-base object with the projection of
// stack, reloads the garment for side and restores each record's preset
// into the side table. Images are inserted in stack order as they
// resolve; a failed image is left out and reported.
func (a *Adapter) RebuildForSide(ctx context.Context, stack *layer.Stack, side layer.Side) {
	if !a.Mounted() {
		a.Mount(ctx, side)
	}
	a.gen++
	gen := a.gen
	a.pending = 0
	a.side = side

	a.replay(func() {
		a.surface.Clear(func(o *Object) bool { return o.Name == BackdropName })
	})
	a.loadGarment(ctx, gen, side)

	records := stack.Records()
	a.order = make(map[string]int, len(records))
	for i, rec := range records {
		a.order[rec.ID] = i
	}
	a.nextOrder = len(records)

	for _, rec := range records {
		a.project(ctx, gen, rec, side, nil, true)
	}
	a.checkSettled()
}

// AddRecord projects a new record on top of the surface. Text is placed
// immediately; images once loaded. done receives the new handle, the
// loaded resource (images only) or an error. ErrStale means the scene was
// rebuilt first; the resource is still provided.
func (a *Adapter) AddRecord(ctx context.Context, rec layer.Record, side layer.Side, done func(Handle, *resource.Resource, error)) {
	if done == nil {
		done = func(Handle, *resource.Resource, error) {}
	}
	if !a.Mounted() {
		done(0, nil, ErrReleased)
		return
	}
	a.order[rec.ID] = a.nextOrder
	a.nextOrder++
	a.project(ctx, a.gen, rec, side, done, false)
}

// Teardown detaches listeners and releases the surface. Loads still in
// flight become no-ops. Safe to call more than once.
func (a *Adapter) Teardown() {
	for _, off := range a.listeners {
		off()
	}
	a.listeners = nil
	if a.surface != nil {
		a.surface.Release()
	}
	a.surface = nil
	a.gen++
	a.pending = 0
	a.waiters = nil
}

// Settled reports whether every load of the current build has resolved.
func (a *Adapter) Settled() bool { return a.pending == 0 }

// OnSettled runs fn on the loop once all pending loads of the current
// build have resolved.
func (a *Adapter) OnSettled(fn func()) {
	if a.pending == 0 {
		a.loop.Post(fn)
		return
	}
	a.waiters = append(a.waiters, fn)
}

// project places rec, now for text and once loaded for images. Records
// replayed from the store place without scheduling a sync.
func (a *Adapter) project(ctx context.Context, gen uint64, rec layer.Record, side layer.Side, done func(Handle, *resource.Resource, error), replayed bool) {
	if done == nil {
		done = func(Handle, *resource.Resource, error) {}
	}
	place := a.place
	if replayed {
		place = func(obj *Object, rec layer.Record, side layer.Side) (h Handle, err error) {
			a.replay(func() { h, err = a.place(obj, rec, side) })
			return h, err
		}
	}
	if rec.Kind != layer.KindImage {
		obj, err := NewObject(rec, nil)
		if err != nil {
			done(0, nil, a.fail(err, rec.ID))
			return
		}
		h, err := place(obj, rec, side)
		done(h, nil, err)
		return
	}

	if rec.Image == nil {
		err := mockuperr.New(mockuperr.ErrCodeValidation, "image layer %s has no source", rec.ID)
		done(0, nil, err)
		return
	}
	uri := rec.Image.SourceURI
	a.pending++
	sched.Go(a.loop, func() (*resource.Resource, error) {
		return a.loader.Load(ctx, uri)
	}, func(res *resource.Resource, err error) {
		if gen != a.gen {
			a.logger.Debug("discarding stale image load", "layer", rec.ID)
			if err == nil {
				err = ErrStale
			}
			done(0, res, err)
			return
		}
		defer a.loadResolved()
		if err != nil {
			done(0, nil, a.fail(err, rec.ID))
			return
		}
		obj, err := NewObject(rec, res)
		if err != nil {
			done(0, res, a.fail(err, rec.ID))
			return
		}
		h, err := place(obj, rec, side)
		done(h, res, err)
	})
}

// place inserts obj at the z-position of rec among the objects present.
func (a *Adapter) place(obj *Object, rec layer.Record, side layer.Side) (Handle, error) {
	rank := a.order[rec.ID]
	idx := 0
	for _, h := range a.surface.Handles() {
		o, _ := a.surface.Get(h)
		if o.IsBase() {
			idx++
			continue
		}
		if t, ok := a.surface.Tag(h); ok && a.order[t.LayerID] < rank {
			idx++
		}
	}
	h, err := a.surface.InsertAt(obj, idx)
	if err != nil {
		return 0, err
	}
	if err := a.surface.SetTag(h, TagFor(rec, side)); err != nil {
		a.surface.Remove(h)
		return 0, err
	}
	return h, nil
}

func (a *Adapter) loadGarment(ctx context.Context, gen uint64, side layer.Side) {
	uri := SelectBaseImage(a.baseURIs, side)
	if uri == "" {
		return
	}
	a.pending++
	sched.Go(a.loop, func() (*resource.Resource, error) {
		return a.loader.Load(ctx, uri)
	}, func(res *resource.Resource, err error) {
		if gen != a.gen {
			return
		}
		defer a.loadResolved()
		if err != nil {
			a.logger.Warn("garment image unavailable", "side", side, "err", err)
			a.notify(mockuperr.Wrap(mockuperr.ErrCodeResourceLoad, err, "load %s mockup", side))
			return
		}
		idx := 0
		if _, ok := a.surface.FindByName(BackdropName); ok {
			idx = 1
		}
		a.replay(func() { a.surface.InsertAt(NewGarment(res), idx) })
	})
}

// fail reports a layer left out of the scene and returns the notified
// error.
func (a *Adapter) fail(err error, layerID string) error {
	a.logger.Warn("layer left out of scene", "layer", layerID, "err", err)
	if !mockuperr.Is(err, mockuperr.ErrCodeResourceLoad) {
		err = mockuperr.Wrap(mockuperr.ErrCodeResourceLoad, err, "layer %s", layerID)
	}
	a.notify(err)
	return err
}

func (a *Adapter) loadResolved() {
	a.pending--
	a.checkSettled()
}

func (a *Adapter) checkSettled() {
	if a.pending > 0 || len(a.waiters) == 0 {
		return
	}
	waiters := a.waiters
	a.waiters = nil
	for _, fn := range waiters {
		a.loop.Post(fn)
	}
}
