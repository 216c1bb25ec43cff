package reconcile

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mockup/pkg/catalog"
	"github.com/matzehuels/mockup/pkg/errors"
	"github.com/matzehuels/mockup/pkg/layer"
	"github.com/matzehuels/mockup/pkg/observability"
	"github.com/matzehuels/mockup/pkg/scene"
	"github.com/matzehuels/mockup/pkg/sched"
)

// DefaultDebounce is the quiescence window before an outbound sync.
const DefaultDebounce = 100 * time.Millisecond

// PresetLookup resolves preset ids.
type PresetLookup interface {
	Lookup(id string) (catalog.Preset, bool)
}

// BatchFunc runs after every outbound sync with the sides it changed.
type BatchFunc func(changed []layer.Side)

// Engine synchronizes the live scene into the session's stacks. All
// methods must run on the loop.
type Engine struct {
	loop     *sched.Loop
	adapter  *scene.Adapter
	session  *layer.Session
	presets  PresetLookup
	debounce *sched.Debouncer
	onBatch  BatchFunc
	logger   *log.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithDebounce sets the quiescence window.
func WithDebounce(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.debounce = sched.NewDebouncer(e.loop, d)
		}
	}
}

// WithBatch sets the function run after each outbound sync, typically a
// pricing recompute.
func WithBatch(fn BatchFunc) Option {
	return func(e *Engine) { e.onBatch = fn }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an engine for session. Call Attach after each mount.
func New(loop *sched.Loop, adapter *scene.Adapter, session *layer.Session, presets PresetLookup, opts ...Option) *Engine {
	if presets == nil {
		presets = catalog.Default()
	}
	e := &Engine{
		loop:    loop,
		adapter: adapter,
		session: session,
		presets: presets,
		logger:  log.Default(),
	}
	e.debounce = sched.NewDebouncer(loop, DefaultDebounce)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetPresets replaces the preset table used to stamp record costs.
func (e *Engine) SetPresets(p PresetLookup) {
	if p != nil {
		e.presets = p
	}
}

// SetSession points the engine at another session, dropping any pending
// batch of the old one.
func (e *Engine) SetSession(s *layer.Session) {
	e.debounce.Cancel()
	e.session = s
}

// Attach subscribes to the adapter's surface. Transform events and
// element additions or removals each restart the debounce window. Events
// from replaying the store onto the surface are ignored: the store
// already holds what they show.
func (e *Engine) Attach() {
	events := []scene.EventType{scene.EventAdded, scene.EventRemoved}
	for _, evt := range append(events, scene.TransformEvents...) {
		e.adapter.Listen(evt, func(scene.Event) {
			if !e.adapter.Replaying() {
				e.Schedule()
			}
		})
	}
}

// Schedule restarts the debounce window for a sync and pricing batch.
func (e *Engine) Schedule() {
	e.debounce.Schedule(e.batch)
}

// Flush runs the pending batch now. It reports whether one was pending.
func (e *Engine) Flush() bool {
	return e.debounce.Flush()
}

// Pending reports whether a batch is waiting for the window to close.
func (e *Engine) Pending() bool {
	return e.debounce.Pending()
}

// Cancel drops the pending batch.
func (e *Engine) Cancel() {
	e.debounce.Cancel()
}

// Run cancels the pending batch and runs one immediately.
func (e *Engine) Run() {
	e.debounce.Cancel()
	e.batch()
}

func (e *Engine) batch() {
	changed := e.SyncOutbound()
	if e.onBatch != nil {
		e.onBatch(changed)
	}
}

// SyncOutbound diffs every tagged object against its record and replaces
// the records that differ. It returns the sides whose stack was written,
// in canonical side order.
func (e *Engine) SyncOutbound() []layer.Side {
	start := time.Now()
	s := e.adapter.Surface()
	if s == nil || e.session == nil {
		return nil
	}

	written := make(map[layer.Side]int)
	scanned := 0
	for _, h := range s.Tagged() {
		tag, _ := s.Tag(h)
		obj, _ := s.Get(h)
		stack := e.session.Stack(tag.Side)
		if stack == nil {
			continue
		}
		rec, ok := stack.Get(tag.LayerID)
		if !ok {
			continue
		}
		scanned++

		next := scene.RecordFrom(rec, obj, tag)
		if next.PresetID != rec.PresetID {
			if p, ok := e.presets.Lookup(next.PresetID); ok {
				next.Cost = p.FixedPrice
			}
		}
		if _, wrote := stack.Replace(next); wrote {
			written[tag.Side]++
		}
	}

	var changed []layer.Side
	var names []string
	for _, side := range layer.Sides {
		if written[side] > 0 {
			changed = append(changed, side)
			names = append(names, string(side))
		}
	}
	d := time.Since(start)
	observability.Sync().OnOutboundSync(scanned, names, d)
	if len(changed) > 0 {
		e.logger.Debug("synced scene to store", "scanned", scanned, "sides", names, "duration", d)
	}
	return changed
}

// SwitchSide makes to the active side. The pending batch of the current
// side is run first, then the surface is rebuilt from the stack of to.
// Switching to the active side is a no-op.
func (e *Engine) SwitchSide(ctx context.Context, to layer.Side) error {
	if !to.Valid() {
		return errors.New(errors.ErrCodeValidation, "unknown side %q", to)
	}
	if e.session == nil {
		return errors.New(errors.ErrCodeValidation, "no design session")
	}
	from := e.session.ActiveSide
	if from == to {
		return nil
	}

	e.Run()
	e.session.ActiveSide = to
	stack := e.session.Stack(to)
	e.adapter.RebuildForSide(ctx, stack, to)

	observability.Sync().OnSideSwitch(string(from), string(to), stack.Len())
	e.logger.Info("switched side", "from", from, "to", to, "layers", stack.Len())
	return nil
}

// Rebuild projects the active side's stack onto the surface again.
func (e *Engine) Rebuild(ctx context.Context) {
	e.debounce.Cancel()
	side := e.session.ActiveSide
	e.adapter.RebuildForSide(ctx, e.session.Stack(side), side)
}
