package design

import (
	"context"
	stderrors "errors"

	"github.com/matzehuels/mockup/pkg/catalog"
	"github.com/matzehuels/mockup/pkg/errors"
	"github.com/matzehuels/mockup/pkg/fonts"
	"github.com/matzehuels/mockup/pkg/layer"
	"github.com/matzehuels/mockup/pkg/pricing"
	"github.com/matzehuels/mockup/pkg/resource"
	"github.com/matzehuels/mockup/pkg/scene"
)

// TextStyle overrides the defaults of a new text element. Zero fields
// keep the editor's defaults.
type TextStyle struct {
	FontFamily string
	ColorHex   string
	SizePx     float64
}

// =============================================================================
// Sides
// =============================================================================

// SwitchSide flushes pending edits of the active side and rebuilds the
// surface from the stack of to.
func (e *Editor) SwitchSide(ctx context.Context, to layer.Side) error {
	if err := e.requireSession(); err != nil {
		return err
	}
	if to == e.session.ActiveSide {
		return nil
	}
	if err := e.sync.SwitchSide(ctx, to); err != nil {
		return e.fail(err)
	}
	e.selected = ""
	e.adapter.OnSettled(func() {
		if e.stale[to] {
			e.pricing.RefreshAll(e.adapter.Surface())
			delete(e.stale, to)
		}
		e.sync.Run()
	})
	e.publish()
	return nil
}

// ToggleSide switches to the other side.
func (e *Editor) ToggleSide(ctx context.Context) error {
	if err := e.requireSession(); err != nil {
		return err
	}
	return e.SwitchSide(ctx, e.session.ActiveSide.Other())
}

// =============================================================================
// Elements
// =============================================================================

// AddText places a text element at the canvas center on the active side,
// sized by the default preset, and selects it. It returns the new layer id.
func (e *Editor) AddText(ctx context.Context, content string, style ...TextStyle) (string, error) {
	if err := e.requireSession(); err != nil {
		return "", err
	}
	if err := errors.ValidateText(content); err != nil {
		return "", e.fail(err)
	}
	text := layer.TextData{
		Content:        content,
		FontFamily:     e.opts.FontFamily,
		ColorHex:       e.opts.TextColor,
		BaseFontSizePx: e.opts.FontSize,
	}
	for _, st := range style {
		if st.FontFamily != "" {
			text.FontFamily = st.FontFamily
		}
		if st.ColorHex != "" {
			text.ColorHex = st.ColorHex
		}
		if st.SizePx > 0 {
			text.BaseFontSizePx = st.SizePx
		}
	}
	if err := errors.ValidateColorHex(text.ColorHex); err != nil {
		return "", e.fail(err)
	}

	preset, _ := e.pricing.Catalog().Lookup(e.defaultPreset)
	w, h, err := fonts.Measure(text.Content, text.FontFamily, text.BaseFontSizePx)
	if err != nil {
		return "", e.fail(errors.Wrap(errors.ErrCodeInternal, err, "measure text"))
	}
	rec := layer.Record{
		ID:   layer.NewID(),
		Kind: layer.KindText,
		Transform: layer.Transform{
			X:            scene.Width / 2,
			Y:            scene.Height / 2,
			UniformScale: pricing.FitScale(w, h, preset),
		},
		Text:     &text,
		PresetID: preset.ID,
		Cost:     preset.FixedPrice,
	}

	side := e.session.ActiveSide
	if err := e.session.Stack(side).Add(rec); err != nil {
		return "", e.fail(err)
	}
	e.adapter.AddRecord(ctx, rec, side, func(h scene.Handle, _ *resource.Resource, err error) {
		if err != nil {
			e.session.Stack(side).Remove(rec.ID)
			if !errors.Is(err, errors.ErrCodeResourceLoad) {
				e.fail(err)
			}
			return
		}
		e.selected = rec.ID
	})
	e.sync.Schedule()
	e.logger.Info("added text", "layer", rec.ID, "side", side, "preset", preset.ID)
	return rec.ID, nil
}

// AddImage loads uri and, once it resolves, places it at the canvas center
// of the side that was active when the command was issued, sized by the
// default preset. It returns the new layer id immediately; a failed load
// is notified and leaves no trace.
func (e *Editor) AddImage(ctx context.Context, uri string) (string, error) {
	if err := e.requireSession(); err != nil {
		return "", err
	}
	if err := errors.ValidateSourceURI(uri); err != nil {
		return "", e.fail(err)
	}

	preset, _ := e.pricing.Catalog().Lookup(e.defaultPreset)
	rec := layer.Record{
		ID:        layer.NewID(),
		Kind:      layer.KindImage,
		Transform: layer.Transform{X: scene.Width / 2, Y: scene.Height / 2, UniformScale: 1},
		Image:     &layer.ImageData{SourceURI: uri},
		PresetID:  preset.ID,
		Cost:      preset.FixedPrice,
	}
	session, side := e.session, e.session.ActiveSide

	e.adapter.AddRecord(ctx, rec, side, func(h scene.Handle, res *resource.Resource, err error) {
		if res != nil && res.DPIStatus == resource.DPIMetadata {
			rec.Image.DPI = res.DPI
		}
		switch {
		case stderrors.Is(err, scene.ErrStale):
			e.placeDetached(ctx, session, side, rec, res, preset)
			return
		case err != nil:
			// the adapter already reported load failures
			if !errors.Is(err, errors.ErrCodeResourceLoad) {
				e.fail(err)
			}
			return
		}

		s := e.adapter.Surface()
		if rec.Image.DPI > 0 {
			s.Modify(h, func(o *scene.Object) { o.DPI = rec.Image.DPI })
		}
		if err := pricing.ApplyPreset(s, h, preset); err != nil {
			e.fail(err)
		}
		obj, _ := s.Get(h)
		tag, _ := s.Tag(h)
		if err := session.Stack(side).Add(scene.RecordFrom(rec, obj, tag)); err != nil {
			s.Remove(h)
			e.fail(err)
			return
		}
		e.selected = rec.ID
		e.sync.Schedule()
		e.logger.Info("added image", "layer", rec.ID, "side", side, "preset", preset.ID, "dpi", rec.Image.DPI)
	})
	return rec.ID, nil
}

// placeDetached stores an image whose load resolved after its side was
// rebuilt away. The record lands in the stack of the side it was added to.
func (e *Editor) placeDetached(ctx context.Context, session *layer.Session, side layer.Side, rec layer.Record, res *resource.Resource, preset catalog.Preset) {
	if session != e.session || res == nil {
		return
	}
	rec.Transform.UniformScale = pricing.FitScale(float64(res.Width()), float64(res.Height()), preset)
	if err := session.Stack(side).Add(rec); err != nil {
		e.fail(err)
		return
	}
	e.logger.Debug("image resolved after rebuild", "layer", rec.ID, "side", side)
	if side == session.ActiveSide {
		e.adapter.AddRecord(ctx, rec, side, nil)
		return
	}
	e.repriceOffscreen(ctx, side, false)
}

// Delete removes the layer id, or the selection when id is empty.
func (e *Editor) Delete(id string) error {
	h, err := e.handle(id)
	if err != nil {
		return err
	}
	tag, _ := e.adapter.Surface().Tag(h)
	e.session.Stack(tag.Side).Remove(tag.LayerID)
	e.adapter.Surface().Remove(h)
	if e.selected == tag.LayerID {
		e.selected = ""
	}
	e.logger.Info("deleted layer", "layer", tag.LayerID, "side", tag.Side)
	return nil
}

// Move centers the layer id, or the selection, at x, y.
func (e *Editor) Move(id string, x, y float64) error {
	h, err := e.handle(id)
	if err != nil {
		return err
	}
	return e.fail(e.adapter.Surface().Move(h, x, y))
}

// Rotate sets the rotation of the layer id, or the selection, in degrees.
func (e *Editor) Rotate(id string, deg float64) error {
	h, err := e.handle(id)
	if err != nil {
		return err
	}
	return e.fail(e.adapter.Surface().Rotate(h, deg))
}

// Scale attempts a free resize. It always fails with UNSUPPORTED: sizes
// only change through presets.
func (e *Editor) Scale(id string, factor float64) error {
	h, err := e.handle(id)
	if err != nil {
		return err
	}
	return e.fail(e.adapter.Surface().Scale(h, factor, factor))
}

// RemoveBackground is not available in this build.
func (e *Editor) RemoveBackground(id string) error {
	if _, err := e.handle(id); err != nil {
		return err
	}
	return e.fail(errors.New(errors.ErrCodeUnsupported, "background removal is not available"))
}

// =============================================================================
// Presets and selection
// =============================================================================

// ApplyPreset fits the layer id, or the selection, into presetID.
func (e *Editor) ApplyPreset(id, presetID string) error {
	p, ok := e.pricing.Catalog().Lookup(presetID)
	if !ok {
		return e.fail(errors.New(errors.ErrCodeValidation, "unknown size preset %q", presetID))
	}
	h, err := e.handle(id)
	if err != nil {
		return err
	}
	if err := pricing.ApplyPreset(e.adapter.Surface(), h, p); err != nil {
		return e.fail(err)
	}
	e.sync.Schedule()
	return nil
}

// SetPreset is the preset picker: it applies presetID to the selection
// and makes it the default for new elements.
func (e *Editor) SetPreset(presetID string) error {
	if _, ok := e.pricing.Catalog().Lookup(presetID); !ok {
		return e.fail(errors.New(errors.ErrCodeValidation, "unknown size preset %q", presetID))
	}
	e.defaultPreset = presetID
	if e.selected == "" {
		return nil
	}
	return e.ApplyPreset(e.selected, presetID)
}

// DefaultPreset returns the preset applied to new elements.
func (e *Editor) DefaultPreset() string { return e.defaultPreset }

// Select selects the layer id on the active side; an empty id clears the
// selection.
func (e *Editor) Select(id string) error {
	if id == "" {
		e.selected = ""
		e.publish()
		return nil
	}
	if _, err := e.handle(id); err != nil {
		return err
	}
	e.selected = id
	e.publish()
	return nil
}

// Selected returns the selected layer id.
func (e *Editor) Selected() string { return e.selected }

// ActiveLayerMetric returns the latest metric of the selected layer.
func (e *Editor) ActiveLayerMetric() (pricing.LayerMetric, bool) {
	if e.selected == "" || e.session == nil {
		return pricing.LayerMetric{}, false
	}
	return e.ledger.Side(e.session.ActiveSide).Layer(e.selected)
}

// RefreshPresets installs a new preset table and refits every element to
// its stored preset. The inactive side is refit off-screen.
func (e *Editor) RefreshPresets(ctx context.Context, presets *catalog.Catalog) error {
	if presets == nil {
		return e.fail(errors.New(errors.ErrCodeInvalidInput, "no preset table"))
	}
	opts := e.base.Options()
	opts.Catalog = presets
	base, err := pricing.NewEngine(opts, e.logger)
	if err != nil {
		return e.fail(err)
	}
	e.base = base
	if _, ok := presets.Lookup(e.defaultPreset); !ok {
		e.defaultPreset = e.opts.DefaultPreset
	}
	if e.session == nil {
		return nil
	}
	e.pricing = base.ForProduct(e.session.Product)
	e.sync.SetPresets(e.pricing.Catalog())

	n := e.pricing.RefreshAll(e.adapter.Surface())
	e.sync.Run()
	other := e.session.ActiveSide.Other()
	e.stale[other] = true
	e.repriceOffscreen(ctx, other, true)
	e.logger.Info("refreshed presets", "refit", n)
	return nil
}

// =============================================================================
// Session-wide commands
// =============================================================================

// Reset clears both stacks and the surface.
func (e *Editor) Reset(ctx context.Context) error {
	if err := e.requireSession(); err != nil {
		return err
	}
	e.sync.Cancel()
	e.session.Reset()
	e.selected = ""
	e.stale = make(map[layer.Side]bool)
	e.ledger.Reset()
	e.sync.Rebuild(ctx)
	e.adapter.OnSettled(e.sync.Run)
	e.publish()
	e.logger.Info("reset design")
	return nil
}

// SetBackdrop toggles the backdrop behind the garment.
func (e *Editor) SetBackdrop(on bool, fill string) error {
	if fill != "" {
		if err := errors.ValidateColorHex(fill); err != nil {
			return e.fail(err)
		}
	}
	e.adapter.SetBackdrop(on, fill)
	return nil
}

// handle resolves id, or the selection when id is empty, on the live
// surface.
func (e *Editor) handle(id string) (scene.Handle, error) {
	if err := e.requireSession(); err != nil {
		return 0, err
	}
	if id == "" {
		id = e.selected
	}
	if id == "" {
		return 0, e.fail(errors.New(errors.ErrCodeValidation, "no layer selected"))
	}
	s := e.adapter.Surface()
	if s == nil {
		return 0, e.fail(errors.New(errors.ErrCodeValidation, "no surface mounted"))
	}
	h, ok := s.FindByLayer(id)
	if !ok {
		return 0, e.fail(errors.New(errors.ErrCodeNotFound, "layer %s is not on the %s side", id, e.session.ActiveSide))
	}
	return h, nil
}

// repriceOffscreen projects the stack of side onto an isolated surface off
// the loop and publishes its metrics. With refit set, stored presets are
// re-applied first and the resulting scales written back, unless the stack
// changed in the meantime.
func (e *Editor) repriceOffscreen(ctx context.Context, side layer.Side, refit bool) {
	session, engine := e.session, e.pricing
	stack := session.Stack(side)
	rev := stack.Revision()
	opts := scene.BuildOptions{Side: side, Records: stack.Records()}

	e.buildOffscreen(ctx, opts, func(s *scene.Surface, errs []error) {
		defer s.Release()
		if session != e.session {
			return
		}
		for _, err := range errs {
			e.logger.Debug("off-screen layer unavailable", "side", side, "err", err)
		}
		if refit {
			engine.RefreshAll(s)
			if stack.Revision() == rev {
				for _, h := range s.Tagged() {
					tag, _ := s.Tag(h)
					obj, _ := s.Get(h)
					if rec, ok := stack.Get(tag.LayerID); ok {
						stack.Replace(scene.RecordFrom(rec, obj, tag))
					}
				}
				delete(e.stale, side)
			}
		}
		if side == session.ActiveSide {
			return
		}
		m := engine.Compute(s, side)
		e.ledger.Publish(m)
		e.publish()
	})
}
