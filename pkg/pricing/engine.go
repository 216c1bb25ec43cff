package pricing

import (
	"fmt"
	"math"
	"time"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"

	"github.com/matzehuels/mockup/pkg/catalog"
	"github.com/matzehuels/mockup/pkg/layer"
	"github.com/matzehuels/mockup/pkg/observability"
	"github.com/matzehuels/mockup/pkg/scene"
)

// Engine prices scene objects. It holds no per-run state, so computing the
// same scene twice yields the same metrics.
type Engine struct {
	opts   Options
	logger *log.Logger
}

// NewEngine validates opts and returns an engine.
func NewEngine(opts Options, logger *log.Logger) (*Engine, error) {
	opts.SetDefaults()
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pricing options: %w", err)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{opts: opts, logger: logger}, nil
}

// Options returns the engine's effective options.
func (e *Engine) Options() Options { return e.opts }

// Catalog returns the preset table used to resolve ids.
func (e *Engine) Catalog() *catalog.Catalog { return e.opts.Catalog }

// ForProduct returns an engine applying the product's customization
// pricing.
func (e *Engine) ForProduct(p *catalog.Product) *Engine {
	return &Engine{opts: e.opts.ForProduct(p), logger: e.logger}
}

// Layer returns the metric of obj under tag. Zero scale or zero natural
// size yields zero area and, without a preset, zero cost.
func (e *Engine) Layer(obj *scene.Object, tag scene.Tag) LayerMetric {
	w, h := obj.ScaledSize()
	area := w * h
	dpi := obj.DPI
	if dpi <= 0 {
		dpi = e.opts.DefaultDPI
	}

	m := LayerMetric{
		LayerID:  tag.LayerID,
		Side:     tag.Side,
		PresetID: tag.PresetID,
		WidthPx:  w,
		HeightPx: h,
		AreaPx:   area,
		DPI:      dpi,
		WidthIn:  w / dpi,
		HeightIn: h / dpi,
		AreaIn:   area / (dpi * dpi),
	}
	if p, ok := e.opts.Catalog.Lookup(tag.PresetID); ok {
		m.Cost = p.FixedPrice
		m.Rule = RulePreset
		return m
	}
	m.Cost = decimal.NewFromFloat(area).Mul(e.opts.PricePerPixel).Round(2)
	m.Rule = RuleArea
	return m
}

// Compute prices the objects of side on s. Base objects and untagged
// objects are skipped.
func (e *Engine) Compute(s *scene.Surface, side layer.Side) Metrics {
	start := time.Now()
	out := Metrics{Side: side, Cost: decimal.Zero, Layers: []LayerMetric{}}

	for _, h := range s.Handles() {
		obj, _ := s.Get(h)
		if obj.IsBase() {
			continue
		}
		tag, ok := s.Tag(h)
		if !ok || tag.Side != side {
			continue
		}
		m := e.Layer(obj, tag)
		out.Layers = append(out.Layers, m)

		if m.Cost.GreaterThan(out.Cost) {
			out.Cost = m.Cost
		}
		out.TotalAreaPx += m.AreaPx
		out.MaxWidthPx = math.Max(out.MaxWidthPx, m.WidthPx)
		out.MaxHeightPx = math.Max(out.MaxHeightPx, m.HeightPx)
	}

	out.WidthIn = out.MaxWidthPx / DefaultDPI
	out.HeightIn = out.MaxHeightPx / DefaultDPI
	out.AreaIn = out.TotalAreaPx / (DefaultDPI * DefaultDPI)

	d := time.Since(start)
	observability.Pricing().OnRecompute(len(out.Layers), d)
	e.logger.Debug("priced side", "side", side, "layers", len(out.Layers), "cost", out.Cost.StringFixed(2))
	return out
}

// =============================================================================
// Presets
// =============================================================================

// FitScale returns the uniform scale fitting natW x natH into p, capped at
// 1. A zero natural size keeps the natural scale.
func FitScale(natW, natH float64, p catalog.Preset) float64 {
	if natW <= 0 || natH <= 0 {
		return 1
	}
	return min(p.MaxWidthPx/natW, p.MaxHeightPx/natH, 1)
}

// ApplyPreset fits h into p and stamps the preset id into its tag.
func ApplyPreset(s *scene.Surface, h scene.Handle, p catalog.Preset) error {
	obj, ok := s.Get(h)
	if !ok {
		return scene.ErrNoObject
	}
	tag, ok := s.Tag(h)
	if !ok {
		return fmt.Errorf("object %d is not a layer", h)
	}
	if err := s.SetScale(h, FitScale(obj.NaturalW, obj.NaturalH, p)); err != nil {
		return err
	}
	tag.PresetID = p.ID
	return s.SetTag(h, tag)
}

// RefreshAll re-applies the stored preset of every tagged object and
// returns the number refitted. Objects whose preset no longer resolves
// are left alone.
func (e *Engine) RefreshAll(s *scene.Surface) int {
	n := 0
	for _, h := range s.Tagged() {
		tag, _ := s.Tag(h)
		p, ok := e.opts.Catalog.Lookup(tag.PresetID)
		if !ok {
			continue
		}
		if err := ApplyPreset(s, h, p); err != nil {
			e.logger.Warn("refresh preset", "layer", tag.LayerID, "err", err)
			continue
		}
		n++
	}
	return n
}
