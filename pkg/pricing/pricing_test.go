package pricing

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/matzehuels/mockup/pkg/catalog"
	"github.com/matzehuels/mockup/pkg/layer"
	"github.com/matzehuels/mockup/pkg/scene"
)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(Options{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func addElement(t *testing.T, s *scene.Surface, id string, side layer.Side, preset string, natW, natH, scale float64) scene.Handle {
	t.Helper()
	h, err := s.Add(&scene.Object{
		Kind:     scene.KindImage,
		X:        250,
		Y:        300,
		ScaleX:   scale,
		ScaleY:   scale,
		NaturalW: natW,
		NaturalH: natH,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SetTag(h, scene.Tag{LayerID: id, Side: side, PresetID: preset}); err != nil {
		t.Fatal(err)
	}
	return h
}

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestPresetCostIgnoresArea(t *testing.T) {
	e := newEngine(t)
	for _, size := range []float64{1, 40, 900} {
		s := scene.NewSurface()
		addElement(t, s, "a", layer.Front, catalog.PresetMedium, size, size, 1)
		m := e.Compute(s, layer.Front)
		if !m.Cost.Equal(dec(150)) {
			t.Errorf("size %v: cost = %s, want 150", size, m.Cost)
		}
		if m.Layers[0].Rule != RulePreset {
			t.Errorf("rule = %s", m.Layers[0].Rule)
		}
	}
}

func TestSideCostIsMaxNotSum(t *testing.T) {
	e := newEngine(t)
	s := scene.NewSurface()
	addElement(t, s, "a", layer.Front, catalog.PresetSmall, 100, 100, 1)
	addElement(t, s, "b", layer.Front, catalog.PresetSmall, 120, 80, 1)

	m := e.Compute(s, layer.Front)
	if !m.Cost.Equal(dec(100)) {
		t.Errorf("front cost = %s, want 100", m.Cost)
	}
	if m.TotalAreaPx != 100*100+120*80 {
		t.Errorf("total area = %v", m.TotalAreaPx)
	}
	if m.MaxWidthPx != 120 || m.MaxHeightPx != 100 {
		t.Errorf("max dims = %v x %v", m.MaxWidthPx, m.MaxHeightPx)
	}
	if m.WidthIn != 120.0/300 {
		t.Errorf("aggregate width in = %v", m.WidthIn)
	}

	addElement(t, s, "c", layer.Front, catalog.PresetLarge, 10, 10, 1)
	if m := e.Compute(s, layer.Front); !m.Cost.Equal(dec(200)) {
		t.Errorf("cost with large = %s, want 200", m.Cost)
	}
}

func TestAreaFallback(t *testing.T) {
	e := newEngine(t)
	s := scene.NewSurface()
	h := addElement(t, s, "a", layer.Back, "", 200, 200, 0.5)
	obj, _ := s.Get(h)
	obj.DPI = 300

	m := e.Compute(s, layer.Back)
	if !m.Cost.Equal(dec(200)) {
		t.Errorf("cost = %s, want 200", m.Cost)
	}
	l := m.Layers[0]
	if l.AreaPx != 10000 || l.Rule != RuleArea {
		t.Errorf("layer = %+v", l)
	}
	if l.WidthIn != 100.0/300 || l.AreaIn != 10000.0/(300*300) {
		t.Errorf("inch metrics = %v, %v", l.WidthIn, l.AreaIn)
	}
}

func TestUnknownPresetFallsBackToArea(t *testing.T) {
	e := newEngine(t)
	s := scene.NewSurface()
	addElement(t, s, "a", layer.Front, "jumbo", 10, 10, 1)
	if m := e.Compute(s, layer.Front); !m.Cost.Equal(dec(2)) {
		t.Errorf("cost = %s, want 2", m.Cost)
	}
}

func TestLayerDPI(t *testing.T) {
	e := newEngine(t)
	obj := &scene.Object{NaturalW: 300, NaturalH: 150, ScaleX: 1, ScaleY: 1, DPI: 150}
	m := e.Layer(obj, scene.Tag{LayerID: "a", Side: layer.Front})
	if m.DPI != 150 || m.WidthIn != 2 || m.HeightIn != 1 || m.AreaIn != 2 {
		t.Errorf("metric = %+v", m)
	}

	obj.DPI = 0
	if m := e.Layer(obj, scene.Tag{}); m.DPI != DefaultDPI {
		t.Errorf("effective dpi = %v", m.DPI)
	}
}

func TestZeroSizeIsZeroCost(t *testing.T) {
	e := newEngine(t)
	tests := []struct {
		name             string
		natW, natH, scale float64
	}{
		{"zero scale", 100, 100, 0},
		{"zero width", 0, 100, 1},
		{"zero height", 100, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := scene.NewSurface()
			addElement(t, s, "a", layer.Front, "", tt.natW, tt.natH, tt.scale)
			m := e.Compute(s, layer.Front)
			if !m.Cost.IsZero() || m.TotalAreaPx != 0 {
				t.Errorf("metrics = %+v", m)
			}
		})
	}
}

func TestComputeSkipsBaseAndUntagged(t *testing.T) {
	e := newEngine(t)
	s := scene.NewSurface()
	s.Add(scene.NewBackdrop(""))
	s.Add(&scene.Object{Name: scene.GarmentName, Kind: scene.KindGarment, NaturalW: 500, NaturalH: 600, ScaleX: 1, ScaleY: 1})
	s.Add(&scene.Object{Kind: scene.KindImage, NaturalW: 100, NaturalH: 100, ScaleX: 1, ScaleY: 1})
	addElement(t, s, "back", layer.Back, catalog.PresetLarge, 10, 10, 1)

	m := e.Compute(s, layer.Front)
	if len(m.Layers) != 0 || !m.Cost.IsZero() {
		t.Errorf("front metrics = %+v", m)
	}
}

func TestComputeIsIdempotent(t *testing.T) {
	e := newEngine(t)
	s := scene.NewSurface()
	addElement(t, s, "a", layer.Front, "", 123, 45, 0.7)
	addElement(t, s, "b", layer.Front, catalog.PresetPocket, 60, 60, 1)

	first := e.Compute(s, layer.Front)
	second := e.Compute(s, layer.Front)
	if !first.Cost.Equal(second.Cost) || first.TotalAreaPx != second.TotalAreaPx || len(first.Layers) != len(second.Layers) {
		t.Errorf("metrics differ: %+v vs %+v", first, second)
	}
	for i := range first.Layers {
		a, b := first.Layers[i], second.Layers[i]
		if !a.Cost.Equal(b.Cost) || a.AreaPx != b.AreaPx {
			t.Errorf("layer %d differs", i)
		}
	}
}

func TestFitScaleNeverUpscales(t *testing.T) {
	presets := catalog.Default().Presets()
	sizes := [][2]float64{{1, 1}, {50, 50}, {90, 90}, {300, 10}, {10, 900}, {2000, 2000}}
	for _, p := range presets {
		for _, sz := range sizes {
			scale := FitScale(sz[0], sz[1], p)
			if scale > 1 {
				t.Errorf("%s %v: scale %v > 1", p.ID, sz, scale)
			}
			if w, h := sz[0]*scale, sz[1]*scale; w > p.MaxWidthPx+1e-9 || h > p.MaxHeightPx+1e-9 {
				t.Errorf("%s %v: %vx%v exceeds preset", p.ID, sz, w, h)
			}
		}
	}
}

func TestApplyPreset(t *testing.T) {
	s := scene.NewSurface()
	h := addElement(t, s, "a", layer.Front, "", 900, 450, 1)
	large, _ := catalog.Default().Lookup(catalog.PresetLarge)

	var modified int
	s.On(scene.EventModified, func(scene.Event) { modified++ })

	if err := ApplyPreset(s, h, large); err != nil {
		t.Fatal(err)
	}
	obj, _ := s.Get(h)
	if obj.ScaleX != 300.0/900 || obj.ScaleY != obj.ScaleX {
		t.Errorf("scale = %v, %v", obj.ScaleX, obj.ScaleY)
	}
	if tag, _ := s.Tag(h); tag.PresetID != catalog.PresetLarge {
		t.Errorf("preset = %q", tag.PresetID)
	}
	if modified != 1 {
		t.Errorf("modified events = %d", modified)
	}

	garment, _ := s.Add(&scene.Object{Name: scene.GarmentName, Kind: scene.KindGarment})
	if err := ApplyPreset(s, garment, large); err == nil {
		t.Error("ApplyPreset on the garment should fail")
	}
}

func TestRefreshAll(t *testing.T) {
	s := scene.NewSurface()
	a := addElement(t, s, "a", layer.Front, catalog.PresetSmall, 300, 300, 0.5)
	b := addElement(t, s, "b", layer.Front, "", 300, 300, 0.8)

	cat, err := catalog.Load(strings.NewReader(`
[[preset]]
id = "small"
max_width = 60
max_height = 60
`))
	if err != nil {
		t.Fatal(err)
	}
	e, _ := NewEngine(Options{Catalog: cat}, nil)

	if n := e.RefreshAll(s); n != 1 {
		t.Errorf("refreshed %d, want 1", n)
	}
	if o, _ := s.Get(a); o.ScaleX != 0.2 {
		t.Errorf("a scale = %v", o.ScaleX)
	}
	if o, _ := s.Get(b); o.ScaleX != 0.8 {
		t.Errorf("untouched b scale = %v", o.ScaleX)
	}
}

func TestForProduct(t *testing.T) {
	ppp := decimal.RequireFromString("0.01")
	p := &catalog.Product{
		Price: dec(500),
		CustomizationPricing: &catalog.CustomizationPricing{
			PresetPrices:  map[string]decimal.Decimal{catalog.PresetPocket: dec(75)},
			PricePerPixel: &ppp,
		},
	}
	e := newEngine(t).ForProduct(p)

	s := scene.NewSurface()
	addElement(t, s, "a", layer.Front, catalog.PresetPocket, 10, 10, 1)
	addElement(t, s, "b", layer.Back, "", 100, 100, 1)

	if m := e.Compute(s, layer.Front); !m.Cost.Equal(dec(75)) {
		t.Errorf("front = %s, want 75", m.Cost)
	}
	if m := e.Compute(s, layer.Back); !m.Cost.Equal(dec(100)) {
		t.Errorf("back = %s, want 100", m.Cost)
	}
	if pp, _ := newEngine(t).Catalog().Lookup(catalog.PresetPocket); !pp.FixedPrice.Equal(dec(50)) {
		t.Error("ForProduct mutated the default catalog")
	}
}

func TestLedgerQuote(t *testing.T) {
	e := newEngine(t)
	l := NewLedger()

	front := scene.NewSurface()
	addElement(t, front, "t", layer.Front, catalog.PresetPocket, 80, 30, 1)
	l.Publish(e.Compute(front, layer.Front))

	back := scene.NewSurface()
	addElement(t, back, "i", layer.Back, catalog.PresetLarge, 400, 400, 0.75)
	l.Publish(e.Compute(back, layer.Back))

	q := l.Quote(dec(499))
	if !q.FrontCost.Equal(dec(50)) || !q.BackCost.Equal(dec(200)) {
		t.Errorf("costs = %s, %s", q.FrontCost, q.BackCost)
	}
	if !q.Total.Equal(dec(749)) {
		t.Errorf("total = %s, want 749", q.Total)
	}

	l.Reset()
	if q := l.Quote(dec(499)); !q.Total.Equal(dec(499)) {
		t.Errorf("total after reset = %s", q.Total)
	}
}

func TestOptionsValidate(t *testing.T) {
	_, err := NewEngine(Options{PricePerPixel: decimal.NewFromInt(-1)}, nil)
	if err == nil {
		t.Error("negative price per pixel should be rejected")
	}
}
