package design

import (
	"bytes"
	"context"
	"image"
	_ "image/png"
	"io"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"

	"github.com/matzehuels/mockup/pkg/catalog"
	"github.com/matzehuels/mockup/pkg/errors"
	"github.com/matzehuels/mockup/pkg/fonts"
	"github.com/matzehuels/mockup/pkg/layer"
	"github.com/matzehuels/mockup/pkg/payload"
	"github.com/matzehuels/mockup/pkg/pricing"
	"github.com/matzehuels/mockup/pkg/reconcile"
	"github.com/matzehuels/mockup/pkg/resource"
	"github.com/matzehuels/mockup/pkg/sched"
	"github.com/matzehuels/mockup/pkg/store"
)

type fakeLoader struct {
	mu    sync.Mutex
	fail  map[string]bool
	gates map[string]chan struct{}
}

func newFakeLoader() *fakeLoader {
	return &fakeLoader{fail: make(map[string]bool), gates: make(map[string]chan struct{})}
}

func (l *fakeLoader) gate(uri string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch := make(chan struct{})
	l.gates[uri] = ch
	return ch
}

func (l *fakeLoader) Load(ctx context.Context, uri string) (*resource.Resource, error) {
	l.mu.Lock()
	gate, failed := l.gates[uri], l.fail[uri]
	l.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if failed {
		return nil, errors.New(errors.ErrCodeResourceLoad, "fetch %s: 404", uri)
	}
	w, h := 400, 400
	if strings.HasPrefix(uri, "mock/") {
		w, h = 500, 600
	}
	return &resource.Resource{
		URI:       uri,
		Image:     image.NewRGBA(image.Rect(0, 0, w, h)),
		Format:    "png",
		DPI:       resource.DefaultDPI,
		DPIStatus: resource.DPIMissing,
	}, nil
}

type countingStore struct {
	store.Designs
	saves int
}

func (s *countingStore) SaveDesign(ctx context.Context, d *payload.Design) (string, error) {
	s.saves++
	return s.Designs.SaveDesign(ctx, d)
}

func testProduct() *catalog.Product {
	return &catalog.Product{
		ID:    "p1",
		Slug:  "classic-tee",
		Name:  "Classic Tee",
		Price: decimal.NewFromInt(499),
		Sizes: []string{"S", "M"},
		Variants: []catalog.Variant{
			{Color: "white", Images: []catalog.Image{{URL: "mock/white-front.png"}, {URL: "mock/white-back.png"}}},
			{Color: "black", Images: []catalog.Image{{URL: "mock/black-front.png"}, {URL: "mock/black-back.png"}}},
		},
	}
}

type fixture struct {
	ctx     context.Context
	clock   *sched.ManualClock
	loop    *sched.Loop
	loader  *fakeLoader
	designs *countingStore
	cart    *store.MemoryCart
	ed      *Editor
	notes   []error
}

func newFixture(t *testing.T, designs store.Designs) *fixture {
	t.Helper()
	if designs == nil {
		fs, err := store.NewFileStore(t.TempDir())
		if err != nil {
			t.Fatal(err)
		}
		designs = fs
	}
	f := &fixture{
		ctx:     context.Background(),
		clock:   sched.NewManualClock(time.Unix(0, 0)),
		loader:  newFakeLoader(),
		designs: &countingStore{Designs: designs},
		cart:    store.NewMemoryCart(),
	}
	f.loop = sched.NewLoop(sched.WithClock(f.clock))
	ed, err := New(f.loop, f.loader, Options{CartID: "cart-1"}, log.New(io.Discard),
		WithStore(f.designs),
		WithCart(f.cart),
		WithNotifier(func(err error) { f.notes = append(f.notes, err) }),
	)
	if err != nil {
		t.Fatal(err)
	}
	f.ed = ed
	t.Cleanup(ed.Close)
	return f
}

func (f *fixture) open(t *testing.T, size string) {
	t.Helper()
	if err := f.ed.Open(f.ctx, testProduct(), "white", size); err != nil {
		t.Fatal(err)
	}
	f.settle(t)
}

func (f *fixture) settle(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(f.ctx, 5*time.Second)
	defer cancel()
	if err := f.loop.Settle(ctx); err != nil {
		t.Fatal(err)
	}
}

// quiesce lets the debounce window close and runs the resulting batch.
func (f *fixture) quiesce(t *testing.T) {
	t.Helper()
	f.settle(t)
	f.clock.Advance(reconcile.DefaultDebounce)
	f.settle(t)
}

func (f *fixture) must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}

func (f *fixture) switchTo(t *testing.T, side layer.Side) {
	t.Helper()
	f.must(t, f.ed.SwitchSide(f.ctx, side))
	f.settle(t)
}

func (f *fixture) addText(t *testing.T, content string) string {
	t.Helper()
	id, err := f.ed.AddText(f.ctx, content)
	f.must(t, err)
	f.settle(t)
	return id
}

func (f *fixture) addImage(t *testing.T, uri string) string {
	t.Helper()
	id, err := f.ed.AddImage(f.ctx, uri)
	f.must(t, err)
	f.settle(t)
	return id
}

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func wantCosts(t *testing.T, st State, front, back, total int64) {
	t.Helper()
	if !st.FrontCost.Equal(dec(front)) || !st.BackCost.Equal(dec(back)) || !st.TotalPrice.Equal(dec(total)) {
		t.Errorf("costs = front %s back %s total %s, want %d %d %d",
			st.FrontCost, st.BackCost, st.TotalPrice, front, back, total)
	}
}

// =============================================================================
// Scenarios
// =============================================================================

func TestScenarioPocketFrontLargeBack(t *testing.T) {
	f := newFixture(t, nil)
	f.open(t, "M")

	f.must(t, f.ed.SetPreset(catalog.PresetPocket))
	f.addText(t, "Hello")
	f.switchTo(t, layer.Back)

	f.must(t, f.ed.SetPreset(catalog.PresetLarge))
	f.addImage(t, "uploads/logo.png")
	f.switchTo(t, layer.Front)

	wantCosts(t, f.ed.State(), 50, 200, 749)
	if len(f.notes) != 0 {
		t.Errorf("notifications = %v", f.notes)
	}
}

func TestScenarioTwoSmallsChargeOnce(t *testing.T) {
	f := newFixture(t, nil)
	f.open(t, "M")

	f.must(t, f.ed.SetPreset(catalog.PresetSmall))
	f.addText(t, "One")
	f.addText(t, "Two")
	f.quiesce(t)

	wantCosts(t, f.ed.State(), 100, 0, 599)
	if n := f.ed.Session().Stack(layer.Front).Len(); n != 2 {
		t.Errorf("front layers = %d, want 2", n)
	}
}

func TestSideRoundTripIsLossless(t *testing.T) {
	f := newFixture(t, nil)
	f.open(t, "M")

	id := f.addText(t, "Round trip")
	f.addImage(t, "uploads/a.png")
	f.must(t, f.ed.Move(id, 120, 140))
	f.must(t, f.ed.Rotate(id, 30))
	f.quiesce(t)
	before := f.ed.Session().Stack(layer.Front).Records()

	f.switchTo(t, layer.Back)
	f.switchTo(t, layer.Front)

	after := f.ed.Session().Stack(layer.Front).Records()
	if len(after) != len(before) {
		t.Fatalf("layers = %d, want %d", len(after), len(before))
	}
	for i := range before {
		if !before[i].Equal(after[i]) {
			t.Errorf("record %d changed:\n%+v\n%+v", i, before[i], after[i])
		}
	}

	s := f.ed.Adapter().Surface()
	h, ok := s.FindByLayer(id)
	if !ok {
		t.Fatal("text not rebuilt")
	}
	obj, _ := s.Get(h)
	if obj.X != 120 || obj.Y != 140 || obj.Angle != 30 {
		t.Errorf("rebuilt text at (%v, %v) angle %v", obj.X, obj.Y, obj.Angle)
	}
}

// =============================================================================
// Elements
// =============================================================================

func TestAddImageAppliesDefaultPreset(t *testing.T) {
	f := newFixture(t, nil)
	f.open(t, "M")

	id := f.addImage(t, "uploads/logo.png")
	rec, ok := f.ed.Session().Stack(layer.Front).Get(id)
	if !ok {
		t.Fatal("image not stored")
	}
	// 400x400 into medium 220x260
	if math.Abs(rec.Transform.UniformScale-0.55) > 1e-9 || rec.PresetID != catalog.PresetMedium {
		t.Errorf("record = %+v", rec)
	}
	if f.ed.Selected() != id {
		t.Errorf("selected = %q, want new image", f.ed.Selected())
	}

	f.quiesce(t)
	st := f.ed.State()
	if st.ActiveLayer == nil || st.ActiveLayer.LayerID != id || !st.ActiveLayer.Cost.Equal(dec(150)) {
		t.Errorf("active layer = %+v", st.ActiveLayer)
	}
	if st.ActiveLayer != nil && math.Abs(st.ActiveLayer.WidthPx-220) > 1e-9 {
		t.Errorf("width = %v, want 220", st.ActiveLayer.WidthPx)
	}
}

func TestAddImageFailureIsNotifiedOnce(t *testing.T) {
	f := newFixture(t, nil)
	f.open(t, "M")
	f.loader.fail["uploads/missing.png"] = true

	f.addImage(t, "uploads/missing.png")

	if len(f.notes) != 1 || !errors.Is(f.notes[0], errors.ErrCodeResourceLoad) {
		t.Fatalf("notifications = %v", f.notes)
	}
	if n := f.ed.Session().Stack(layer.Front).Len(); n != 0 {
		t.Errorf("front layers = %d, want 0", n)
	}
}

func TestImageResolvingAfterSwitchLandsOnItsSide(t *testing.T) {
	f := newFixture(t, nil)
	f.open(t, "M")
	gate := f.loader.gate("uploads/slow.png")

	id, err := f.ed.AddImage(f.ctx, "uploads/slow.png")
	f.must(t, err)
	f.must(t, f.ed.SwitchSide(f.ctx, layer.Back))
	close(gate)
	f.settle(t)

	if _, ok := f.ed.Session().Stack(layer.Front).Get(id); !ok {
		t.Fatal("late image not stored on the front")
	}
	if _, ok := f.ed.Adapter().Surface().FindByLayer(id); ok {
		t.Error("late image projected onto the back")
	}
	wantCosts(t, f.ed.State(), 150, 0, 649)
}

func TestDeleteSelection(t *testing.T) {
	f := newFixture(t, nil)
	f.open(t, "M")
	f.addText(t, "Bye")
	f.quiesce(t)
	wantCosts(t, f.ed.State(), 150, 0, 649)

	f.must(t, f.ed.Delete(""))
	f.quiesce(t)

	if f.ed.Selected() != "" || f.ed.Session().Stack(layer.Front).Len() != 0 {
		t.Error("layer not deleted")
	}
	wantCosts(t, f.ed.State(), 0, 0, 499)
	if err := f.ed.Delete(""); !errors.Is(err, errors.ErrCodeValidation) {
		t.Errorf("delete without selection err = %v", err)
	}
}

func TestUnsupportedAndInvalidCommands(t *testing.T) {
	f := newFixture(t, nil)
	if _, err := f.ed.AddText(f.ctx, "x"); !errors.Is(err, errors.ErrCodeValidation) {
		t.Errorf("add without session err = %v", err)
	}
	if err := f.ed.Open(f.ctx, testProduct(), "", "M"); !errors.Is(err, errors.ErrCodeValidation) {
		t.Errorf("open without color err = %v", err)
	}
	f.open(t, "M")
	id := f.addText(t, "Hi")
	f.notes = nil

	tests := []struct {
		name string
		run  func() error
		code errors.Code
	}{
		{"free scale", func() error { return f.ed.Scale(id, 2) }, errors.ErrCodeUnsupported},
		{"remove background", func() error { return f.ed.RemoveBackground(id) }, errors.ErrCodeUnsupported},
		{"unknown preset", func() error { return f.ed.ApplyPreset(id, "huge") }, errors.ErrCodeValidation},
		{"unknown layer", func() error { return f.ed.Move("nope", 1, 1) }, errors.ErrCodeNotFound},
		{"empty text", func() error { _, err := f.ed.AddText(f.ctx, "  "); return err }, errors.ErrCodeValidation},
		{"bad color", func() error { return f.ed.SetBackdrop(true, "red") }, errors.ErrCodeInvalidInput},
		{"unknown size", func() error { return f.ed.SetSize("XXL") }, errors.ErrCodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.run(); !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
		})
	}
	if len(f.notes) != len(tests) {
		t.Errorf("notifications = %d, want %d", len(f.notes), len(tests))
	}

	f.quiesce(t)
	rec, _ := f.ed.Session().Stack(layer.Front).Get(id)
	if rec.PresetID != catalog.PresetMedium {
		t.Errorf("failed commands changed the record: %+v", rec)
	}
}

func TestApplyPresetRestampsCost(t *testing.T) {
	f := newFixture(t, nil)
	f.open(t, "M")
	id := f.addImage(t, "uploads/logo.png")

	f.must(t, f.ed.ApplyPreset(id, catalog.PresetPocket))
	f.quiesce(t)

	rec, _ := f.ed.Session().Stack(layer.Front).Get(id)
	if rec.PresetID != catalog.PresetPocket || !rec.Cost.Equal(dec(50)) {
		t.Errorf("record = %+v", rec)
	}
	// 400x400 into 90x90
	if math.Abs(rec.Transform.UniformScale-0.225) > 1e-9 {
		t.Errorf("scale = %v, want 0.225", rec.Transform.UniformScale)
	}
	wantCosts(t, f.ed.State(), 50, 0, 549)
}

func TestRefreshPresetsRefitsBothSides(t *testing.T) {
	f := newFixture(t, nil)
	f.open(t, "M")
	f.switchTo(t, layer.Back)
	backID := f.addText(t, "Back text")
	f.switchTo(t, layer.Front)
	frontID := f.addText(t, "Front text")
	f.quiesce(t)

	presets, err := catalog.Load(strings.NewReader("[[preset]]\nid = \"medium\"\nmax_width = 20\nmax_height = 20\nprice = 120\n"))
	f.must(t, err)
	f.must(t, f.ed.RefreshPresets(f.ctx, presets))
	f.settle(t)

	medium, _ := presets.Lookup(catalog.PresetMedium)
	for side, id := range map[layer.Side]string{layer.Front: frontID, layer.Back: backID} {
		rec, _ := f.ed.Session().Stack(side).Get(id)
		w, h, err := fonts.Measure(rec.Text.Content, fonts.DefaultFamily, DefaultFontSize)
		f.must(t, err)
		want := pricing.FitScale(w, h, medium)
		if math.Abs(rec.Transform.UniformScale-want) > 1e-9 {
			t.Errorf("%s scale = %v, want %v", side, rec.Transform.UniformScale, want)
		}
	}
	wantCosts(t, f.ed.State(), 120, 120, 739)
}

// =============================================================================
// Session-wide commands
// =============================================================================

func TestResetClearsBothSides(t *testing.T) {
	f := newFixture(t, nil)
	f.open(t, "M")
	f.addText(t, "Front")
	f.switchTo(t, layer.Back)
	f.addText(t, "Back")
	f.quiesce(t)

	f.must(t, f.ed.Reset(f.ctx))
	f.settle(t)

	for _, side := range layer.Sides {
		if n := f.ed.Session().Stack(side).Len(); n != 0 {
			t.Errorf("%s layers = %d", side, n)
		}
	}
	if n := len(f.ed.Adapter().Surface().Tagged()); n != 0 {
		t.Errorf("tagged objects = %d", n)
	}
	wantCosts(t, f.ed.State(), 0, 0, 499)
}

func TestSubscribersSeeStateChanges(t *testing.T) {
	f := newFixture(t, nil)
	f.open(t, "M")

	var seen []State
	off := f.ed.Subscribe(func(st State) { seen = append(seen, st) })
	f.addText(t, "Hi")
	f.quiesce(t)
	off()
	f.switchTo(t, layer.Back)

	if len(seen) == 0 {
		t.Fatal("no state published")
	}
	last := seen[len(seen)-1]
	if last.Side != layer.Front || !last.FrontCost.Equal(dec(150)) {
		t.Errorf("last state = %+v", last)
	}
}

func TestDownloadBothSides(t *testing.T) {
	f := newFixture(t, nil)
	f.open(t, "M")
	f.addText(t, "Print me")

	for _, side := range layer.Sides {
		data, err := f.ed.Download(f.ctx, side, 1)
		f.must(t, err)
		cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
		f.must(t, err)
		if format != "png" || cfg.Width != 500 || cfg.Height != 600 {
			t.Errorf("%s download = %s %dx%d", side, format, cfg.Width, cfg.Height)
		}
	}
}

func TestDownloadAsyncBuildsOffTheLoop(t *testing.T) {
	f := newFixture(t, nil)
	f.open(t, "M")
	gate := f.loader.gate("mock/white-back.png")

	var got []byte
	called := false
	f.ed.DownloadAsync(f.ctx, layer.Back, 1, func(data []byte, err error) {
		f.must(t, err)
		got, called = data, true
	})
	f.loop.RunPending()
	if called {
		t.Fatal("inactive side rendered before its mockup loaded")
	}
	_, err := f.ed.AddText(f.ctx, "still editable")
	f.must(t, err)
	f.loop.RunPending()

	close(gate)
	f.settle(t)
	if !called {
		t.Fatal("done never ran")
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(got))
	f.must(t, err)
	if format != "png" || cfg.Width != 500 {
		t.Errorf("download = %s %dx%d", format, cfg.Width, cfg.Height)
	}
}

func TestSetColorAfterCloseResumesSync(t *testing.T) {
	f := newFixture(t, nil)
	f.open(t, "M")
	f.ed.Close()

	f.must(t, f.ed.SetColor(f.ctx, "black"))
	f.settle(t)
	if !f.ed.Adapter().Mounted() {
		t.Fatal("surface not remounted")
	}
	id := f.addText(t, "after close")
	f.must(t, f.ed.Move(id, 123, 77))
	f.quiesce(t)

	rec, ok := f.ed.Session().Stack(layer.Front).Get(id)
	if !ok || rec.Transform.X != 123 || rec.Transform.Y != 77 {
		t.Errorf("edit after remount not synced: %+v", rec.Transform)
	}
}

// =============================================================================
// Persistence
// =============================================================================

func TestSaveAndLoad(t *testing.T) {
	designs, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	f := newFixture(t, designs)
	f.open(t, "M")
	f.must(t, f.ed.SetPreset(catalog.PresetPocket))
	f.addText(t, "Hello")
	f.switchTo(t, layer.Back)
	f.must(t, f.ed.SetPreset(catalog.PresetLarge))
	f.addImage(t, "uploads/logo.png")

	id, err := f.ed.Save(f.ctx)
	f.must(t, err)

	saved, err := designs.GetDesign(f.ctx, id)
	f.must(t, err)
	if !saved.TotalPrice.Equal(dec(749)) || saved.SelectedColor != "white" {
		t.Errorf("saved = %+v", saved)
	}
	for _, side := range layer.Sides {
		p := saved.Side(side)
		if !strings.HasPrefix(p.PreviewImage, "data:image/jpeg;base64,") || len(p.DesignData) == 0 {
			t.Errorf("%s payload incomplete", side)
		}
		if len(p.DesignLayers) != 1 {
			t.Errorf("%s layers = %d, want 1", side, len(p.DesignLayers))
		}
	}

	g := newFixture(t, designs)
	f.must(t, g.ed.Load(g.ctx, saved, testProduct()))
	g.settle(t)

	if g.ed.Session().ActiveSide != layer.Front {
		t.Error("loaded design should open on the front")
	}
	for _, side := range layer.Sides {
		if !g.ed.Session().Stack(side).Equal(f.ed.Session().Stack(side)) {
			t.Errorf("%s stack differs after load", side)
		}
	}
	wantCosts(t, g.ed.State(), 50, 200, 749)
}

func TestSaveRejectsOversizedPayloadBeforeStore(t *testing.T) {
	f := newFixture(t, nil)
	f.open(t, "M")
	f.addImage(t, "data:image/png;base64,"+strings.Repeat("A", 16<<20))

	_, err := f.ed.Save(f.ctx)
	if !errors.Is(err, errors.ErrCodePayloadSize) {
		t.Fatalf("err = %v, want payload too large", err)
	}
	if f.designs.saves != 0 {
		t.Errorf("store called %d times", f.designs.saves)
	}
	if n := f.ed.Session().Stack(layer.Front).Len(); n != 1 {
		t.Errorf("session changed: %d layers", n)
	}
}

func TestAddToCart(t *testing.T) {
	f := newFixture(t, nil)
	f.open(t, "")
	f.addText(t, "Cart")

	if _, err := f.ed.AddToCart(f.ctx, 1); !errors.Is(err, errors.ErrCodeValidation) {
		t.Errorf("add without size err = %v", err)
	}
	f.must(t, f.ed.SetSize("M"))
	item, err := f.ed.AddToCart(f.ctx, 2)
	f.must(t, err)

	items, err := f.cart.Items(f.ctx, "cart-1")
	f.must(t, err)
	if len(items) != 1 || items[0].ID != item.ID || items[0].Quantity != 2 {
		t.Fatalf("items = %+v", items)
	}
	if !items[0].TotalPrice.Equal(dec(649)) || items[0].SelectedSize != "M" {
		t.Errorf("item = %+v", items[0])
	}
}

func TestDoRunsOnTheLoop(t *testing.T) {
	f := newFixture(t, nil)
	f.open(t, "M")

	ctx, cancel := context.WithCancel(f.ctx)
	defer cancel()
	go f.loop.Run(ctx)

	var id string
	err := f.ed.Do(ctx, func(e *Editor) error {
		var err error
		id, err = e.AddText(ctx, "From another goroutine")
		return err
	})
	f.must(t, err)
	if id == "" {
		t.Error("no layer id")
	}
}
