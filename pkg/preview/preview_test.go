package preview

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/matzehuels/mockup/pkg/cache"
	mockuperr "github.com/matzehuels/mockup/pkg/errors"
	"github.com/matzehuels/mockup/pkg/layer"
	"github.com/matzehuels/mockup/pkg/resource"
	"github.com/matzehuels/mockup/pkg/scene"
)

var blue = color.RGBA{B: 255, A: 255}

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, c)
		}
	}
	return img
}

func isColor(c color.Color, want color.RGBA) bool {
	r, g, b, _ := c.RGBA()
	wr, wg, wb, _ := want.RGBA()
	near := func(a, b uint32) bool {
		d := int(a>>8) - int(b>>8)
		return d >= -8 && d <= 8
	}
	return near(r, wr) && near(g, wg) && near(b, wb)
}

func TestRasterizeComposites(t *testing.T) {
	s := scene.NewSurface()
	s.Add(scene.NewBackdrop("#ff0000"))
	s.Add(&scene.Object{
		Kind: scene.KindImage, X: 250, Y: 300, ScaleX: 1, ScaleY: 1,
		NaturalW: 100, NaturalH: 50, Image: solid(100, 50, blue),
	})

	img, err := Rasterize(s, 1)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != scene.Width || img.Bounds().Dy() != scene.Height {
		t.Fatalf("size = %v", img.Bounds())
	}
	red := color.RGBA{R: 255, A: 255}
	if !isColor(img.At(10, 10), red) {
		t.Errorf("backdrop pixel = %v", img.At(10, 10))
	}
	if !isColor(img.At(250, 300), blue) || !isColor(img.At(290, 300), blue) {
		t.Error("image not drawn at its center")
	}
	if !isColor(img.At(250, 335), red) {
		t.Error("image drawn outside its box")
	}
}

func TestRasterizeRotation(t *testing.T) {
	s := scene.NewSurface()
	s.Add(&scene.Object{
		Kind: scene.KindImage, X: 250, Y: 300, Angle: 90, ScaleX: 1, ScaleY: 1,
		NaturalW: 100, NaturalH: 50, Image: solid(100, 50, blue),
	})
	img, err := Rasterize(s, 1)
	if err != nil {
		t.Fatal(err)
	}
	// a quarter turn swaps the extents
	if !isColor(img.At(250, 260), blue) {
		t.Errorf("rotated pixel = %v", img.At(250, 260))
	}
	if isColor(img.At(290, 300), blue) {
		t.Error("rotation ignored")
	}
}

func TestRasterizeText(t *testing.T) {
	s := scene.NewSurface()
	rec := layer.Record{
		ID: "t", Kind: layer.KindText,
		Transform: layer.Transform{X: 250, Y: 300, UniformScale: 1},
		Text:      &layer.TextData{Content: "MOCKUP", FontFamily: "Go Bold", ColorHex: "#000000", BaseFontSizePx: 48},
	}
	obj, err := scene.NewObject(rec, nil)
	if err != nil {
		t.Fatal(err)
	}
	s.Add(obj)

	img, err := Rasterize(s, 1)
	if err != nil {
		t.Fatal(err)
	}
	minX, minY, maxX, maxY := obj.Bounds()
	dark := 0
	for y := int(minY); y < int(maxY); y++ {
		for x := int(minX); x < int(maxX); x++ {
			if r, _, _, _ := img.At(x, y).RGBA(); r < 0x4000 {
				dark++
			}
		}
	}
	if dark == 0 {
		t.Error("no text pixels inside the text box")
	}
}

func TestEncodeJPEGFits(t *testing.T) {
	uri, err := EncodeJPEG(solid(scene.Width, scene.Height, blue), DefaultMaxWidth, DefaultMaxHeight, DefaultQuality)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(uri, "data:image/jpeg;base64,") {
		t.Fatalf("uri prefix = %q", uri[:30])
	}
	data, err := resource.DecodeDataURI(uri)
	if err != nil {
		t.Fatal(err)
	}
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 400 || b.Dy() != 480 {
		t.Errorf("preview size = %dx%d, want 400x480", b.Dx(), b.Dy())
	}
}

func TestFitKeepsSmallImages(t *testing.T) {
	img := solid(40, 30, blue)
	if Fit(img, 400, 500) != image.Image(img) {
		t.Error("small image was resampled")
	}
}

type countingLoader struct {
	calls atomic.Int32
	fail  string
}

func (l *countingLoader) Load(_ context.Context, uri string) (*resource.Resource, error) {
	l.calls.Add(1)
	if uri == l.fail {
		return nil, mockuperr.New(mockuperr.ErrCodeResourceLoad, "gone")
	}
	return &resource.Resource{URI: uri, Image: solid(50, 60, blue), Format: "png", DPI: 300}, nil
}

func offscreenRequest() Request {
	return Request{
		Side: layer.Back,
		Records: []layer.Record{{
			ID: "i", Kind: layer.KindImage,
			Transform: layer.Transform{X: 250, Y: 250, UniformScale: 1},
			Image:     &layer.ImageData{SourceURI: "uploads/logo.png"},
		}},
		BaseURI:  "mock/white-back.png",
		Backdrop: true,
	}
}

func TestOffscreenCaches(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	loader := &countingLoader{}
	r := NewRenderer(loader, nil, WithCache(c, nil))
	ctx := context.Background()

	first, errs, err := r.Offscreen(ctx, offscreenRequest())
	if err != nil || len(errs) != 0 {
		t.Fatalf("Offscreen: %v %v", err, errs)
	}
	calls := loader.calls.Load()
	if calls != 2 {
		t.Errorf("loads = %d, want 2", calls)
	}

	second, _, err := r.Offscreen(ctx, offscreenRequest())
	if err != nil {
		t.Fatal(err)
	}
	if second != first || loader.calls.Load() != calls {
		t.Error("second render should come from the cache")
	}

	req := offscreenRequest()
	req.Records[0].Transform.X = 100
	if _, _, err := r.Offscreen(ctx, req); err != nil {
		t.Fatal(err)
	}
	if loader.calls.Load() == calls {
		t.Error("a changed stack must not hit the cache")
	}
}

func TestOffscreenPartialFailure(t *testing.T) {
	loader := &countingLoader{fail: "uploads/logo.png"}
	r := NewRenderer(loader, nil)

	uri, errs, err := r.Offscreen(context.Background(), offscreenRequest())
	if err != nil {
		t.Fatal(err)
	}
	if uri == "" {
		t.Error("a failed element should not abort the preview")
	}
	if len(errs) != 1 || !mockuperr.Is(errs[0], mockuperr.ErrCodeResourceLoad) {
		t.Errorf("errs = %v", errs)
	}
}

func TestSnapshotLeavesSurfaceUntouched(t *testing.T) {
	s := scene.NewSurface()
	h, _ := s.Add(&scene.Object{Kind: scene.KindImage, X: 100, Y: 100, ScaleX: 1, ScaleY: 1, NaturalW: 50, NaturalH: 60, Image: solid(50, 60, blue)})
	s.SetTag(h, scene.Tag{LayerID: "i", Side: layer.Front})
	s.On(scene.EventModified, func(scene.Event) { t.Error("snapshot modified the surface") })
	before := s.Dump()

	r := NewRenderer(&countingLoader{}, nil)
	uri, err := r.Snapshot(context.Background(), s, layer.Front)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(uri, "data:image/jpeg;base64,") {
		t.Error("snapshot is not a jpeg data URI")
	}
	after := s.Dump()
	if len(before.Objects) != len(after.Objects) || before.Objects[0] != after.Objects[0] {
		t.Error("surface state changed")
	}
	if s.ListenerCount() != 1 {
		t.Error("listeners changed")
	}
}

func TestDownloadFullResolution(t *testing.T) {
	s := scene.NewSurface()
	s.Add(scene.NewBackdrop(""))
	r := NewRenderer(&countingLoader{}, nil)

	data, err := r.Download(s, 2)
	if err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 1000 || b.Dy() != 1200 {
		t.Errorf("download size = %v", b)
	}
}
