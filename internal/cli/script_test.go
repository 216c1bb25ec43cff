package cli

import (
	"bytes"
	"context"
	"image"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"

	"github.com/matzehuels/mockup/pkg/catalog"
	"github.com/matzehuels/mockup/pkg/design"
	"github.com/matzehuels/mockup/pkg/errors"
	"github.com/matzehuels/mockup/pkg/layer"
	"github.com/matzehuels/mockup/pkg/resource"
	"github.com/matzehuels/mockup/pkg/sched"
)

type squareLoader struct{}

func (squareLoader) Load(_ context.Context, uri string) (*resource.Resource, error) {
	if strings.Contains(uri, "missing") {
		return nil, errors.New(errors.ErrCodeResourceLoad, "fetch %s: 404", uri)
	}
	return &resource.Resource{
		URI:       uri,
		Image:     image.NewRGBA(image.Rect(0, 0, 400, 400)),
		Format:    "png",
		DPI:       resource.DefaultDPI,
		DPIStatus: resource.DPIMissing,
	}, nil
}

func scriptProduct() *catalog.Product {
	return &catalog.Product{
		ID: "tee", Slug: "classic-tee", Name: "Classic Tee",
		Price: decimal.NewFromInt(499),
		Sizes: []string{"M"},
		Variants: []catalog.Variant{{
			Color:  "white",
			Images: []catalog.Image{{URL: "front.png"}, {URL: "back.png"}},
		}},
	}
}

func newScriptEditor(t *testing.T, notices *[]error) *design.Editor {
	t.Helper()
	e, err := design.New(sched.NewLoop(), squareLoader{}, design.Options{}, log.New(&bytes.Buffer{}),
		design.WithNotifier(func(err error) { *notices = append(*notices, err) }))
	if err != nil {
		t.Fatalf("design.New: %v", err)
	}
	t.Cleanup(e.Close)
	ctx := context.Background()
	if err := e.Open(ctx, scriptProduct(), "white", "M"); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := e.Loop().Settle(ctx); err != nil {
		t.Fatal(err)
	}
	return e
}

const sampleScript = `
product = "classic-tee"
color = "white"
size = "M"

[[step]]
do = "text"
content = "Hello"
as = "title"
preset = "pocket"

[[step]]
do = "move"
target = "title"
x = 250
y = 150

[[step]]
do = "side"
side = "back"

[[step]]
do = "image"
src = "art/logo.png"
as = "logo"
preset = "large"

[[step]]
do = "image"
src = "missing.png"
preset = "small"

[[step]]
do = "rotate"
target = "logo"
degrees = 90
`

func TestLoadScript(t *testing.T) {
	dir := t.TempDir()
	s, err := loadScript(writeFile(t, dir, "tee.toml", sampleScript))
	if err != nil {
		t.Fatalf("loadScript: %v", err)
	}
	if len(s.Steps) != 6 || s.Steps[0].As != "title" {
		t.Fatalf("steps = %+v", s.Steps)
	}

	tests := []struct{ src, want string }{
		{"art/logo.png", dir + "/art/logo.png"},
		{"/abs/logo.png", "/abs/logo.png"},
		{"https://cdn.example.com/a.png", "https://cdn.example.com/a.png"},
		{"data:image/png;base64,AA", "data:image/png;base64,AA"},
	}
	for _, tt := range tests {
		if got := s.resolve(tt.src); got != tt.want {
			t.Errorf("resolve(%q) = %q, want %q", tt.src, got, tt.want)
		}
	}

	if _, err := loadScript(writeFile(t, dir, "bad.toml", `color = "white"`)); err == nil {
		t.Error("script without product should fail")
	}
}

func TestScriptRunner(t *testing.T) {
	var notices []error
	e := newScriptEditor(t, &notices)

	s, err := loadScript(writeFile(t, t.TempDir(), "tee.toml", sampleScript))
	if err != nil {
		t.Fatal(err)
	}
	r := newScriptRunner(s, e)
	if err := r.run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	q := e.Quote()
	if !q.FrontCost.Equal(decimal.NewFromInt(50)) || !q.BackCost.Equal(decimal.NewFromInt(200)) {
		t.Errorf("costs = %s / %s, want 50 / 200", q.FrontCost, q.BackCost)
	}
	if !q.Total.Equal(decimal.NewFromInt(749)) {
		t.Errorf("total = %s, want 749", q.Total)
	}
	if len(notices) != 1 || !errors.Is(notices[0], errors.ErrCodeResourceLoad) {
		t.Errorf("notices = %v, want one load failure", notices)
	}

	session := e.Session()
	title, ok := session.Stack(layer.Front).Get(r.aliases["title"])
	if !ok || title.Transform.X != 250 || title.Transform.Y != 150 {
		t.Errorf("title = %+v", title)
	}
	logo, ok := session.Stack(layer.Back).Get(r.aliases["logo"])
	if !ok || logo.Transform.RotationDegrees != 90 || logo.PresetID != catalog.PresetLarge {
		t.Errorf("logo = %+v", logo)
	}
	if session.Stack(layer.Back).Len() != 1 {
		t.Errorf("back layers = %d, want 1", session.Stack(layer.Back).Len())
	}
}

func TestScriptRunnerErrors(t *testing.T) {
	tests := []struct {
		name string
		step Step
	}{
		{"unknown action", Step{Do: "explode", Target: "x"}},
		{"unknown target", Step{Do: "move", Target: "nope"}},
		{"nothing selected", Step{Do: "delete"}},
		{"bad side", Step{Do: "side", Side: "left"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var notices []error
			e := newScriptEditor(t, &notices)
			r := newScriptRunner(&Script{Steps: []Step{tt.step}}, e)
			err := r.run(context.Background())
			if err == nil || !strings.Contains(err.Error(), "step 1") {
				t.Errorf("run() error = %v, want step 1 failure", err)
			}
		})
	}
}
