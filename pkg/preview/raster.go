package preview

import (
	"image"
	"image/color"
	"math"

	"github.com/gogpu/gg"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/matzehuels/mockup/pkg/fonts"
	"github.com/matzehuels/mockup/pkg/scene"
)

// Rasterize draws s in z-order onto a new image. scale multiplies the
// surface size; zero means 1.
func Rasterize(s *scene.Surface, scale float64) (*image.RGBA, error) {
	if scale <= 0 {
		scale = 1
	}
	sw, sh := s.Size()
	canvas := image.NewRGBA(image.Rect(0, 0, int(math.Round(sw*scale)), int(math.Round(sh*scale))))
	xdraw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, xdraw.Src)

	for _, o := range s.Objects() {
		switch o.Kind {
		case scene.KindBackdrop:
			fill := gg.Hex(o.Fill).Color()
			xdraw.Draw(canvas, canvas.Bounds(), image.NewUniform(fill), image.Point{}, xdraw.Over)
		case scene.KindGarment, scene.KindImage:
			if o.Image != nil {
				composite(canvas, o.Image, o, scale)
			}
		case scene.KindText:
			tile, err := textTile(o, scale)
			if err != nil {
				return nil, err
			}
			if tile != nil {
				composite(canvas, tile, o, scale)
			}
		}
	}
	return canvas, nil
}

// composite draws src so that it covers o's scaled, rotated box.
func composite(dst *image.RGBA, src image.Image, o *scene.Object, scale float64) {
	b := src.Bounds()
	tw, th := float64(b.Dx()), float64(b.Dy())
	w, h := o.ScaledSize()
	if tw == 0 || th == 0 || w == 0 || h == 0 {
		return
	}
	sx, sy := w*scale/tw, h*scale/th
	rad := o.Angle * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)

	a00, a01 := cos*sx, -sin*sy
	a10, a11 := sin*sx, cos*sy
	// source center lands on the object center
	mx, my := float64(b.Min.X)+tw/2, float64(b.Min.Y)+th/2
	cx, cy := o.X*scale, o.Y*scale

	m := f64.Aff3{
		a00, a01, cx - (a00*mx + a01*my),
		a10, a11, cy - (a10*mx + a11*my),
	}
	xdraw.BiLinear.Transform(dst, m, src, b, xdraw.Over, nil)
}

// textTile renders o's text upright at its on-canvas size.
func textTile(o *scene.Object, scale float64) (image.Image, error) {
	t := o.Text
	if t == nil || t.Content == "" {
		return nil, nil
	}
	size := t.BaseFontSizePx * math.Abs(o.ScaleX) * scale
	if size < 1 {
		return nil, nil
	}
	face, err := fonts.Face(t.FontFamily, size)
	if err != nil {
		return nil, err
	}
	m := face.Metrics()
	lines := fonts.Lines(t.Content)

	var width float64
	for _, line := range lines {
		width = max(width, face.Advance(line))
	}
	height := float64(len(lines)) * m.LineHeight()
	if width < 1 || height < 1 {
		return nil, nil
	}

	dc := gg.NewContext(int(math.Ceil(width)), int(math.Ceil(height)))
	dc.SetFont(face)
	dc.SetHexColor(t.ColorHex)
	for i, line := range lines {
		dc.DrawString(line, 0, m.Ascent+float64(i)*m.LineHeight())
	}
	img := dc.Image()
	dc.Close()
	return img, nil
}
