package scene

import (
	"fmt"
	"strings"

	"github.com/matzehuels/mockup/pkg/fonts"
	"github.com/matzehuels/mockup/pkg/layer"
	"github.com/matzehuels/mockup/pkg/resource"
)

// NewObject builds the visual projection of rec, applying its transform
// exactly. Image records need their decoded resource.
func NewObject(rec layer.Record, res *resource.Resource) (*Object, error) {
	obj := &Object{}
	switch rec.Kind {
	case layer.KindText:
		if rec.Text == nil {
			return nil, fmt.Errorf("text layer %s has no text data", rec.ID)
		}
		t := *rec.Text
		w, h, err := fonts.Measure(t.Content, t.FontFamily, t.BaseFontSizePx)
		if err != nil {
			return nil, err
		}
		obj.Kind = KindText
		obj.Text = &t
		obj.NaturalW, obj.NaturalH = w, h
	case layer.KindImage:
		if rec.Image == nil || res == nil {
			return nil, fmt.Errorf("image layer %s has no image", rec.ID)
		}
		obj.Kind = KindImage
		obj.Image = res.Image
		obj.SourceURI = rec.Image.SourceURI
		obj.DPI = rec.Image.DPI
		obj.NaturalW, obj.NaturalH = float64(res.Width()), float64(res.Height())
	default:
		return nil, fmt.Errorf("layer %s has unknown kind %q", rec.ID, rec.Kind)
	}
	obj.setTransform(rec.Transform)
	return obj, nil
}

// RecordFrom returns rec updated with the live geometry and style of obj
// and the preset stored in tag.
func RecordFrom(rec layer.Record, obj *Object, tag Tag) layer.Record {
	out := rec.Clone()
	out.Transform = obj.Transform()
	out.PresetID = tag.PresetID
	if obj.Text != nil && out.Text != nil {
		*out.Text = *obj.Text
	}
	if out.Image != nil {
		out.Image.DPI = obj.DPI
	}
	return out
}

// TagFor returns the side-table entry of rec on side.
func TagFor(rec layer.Record, side layer.Side) Tag {
	return Tag{LayerID: rec.ID, Side: side, PresetID: rec.PresetID}
}

// NewGarment builds the base garment object, fitted and centered on the
// canvas.
func NewGarment(res *resource.Resource) *Object {
	w, h := float64(res.Width()), float64(res.Height())
	scale := 1.0
	if w > 0 && h > 0 {
		scale = min(Width/w, Height/h)
	}
	return &Object{
		Name:      GarmentName,
		Kind:      KindGarment,
		X:         Width / 2,
		Y:         Height / 2,
		ScaleX:    scale,
		ScaleY:    scale,
		NaturalW:  w,
		NaturalH:  h,
		Image:     res.Image,
		SourceURI: res.URI,
	}
}

// NewBackdrop builds the full-canvas backdrop.
func NewBackdrop(fill string) *Object {
	if fill == "" {
		fill = DefaultBackdropColor
	}
	return &Object{
		Name:     BackdropName,
		Kind:     KindBackdrop,
		X:        Width / 2,
		Y:        Height / 2,
		ScaleX:   1,
		ScaleY:   1,
		NaturalW: Width,
		NaturalH: Height,
		Fill:     fill,
	}
}

// SelectBaseImage picks the mockup for side from a color variant's images.
// A URL mentioning the side wins; otherwise index 0 is the front and index
// 1 (or 0 when there is only one) the back.
func SelectBaseImage(urls []string, side layer.Side) string {
	if len(urls) == 0 {
		return ""
	}
	hint := string(side)
	for _, u := range urls {
		if strings.Contains(strings.ToLower(u), hint) {
			return u
		}
	}
	if side == layer.Back && len(urls) > 1 {
		return urls[1]
	}
	return urls[0]
}
