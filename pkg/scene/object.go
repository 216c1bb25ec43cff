package scene

import (
	"image"
	"math"

	"github.com/matzehuels/mockup/pkg/layer"
)

// Canvas size in logical units.
const (
	Width  = 500
	Height = 600
)

// Reserved names of base objects.
const (
	GarmentName  = "__garment__"
	BackdropName = "__backdrop__"
)

// DefaultBackdropColor fills the canvas behind the garment.
const DefaultBackdropColor = "#f2f2f2"

// Handle identifies an object on one surface.
type Handle uint64

// ObjectKind is the visual type of an object.
type ObjectKind string

const (
	KindText     ObjectKind = "text"
	KindImage    ObjectKind = "image"
	KindGarment  ObjectKind = "garment"
	KindBackdrop ObjectKind = "backdrop"
)

// Object is one visual element. X and Y are its center; NaturalW and
// NaturalH its unscaled size.
type Object struct {
	Name string
	Kind ObjectKind

	X, Y           float64
	Angle          float64
	ScaleX, ScaleY float64

	NaturalW, NaturalH float64

	// Text elements.
	Text *layer.TextData

	// Image elements and the garment.
	Image     image.Image
	SourceURI string
	DPI       float64

	// Backdrop fill.
	Fill string
}

// IsBase reports whether o is a scene-only base object.
func (o *Object) IsBase() bool {
	return o.Name == GarmentName || o.Name == BackdropName
}

// ScaledSize returns the on-canvas size before rotation.
func (o *Object) ScaledSize() (w, h float64) {
	return o.NaturalW * math.Abs(o.ScaleX), o.NaturalH * math.Abs(o.ScaleY)
}

// Bounds returns the axis-aligned bounding box of the rotated object.
func (o *Object) Bounds() (minX, minY, maxX, maxY float64) {
	w, h := o.ScaledSize()
	rad := o.Angle * math.Pi / 180
	c, s := math.Abs(math.Cos(rad)), math.Abs(math.Sin(rad))
	bw, bh := w*c+h*s, w*s+h*c
	return o.X - bw/2, o.Y - bh/2, o.X + bw/2, o.Y + bh/2
}

// Transform returns the object's placement as a layer transform.
func (o *Object) Transform() layer.Transform {
	return layer.Transform{X: o.X, Y: o.Y, RotationDegrees: o.Angle, UniformScale: o.ScaleX}
}

func (o *Object) setTransform(t layer.Transform) {
	o.X, o.Y, o.Angle = t.X, t.Y, t.RotationDegrees
	o.ScaleX, o.ScaleY = t.UniformScale, t.UniformScale
}

// Tag links an element object to its layer record.
type Tag struct {
	LayerID  string
	Side     layer.Side
	PresetID string
}

// normalizeAngle maps degrees into [0, 360).
func normalizeAngle(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}
