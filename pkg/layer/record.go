package layer

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Side is one printable face of the garment.
type Side string

const (
	Front Side = "front"
	Back  Side = "back"
)

// Sides lists both sides in display order.
var Sides = []Side{Front, Back}

// Other returns the opposite side.
func (s Side) Other() Side {
	if s == Back {
		return Front
	}
	return Back
}

// Valid reports whether s is front or back.
func (s Side) Valid() bool { return s == Front || s == Back }

func (s Side) String() string { return string(s) }

// ParseSide parses "front" or "back", case-insensitively.
func ParseSide(v string) (Side, error) {
	switch Side(strings.ToLower(strings.TrimSpace(v))) {
	case Front:
		return Front, nil
	case Back:
		return Back, nil
	}
	return "", fmt.Errorf("invalid side %q (want front or back)", v)
}

// Kind is the element type of a record.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
)

// Transform places an element in canvas coordinates. X and Y are the
// element's center.
type Transform struct {
	X               float64 `json:"x"`
	Y               float64 `json:"y"`
	RotationDegrees float64 `json:"rotationDegrees"`
	UniformScale    float64 `json:"uniformScale"`
}

// TextData styles a text element.
type TextData struct {
	Content        string  `json:"content"`
	FontFamily     string  `json:"fontFamily"`
	ColorHex       string  `json:"colorHex"`
	BaseFontSizePx float64 `json:"baseFontSizePx"`
}

// ImageData describes a raster element.
type ImageData struct {
	SourceURI string  `json:"sourceURI"`
	DPI       float64 `json:"dpi,omitempty"`
}

// Record is one design element.
type Record struct {
	ID        string          `json:"id"`
	Kind      Kind            `json:"kind"`
	Transform Transform       `json:"transform"`
	Text      *TextData       `json:"text,omitempty"`
	Image     *ImageData      `json:"image,omitempty"`
	PresetID  string          `json:"sizePresetId,omitempty"`
	Cost      decimal.Decimal `json:"cost"`
}

// NewID returns a fresh record id.
func NewID() string { return uuid.NewString() }

// Clone returns a deep copy.
func (r Record) Clone() Record {
	if r.Text != nil {
		t := *r.Text
		r.Text = &t
	}
	if r.Image != nil {
		i := *r.Image
		r.Image = &i
	}
	return r
}

// Equal reports whether two records hold the same values.
func (r Record) Equal(o Record) bool {
	if r.ID != o.ID || r.Kind != o.Kind || r.Transform != o.Transform ||
		r.PresetID != o.PresetID || !r.Cost.Equal(o.Cost) {
		return false
	}
	if (r.Text == nil) != (o.Text == nil) || (r.Image == nil) != (o.Image == nil) {
		return false
	}
	if r.Text != nil && *r.Text != *o.Text {
		return false
	}
	if r.Image != nil && *r.Image != *o.Image {
		return false
	}
	return true
}

// Validate checks the structural invariants of a record.
func (r Record) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("record has no id")
	}
	switch r.Kind {
	case KindText:
		if r.Text == nil {
			return fmt.Errorf("text record %s has no text data", r.ID)
		}
	case KindImage:
		if r.Image == nil {
			return fmt.Errorf("image record %s has no image data", r.ID)
		}
	default:
		return fmt.Errorf("record %s has unknown kind %q", r.ID, r.Kind)
	}
	return nil
}
