package scene

import (
	"encoding/json"
)

// DumpVersion identifies the dump layout.
const DumpVersion = 1

// Dump is the serializable state of a surface. Image pixels are referenced
// by source URI, not embedded.
type Dump struct {
	Version int          `json:"version"`
	Width   float64      `json:"width"`
	Height  float64      `json:"height"`
	Objects []DumpObject `json:"objects"`
}

// DumpObject is one object in a Dump.
type DumpObject struct {
	Type       ObjectKind `json:"type"`
	Name       string     `json:"name,omitempty"`
	Left       float64    `json:"left"`
	Top        float64    `json:"top"`
	Width      float64    `json:"width"`
	Height     float64    `json:"height"`
	Angle      float64    `json:"angle"`
	ScaleX     float64    `json:"scaleX"`
	ScaleY     float64    `json:"scaleY"`
	Text       string     `json:"text,omitempty"`
	FontFamily string     `json:"fontFamily,omitempty"`
	FontSize   float64    `json:"fontSize,omitempty"`
	Fill       string     `json:"fill,omitempty"`
	Src        string     `json:"src,omitempty"`
	LayerID    string     `json:"layerId,omitempty"`
	Side       string     `json:"side,omitempty"`
	PresetID   string     `json:"sizePresetId,omitempty"`
}

// Dump captures the surface state.
func (s *Surface) Dump() Dump {
	d := Dump{Version: DumpVersion, Width: s.width, Height: s.height, Objects: []DumpObject{}}
	for _, h := range s.objects {
		o := s.byHandle[h]
		w, ht := o.ScaledSize()
		do := DumpObject{
			Type:   o.Kind,
			Name:   o.Name,
			Left:   o.X - w/2,
			Top:    o.Y - ht/2,
			Width:  o.NaturalW,
			Height: o.NaturalH,
			Angle:  o.Angle,
			ScaleX: o.ScaleX,
			ScaleY: o.ScaleY,
			Fill:   o.Fill,
			Src:    o.SourceURI,
		}
		if o.Text != nil {
			do.Text = o.Text.Content
			do.FontFamily = o.Text.FontFamily
			do.FontSize = o.Text.BaseFontSizePx
			do.Fill = o.Text.ColorHex
		}
		if t, ok := s.tags[h]; ok {
			do.LayerID, do.Side, do.PresetID = t.LayerID, string(t.Side), t.PresetID
		}
		d.Objects = append(d.Objects, do)
	}
	return d
}

// MarshalDump encodes the surface state as JSON.
func (s *Surface) MarshalDump() (json.RawMessage, error) {
	return json.Marshal(s.Dump())
}
