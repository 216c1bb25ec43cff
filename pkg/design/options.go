package design

import (
	"time"

	"github.com/matzehuels/mockup/pkg/catalog"
	"github.com/matzehuels/mockup/pkg/errors"
	"github.com/matzehuels/mockup/pkg/fonts"
	"github.com/matzehuels/mockup/pkg/payload"
	"github.com/matzehuels/mockup/pkg/pricing"
	"github.com/matzehuels/mockup/pkg/reconcile"
)

// Text defaults for new text elements.
const (
	DefaultFontSize  = 36.0
	DefaultTextColor = "#000000"
)

// Options configures an Editor.
type Options struct {
	// Pricing configures the metrics engine. Its Catalog is the preset
	// table used by the preset picker.
	Pricing pricing.Options

	// Debounce is the quiescence window before edits are synced and
	// priced. Zero means reconcile.DefaultDebounce.
	Debounce time.Duration

	// DefaultPreset is applied to new elements. Empty means medium.
	DefaultPreset string

	// Backdrop paints a solid fill behind the garment.
	Backdrop     bool
	BackdropFill string

	// PayloadLimit caps encoded designs. Zero means payload.MaxBytes.
	PayloadLimit int

	// CartID names the cart AddToCart appends to.
	CartID string

	FontFamily string
	FontSize   float64
	TextColor  string
}

// SetDefaults fills zero values.
func (o *Options) SetDefaults() {
	o.Pricing.SetDefaults()
	if o.Debounce <= 0 {
		o.Debounce = reconcile.DefaultDebounce
	}
	if o.DefaultPreset == "" {
		o.DefaultPreset = catalog.PresetMedium
	}
	if o.PayloadLimit <= 0 {
		o.PayloadLimit = payload.MaxBytes
	}
	if o.CartID == "" {
		o.CartID = "default"
	}
	if o.FontFamily == "" {
		o.FontFamily = fonts.DefaultFamily
	}
	if o.FontSize <= 0 {
		o.FontSize = DefaultFontSize
	}
	if o.TextColor == "" {
		o.TextColor = DefaultTextColor
	}
}

// Validate checks the options after SetDefaults.
func (o *Options) Validate() error {
	if err := o.Pricing.Validate(); err != nil {
		return err
	}
	if _, ok := o.Pricing.Catalog.Lookup(o.DefaultPreset); !ok {
		return errors.New(errors.ErrCodeValidation, "unknown default preset %q", o.DefaultPreset)
	}
	if err := errors.ValidateColorHex(o.TextColor); err != nil {
		return err
	}
	if o.BackdropFill != "" {
		if err := errors.ValidateColorHex(o.BackdropFill); err != nil {
			return err
		}
	}
	return nil
}
