package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/matzehuels/mockup/pkg/catalog"
	"github.com/matzehuels/mockup/pkg/errors"
)

// DefaultDPI is the effective resolution of elements without one.
const DefaultDPI = 300.0

// DefaultPricePerPixel is the fallback rate for elements without a preset.
var DefaultPricePerPixel = decimal.RequireFromString("0.02")

// Options configures an Engine.
type Options struct {
	// PricePerPixel is the area rate for elements without a preset.
	PricePerPixel decimal.Decimal

	// DefaultDPI converts pixels to inches when an element has no DPI.
	DefaultDPI float64

	// Catalog resolves preset ids. Nil means the built-in table.
	Catalog *catalog.Catalog
}

// SetDefaults fills zero fields.
func (o *Options) SetDefaults() {
	if o.PricePerPixel.IsZero() {
		o.PricePerPixel = DefaultPricePerPixel
	}
	if o.DefaultDPI <= 0 {
		o.DefaultDPI = DefaultDPI
	}
	if o.Catalog == nil {
		o.Catalog = catalog.Default()
	}
}

// Validate checks the options after defaults are applied.
func (o *Options) Validate() error {
	if o.PricePerPixel.IsNegative() {
		return errors.New(errors.ErrCodeInvalidInput, "price per pixel cannot be negative")
	}
	if o.DefaultDPI <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "default dpi must be positive")
	}
	return nil
}

// ForProduct returns a copy of o with the product's customization pricing
// applied: preset price overrides and a per-pixel rate.
func (o Options) ForProduct(p *catalog.Product) Options {
	if p == nil || p.CustomizationPricing == nil {
		return o
	}
	cp := p.CustomizationPricing
	if o.Catalog == nil {
		o.Catalog = catalog.Default()
	}
	o.Catalog = o.Catalog.WithPrices(cp.PresetPrices)
	if cp.PricePerPixel != nil {
		o.PricePerPixel = *cp.PricePerPixel
	}
	return o
}
