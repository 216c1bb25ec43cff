package catalog

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/shopspring/decimal"

	"github.com/matzehuels/mockup/pkg/errors"
)

// Image is one mockup photo of a color variant.
type Image struct {
	URL string `json:"url" toml:"url"`
}

// Variant is one garment color with its mockup images.
type Variant struct {
	Color  string  `json:"color" toml:"color"`
	Hex    string  `json:"hex,omitempty" toml:"hex"`
	Images []Image `json:"images" toml:"images"`
}

// CustomizationPricing overrides the global pricing for one product.
type CustomizationPricing struct {
	PresetPrices  map[string]decimal.Decimal `json:"presetPrices,omitempty"`
	PricePerPixel *decimal.Decimal           `json:"pricePerPixel,omitempty"`
}

// Product is a garment that can be customized.
type Product struct {
	ID                   string                `json:"id"`
	Slug                 string                `json:"slug"`
	Name                 string                `json:"name"`
	Price                decimal.Decimal       `json:"price"`
	Sizes                []string              `json:"sizes"`
	Variants             []Variant             `json:"variants"`
	CustomizationPricing *CustomizationPricing `json:"customizationPricing,omitempty"`
}

// Variant returns the variant for color, matched case-insensitively.
func (p *Product) Variant(color string) (*Variant, bool) {
	for i := range p.Variants {
		if strings.EqualFold(p.Variants[i].Color, color) {
			return &p.Variants[i], true
		}
	}
	return nil, false
}

// ImageURLs returns the image URLs of the given color variant.
func (p *Product) ImageURLs(color string) []string {
	v, ok := p.Variant(color)
	if !ok {
		return nil
	}
	urls := make([]string, len(v.Images))
	for i, img := range v.Images {
		urls[i] = img.URL
	}
	return urls
}

// HasSize reports whether size is offered.
func (p *Product) HasSize(size string) bool {
	for _, s := range p.Sizes {
		if strings.EqualFold(s, size) {
			return true
		}
	}
	return false
}

// Source provides products.
type Source interface {
	Products(ctx context.Context) ([]Product, error)
	ProductBySlug(ctx context.Context, slug string) (*Product, error)
}

// =============================================================================
// FileSource
// =============================================================================

// FileSource reads products from a TOML file:
//
//	[[product]]
//	id = "tee-classic"
//	slug = "classic-tee"
//	name = "Classic Tee"
//	price = 499
//	sizes = ["S", "M", "L"]
//
//	  [[product.variant]]
//	  color = "white"
//	  images = [{ url = "https://cdn.example.com/tee-white-front.png" }]
//
// The file is read once, on first use.
type FileSource struct {
	path string

	once     sync.Once
	products []Product
	err      error
}

// NewFileSource creates a source backed by path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

type productFile struct {
	Products []productEntry `toml:"product"`
}

type productEntry struct {
	ID           string             `toml:"id"`
	Slug         string             `toml:"slug"`
	Name         string             `toml:"name"`
	Price        float64            `toml:"price"`
	Sizes        []string           `toml:"sizes"`
	Variants     []Variant          `toml:"variant"`
	PresetPrices map[string]float64 `toml:"preset_prices"`
	PricePerPx   *float64           `toml:"price_per_pixel"`
}

func (s *FileSource) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		s.err = errors.Wrap(errors.ErrCodeResourceLoad, err, "read product catalog")
		return
	}
	s.products, s.err = ParseProducts(data)
}

// ParseProducts decodes a TOML product catalog.
func ParseProducts(data []byte) ([]Product, error) {
	var f productFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(errors.ErrCodeValidation, err, "parse product catalog")
	}

	products := make([]Product, 0, len(f.Products))
	seen := make(map[string]bool)
	for _, e := range f.Products {
		if e.Slug == "" {
			return nil, errors.New(errors.ErrCodeValidation, "product %q has no slug", e.Name)
		}
		if seen[e.Slug] {
			return nil, errors.New(errors.ErrCodeValidation, "duplicate product slug %q", e.Slug)
		}
		seen[e.Slug] = true

		p := Product{
			ID:       e.ID,
			Slug:     e.Slug,
			Name:     e.Name,
			Price:    decimal.NewFromFloat(e.Price).Round(2),
			Sizes:    e.Sizes,
			Variants: e.Variants,
		}
		if p.ID == "" {
			p.ID = e.Slug
		}
		if len(e.PresetPrices) > 0 || e.PricePerPx != nil {
			cp := &CustomizationPricing{}
			if len(e.PresetPrices) > 0 {
				cp.PresetPrices = make(map[string]decimal.Decimal, len(e.PresetPrices))
				for id, v := range e.PresetPrices {
					cp.PresetPrices[id] = decimal.NewFromFloat(v).Round(2)
				}
			}
			if e.PricePerPx != nil {
				ppp := decimal.NewFromFloat(*e.PricePerPx)
				cp.PricePerPixel = &ppp
			}
			p.CustomizationPricing = cp
		}
		products = append(products, p)
	}
	return products, nil
}

// Products returns all products in file order.
func (s *FileSource) Products(ctx context.Context) ([]Product, error) {
	s.once.Do(s.load)
	if s.err != nil {
		return nil, s.err
	}
	out := make([]Product, len(s.products))
	copy(out, s.products)
	return out, nil
}

// ProductBySlug returns the product with the given slug.
func (s *FileSource) ProductBySlug(ctx context.Context, slug string) (*Product, error) {
	products, err := s.Products(ctx)
	if err != nil {
		return nil, err
	}
	for i := range products {
		if products[i].Slug == slug {
			return &products[i], nil
		}
	}
	return nil, errors.New(errors.ErrCodeNotFound, "product %q", slug)
}

// String implements fmt.Stringer.
func (s *FileSource) String() string { return fmt.Sprintf("file:%s", s.path) }

var _ Source = (*FileSource)(nil)
