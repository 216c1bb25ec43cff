package catalog

import (
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/shopspring/decimal"

	"github.com/matzehuels/mockup/pkg/errors"
)

// Preset ids. The set is closed.
const (
	PresetPocket = "pocket"
	PresetSmall  = "small"
	PresetMedium = "medium"
	PresetLarge  = "large"
)

// Preset is a named, fixed-price size bucket.
type Preset struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	MaxWidthPx  float64         `json:"maxWidthPx"`
	MaxHeightPx float64         `json:"maxHeightPx"`
	FixedPrice  decimal.Decimal `json:"fixedPrice"`
}

// Catalog is an immutable, ordered preset table.
type Catalog struct {
	presets []Preset
	index   map[string]int
}

func defaultPresets() []Preset {
	return []Preset{
		{ID: PresetPocket, Name: "Pocket", MaxWidthPx: 90, MaxHeightPx: 90, FixedPrice: decimal.NewFromInt(50)},
		{ID: PresetSmall, Name: "Small", MaxWidthPx: 150, MaxHeightPx: 150, FixedPrice: decimal.NewFromInt(100)},
		{ID: PresetMedium, Name: "Medium", MaxWidthPx: 220, MaxHeightPx: 260, FixedPrice: decimal.NewFromInt(150)},
		{ID: PresetLarge, Name: "Large", MaxWidthPx: 300, MaxHeightPx: 380, FixedPrice: decimal.NewFromInt(200)},
	}
}

// Default returns the built-in preset table.
func Default() *Catalog {
	return newCatalog(defaultPresets())
}

func newCatalog(presets []Preset) *Catalog {
	c := &Catalog{presets: presets, index: make(map[string]int, len(presets))}
	for i, p := range presets {
		c.index[p.ID] = i
	}
	return c
}

// Lookup returns the preset with the given id.
func (c *Catalog) Lookup(id string) (Preset, bool) {
	i, ok := c.index[id]
	if !ok {
		return Preset{}, false
	}
	return c.presets[i], true
}

// Presets returns the presets in declaration order.
func (c *Catalog) Presets() []Preset {
	out := make([]Preset, len(c.presets))
	copy(out, c.presets)
	return out
}

// IDs returns the preset ids in declaration order.
func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.presets))
	for i, p := range c.presets {
		ids[i] = p.ID
	}
	return ids
}

// WithPrices returns a copy of the catalog whose fixed prices are replaced
// by the given overrides. Unknown ids are ignored.
func (c *Catalog) WithPrices(prices map[string]decimal.Decimal) *Catalog {
	if len(prices) == 0 {
		return c
	}
	presets := c.Presets()
	for i := range presets {
		if p, ok := prices[presets[i].ID]; ok {
			presets[i].FixedPrice = p
		}
	}
	return newCatalog(presets)
}

// =============================================================================
// TOML overrides
// =============================================================================

type presetFile struct {
	Presets []presetEntry `toml:"preset"`
}

type presetEntry struct {
	ID        string   `toml:"id"`
	Name      string   `toml:"name"`
	MaxWidth  *float64 `toml:"max_width"`
	MaxHeight *float64 `toml:"max_height"`
	Price     *float64 `toml:"price"`
}

// Load reads preset overrides from r and applies them to the defaults.
func Load(r io.Reader) (*Catalog, error) {
	var f presetFile
	if _, err := toml.NewDecoder(r).Decode(&f); err != nil {
		return nil, errors.Wrap(errors.ErrCodeValidation, err, "parse presets")
	}
	return applyOverrides(f.Presets)
}

// LoadFile reads preset overrides from a TOML file.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open presets: %w", err)
	}
	defer f.Close()
	return Load(f)
}

func applyOverrides(entries []presetEntry) (*Catalog, error) {
	presets := defaultPresets()
	idx := make(map[string]int, len(presets))
	for i, p := range presets {
		idx[p.ID] = i
	}

	for _, e := range entries {
		i, ok := idx[e.ID]
		if !ok {
			return nil, errors.New(errors.ErrCodeValidation, "unknown size preset %q", e.ID)
		}
		p := &presets[i]
		if e.Name != "" {
			p.Name = e.Name
		}
		if e.MaxWidth != nil {
			if *e.MaxWidth <= 0 {
				return nil, errors.New(errors.ErrCodeValidation, "preset %q: max_width must be positive", e.ID)
			}
			p.MaxWidthPx = *e.MaxWidth
		}
		if e.MaxHeight != nil {
			if *e.MaxHeight <= 0 {
				return nil, errors.New(errors.ErrCodeValidation, "preset %q: max_height must be positive", e.ID)
			}
			p.MaxHeightPx = *e.MaxHeight
		}
		if e.Price != nil {
			if *e.Price < 0 {
				return nil, errors.New(errors.ErrCodeValidation, "preset %q: price cannot be negative", e.ID)
			}
			p.FixedPrice = decimal.NewFromFloat(*e.Price).Round(2)
		}
	}
	return newCatalog(presets), nil
}
