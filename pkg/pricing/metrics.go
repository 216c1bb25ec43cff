package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/matzehuels/mockup/pkg/layer"
)

// Rule names the cost rule applied to one element.
type Rule string

const (
	RulePreset Rule = "preset"
	RuleArea   Rule = "area"
)

// LayerMetric is the geometry and cost of one element.
type LayerMetric struct {
	LayerID  string          `json:"layerId"`
	Side     layer.Side      `json:"side"`
	PresetID string          `json:"sizePresetId,omitempty"`
	WidthPx  float64         `json:"widthPx"`
	HeightPx float64         `json:"heightPx"`
	AreaPx   float64         `json:"areaPx"`
	DPI      float64         `json:"dpi"`
	WidthIn  float64         `json:"widthIn"`
	HeightIn float64         `json:"heightIn"`
	AreaIn   float64         `json:"areaIn"`
	Cost     decimal.Decimal `json:"cost"`
	Rule     Rule            `json:"rule"`
}

// Metrics is the aggregate of one side. Inch values are display-only and
// always use the default resolution.
type Metrics struct {
	Side        layer.Side      `json:"side"`
	Cost        decimal.Decimal `json:"cost"`
	TotalAreaPx float64         `json:"totalAreaPx"`
	MaxWidthPx  float64         `json:"maxWidthPx"`
	MaxHeightPx float64         `json:"maxHeightPx"`
	WidthIn     float64         `json:"widthIn"`
	HeightIn    float64         `json:"heightIn"`
	AreaIn      float64         `json:"areaIn"`
	Layers      []LayerMetric   `json:"layers"`
}

// Layer returns the metric of one layer.
func (m Metrics) Layer(id string) (LayerMetric, bool) {
	for _, l := range m.Layers {
		if l.LayerID == id {
			return l, true
		}
	}
	return LayerMetric{}, false
}

// Quote is a full price breakdown.
type Quote struct {
	BasePrice decimal.Decimal `json:"basePrice"`
	FrontCost decimal.Decimal `json:"frontCost"`
	BackCost  decimal.Decimal `json:"backCost"`
	Total     decimal.Decimal `json:"totalPrice"`
	Front     Metrics         `json:"frontMetrics"`
	Back      Metrics         `json:"backMetrics"`
}

// Total returns base plus both side costs.
func Total(base, front, back decimal.Decimal) decimal.Decimal {
	return base.Add(front).Add(back)
}

// NewQuote assembles a quote from the metrics of both sides.
func NewQuote(base decimal.Decimal, front, back Metrics) Quote {
	return Quote{
		BasePrice: base,
		FrontCost: front.Cost,
		BackCost:  back.Cost,
		Total:     Total(base, front.Cost, back.Cost),
		Front:     front,
		Back:      back,
	}
}

// Ledger retains the latest published metrics of each side. Only the
// active side can be computed from the live scene; the other keeps the
// result published before the last side switch.
type Ledger struct {
	sides map[layer.Side]Metrics
}

// NewLedger returns a ledger with zero cost on both sides.
func NewLedger() *Ledger {
	l := &Ledger{}
	l.Reset()
	return l
}

// Publish replaces the metrics of m.Side.
func (l *Ledger) Publish(m Metrics) {
	l.sides[m.Side] = m
}

// Side returns the latest metrics of side.
func (l *Ledger) Side(side layer.Side) Metrics {
	return l.sides[side]
}

// Quote prices both sides on top of base.
func (l *Ledger) Quote(base decimal.Decimal) Quote {
	return NewQuote(base, l.sides[layer.Front], l.sides[layer.Back])
}

// Reset zeroes both sides.
func (l *Ledger) Reset() {
	l.sides = make(map[layer.Side]Metrics, len(layer.Sides))
	for _, side := range layer.Sides {
		l.sides[side] = Metrics{Side: side, Cost: decimal.Zero}
	}
}
