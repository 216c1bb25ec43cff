// Package payload assembles and encodes the save and cart payloads of a
// design session.
//
// [Assemble] forces the active side's pending edits into the stacks before
// reading them, captures a scene dump and preview per side and checks the
// encoded size against [MaxBytes]. A payload over the ceiling fails with
// PAYLOAD_TOO_LARGE before any persistence call is made.
package payload

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/matzehuels/mockup/pkg/errors"
	"github.com/matzehuels/mockup/pkg/layer"
	"github.com/matzehuels/mockup/pkg/pricing"
)

// MaxBytes is the ceiling on an encoded payload.
const MaxBytes = 15 << 20

// SidePayload is the persisted state of one side.
type SidePayload struct {
	DesignData   json.RawMessage  `json:"designData"`
	DesignLayers []layer.Record   `json:"designLayers"`
	PreviewImage string           `json:"previewImage"`
	Metrics      *pricing.Metrics `json:"metrics,omitempty"`
}

// Design is a saved design.
type Design struct {
	ID            string          `json:"id,omitempty"`
	ProductID     string          `json:"productId"`
	ProductSlug   string          `json:"productSlug"`
	SelectedColor string          `json:"selectedColor"`
	SelectedSize  string          `json:"selectedSize,omitempty"`
	Front         SidePayload     `json:"front"`
	Back          SidePayload     `json:"back"`
	BasePrice     decimal.Decimal `json:"basePrice"`
	FrontCost     decimal.Decimal `json:"frontCost"`
	BackCost      decimal.Decimal `json:"backCost"`
	TotalPrice    decimal.Decimal `json:"totalPrice"`
	CreatedAt     time.Time       `json:"createdAt,omitzero"`
}

// Side returns the payload of side.
func (d *Design) Side(side layer.Side) *SidePayload {
	if side == layer.Back {
		return &d.Back
	}
	return &d.Front
}

// CartItem is a design added to a cart.
type CartItem struct {
	ID            string          `json:"id,omitempty"`
	CartID        string          `json:"cartId"`
	Design        Design          `json:"design"`
	ProductID     string          `json:"productId"`
	SelectedColor string          `json:"selectedColor"`
	SelectedSize  string          `json:"selectedSize"`
	BasePrice     decimal.Decimal `json:"basePrice"`
	TotalPrice    decimal.Decimal `json:"totalPrice"`
	Quantity      int             `json:"quantity"`
	AddedAt       time.Time       `json:"addedAt,omitzero"`
}

// NewCartItem wraps d for cartID. A size and a positive quantity are
// required.
func NewCartItem(cartID string, d *Design, quantity int) (*CartItem, error) {
	if d.SelectedSize == "" {
		return nil, errors.New(errors.ErrCodeValidation, "no size selected")
	}
	if quantity < 1 {
		return nil, errors.New(errors.ErrCodeValidation, "quantity must be at least 1")
	}
	return &CartItem{
		CartID:        cartID,
		Design:        *d,
		ProductID:     d.ProductID,
		SelectedColor: d.SelectedColor,
		SelectedSize:  d.SelectedSize,
		BasePrice:     d.BasePrice,
		TotalPrice:    d.TotalPrice,
		Quantity:      quantity,
	}, nil
}

// =============================================================================
// Encoding
// =============================================================================

// Encode marshals v and enforces limit. A zero limit means MaxBytes.
func Encode(v any, limit int) ([]byte, error) {
	if limit <= 0 {
		limit = MaxBytes
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode payload")
	}
	if err := CheckSize(len(data), limit); err != nil {
		return nil, err
	}
	return data, nil
}

// CheckSize fails with PAYLOAD_TOO_LARGE when n exceeds limit.
func CheckSize(n, limit int) error {
	if n > limit {
		return errors.New(errors.ErrCodePayloadSize, "payload is %s, limit is %s", formatMB(n), formatMB(limit))
	}
	return nil
}

func formatMB(n int) string {
	return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
}

// DecodeDesign parses an encoded design.
func DecodeDesign(data []byte) (*Design, error) {
	var d Design
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode design")
	}
	return &d, nil
}

// =============================================================================
// Assembly
// =============================================================================

// Capture is the rendered state of one side.
type Capture struct {
	Dump    json.RawMessage
	Preview string
}

// Source is an editing session that can be serialized.
type Source interface {
	// Flush synchronizes the active side's pending edits into its stack.
	Flush()

	// Session returns the session whose stacks are serialized.
	Session() *layer.Session

	// Quote returns the latest pricing of both sides.
	Quote() pricing.Quote

	// Capture renders side.
	Capture(ctx context.Context, side layer.Side) (Capture, error)
}

// Assemble builds the design payload of src and returns it with its
// encoding. limit caps the encoded size; zero means MaxBytes.
func Assemble(ctx context.Context, src Source, limit int) (*Design, []byte, error) {
	src.Flush()

	s := src.Session()
	if s == nil || s.Product == nil {
		return nil, nil, errors.New(errors.ErrCodeValidation, "no product selected")
	}
	if s.SelectedColor == "" {
		return nil, nil, errors.New(errors.ErrCodeValidation, "no color selected")
	}

	q := src.Quote()
	d := &Design{
		ProductID:     s.Product.ID,
		ProductSlug:   s.Product.Slug,
		SelectedColor: s.SelectedColor,
		SelectedSize:  s.SelectedSize,
		BasePrice:     q.BasePrice,
		FrontCost:     q.FrontCost,
		BackCost:      q.BackCost,
		TotalPrice:    q.Total,
	}
	metrics := map[layer.Side]pricing.Metrics{layer.Front: q.Front, layer.Back: q.Back}

	for _, side := range layer.Sides {
		c, err := src.Capture(ctx, side)
		if err != nil {
			return nil, nil, err
		}
		m := metrics[side]
		*d.Side(side) = SidePayload{
			DesignData:   c.Dump,
			DesignLayers: s.Stack(side).Records(),
			PreviewImage: c.Preview,
			Metrics:      &m,
		}
	}

	data, err := Encode(d, limit)
	if err != nil {
		return nil, nil, err
	}
	return d, data, nil
}
