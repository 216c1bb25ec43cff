package layer

import (
	"github.com/shopspring/decimal"

	"github.com/matzehuels/mockup/pkg/catalog"
	"github.com/matzehuels/mockup/pkg/errors"
)

// Session is one editing session: a product, a color and two stacks.
// The session owns both stacks exclusively; they are never merged.
type Session struct {
	Product       *catalog.Product
	SelectedColor string
	SelectedSize  string
	ActiveSide    Side

	stacks map[Side]*Stack
}

// NewSession starts an empty session on the front side. A product and a
// color available on it are required.
func NewSession(product *catalog.Product, color, size string) (*Session, error) {
	if product == nil {
		return nil, errors.New(errors.ErrCodeValidation, "no product selected")
	}
	if color == "" {
		return nil, errors.New(errors.ErrCodeValidation, "no color selected")
	}
	if _, ok := product.Variant(color); !ok {
		return nil, errors.New(errors.ErrCodeValidation, "color %q not offered for %s", color, product.Slug)
	}
	if size != "" && len(product.Sizes) > 0 && !product.HasSize(size) {
		return nil, errors.New(errors.ErrCodeValidation, "size %q not offered for %s", size, product.Slug)
	}
	return &Session{
		Product:       product,
		SelectedColor: color,
		SelectedSize:  size,
		ActiveSide:    Front,
		stacks:        map[Side]*Stack{Front: NewStack(), Back: NewStack()},
	}, nil
}

// Stack returns the stack of side.
func (s *Session) Stack(side Side) *Stack {
	return s.stacks[side]
}

// ActiveStack returns the stack of the active side.
func (s *Session) ActiveStack() *Stack {
	return s.stacks[s.ActiveSide]
}

// Reset clears both stacks.
func (s *Session) Reset() {
	for _, st := range s.stacks {
		st.Clear()
	}
}

// BasePrice is the product price before customization.
func (s *Session) BasePrice() decimal.Decimal {
	if s.Product == nil {
		return decimal.Zero
	}
	return s.Product.Price
}

// ImageURLs returns the mockup images of the selected color.
func (s *Session) ImageURLs() []string {
	if s.Product == nil {
		return nil
	}
	return s.Product.ImageURLs(s.SelectedColor)
}

// Find returns the side holding the record id.
func (s *Session) Find(id string) (Side, bool) {
	for _, side := range Sides {
		if s.stacks[side].IndexOf(id) >= 0 {
			return side, true
		}
	}
	return "", false
}
