package cart

import (
	"github.com/medatechnology/goutil/medaerror"
	"github.com/shopspring/decimal"

	"github.com/kustore/storefront/catalog"
)

var (
	// ErrOutOfStock is returned when an increment would exceed the stock
	// remaining for the (product, size) pair after what the cart already holds.
	ErrOutOfStock medaerror.MedaError = medaerror.MedaError{Message: "no stock left for this size"}
	// ErrNotInCart is returned when an operation names a line the cart does not hold.
	ErrNotInCart medaerror.MedaError = medaerror.MedaError{Message: "item is not in the cart"}
)

// Item is one cart line: a product in a chosen size with a quantity.
type Item struct {
	Product  catalog.Product `json:"product"`
	Size     string          `json:"size"`
	Quantity int             `json:"quantity"`
}

// LineTotal returns real price times quantity for this line.
func (it Item) LineTotal() decimal.Decimal {
	return it.Product.RealPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// Cart is the client-local, ephemeral cart. It is rebuilt each session and
// cleared on successful order submission. Not safe for concurrent use; each
// session owns exactly one cart.
type Cart struct {
	items []Item
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{}
}

// Items returns the cart lines in insertion order.
func (c *Cart) Items() []Item {
	return c.items
}

// Add puts one unit of (product, size) into the cart: an existing line is
// incremented, otherwise a new line with quantity 1 is appended. The add is
// refused, not capped, when the size has no stock left beyond what the cart
// already reserves.
func (c *Cart) Add(p catalog.Product, size string) error {
	if c.available(p, size) <= 0 {
		return ErrOutOfStock
	}
	for i := range c.items {
		if c.items[i].Product.ID == p.ID && c.items[i].Size == size {
			c.items[i].Quantity++
			return nil
		}
	}
	c.items = append(c.items, Item{Product: p, Size: size, Quantity: 1})
	return nil
}

// Remove drops the whole line for (product id, size).
func (c *Cart) Remove(productID, size string) error {
	for i := range c.items {
		if c.items[i].Product.ID == productID && c.items[i].Size == size {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return nil
		}
	}
	return ErrNotInCart
}

// SetQuantity sets the line quantity directly. Zero or negative removes the
// line; an increase beyond the size's stock is refused.
func (c *Cart) SetQuantity(productID, size string, qty int) error {
	for i := range c.items {
		if c.items[i].Product.ID != productID || c.items[i].Size != size {
			continue
		}
		if qty <= 0 {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return nil
		}
		if qty > c.items[i].Product.StockFor(size) {
			return ErrOutOfStock
		}
		c.items[i].Quantity = qty
		return nil
	}
	return ErrNotInCart
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.items = nil
}

// Total is the sum over lines of real price times quantity.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.items {
		total = total.Add(it.LineTotal())
	}
	return total
}

// ItemCount is the sum of line quantities, not the number of lines.
func (c *Cart) ItemCount() int {
	count := 0
	for _, it := range c.items {
		count += it.Quantity
	}
	return count
}

// QuantityOf returns how many units of (product id, size) the cart holds.
func (c *Cart) QuantityOf(productID, size string) int {
	for _, it := range c.items {
		if it.Product.ID == productID && it.Size == size {
			return it.Quantity
		}
	}
	return 0
}

// available is stock for the size minus what this cart already reserves.
func (c *Cart) available(p catalog.Product, size string) int {
	return p.StockFor(size) - c.QuantityOf(p.ID, size)
}
