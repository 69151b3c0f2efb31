package domain

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// LineItem is one product in the cart. It serializes as the product
// attributes with "id" and "amount" overlaid.
type LineItem struct {
	Product
	Amount int
}

// Subtotal returns price × amount.
func (li LineItem) Subtotal() decimal.Decimal {
	return li.Price().Mul(decimal.NewFromInt(int64(li.Amount)))
}

// MarshalJSON writes the product attributes plus "id" and "amount".
func (li LineItem) MarshalJSON() ([]byte, error) {
	return marshalObject(li.Fields, map[string]any{"id": li.ID, "amount": li.Amount})
}

// UnmarshalJSON reads a persisted line item. Attributes other than "id" and
// "amount" are kept on the product.
func (li *LineItem) UnmarshalJSON(data []byte) error {
	fields, err := unmarshalObject(data)
	if err != nil {
		return err
	}
	id, err := takeInt(fields, "id")
	if err != nil {
		return err
	}
	amount, err := takeInt(fields, "amount")
	if err != nil {
		return err
	}
	*li = LineItem{Product: Product{ID: id, Fields: fields}, Amount: amount}
	return nil
}

// Cart is an ordered list of line items, unique by product ID. A Cart value is
// never mutated in place once published; the With* methods return copies.
type Cart struct {
	Items []LineItem
}

// NewCart returns an empty cart.
func NewCart() *Cart {
	return &Cart{Items: []LineItem{}}
}

// Find returns the index of the line item for productID, or -1.
func (c *Cart) Find(productID int) int {
	for i := range c.Items {
		if c.Items[i].ID == productID {
			return i
		}
	}
	return -1
}

// Item returns the line item for productID.
func (c *Cart) Item(productID int) (LineItem, bool) {
	if i := c.Find(productID); i >= 0 {
		return c.Items[i], true
	}
	return LineItem{}, false
}

// ItemCount returns the sum of all quantities.
func (c *Cart) ItemCount() int {
	var n int
	for _, item := range c.Items {
		n += item.Amount
	}
	return n
}

// Subtotal returns the sum of every line item subtotal.
func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// Len returns the number of distinct products.
func (c *Cart) Len() int { return len(c.Items) }

// Clone returns a copy whose items can change independently. Product
// attributes are shared.
func (c *Cart) Clone() *Cart {
	items := make([]LineItem, len(c.Items))
	copy(items, c.Items)
	return &Cart{Items: items}
}

// WithItem returns a copy with item appended. The caller guarantees the
// product is not already present.
func (c *Cart) WithItem(item LineItem) *Cart {
	next := c.Clone()
	next.Items = append(next.Items, item)
	return next
}

// WithAmount returns a copy where productID has the given quantity, and
// false if productID is not in the cart.
func (c *Cart) WithAmount(productID, amount int) (*Cart, bool) {
	i := c.Find(productID)
	if i < 0 {
		return nil, false
	}
	next := c.Clone()
	next.Items[i].Amount = amount
	return next, true
}

// Without returns a copy with productID removed, and false if it was absent.
func (c *Cart) Without(productID int) (*Cart, bool) {
	i := c.Find(productID)
	if i < 0 {
		return nil, false
	}
	items := make([]LineItem, 0, len(c.Items)-1)
	items = append(items, c.Items[:i]...)
	items = append(items, c.Items[i+1:]...)
	return &Cart{Items: items}, true
}

// Validate checks that every quantity is at least 1 and no product appears
// twice.
func (c *Cart) Validate() error {
	seen := make(map[int]struct{}, len(c.Items))
	for _, item := range c.Items {
		if item.Amount < 1 {
			return fmt.Errorf("product %d: amount %d is below 1", item.ID, item.Amount)
		}
		if _, dup := seen[item.ID]; dup {
			return fmt.Errorf("product %d appears more than once", item.ID)
		}
		seen[item.ID] = struct{}{}
	}
	return nil
}

// MarshalJSON encodes the cart as a bare array of line items.
func (c Cart) MarshalJSON() ([]byte, error) {
	if c.Items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(c.Items)
}

// UnmarshalJSON decodes a bare array of line items.
func (c *Cart) UnmarshalJSON(data []byte) error {
	var items []LineItem
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	if items == nil {
		items = []LineItem{}
	}
	c.Items = items
	return nil
}

// DecodeCart parses and validates a persisted cart.
func DecodeCart(data []byte) (*Cart, error) {
	var c Cart
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	return &c, nil
}
