package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Product is the display data returned by the product catalog. Fields keeps
// every catalog attribute other than "id" exactly as received, so attributes
// the service does not read survive persistence unchanged. Fields is shared
// between copies and must not be modified after the product is built.
type Product struct {
	ID     int
	Fields map[string]json.RawMessage
}

// ParseProduct decodes a catalog product object. fallbackID is used when the
// payload carries no id.
func ParseProduct(fallbackID int, data []byte) (Product, error) {
	var p Product
	if err := json.Unmarshal(data, &p); err != nil {
		return Product{}, err
	}
	if p.ID == 0 {
		p.ID = fallbackID
	}
	return p, nil
}

// Title returns the "title" attribute, falling back to "name".
func (p Product) Title() string {
	if s := p.Attr("title"); s != "" {
		return s
	}
	return p.Attr("name")
}

// Attr returns a string attribute, or "" when it is absent or not a string.
func (p Product) Attr(key string) string {
	var s string
	if raw, ok := p.Fields[key]; ok {
		_ = json.Unmarshal(raw, &s)
	}
	return s
}

// Price parses the "price" attribute, accepting a JSON number or a numeric
// string. A missing or malformed price is zero.
func (p Product) Price() decimal.Decimal {
	raw, ok := p.Fields["price"]
	if !ok {
		return decimal.Zero
	}
	s := string(bytes.TrimSpace(raw))
	if strings.HasPrefix(s, `"`) {
		if err := json.Unmarshal(raw, &s); err != nil {
			return decimal.Zero
		}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// MarshalJSON writes the catalog attributes with "id" overlaid.
func (p Product) MarshalJSON() ([]byte, error) {
	return marshalObject(p.Fields, map[string]any{"id": p.ID})
}

// UnmarshalJSON reads a catalog product object.
func (p *Product) UnmarshalJSON(data []byte) error {
	fields, err := unmarshalObject(data)
	if err != nil {
		return err
	}
	id, err := takeInt(fields, "id")
	if err != nil {
		return err
	}
	p.ID = id
	p.Fields = fields
	return nil
}

func marshalObject(fields map[string]json.RawMessage, overlay map[string]any) ([]byte, error) {
	out := make(map[string]any, len(fields)+len(overlay))
	for k, v := range fields {
		out[k] = v
	}
	for k, v := range overlay {
		out[k] = v
	}
	return json.Marshal(out)
}

func unmarshalObject(data []byte) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, fmt.Errorf("expected a JSON object, got %s", bytes.TrimSpace(data))
	}
	return fields, nil
}

// takeInt removes key from fields and decodes it. A missing key is 0.
func takeInt(fields map[string]json.RawMessage, key string) (int, error) {
	raw, ok := fields[key]
	if !ok {
		return 0, nil
	}
	delete(fields, key)
	var n int
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

// StockRecord is the available quantity of a product as reported by the stock
// service.
type StockRecord struct {
	ProductID int `json:"id"`
	Available int `json:"amount"`
}

// StockBoundary decides whether a requested quantity fits the available stock.
type StockBoundary string

const (
	// BoundaryInclusive admits a quantity equal to the available stock.
	BoundaryInclusive StockBoundary = "inclusive"
	// BoundaryExclusive requires the available stock to exceed the quantity.
	BoundaryExclusive StockBoundary = "exclusive"
)

// ParseStockBoundary parses a boundary name, case-insensitively.
func ParseStockBoundary(s string) (StockBoundary, error) {
	switch b := StockBoundary(strings.ToLower(strings.TrimSpace(s))); b {
	case BoundaryInclusive, BoundaryExclusive:
		return b, nil
	default:
		return "", fmt.Errorf("unknown stock boundary %q", s)
	}
}

// Admits reports whether requested units can be taken from s.
func (b StockBoundary) Admits(s StockRecord, requested int) bool {
	if b == BoundaryExclusive {
		return s.Available > requested
	}
	return s.Available >= requested
}
