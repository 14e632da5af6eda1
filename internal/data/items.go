// File: internal/data/items.go
package data

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// OrderItem is the snapshot of a product taken when the order was placed.
// It is stored inside the order's items column, so the JSON names follow the
// shape the storefront has always written.
type OrderItem struct {
	ProductID        string  `json:"productId"`
	Name             string  `json:"name"`
	Quantity         float64 `json:"quantity"`
	NetWeight        float64 `json:"netWeight"`
	CardboardWeight  float64 `json:"cardboardWeight,omitempty"`
	UnitPerCardboard float64 `json:"unitPerCardboard"`
	Unit             string  `json:"unit"`
	Price            float64 `json:"price"`
	PricePerUnit     float64 `json:"pricePerUnit"`
	Currency         string  `json:"currency"`
	TotalPrice       float64 `json:"totalPrice,omitempty"`
}

// NewOrderItem snapshots the product's current pricing and weight.
func NewOrderItem(p *Product, quantity float64) OrderItem {
	price := p.PackPrice()
	return OrderItem{
		ProductID:        p.ID,
		Name:             p.Name,
		Quantity:         quantity,
		NetWeight:        p.NetWeight,
		UnitPerCardboard: p.UnitPerCardboard,
		Unit:             p.Unit,
		Price:            price.InexactFloat64(),
		PricePerUnit:     p.PricePerUnit.InexactFloat64(),
		Currency:         p.Currency,
		TotalPrice:       price.Mul(decimal.NewFromFloat(quantity)).Round(2).InexactFloat64(),
	}
}

// Subtotal is the recorded line total, or price times quantity when the line
// predates stored totals.
func (it OrderItem) Subtotal() decimal.Decimal {
	if it.TotalPrice != 0 {
		return decimal.NewFromFloat(it.TotalPrice)
	}
	return decimal.NewFromFloat(it.Price).Mul(decimal.NewFromFloat(it.Quantity))
}

// CalculateTotal sums item subtotals, rounded to cents.
func CalculateTotal(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(decimal.NewFromFloat(it.Price).Mul(decimal.NewFromFloat(it.Quantity)))
	}
	return total.Round(2)
}

// ItemsSummary renders one "name (N шт.)" line per item.
func ItemsSummary(items []OrderItem) string {
	lines := make([]string, 0, len(items))
	for _, it := range items {
		lines = append(lines, fmt.Sprintf("%s (%s шт.)", it.Name, cast.ToString(it.Quantity)))
	}
	return strings.Join(lines, "\n")
}

// NormalizeOrderItems decodes a stored items column into the canonical shape.
// Older rows may carry numbers as strings, miss fields or use earlier field
// names; every such value degrades to its zero value. Anything that is not a
// JSON array yields no items, and array entries that are not objects are skipped.
func NormalizeOrderItems(raw []byte) []OrderItem {
	var entries []any
	if err := json.Unmarshal(raw, &entries); err != nil {
		return []OrderItem{}
	}

	items := make([]OrderItem, 0, len(entries))
	for _, entry := range entries {
		obj, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		items = append(items, normalizeItem(obj))
	}
	return items
}

func normalizeItem(obj map[string]any) OrderItem {
	return OrderItem{
		ProductID:        toString(pick(obj, "productId", "product_id", "id")),
		Name:             toString(pick(obj, "name")),
		Quantity:         toFloat(pick(obj, "quantity")),
		NetWeight:        toFloat(pick(obj, "netWeight", "net_weight")),
		CardboardWeight:  toFloat(pick(obj, "cardboardWeight", "cardboard_weight")),
		UnitPerCardboard: toFloat(pick(obj, "unitPerCardboard", "unit_per_cardboard")),
		Unit:             toString(pick(obj, "unit")),
		Price:            toFloat(pick(obj, "price")),
		PricePerUnit:     toFloat(pick(obj, "pricePerUnit", "price_per_unit")),
		Currency:         strings.ToUpper(toString(pick(obj, "currency"))),
		TotalPrice:       toFloat(pick(obj, "totalPrice", "total_price")),
	}
}

// pick returns the first non-nil value among the given keys.
func pick(obj map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := obj[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func toString(v any) string {
	switch v.(type) {
	case map[string]any, []any:
		return ""
	}
	return strings.TrimSpace(cast.ToString(v))
}

func toFloat(v any) float64 {
	if s, ok := v.(string); ok {
		v = strings.TrimSpace(s)
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
