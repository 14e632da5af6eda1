package report

import (
	"math"
	"strings"

	"github.com/kubryk/vegetables-shop/internal/data"
)

// PackSource pairs an order line with the catalog product it resolved to.
// Product is nil when the line could not be resolved.
type PackSource struct {
	Item    data.OrderItem
	Product *data.Product
}

// PackWeightChain yields the mass of one pack for weight-aggregated lines.
// The first non-zero value wins.
var PackWeightChain = []func(PackSource) float64{
	func(s PackSource) float64 { return s.Item.NetWeight },
	func(s PackSource) float64 { return s.Item.CardboardWeight },
	func(s PackSource) float64 {
		if s.Product == nil {
			return 0
		}
		return s.Product.NetWeight
	},
	// A kg product without a recorded pack weight is sold per kilo.
	func(s PackSource) float64 {
		if s.Product != nil && s.Product.NetWeight == 0 && strings.EqualFold(s.Product.Unit, data.UnitKg) {
			return 1
		}
		return 0
	},
}

// MultiplierChain converts a pack count of a cardboard product to mass.
var MultiplierChain = []func(*data.Product) float64{
	func(p *data.Product) float64 { return p.NetWeight },
	func(p *data.Product) float64 { return p.UnitPerCardboard },
	func(*data.Product) float64 { return 1 },
}

// PackWeight resolves the per-pack mass of an order line.
func PackWeight(item data.OrderItem, product *data.Product) float64 {
	return firstNonZero(PackWeightChain, PackSource{Item: item, Product: product})
}

// Multiplier is the factor applied to a product column in the row weight
// formula. Weight products already hold mass, so theirs is 1.
func Multiplier(p *data.Product) float64 {
	if p == nil || !p.IsCardboard() {
		return 1
	}
	return firstNonZero(MultiplierChain, p)
}

func firstNonZero[T any](chain []func(T) float64, src T) float64 {
	for _, get := range chain {
		if v := get(src); v != 0 && !math.IsNaN(v) && !math.IsInf(v, 0) {
			return v
		}
	}
	return 0
}
