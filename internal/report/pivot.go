package report

import (
	"slices"
	"strings"

	"github.com/kubryk/vegetables-shop/internal/data"
	"github.com/shopspring/decimal"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// ----------------------------------------------------------------------
//
//	Definitions
//
// ----------------------------------------------------------------------

// Entry accumulates one product for one customer (or for all customers).
// Weight is always true mass; Cell keeps the value the spreadsheet shows.
type Entry struct {
	Packs  float64 `json:"packs"`
	Weight float64 `json:"weight"`
	Unit   string  `json:"unit"`
	Cell   Cell    `json:"cell"`
}

// Customer is one row of the dashboard pivot.
type Customer struct {
	Name        string            `json:"customer_name"`
	Email       string            `json:"email"`
	Products    map[string]*Entry `json:"products"`
	TotalWeight float64           `json:"total_weight"`
}

// OrderRow holds the per-product cells of a single order.
type OrderRow struct {
	Order *data.Order
	Cells map[string]Cell
}

// ProductSummary is the revenue line of one product.
type ProductSummary struct {
	Name         string          `json:"name"`
	TotalPacks   float64         `json:"total_packs"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	Currency     string          `json:"currency"`
}

// Summary totals the whole period.
type Summary struct {
	Products    []*ProductSummary          `json:"products"`
	Shops       int                        `json:"shops"`
	Orders      int                        `json:"orders"`
	TotalPacks  float64                    `json:"total_packs"`
	TotalWeight float64                    `json:"total_weight"`
	Revenue     map[string]decimal.Decimal `json:"revenue"`
}

// Pivot is the customer by product matrix built from a set of orders.
type Pivot struct {
	Keys      []string          `json:"products"`
	Customers []*Customer       `json:"customers"`
	Totals    map[string]*Entry `json:"totals"`
	Summary   Summary           `json:"summary"`
	Rows      []OrderRow        `json:"-"`

	lookup Lookup
}

// ----------------------------------------------------------------------
//
//	Methods
//
// ----------------------------------------------------------------------

// BuildPivot aggregates orders against the catalog. Every catalog product
// gets a key, sold or not. Lines whose product is not in the catalog are
// left out of the matrix but still count towards revenue.
func BuildPivot(orders []*data.Order, products []*data.Product) *Pivot {
	lookup := NewLookup(products)
	keys := SortKeys(productNames(products))

	p := &Pivot{
		Keys:      keys,
		Customers: []*Customer{},
		Totals:    make(map[string]*Entry, len(keys)),
		Rows:      make([]OrderRow, 0, len(orders)),
		Summary: Summary{
			Products: []*ProductSummary{},
			Revenue:  map[string]decimal.Decimal{},
		},
		lookup: lookup,
	}
	for _, key := range keys {
		p.Totals[key] = &Entry{Unit: unitOf(nil, lookup.ByName(key)), Cell: Cell{Kind: kindOf(lookup.ByName(key))}}
	}

	customers := map[string]*Customer{}
	summaries := map[string]*ProductSummary{}

	for _, order := range orders {
		if order == nil {
			continue
		}
		p.Summary.Orders++

		customer, ok := customers[order.CustomerName]
		if !ok {
			customer = &Customer{
				Name:     order.CustomerName,
				Email:    order.CustomerEmail,
				Products: map[string]*Entry{},
			}
			customers[order.CustomerName] = customer
			p.Customers = append(p.Customers, customer)
		}

		row := OrderRow{Order: order, Cells: map[string]Cell{}}
		for _, item := range order.Items {
			p.addRevenue(summaries, order, item)

			product, key := lookup.Resolve(item)
			if _, ok := p.Totals[key]; !ok {
				continue
			}

			cell, mass := contribution(item, product)
			row.Cells[key] = merge(row.Cells[key], cell)

			entry, ok := customer.Products[key]
			if !ok {
				entry = &Entry{Unit: unitOf(&item, product)}
				customer.Products[key] = entry
			}
			entry.add(item.Quantity, mass, cell)
			p.Totals[key].add(item.Quantity, mass, cell)

			customer.TotalWeight += mass
			p.Summary.TotalWeight += mass
		}
		p.Rows = append(p.Rows, row)
	}

	p.Summary.Shops = len(p.Customers)
	return p
}

// Product returns the catalog product behind a key.
func (p *Pivot) Product(key string) *data.Product {
	return p.lookup.ByName(key)
}

// OrderedKeys lists the keys with the preferred names first, in the given
// order, followed by the rest in collation order.
func (p *Pivot) OrderedKeys(preferred []string) []string {
	rank := make(map[string]int, len(preferred))
	for i, name := range preferred {
		if _, ok := rank[name]; !ok {
			rank[name] = i
		}
	}

	ordered := slices.Clone(p.Keys)
	slices.SortStableFunc(ordered, func(a, b string) int {
		ra, okA := rank[a]
		rb, okB := rank[b]
		switch {
		case okA && okB:
			return ra - rb
		case okA:
			return -1
		case okB:
			return 1
		}
		return 0
	})
	return ordered
}

func (p *Pivot) addRevenue(summaries map[string]*ProductSummary, order *data.Order, item data.OrderItem) {
	key := item.ProductID
	if key == "" {
		key = item.Name
	}

	currency := order.Currency
	if currency == "" {
		currency = data.DefaultCurrency
	}

	s, ok := summaries[key]
	if !ok {
		s = &ProductSummary{Name: item.Name, TotalRevenue: decimal.Zero, Currency: currency}
		summaries[key] = s
		p.Summary.Products = append(p.Summary.Products, s)
	}

	revenue := item.Subtotal()
	s.TotalPacks += item.Quantity
	s.TotalRevenue = s.TotalRevenue.Add(revenue)

	p.Summary.TotalPacks += item.Quantity
	p.Summary.Revenue[currency] = p.Summary.Revenue[currency].Add(revenue)
}

func (e *Entry) add(packs, mass float64, cell Cell) {
	e.Packs += packs
	e.Weight += mass
	e.Cell = merge(e.Cell, cell)
}

// contribution converts one order line into its pivot cell and its mass.
func contribution(item data.OrderItem, product *data.Product) (Cell, float64) {
	if product != nil && product.IsCardboard() {
		m := Multiplier(product)
		return Cell{Kind: PackCount, Value: item.Quantity, PackWeight: m}, item.Quantity * m
	}
	mass := item.Quantity * PackWeight(item, product)
	return Cell{Kind: Mass, Value: mass}, mass
}

func merge(acc, c Cell) Cell {
	return Cell{Kind: c.Kind, Value: acc.Value + c.Value, PackWeight: c.PackWeight}
}

func kindOf(p *data.Product) Kind {
	if p != nil && p.IsCardboard() {
		return PackCount
	}
	return Mass
}

func unitOf(item *data.OrderItem, p *data.Product) string {
	if item != nil && item.Unit != "" {
		return item.Unit
	}
	if p != nil && p.Unit != "" {
		return p.Unit
	}
	return data.UnitKg
}

func productNames(products []*data.Product) []string {
	names := make([]string, 0, len(products))
	for _, p := range products {
		if p != nil {
			names = append(names, p.Name)
		}
	}
	return names
}

// SortKeys deduplicates names and sorts them with Ukrainian collation.
// Empty names are dropped.
func SortKeys(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	keys := make([]string, 0, len(names))
	for _, name := range names {
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		keys = append(keys, name)
	}

	c := collate.New(language.Ukrainian)
	slices.SortFunc(keys, func(a, b string) int {
		if r := c.CompareString(a, b); r != 0 {
			return r
		}
		return strings.Compare(a, b)
	})
	return keys
}
