package report

import "github.com/kubryk/vegetables-shop/internal/data"

// Lookup resolves order lines to catalog products.
type Lookup struct {
	byID   map[string]*data.Product
	byName map[string]*data.Product
}

// NewLookup indexes the catalog by id and by name. When two products share a
// name the later one wins.
func NewLookup(products []*data.Product) Lookup {
	l := Lookup{
		byID:   make(map[string]*data.Product, len(products)),
		byName: make(map[string]*data.Product, len(products)),
	}
	for _, p := range products {
		if p == nil {
			continue
		}
		if p.ID != "" {
			l.byID[p.ID] = p
		}
		l.byName[p.Name] = p
	}
	return l
}

// ByName returns the product owning a header column.
func (l Lookup) ByName(name string) *data.Product {
	return l.byName[name]
}

// Resolve finds the product for a line by id, then by name, and returns the
// pivot key for the line: the product's name, or the raw item name when
// nothing matched.
//
// The name fallback can pick the wrong product after a rename leaves two
// products with the same name. Stored orders rely on it, so it stays.
func (l Lookup) Resolve(item data.OrderItem) (*data.Product, string) {
	p := l.byID[item.ProductID]
	if p == nil && item.Name != "" {
		p = l.byName[item.Name]
	}
	if p != nil {
		return p, p.Name
	}
	return nil, item.Name
}
