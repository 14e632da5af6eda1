// File: internal/data/products.go
package data

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/kubryk/vegetables-shop/internal/validator"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// ----------------------------------------------------------------------
//
//	Definitions
//
// ----------------------------------------------------------------------

// Aggregation types decide how a product's packs are summed in reports.
const (
	AggregationWeight    = "weight"
	AggregationCardboard = "cardboard"
)

// Units of measure.
const (
	UnitKg  = "kg"
	UnitPcs = "pcs"
)

// DefaultCurrency is used when neither the product nor the catalog names one.
const DefaultCurrency = "EUR"

// Product represents a sellable product in the catalog.
type Product struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Category          string          `json:"category"`
	Unit              string          `json:"unit"`
	NetWeight         float64         `json:"net_weight"`
	UnitPerCardboard  float64         `json:"unit_per_cardboard"`
	PricePerUnit      decimal.Decimal `json:"price_per_unit"`
	PricePerCardboard decimal.Decimal `json:"price_per_cardboard"`
	Currency          string          `json:"currency"`
	Image             string          `json:"image,omitempty"`
	AggregationType   string          `json:"aggregation_type"`
	Active            bool            `json:"active"`
	Position          int             `json:"position"`
	ExternalURL       string          `json:"external_url,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// ProductModel wraps a sql.DB connection pool.
type ProductModel struct {
	DB *sql.DB
}

// ProductPage is one page of a searched product list.
type ProductPage struct {
	Products    []*Product `json:"products"`
	TotalCount  int        `json:"total_count"`
	ActiveCount int        `json:"active_count"`
	TotalPages  int        `json:"total_pages"`
	CurrentPage int        `json:"current_page"`
}

// ----------------------------------------------------------------------
//
//	Methods
//
// ----------------------------------------------------------------------

// IsCardboard reports whether the product is counted in packs rather than mass.
func (p *Product) IsCardboard() bool {
	return p.AggregationType == AggregationCardboard
}

// IsPureKg reports whether the product is sold by the kilo without a recorded pack weight.
func (p *Product) IsPureKg() bool {
	return p.NetWeight == 0 && strings.EqualFold(p.Unit, UnitKg)
}

// PackPrice is the price of a single pack. Products without a pack price
// fall back to the unit price.
func (p *Product) PackPrice() decimal.Decimal {
	if !p.PricePerCardboard.IsZero() {
		return p.PricePerCardboard
	}
	return p.PricePerUnit
}

// ValidateProduct checks the fields of a Product struct to ensure they meet the required criteria.
func ValidateProduct(v *validator.Validator, product *Product) {
	v.Check(product.ID != "", "id", "must be provided")
	v.Check(len(product.ID) <= 100, "id", "must not be more than 100 bytes long")
	v.Check(product.Name != "", "name", "must be provided")
	v.Check(len(product.Name) <= 200, "name", "must not be more than 200 bytes long")
	v.Check(product.Category != "", "category", "must be provided")
	v.Check(product.NetWeight >= 0, "net_weight", "must be a non-negative number")
	v.Check(product.UnitPerCardboard >= 0, "unit_per_cardboard", "must be a non-negative number")
	v.Check(!product.PricePerUnit.IsNegative(), "price_per_unit", "must be a non-negative number")
	v.Check(!product.PricePerCardboard.IsNegative(), "price_per_cardboard", "must be a non-negative number")
	v.Check(len(product.Currency) == 3, "currency", "must be a three letter code")
	ValidateAggregationType(v, product.AggregationType)
}

// ValidateAggregationType accepts an empty value, which reports treat as weight.
func ValidateAggregationType(v *validator.Validator, aggregationType string) {
	v.Check(validator.PermittedValue(aggregationType, "", AggregationWeight, AggregationCardboard),
		"aggregation_type", "must be weight or cardboard")
}

// Insert adds a new product to the database.
func (m ProductModel) Insert(ctx context.Context, product *Product) error {
	query := `
		INSERT INTO products (id, name, category, unit, net_weight, unit_per_cardboard,
			price_per_unit, price_per_cardboard, currency, image, aggregation_type, active,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	ctx, cancel := getContext(ctx, defaultTimeout)
	defer cancel()

	args := []any{
		product.ID,
		product.Name,
		product.Category,
		product.Unit,
		product.NetWeight,
		product.UnitPerCardboard,
		product.PricePerUnit,
		product.PricePerCardboard,
		product.Currency,
		product.Image,
		product.AggregationType,
		product.Active,
	}

	if err := m.DB.QueryRowContext(ctx, query, args...).Scan(&product.CreatedAt, &product.UpdatedAt); err != nil {
		var pqError *pq.Error
		if errors.As(err, &pqError) {
			switch pqError.Code {
			case "23505": // unique_violation
				return ErrDuplicateID
			case "23514", "23502": // check_violation, not_null_violation
				return ErrInvalidData
			}
		}
		return err
	}
	return nil
}

// Update modifies an existing product in the database.
func (m ProductModel) Update(ctx context.Context, product *Product) error {
	query := `
		UPDATE products
		SET name = $1, category = $2, unit = $3, net_weight = $4, unit_per_cardboard = $5,
			price_per_unit = $6, price_per_cardboard = $7, currency = $8, image = $9,
			aggregation_type = $10, active = $11, updated_at = NOW()
		WHERE id = $12
		RETURNING updated_at
	`

	ctx, cancel := getContext(ctx, defaultTimeout)
	defer cancel()

	args := []any{
		product.Name,
		product.Category,
		product.Unit,
		product.NetWeight,
		product.UnitPerCardboard,
		product.PricePerUnit,
		product.PricePerCardboard,
		product.Currency,
		product.Image,
		product.AggregationType,
		product.Active,
		product.ID,
	}

	if err := m.DB.QueryRowContext(ctx, query, args...).Scan(&product.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrRecordNotFound
		}
		return err
	}
	return nil
}

// Delete removes a product from the database.
func (m ProductModel) Delete(ctx context.Context, id string) error {
	query := `
		DELETE FROM products
		WHERE id = $1
	`

	ctx, cancel := getContext(ctx, defaultTimeout)
	defer cancel()

	result, err := m.DB.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	if rowsAffected, err := result.RowsAffected(); err != nil {
		return err
	} else if rowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// Get retrieves a product by its ID with its metadata overlay applied.
func (m ProductModel) Get(ctx context.Context, id string) (*Product, error) {
	query := productSelect + `
		WHERE p.id = $1
	`

	ctx, cancel := getContext(ctx, defaultTimeout)
	defer cancel()

	product, err := scanProduct(m.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return product, nil
}

// All returns the whole local catalog, highest position first.
func (m ProductModel) All(ctx context.Context) ([]*Product, error) {
	query := productSelect + `
		ORDER BY position DESC, p.name ASC
	`

	ctx, cancel := getContext(ctx, defaultTimeout)
	defer cancel()

	rows, err := m.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []*Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

// Metadata wins over the product row whenever it carries a value.
const productSelect = `
		SELECT p.id, p.name, p.category, p.unit, p.net_weight, p.unit_per_cardboard,
			p.price_per_unit, p.price_per_cardboard, p.currency,
			COALESCE(NULLIF(m.image, ''), p.image),
			COALESCE(NULLIF(m.aggregation_type, ''), p.aggregation_type),
			p.active, COALESCE(m.position, 0) AS position, p.created_at, p.updated_at
		FROM products p
		LEFT JOIN product_metadata m ON m.id = p.id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*Product, error) {
	product := &Product{}
	err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Category,
		&product.Unit,
		&product.NetWeight,
		&product.UnitPerCardboard,
		&product.PricePerUnit,
		&product.PricePerCardboard,
		&product.Currency,
		&product.Image,
		&product.AggregationType,
		&product.Active,
		&product.Position,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return product, nil
}

// PaginateProducts searches products by name or category (case-insensitive)
// and cuts one page out of the matches. ActiveCount covers the whole catalog.
func PaginateProducts(products []*Product, search string, filter Filter) ProductPage {
	page := ProductPage{Products: []*Product{}, CurrentPage: int(filter.Page)}

	needle := strings.ToLower(strings.TrimSpace(search))
	matched := make([]*Product, 0, len(products))
	for _, p := range products {
		if p.Active {
			page.ActiveCount++
		}
		if needle == "" ||
			strings.Contains(strings.ToLower(p.Name), needle) ||
			strings.Contains(strings.ToLower(p.Category), needle) {
			matched = append(matched, p)
		}
	}

	page.TotalCount = len(matched)
	if filter.PageSize > 0 {
		page.TotalPages = int((int64(page.TotalCount) + filter.PageSize - 1) / filter.PageSize)
	}

	start := int(filter.Offset())
	if start < 0 || start >= len(matched) {
		return page
	}
	end := min(start+int(filter.Limit()), len(matched))
	page.Products = matched[start:end]
	return page
}

// ActiveOnly drops inactive products, keeping order.
func ActiveOnly(products []*Product) []*Product {
	active := make([]*Product, 0, len(products))
	for _, p := range products {
		if p.Active {
			active = append(active, p)
		}
	}
	return active
}
