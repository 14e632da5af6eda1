// File: internal/data/orders.go
package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kubryk/vegetables-shop/internal/validator"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// ----------------------------------------------------------------------
//
//	Definitions
//
// ----------------------------------------------------------------------

// Order statuses.
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
)

// Order is a placed storefront order.
type Order struct {
	ID            uuid.UUID       `json:"id"`
	CustomerName  string          `json:"customer_name"`
	CustomerEmail string          `json:"customer_email"`
	Items         []OrderItem     `json:"items"`
	ItemsSummary  string          `json:"items_summary"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	Currency      string          `json:"currency"`
	Status        string          `json:"status"`
	OrderDate     time.Time       `json:"order_date"`
	CreatedAt     time.Time       `json:"created_at"`
}

// OrderModel wraps a sql.DB connection pool.
type OrderModel struct {
	DB *sql.DB
}

// OrderFilter narrows the admin order list.
type OrderFilter struct {
	Filter Filter
	Range  *DateRange
}

// OrderStats counts orders over rolling windows ending now.
type OrderStats struct {
	Total int64 `json:"total"`
	Day   int64 `json:"day"`
	Week  int64 `json:"week"`
	Month int64 `json:"month"`
}

// ----------------------------------------------------------------------
//
//	Methods
//
// ----------------------------------------------------------------------

// ValidateOrder checks a fully priced order before it is stored.
func ValidateOrder(v *validator.Validator, order *Order) {
	v.Check(order.CustomerName != "", "customer_name", "must be provided")
	v.Check(len(order.CustomerName) <= 255, "customer_name", "must not be more than 255 bytes long")
	v.Check(order.CustomerEmail != "", "customer_email", "must be provided")
	v.Check(validator.Matches(order.CustomerEmail, validator.EmailRX), "customer_email", "must be a valid email address")
	v.Check(len(order.Items) > 0, "items", "must contain at least one item")
	v.Check(!order.TotalPrice.IsNegative(), "total_price", "must be a non-negative number")
	ValidateStatus(v, order.Status)

	for i, item := range order.Items {
		v.Check(item.Quantity > 0, fmt.Sprintf("items[%d].quantity", i), "must be greater than zero")
	}
}

// ValidateStatus checks an order status value.
func ValidateStatus(v *validator.Validator, status string) {
	v.Check(validator.PermittedValue(status, StatusProcessing, StatusCompleted), "status", "must be processing or completed")
}

// Insert stores a new order. A missing id or order date is filled in.
func (m OrderModel) Insert(ctx context.Context, order *Order) error {
	query := `
		INSERT INTO orders (id, customer_name, customer_email, items, items_summary,
			total_price, currency, status, order_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		RETURNING created_at
	`

	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if order.OrderDate.IsZero() {
		order.OrderDate = time.Now().UTC()
	}
	if order.ItemsSummary == "" {
		order.ItemsSummary = ItemsSummary(order.Items)
	}

	items, err := json.Marshal(order.Items)
	if err != nil {
		return err
	}

	ctx, cancel := getContext(ctx, defaultTimeout)
	defer cancel()

	args := []any{
		order.ID,
		order.CustomerName,
		order.CustomerEmail,
		items,
		order.ItemsSummary,
		order.TotalPrice,
		order.Currency,
		order.Status,
		order.OrderDate,
	}

	if err := m.DB.QueryRowContext(ctx, query, args...).Scan(&order.CreatedAt); err != nil {
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

// Get retrieves an order by its ID.
func (m OrderModel) Get(ctx context.Context, id uuid.UUID) (*Order, error) {
	query := orderSelect + `
		WHERE id = $1
	`

	ctx, cancel := getContext(ctx, defaultTimeout)
	defer cancel()

	order, err := scanOrder(m.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return order, nil
}

// GetAll returns one page of orders, newest first, optionally limited to a date range.
func (m OrderModel) GetAll(ctx context.Context, filter OrderFilter) ([]*Order, MetaData, error) {
	query := fmt.Sprintf(`
		SELECT count(*) OVER(), id, customer_name, customer_email, items, COALESCE(items_summary, ''),
			total_price, currency, status, order_date, created_at
		FROM orders
		WHERE ($1::timestamptz IS NULL OR order_date >= $1)
		  AND ($2::timestamptz IS NULL OR order_date <= $2)
		ORDER BY %s %s, id DESC
		LIMIT $3 OFFSET $4
	`, filter.Filter.SortColumn(), filter.Filter.SortDirection())

	var from, to *time.Time
	if filter.Range != nil {
		from, to = &filter.Range.From, &filter.Range.To
	}

	ctx, cancel := getContext(ctx, defaultTimeout)
	defer cancel()

	rows, err := m.DB.QueryContext(ctx, query, from, to, filter.Filter.Limit(), filter.Filter.Offset())
	if err != nil {
		return nil, MetaData{}, err
	}
	defer rows.Close()

	orders := []*Order{}
	totalRecords := int64(0)

	for rows.Next() {
		order := &Order{}
		var items []byte
		if err := rows.Scan(
			&totalRecords,
			&order.ID,
			&order.CustomerName,
			&order.CustomerEmail,
			&items,
			&order.ItemsSummary,
			&order.TotalPrice,
			&order.Currency,
			&order.Status,
			&order.OrderDate,
			&order.CreatedAt,
		); err != nil {
			return nil, MetaData{}, err
		}
		order.Items = NormalizeOrderItems(items)
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, MetaData{}, err
	}

	metadata := CalculateMetaData(totalRecords, filter.Filter.Page, filter.Filter.PageSize)

	return orders, metadata, nil
}

// GetForReport returns every order placed inside the range, oldest first.
// An empty status matches all orders.
func (m OrderModel) GetForReport(ctx context.Context, rng DateRange, status string) ([]*Order, error) {
	query := orderSelect + `
		WHERE order_date >= $1 AND order_date <= $2
		  AND (status = $3 OR $3 = '')
		ORDER BY order_date ASC, id ASC
	`

	ctx, cancel := getContext(ctx, reportTimeout)
	defer cancel()

	rows, err := m.DB.QueryContext(ctx, query, rng.From, rng.To, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []*Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateStatus sets the order status. Operators may move it either way.
func (m OrderModel) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	query := `
		UPDATE orders
		SET status = $1
		WHERE id = $2
	`

	ctx, cancel := getContext(ctx, defaultTimeout)
	defer cancel()

	result, err := m.DB.ExecContext(ctx, query, status, id)
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

// Delete removes an order from the database.
func (m OrderModel) Delete(ctx context.Context, id uuid.UUID) error {
	query := `
		DELETE FROM orders
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

// Stats counts all orders and those placed in the last 24 hours, 7 days and 30 days.
func (m OrderModel) Stats(ctx context.Context, now time.Time) (OrderStats, error) {
	query := `
		SELECT count(*),
			count(*) FILTER (WHERE order_date >= $1),
			count(*) FILTER (WHERE order_date >= $2),
			count(*) FILTER (WHERE order_date >= $3)
		FROM orders
	`

	ctx, cancel := getContext(ctx, defaultTimeout)
	defer cancel()

	var stats OrderStats
	err := m.DB.QueryRowContext(ctx, query,
		now.Add(-24*time.Hour),
		now.Add(-7*24*time.Hour),
		now.Add(-30*24*time.Hour),
	).Scan(&stats.Total, &stats.Day, &stats.Week, &stats.Month)
	if err != nil {
		return OrderStats{}, err
	}
	return stats, nil
}

const orderSelect = `
		SELECT id, customer_name, customer_email, items, COALESCE(items_summary, ''),
			total_price, currency, status, order_date, created_at
		FROM orders`

func scanOrder(row rowScanner) (*Order, error) {
	order := &Order{}
	var items []byte
	err := row.Scan(
		&order.ID,
		&order.CustomerName,
		&order.CustomerEmail,
		&items,
		&order.ItemsSummary,
		&order.TotalPrice,
		&order.Currency,
		&order.Status,
		&order.OrderDate,
		&order.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	order.Items = NormalizeOrderItems(items)
	return order, nil
}
