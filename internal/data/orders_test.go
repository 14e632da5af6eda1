package data

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/kubryk/vegetables-shop/internal/validator"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var orderColumns = []string{
	"id", "customer_name", "customer_email", "items", "items_summary",
	"total_price", "currency", "status", "order_date", "created_at",
}

func TestOrderModelGetForReport(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rng := NewDateRange(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC))
	id := uuid.New()
	placed := time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY order_date ASC, id ASC")).
		WithArgs(rng.From, rng.To, StatusCompleted).
		WillReturnRows(sqlmock.NewRows(orderColumns).
			AddRow(id.String(), "Market Nord", "nord@example.com",
				[]byte(`[{"productId":"p1","name":"Apples","quantity":"3","netWeight":5}]`),
				"Apples (3 шт.)", "36.00", "EUR", StatusCompleted, placed, placed))

	orders, err := OrderModel{DB: db}.GetForReport(context.Background(), rng, StatusCompleted)
	require.NoError(t, err)
	require.Len(t, orders, 1)

	o := orders[0]
	assert.Equal(t, id, o.ID)
	assert.Equal(t, "Market Nord", o.CustomerName)
	assert.True(t, decimal.RequireFromString("36").Equal(o.TotalPrice))
	require.Len(t, o.Items, 1)
	assert.Equal(t, 3.0, o.Items[0].Quantity)
	assert.Equal(t, 5.0, o.Items[0].NetWeight)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderModelGetAllCountsWindow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	placed := time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)
	cols := append([]string{"count"}, orderColumns...)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY order_date DESC, id DESC")).
		WithArgs(nil, nil, int64(2), int64(2)).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(int64(5), uuid.NewString(), "A", "a@example.com", []byte(`[]`), "", "1.00", "EUR", StatusProcessing, placed, placed).
			AddRow(int64(5), uuid.NewString(), "B", "b@example.com", []byte(`not json`), "", "2.00", "EUR", StatusCompleted, placed, placed))

	filter := OrderFilter{Filter: Filter{Page: 2, PageSize: 2, SortBy: "-order_date", SortSafeList: []string{"-order_date"}}}
	orders, md, err := OrderModel{DB: db}.GetAll(context.Background(), filter)
	require.NoError(t, err)

	assert.Len(t, orders, 2)
	assert.Empty(t, orders[1].Items)
	assert.Equal(t, int64(5), md.TotalRecords)
	assert.Equal(t, int64(3), md.LastPage)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderModelInsertFillsDefaults(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	created := time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO orders")).
		WithArgs(sqlmock.AnyArg(), "Market Nord", "nord@example.com", sqlmock.AnyArg(),
			"Apples (2 шт.)", sqlmock.AnyArg(), "EUR", StatusProcessing, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))

	order := &Order{
		CustomerName:  "Market Nord",
		CustomerEmail: "nord@example.com",
		Items:         []OrderItem{{ProductID: "p1", Name: "Apples", Quantity: 2, Price: 12}},
		TotalPrice:    decimal.NewFromInt(24),
		Currency:      "EUR",
		Status:        StatusProcessing,
	}
	require.NoError(t, OrderModel{DB: db}.Insert(context.Background(), order))

	assert.NotEqual(t, uuid.Nil, order.ID)
	assert.False(t, order.OrderDate.IsZero())
	assert.Equal(t, created, order.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderModelUpdateStatusNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	id := uuid.New()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE orders")).
		WithArgs(StatusCompleted, id).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = OrderModel{DB: db}.UpdateStatus(context.Background(), id, StatusCompleted)
	assert.ErrorIs(t, err, ErrRecordNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderModelStats(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("count(*) FILTER")).
		WithArgs(now.Add(-24*time.Hour), now.Add(-7*24*time.Hour), now.Add(-30*24*time.Hour)).
		WillReturnRows(sqlmock.NewRows([]string{"total", "day", "week", "month"}).AddRow(40, 2, 9, 31))

	stats, err := OrderModel{DB: db}.Stats(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, OrderStats{Total: 40, Day: 2, Week: 9, Month: 31}, stats)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestValidateOrder(t *testing.T) {
	order := &Order{
		CustomerName:  "",
		CustomerEmail: "not-an-email",
		Items:         []OrderItem{{Name: "Apples", Quantity: 0}},
		Status:        "shipped",
	}

	v := validator.New()
	ValidateOrder(v, order)

	assert.Equal(t, "must be provided", v.Errors["customer_name"])
	assert.Equal(t, "must be a valid email address", v.Errors["customer_email"])
	assert.Equal(t, "must be greater than zero", v.Errors["items[0].quantity"])
	assert.Contains(t, v.Errors, "status")
}
