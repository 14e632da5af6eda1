// File: cmd/api/testutils_test.go
// Description: Test helpers for API handler tests

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/kubryk/vegetables-shop/internal/data"
	"github.com/kubryk/vegetables-shop/internal/report"
	"github.com/kubryk/vegetables-shop/internal/sheets"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	testUser     = "admin"
	testPassword = "s3cret-pass"
)

type fakeCatalog struct {
	products []*data.Product
	err      error
}

func (f *fakeCatalog) All(context.Context) ([]*data.Product, error) {
	return f.products, f.err
}

func (f *fakeCatalog) Get(_ context.Context, id string) (*data.Product, error) {
	for _, p := range f.products {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, data.ErrRecordNotFound
}

type fakeSheet struct {
	mu       sync.Mutex
	appended []*data.Order
	rows     [][]any
	deleted  []int64
	fillErr  error
	infoErr  error
}

func (f *fakeSheet) CreateSheet(context.Context, string) (int64, error) { return 7, nil }

func (f *fakeSheet) ReplaceContent(_ context.Context, _ string, rows [][]any) error {
	f.rows = rows
	return f.fillErr
}

func (f *fakeSheet) FormatCells(context.Context, int64, []report.Format) error { return nil }

func (f *fakeSheet) DeleteSheet(_ context.Context, id int64) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeSheet) SheetURL(id int64) string {
	return "https://docs.google.com/spreadsheets/d/book/edit#gid=7"
}

func (f *fakeSheet) SpreadsheetID() string { return "book" }

func (f *fakeSheet) Info(context.Context) (*sheets.Info, error) {
	if f.infoErr != nil {
		return nil, f.infoErr
	}
	return &sheets.Info{SpreadsheetID: "book", Title: "Orders", SheetCount: 1, Sheets: []string{"Замовлення"}}, nil
}

func (f *fakeSheet) AppendOrder(_ context.Context, order *data.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appended = append(f.appended, order)
	return nil
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeMailer) SendOrderConfirmation(order *data.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, order.CustomerEmail)
	return nil
}

// testProducts is a small catalog: one weight product, one cardboard
// product and one inactive product.
func testProducts() []*data.Product {
	return []*data.Product{
		{
			ID: "p1", Name: "Apples", Category: "Fruit", Unit: data.UnitKg, NetWeight: 2,
			PricePerUnit: decimal.NewFromInt(3), Currency: "EUR",
			AggregationType: data.AggregationWeight, Active: true, Position: 5,
		},
		{
			ID: "p2", Name: "Carrots", Category: "Vegetables", Unit: data.UnitKg, NetWeight: 6, UnitPerCardboard: 1,
			PricePerUnit: decimal.NewFromInt(2), PricePerCardboard: decimal.NewFromInt(12), Currency: "EUR",
			AggregationType: data.AggregationCardboard, Active: true, Position: 3,
		},
		{
			ID: "p3", Name: "Beets", Category: "Vegetables", Unit: data.UnitKg, NetWeight: 5,
			PricePerUnit: decimal.NewFromInt(1), Currency: "EUR", Active: false,
		},
	}
}

// newTestApp builds an app on top of sqlmock and in-memory integrations.
func newTestApp(t *testing.T) (*app, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	var cfg config
	cfg.env = "test"
	cfg.catalog.source = sourceLocal
	cfg.dashboard.user = testUser
	cfg.dashboard.password = testPassword

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	models := data.NewModels(db)
	catalog := &fakeCatalog{products: testProducts()}

	a := &app{
		config:    cfg,
		logger:    logger,
		models:    models,
		catalog:   catalog,
		sheets:    &fakeSheet{},
		mailer:    &fakeMailer{},
		adminHash: hash,
	}
	a.exporter = &report.Exporter{
		Orders:   models.Orders,
		Products: catalog,
		Logger:   logger,
		Now:      func() time.Time { return time.Date(2025, 3, 8, 13, 5, 0, 0, time.UTC) },
	}

	return a, mock
}

// makeRequest creates and executes an HTTP request, with dashboard
// credentials when admin is set.
func makeRequest(t *testing.T, app *app, method, url string, body any, admin bool) *httptest.ResponseRecorder {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req := httptest.NewRequest(method, url, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if admin {
		req.SetBasicAuth(testUser, testPassword)
	}

	rr := httptest.NewRecorder()
	app.routes().ServeHTTP(rr, req)
	return rr
}

// parseJSONResponse parses a JSON response into a destination struct
func parseJSONResponse(t *testing.T, rr *httptest.ResponseRecorder, dest any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rr.Body).Decode(dest), "body: %s", rr.Body.String())
}

var orderColumns = []string{
	"id", "customer_name", "customer_email", "items", "items_summary",
	"total_price", "currency", "status", "order_date", "created_at",
}

// exportRows is the RETURNING of an export history insert.
func exportRows(id int64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "created_at"}).AddRow(id, time.Now())
}
