// File: cmd/api/integrations.go
package main

import (
	"context"

	"github.com/kubryk/vegetables-shop/internal/data"
	"github.com/kubryk/vegetables-shop/internal/report"
	"github.com/kubryk/vegetables-shop/internal/sheets"
)

// productCatalog is where the shop reads its products from: the local table
// or Fakturownia.
type productCatalog interface {
	All(ctx context.Context) ([]*data.Product, error)
	Get(ctx context.Context, id string) (*data.Product, error)
}

// spreadsheet is the configured Google spreadsheet.
type spreadsheet interface {
	report.Writer
	report.Linker
	SpreadsheetID() string
	Info(ctx context.Context) (*sheets.Info, error)
	AppendOrder(ctx context.Context, order *data.Order) error
}

// notifier e-mails customers.
type notifier interface {
	SendOrderConfirmation(order *data.Order) error
}

// localCatalog reports whether products are managed through this API.
func (app *app) localCatalog() bool {
	return app.config.catalog.source != sourceFakturownia
}
