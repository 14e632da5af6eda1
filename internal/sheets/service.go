// File: internal/sheets/service.go
package sheets

import (
	"context"
	"fmt"

	"github.com/kubryk/vegetables-shop/internal/data"
)

// DefaultOrdersSheet is the tab checkout rows are appended to.
const DefaultOrdersSheet = "Замовлення"

// Info describes the configured spreadsheet.
type Info struct {
	SpreadsheetID string   `json:"spreadsheet_id"`
	Title         string   `json:"spreadsheet_title"`
	URL           string   `json:"spreadsheet_url"`
	OrdersSheet   string   `json:"orders_sheet"`
	Sheets        []string `json:"sheets"`
	SheetCount    int      `json:"sheet_count"`
}

// Info returns information about the configured spreadsheet
func (c *Client) Info(ctx context.Context) (*Info, error) {
	spreadsheet, err := c.GetSpreadsheet(ctx)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(spreadsheet.Sheets))
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil {
			names = append(names, sheet.Properties.Title)
		}
	}

	info := &Info{
		SpreadsheetID: spreadsheet.SpreadsheetId,
		URL:           spreadsheet.SpreadsheetUrl,
		OrdersSheet:   c.ordersSheet,
		Sheets:        names,
		SheetCount:    len(names),
	}
	if spreadsheet.Properties != nil {
		info.Title = spreadsheet.Properties.Title
	}
	return info, nil
}

// TestConnection tests the connection to Google Sheets
func (c *Client) TestConnection(ctx context.Context) error {
	_, err := c.GetSpreadsheet(ctx)
	return err
}

// AppendOrder adds a placed order to the orders sheet.
func (c *Client) AppendOrder(ctx context.Context, order *data.Order) error {
	if err := c.AppendData(ctx, c.ordersSheet, [][]any{orderRow(order)}); err != nil {
		return fmt.Errorf("append order %s: %w", order.ID, err)
	}
	return nil
}
