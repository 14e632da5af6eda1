// File: internal/sheets/client.go
package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/kubryk/vegetables-shop/internal/report"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// ErrNoSheetID is returned when the API does not report the id of a new sheet.
var ErrNoSheetID = errors.New("sheets: no id returned for the new sheet")

// Client wraps the Google Sheets API client
type Client struct {
	service       *sheets.Service
	spreadsheetID string
	ordersSheet   string
}

// Config holds configuration for the Google Sheets client
type Config struct {
	ServiceAccountKeyPath string
	SpreadsheetID         string
	OrdersSheet           string
}

// NewClient creates a new Google Sheets client with service account authentication
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.SpreadsheetID == "" || cfg.ServiceAccountKeyPath == "" {
		return nil, report.ErrNotConfigured
	}

	credentials, err := os.ReadFile(cfg.ServiceAccountKeyPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read service account key file: %w", err)
	}
	return NewClientFromJSON(ctx, credentials, cfg)
}

// NewClientFromJSON creates a new Google Sheets client from JSON credentials
func NewClientFromJSON(ctx context.Context, credentialsJSON []byte, cfg Config) (*Client, error) {
	if err := ValidateCredentials(credentialsJSON); err != nil {
		return nil, err
	}

	config, err := google.JWTConfigFromJSON(credentialsJSON, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse service account key: %w", err)
	}

	service, err := sheets.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}

	return New(service, cfg.SpreadsheetID, cfg.OrdersSheet), nil
}

// New wraps an existing Sheets service.
func New(service *sheets.Service, spreadsheetID, ordersSheet string) *Client {
	if ordersSheet == "" {
		ordersSheet = DefaultOrdersSheet
	}
	return &Client{
		service:       service,
		spreadsheetID: spreadsheetID,
		ordersSheet:   ordersSheet,
	}
}

// SpreadsheetID returns the id of the spreadsheet the client writes to.
func (c *Client) SpreadsheetID() string {
	return c.spreadsheetID
}

// GetSpreadsheet retrieves spreadsheet metadata
func (c *Client) GetSpreadsheet(ctx context.Context) (*sheets.Spreadsheet, error) {
	spreadsheet, err := c.service.Spreadsheets.Get(c.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve spreadsheet: %w", err)
	}
	return spreadsheet, nil
}

// CreateSheet adds a new tab and returns its numeric id.
func (c *Client) CreateSheet(ctx context.Context, title string) (int64, error) {
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{
						Title: title,
					},
				},
			},
		},
	}

	resp, err := c.service.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("unable to create sheet: %w", err)
	}

	if len(resp.Replies) > 0 && resp.Replies[0].AddSheet != nil && resp.Replies[0].AddSheet.Properties != nil {
		return resp.Replies[0].AddSheet.Properties.SheetId, nil
	}
	return 0, ErrNoSheetID
}

// ReplaceContent clears the tab and writes rows from A1. Formulas are
// evaluated by Sheets; text that would read as a formula is escaped.
func (c *Client) ReplaceContent(ctx context.Context, title string, rows [][]any) error {
	_, err := c.service.Spreadsheets.Values.Clear(
		c.spreadsheetID,
		quoteTitle(title),
		&sheets.ClearValuesRequest{},
	).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("unable to clear sheet: %w", err)
	}

	valueRange := &sheets.ValueRange{
		Values: toValues(rows),
	}

	_, err = c.service.Spreadsheets.Values.Update(
		c.spreadsheetID,
		quoteTitle(title)+"!A1",
		valueRange,
	).ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("unable to write data: %w", err)
	}
	return nil
}

// FormatCells applies formatting instructions in a single batch.
func (c *Client) FormatCells(ctx context.Context, sheetID int64, formats []report.Format) error {
	requests := formatRequests(sheetID, formats)
	if len(requests) == 0 {
		return nil
	}

	req := &sheets.BatchUpdateSpreadsheetRequest{Requests: requests}
	if _, err := c.service.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("unable to format cells: %w", err)
	}
	return nil
}

// DeleteSheet removes a tab.
func (c *Client) DeleteSheet(ctx context.Context, sheetID int64) error {
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{
				DeleteSheet: &sheets.DeleteSheetRequest{SheetId: sheetID},
			},
		},
	}

	if _, err := c.service.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("unable to delete sheet: %w", err)
	}
	return nil
}

// SheetURL links straight to a tab.
func (c *Client) SheetURL(sheetID int64) string {
	return fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s/edit#gid=%d", c.spreadsheetID, sheetID)
}

// AppendData appends rows after the last filled row of a sheet
func (c *Client) AppendData(ctx context.Context, sheetName string, data [][]any) error {
	valueRange := &sheets.ValueRange{
		Values: toValues(data),
	}

	_, err := c.service.Spreadsheets.Values.Append(
		c.spreadsheetID,
		quoteTitle(sheetName),
		valueRange,
	).ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("unable to append data: %w", err)
	}
	return nil
}

// quoteTitle makes a sheet title safe to use in A1 notation.
func quoteTitle(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

// ValidateCredentials validates the service account credentials
func ValidateCredentials(credentialsJSON []byte) error {
	var creds map[string]any
	if err := json.Unmarshal(credentialsJSON, &creds); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	requiredFields := []string{"type", "project_id", "private_key_id", "private_key", "client_email"}
	for _, field := range requiredFields {
		if _, ok := creds[field]; !ok {
			return fmt.Errorf("missing required field: %s", field)
		}
	}

	if creds["type"] != "service_account" {
		return fmt.Errorf("invalid credential type: expected service_account, got %v", creds["type"])
	}

	return nil
}
