// File: internal/sheets/formatter.go
package sheets

import (
	"encoding/json"
	"strings"

	"github.com/kubryk/vegetables-shop/internal/data"
	"github.com/kubryk/vegetables-shop/internal/report"
	"google.golang.org/api/sheets/v4"
)

// orderDateLayout matches the way the orders sheet has always shown dates.
const orderDateLayout = "02.01.2006, 15:04:05"

// toValues converts report cells into values for a USER_ENTERED write.
// Formulas pass through; plain text gets escaped.
func toValues(rows [][]any) [][]any {
	values := make([][]any, len(rows))
	for i, row := range rows {
		out := make([]any, len(row))
		for j, cell := range row {
			switch v := cell.(type) {
			case report.Formula:
				out[j] = string(v)
			case string:
				out[j] = sanitizeCell(v)
			default:
				out[j] = v
			}
		}
		values[i] = out
	}
	return values
}

// sanitizeCell stops user text from being evaluated as a formula.
func sanitizeCell(s string) string {
	if s == "" {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r', '|':
		return "'" + s
	}
	return s
}

// formatRequests turns formatting instructions into repeatCell requests.
// Only the properties an instruction sets are written.
func formatRequests(sheetID int64, formats []report.Format) []*sheets.Request {
	requests := make([]*sheets.Request, 0, len(formats))
	for _, f := range formats {
		cellFormat := &sheets.CellFormat{}
		var fields []string

		if f.NumberPattern != "" {
			cellFormat.NumberFormat = &sheets.NumberFormat{Type: "NUMBER", Pattern: f.NumberPattern}
			fields = append(fields, "userEnteredFormat.numberFormat")
		}

		var text []string
		if f.Bold {
			text = append(text, "bold")
		}
		if f.FontSize > 0 {
			text = append(text, "fontSize")
		}
		if len(text) > 0 {
			cellFormat.TextFormat = &sheets.TextFormat{Bold: f.Bold, FontSize: int64(f.FontSize)}
			if len(text) == 1 {
				fields = append(fields, "userEnteredFormat.textFormat."+text[0])
			} else {
				fields = append(fields, "userEnteredFormat.textFormat("+strings.Join(text, ",")+")")
			}
		}

		if f.Background != nil {
			cellFormat.BackgroundColor = &sheets.Color{
				Red:   f.Background.Red,
				Green: f.Background.Green,
				Blue:  f.Background.Blue,
			}
			fields = append(fields, "userEnteredFormat.backgroundColor")
		}

		if len(fields) == 0 {
			continue
		}

		requests = append(requests, &sheets.Request{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    int64(f.Range.StartRow),
					EndRowIndex:      int64(f.Range.EndRow),
					StartColumnIndex: int64(f.Range.StartCol),
					EndColumnIndex:   int64(f.Range.EndCol),
					ForceSendFields:  []string{"SheetId", "StartRowIndex", "StartColumnIndex"},
				},
				Cell:   &sheets.CellData{UserEnteredFormat: cellFormat},
				Fields: strings.Join(fields, ","),
			},
		})
	}
	return requests
}

// orderRow is the orders sheet line for a placed order.
func orderRow(order *data.Order) []any {
	items, err := json.Marshal(order.Items)
	if err != nil {
		items = []byte("[]")
	}
	return []any{
		order.ID.String(),
		string(items),
		order.CustomerName,
		order.CustomerEmail,
		data.ItemsSummary(order.Items),
		order.TotalPrice.StringFixed(2),
		order.Currency,
		order.OrderDate.In(report.Location).Format(orderDateLayout),
		order.Status,
	}
}
