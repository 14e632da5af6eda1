// File: cmd/api/exports_test.go
// Description: Tests for report export handlers

package main

import (
	"bytes"
	"errors"
	"net/http"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/kubryk/vegetables-shop/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type exportResponse struct {
	Success  bool   `json:"success"`
	Error    string `json:"error"`
	SheetURL string `json:"sheet_url"`
	Message  string `json:"message"`
	Export   struct {
		ID        int64  `json:"id"`
		Operator  string `json:"operator"`
		Target    string `json:"target"`
		Status    string `json:"status"`
		SheetName string `json:"sheet_name"`
		RowCount  int64  `json:"row_count"`
	} `json:"export"`
}

var marchRange = map[string]any{"start_date": "2025-03-01", "end_date": "2025-03-07"}

func expectCompletedOrders(mock sqlmock.Sqlmock, n int) {
	rows := sqlmock.NewRows(orderColumns)
	placed := time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		storedOrder(rows, uuid.New(), "Green Market", "completed", placed.Add(time.Duration(i)*time.Hour))
	}
	mock.ExpectQuery(regexp.QuoteMeta("WHERE order_date >= $1 AND order_date <= $2")).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "completed").
		WillReturnRows(rows)
}

func TestExportSheetsHandler(t *testing.T) {
	t.Run("Report written", func(t *testing.T) {
		app, mock := newTestApp(t)
		sheet := app.sheets.(*fakeSheet)

		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO export_history")).
			WithArgs(testUser, "sheets", "book", "", 0, sqlmock.AnyArg(), sqlmock.AnyArg(), "pending", "").
			WillReturnRows(exportRows(11))
		expectCompletedOrders(mock, 2)
		mock.ExpectExec(regexp.QuoteMeta("UPDATE export_history")).
			WithArgs("completed", "", 2, sqlmock.AnyArg(), 11).
			WillReturnResult(sqlmock.NewResult(0, 1))

		rr := makeRequest(t, app, http.MethodPost, "/v1/admin/exports/sheets", marchRange, true)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		var response exportResponse
		parseJSONResponse(t, rr, &response)

		assert.True(t, response.Success)
		assert.Equal(t, "https://docs.google.com/spreadsheets/d/book/edit#gid=7", response.SheetURL)
		assert.Equal(t, int64(11), response.Export.ID)
		assert.Equal(t, testUser, response.Export.Operator)
		assert.Equal(t, "completed", response.Export.Status)
		assert.Equal(t, int64(2), response.Export.RowCount)
		assert.NotEmpty(t, response.Export.SheetName)
		assert.Contains(t, response.Message, "Exported 2 orders")

		require.Len(t, sheet.rows, 4)
		assert.Equal(t, "order_id", sheet.rows[0][0])
		assert.Equal(t, report.TotalLabel, sheet.rows[3][0])
		assert.Empty(t, sheet.deleted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("No orders in range", func(t *testing.T) {
		app, mock := newTestApp(t)
		sheet := app.sheets.(*fakeSheet)

		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO export_history")).WillReturnRows(exportRows(12))
		expectCompletedOrders(mock, 0)
		mock.ExpectExec(regexp.QuoteMeta("UPDATE export_history")).
			WithArgs("failed", report.ErrNoOrders.Error(), 0, "", 12).
			WillReturnResult(sqlmock.NewResult(0, 1))

		rr := makeRequest(t, app, http.MethodPost, "/v1/admin/exports/sheets", marchRange, true)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		var response exportResponse
		parseJSONResponse(t, rr, &response)
		assert.False(t, response.Success)
		assert.Equal(t, report.ErrNoOrders.Error(), response.Error)
		assert.Equal(t, "failed", response.Export.Status)
		assert.Nil(t, sheet.rows)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Partial sheet rolled back", func(t *testing.T) {
		app, mock := newTestApp(t)
		sheet := app.sheets.(*fakeSheet)
		sheet.fillErr = errors.New("quota exceeded")

		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO export_history")).WillReturnRows(exportRows(13))
		expectCompletedOrders(mock, 1)
		mock.ExpectExec(regexp.QuoteMeta("UPDATE export_history")).
			WithArgs("failed", sqlmock.AnyArg(), 0, "", 13).
			WillReturnResult(sqlmock.NewResult(0, 1))

		rr := makeRequest(t, app, http.MethodPost, "/v1/admin/exports/sheets", marchRange, true)
		require.Equal(t, http.StatusBadGateway, rr.Code, rr.Body.String())

		var response exportResponse
		parseJSONResponse(t, rr, &response)
		assert.False(t, response.Success)
		assert.Contains(t, response.Error, "quota exceeded")
		assert.Equal(t, []int64{7}, sheet.deleted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Sheets not configured", func(t *testing.T) {
		app, mock := newTestApp(t)
		app.sheets = nil

		rr := makeRequest(t, app, http.MethodPost, "/v1/admin/exports/sheets", marchRange, true)
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Invalid range", func(t *testing.T) {
		app, _ := newTestApp(t)

		rr := makeRequest(t, app, http.MethodPost, "/v1/admin/exports/sheets",
			map[string]any{"start_date": "2025-03-07", "end_date": "2025-03-01"}, true)
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	})
}

func TestExportXLSXHandler(t *testing.T) {
	app, mock := newTestApp(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO export_history")).
		WithArgs(testUser, "xlsx", "", "", 0, sqlmock.AnyArg(), sqlmock.AnyArg(), "pending", "").
		WillReturnRows(exportRows(21))
	expectCompletedOrders(mock, 1)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE export_history")).
		WithArgs("completed", "", 1, sqlmock.AnyArg(), 21).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rr := makeRequest(t, app, http.MethodGet, "/v1/admin/exports/xlsx?start_date=2025-03-01&end_date=2025-03-07", nil, true)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	assert.Equal(t, xlsxContentType, rr.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="report_2025-03-01_2025-03-07.xlsx"`, rr.Header().Get("Content-Disposition"))

	f, err := excelize.OpenReader(bytes.NewReader(rr.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	require.Len(t, sheets, 1)
	rows, err := f.GetRows(sheets[0])
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Green Market", rows[1][2])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListExportHistoryHandler(t *testing.T) {
	app, mock := newTestApp(t)
	now := time.Now()

	rows := sqlmock.NewRows([]string{"count", "id", "operator", "target", "spreadsheet_id", "sheet_name",
		"row_count", "start_date", "end_date", "status", "error_message", "created_at"}).
		AddRow(1, 11, testUser, "sheets", "book", "Report", 2, now, now, "completed", "", now)

	mock.ExpectQuery(regexp.QuoteMeta("FROM export_history")).
		WithArgs("sheets", "", 20, 0).
		WillReturnRows(rows)

	rr := makeRequest(t, app, http.MethodGet, "/v1/admin/exports?target=sheets", nil, true)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var response struct {
		Exports []struct {
			ID       int64  `json:"id"`
			Operator string `json:"operator"`
		} `json:"exports"`
	}
	parseJSONResponse(t, rr, &response)
	require.Len(t, response.Exports, 1)
	assert.Equal(t, int64(11), response.Exports[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())

	rr = makeRequest(t, app, http.MethodGet, "/v1/admin/exports?target=pdf", nil, true)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestGetSheetsInfoHandler(t *testing.T) {
	t.Run("Configured", func(t *testing.T) {
		app, _ := newTestApp(t)

		rr := makeRequest(t, app, http.MethodGet, "/v1/admin/sheets", nil, true)
		require.Equal(t, http.StatusOK, rr.Code)

		var response struct {
			Info struct {
				SpreadsheetID string   `json:"spreadsheet_id"`
				Sheets        []string `json:"sheets"`
			} `json:"sheets_info"`
		}
		parseJSONResponse(t, rr, &response)
		assert.Equal(t, "book", response.Info.SpreadsheetID)
		assert.Equal(t, []string{"Замовлення"}, response.Info.Sheets)
	})

	t.Run("Upstream failure", func(t *testing.T) {
		app, _ := newTestApp(t)
		app.sheets.(*fakeSheet).infoErr = errors.New("forbidden")

		rr := makeRequest(t, app, http.MethodGet, "/v1/admin/sheets", nil, true)
		assert.Equal(t, http.StatusBadGateway, rr.Code)
	})

	t.Run("Not configured", func(t *testing.T) {
		app, _ := newTestApp(t)
		app.sheets = nil

		rr := makeRequest(t, app, http.MethodGet, "/v1/admin/sheets", nil, true)
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	})
}
