// File: cmd/api/exports.go
// Description: report export handlers

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/kubryk/vegetables-shop/internal/data"
	"github.com/kubryk/vegetables-shop/internal/report"
	"github.com/kubryk/vegetables-shop/internal/validator"
	"github.com/kubryk/vegetables-shop/internal/xlsx"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// exportSheetsHandler writes the report of completed orders to a new tab of
// the configured spreadsheet. Every attempt is recorded in the export history.
func (app *app) exportSheetsHandler(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		StartDate string `json:"start_date"`
		EndDate   string `json:"end_date"`
	}

	err := app.readJSON(w, r, &payload)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	v := validator.New()
	rng := app.readDateRange(payload.StartDate, payload.EndDate, defaultReportDays, v)
	if !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	if app.sheets == nil {
		app.notConfiguredResponse(w, r, report.ErrNotConfigured)
		return
	}

	history, err := app.startExport(r, data.TargetSheets, app.sheets.SpreadsheetID(), rng)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	result, err := app.exporter.Export(r.Context(), app.sheets, rng)
	if err != nil {
		app.failExport(r, history, err)
		app.exportFailedResponse(w, r, history, err)
		return
	}

	app.finishExport(r, history, result)

	env := envelope{
		"success":   true,
		"export":    history,
		"sheet_url": result.URL,
		"message":   fmt.Sprintf("Exported %d orders to sheet '%s'", result.Rows, result.SheetName),
	}
	err = app.writeJSON(w, http.StatusOK, env, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// exportXLSXHandler builds the same report as an .xlsx download.
func (app *app) exportXLSXHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	v := validator.New()

	rng := app.readDateRange(
		app.getSingleQueryParameter(query, "start_date", ""),
		app.getSingleQueryParameter(query, "end_date", ""),
		defaultReportDays, v)

	if !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	history, err := app.startExport(r, data.TargetXLSX, "", rng)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	workbook := xlsx.New()
	defer workbook.Close()

	result, err := app.exporter.Export(r.Context(), workbook, rng)
	if err != nil {
		app.failExport(r, history, err)
		app.exportFailedResponse(w, r, history, err)
		return
	}

	content, err := workbook.Bytes()
	if err != nil {
		app.failExport(r, history, err)
		app.serverErrorResponse(w, r, err)
		return
	}

	app.finishExport(r, history, result)

	filename := fmt.Sprintf("report_%s_%s.xlsx", rng.From.Format("2006-01-02"), rng.To.Format("2006-01-02"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(content)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(content); err != nil {
		app.logError(r, err)
	}
}

// startExport records a pending export.
func (app *app) startExport(r *http.Request, target, spreadsheetID string, rng data.DateRange) (*data.ExportHistory, error) {
	history := &data.ExportHistory{
		Operator:      app.contextGetOperator(r),
		Target:        target,
		SpreadsheetID: spreadsheetID,
		StartDate:     rng.From,
		EndDate:       rng.To,
		Status:        data.ExportPending,
	}

	v := validator.New()
	if data.ValidateExportHistory(v, history); !v.Valid() {
		return nil, fmt.Errorf("invalid export record: %v", v.Errors)
	}

	if err := app.models.ExportHistory.Insert(r.Context(), history); err != nil {
		return nil, err
	}
	return history, nil
}

func (app *app) failExport(r *http.Request, history *data.ExportHistory, cause error) {
	history.Status = data.ExportFailed
	history.ErrorMessage = cause.Error()
	app.saveExport(r, history)
}

func (app *app) finishExport(r *http.Request, history *data.ExportHistory, result *report.Result) {
	history.Status = data.ExportCompleted
	history.SheetName = result.SheetName
	history.RowCount = int64(result.Rows)
	app.saveExport(r, history)
}

// saveExport stores the outcome even when the request was cancelled meanwhile.
func (app *app) saveExport(r *http.Request, history *data.ExportHistory) {
	ctx := context.WithoutCancel(r.Context())
	if err := app.models.ExportHistory.Update(ctx, history); err != nil {
		app.logger.Error("update export history",
			slog.Int64("export", history.ID),
			slog.String("error", err.Error()))
	}
}

// exportFailedResponse reports a failed export as a result rather than a
// crash: an empty period is the operator's choice, anything else is upstream.
func (app *app) exportFailedResponse(w http.ResponseWriter, r *http.Request, history *data.ExportHistory, err error) {
	status := http.StatusOK
	if !report.IsUserError(err) {
		app.logError(r, err)
		status = http.StatusBadGateway
	}

	env := envelope{
		"success": false,
		"error":   err.Error(),
		"export":  history,
	}
	if werr := app.writeJSON(w, status, env, nil); werr != nil {
		app.serverErrorResponse(w, r, werr)
	}
}

// listExportHistoryHandler lists past exports, newest first.
func (app *app) listExportHistoryHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	v := validator.New()

	exportSafeList := []string{"id", "created_at", "-id", "-created_at"}

	filter := data.ExportFilter{
		Filter: app.readFilters(query, "-created_at", 20, exportSafeList, v),
		Target: app.getSingleQueryParameter(query, "target", ""),
		Status: app.getSingleQueryParameter(query, "status", ""),
	}
	v.Check(validator.PermittedValue(filter.Target, "", data.TargetSheets, data.TargetXLSX), "target", "must be sheets or xlsx")
	v.Check(validator.PermittedValue(filter.Status, "", data.ExportPending, data.ExportCompleted, data.ExportFailed), "status", "must be pending, completed, or failed")

	if !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	exports, metadata, err := app.models.ExportHistory.GetAll(r.Context(), filter)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"exports": exports, "metadata": metadata}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// getSheetsInfoHandler returns information about the configured spreadsheet.
func (app *app) getSheetsInfoHandler(w http.ResponseWriter, r *http.Request) {
	if app.sheets == nil {
		app.notConfiguredResponse(w, r, report.ErrNotConfigured)
		return
	}

	info, err := app.sheets.Info(r.Context())
	if err != nil {
		app.upstreamErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"sheets_info": info}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
