// File: cmd/api/aggregation.go
package main

import (
	"net/http"

	"github.com/kubryk/vegetables-shop/internal/validator"
)

// defaultReportDays is the window used when no dates are given.
const defaultReportDays = 7

// aggregationHandler serves the customer by product matrix of a date range.
// Orders of every status are included.
func (app *app) aggregationHandler(w http.ResponseWriter, r *http.Request) {
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

	pivot, err := app.exporter.Aggregate(r.Context(), rng)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	env := envelope{
		"range":     rng,
		"products":  pivot.OrderedKeys(app.config.preferredProducts),
		"customers": pivot.Customers,
		"totals":    pivot.Totals,
		"summary":   pivot.Summary,
	}

	err = app.writeJSON(w, http.StatusOK, env, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
