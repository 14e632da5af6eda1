// File: cmd/api/orders.go
// Description: checkout and dashboard order handlers

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kubryk/vegetables-shop/internal/data"
	"github.com/kubryk/vegetables-shop/internal/validator"
)

var orderSortSafeList = []string{
	"order_date", "-order_date",
	"total_price", "-total_price",
	"customer_name", "-customer_name",
	"status", "-status",
}

// createOrderHandler places an order from a finished cart. Prices and weights
// are taken from the catalog, never from the client.
func (app *app) createOrderHandler(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		CustomerName  string `json:"customer_name"`
		CustomerEmail string `json:"customer_email"`
		Items         []struct {
			ProductID string  `json:"product_id"`
			Quantity  float64 `json:"quantity"`
		} `json:"items"`
	}

	err := app.readJSON(w, r, &payload)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	v := validator.New()
	v.Check(len(payload.Items) > 0, "items", "must contain at least one item")
	if !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	products, err := app.catalog.All(r.Context())
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
	byID := make(map[string]*data.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	order := &data.Order{
		CustomerName:  strings.TrimSpace(payload.CustomerName),
		CustomerEmail: strings.TrimSpace(payload.CustomerEmail),
		Status:        data.StatusProcessing,
	}

	for i, line := range payload.Items {
		key := fmt.Sprintf("items[%d].product_id", i)
		product, ok := byID[line.ProductID]
		switch {
		case !ok:
			v.AddError(key, "must be a known product")
			continue
		case !product.Active:
			v.AddError(key, data.ErrProductInactive.Error())
			continue
		}
		order.Items = append(order.Items, data.NewOrderItem(product, line.Quantity))
	}

	order.TotalPrice = data.CalculateTotal(order.Items)
	order.Currency = data.DefaultCurrency
	if len(order.Items) > 0 && order.Items[0].Currency != "" {
		order.Currency = order.Items[0].Currency
	}

	if data.ValidateOrder(v, order); !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	err = app.models.Orders.Insert(r.Context(), order)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	app.notifyOrderPlaced(order)

	headers := make(http.Header)
	headers.Set("Location", fmt.Sprintf("/v1/admin/orders/%s", order.ID))

	err = app.writeJSON(w, http.StatusCreated, envelope{"order": order}, headers)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// notifyOrderPlaced copies the order to the orders sheet and e-mails the
// customer. Neither may fail the checkout.
func (app *app) notifyOrderPlaced(order *data.Order) {
	if app.sheets != nil {
		app.background(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()

			if err := app.sheets.AppendOrder(ctx, order); err != nil {
				app.logger.Error("append order to sheet",
					slog.String("order", order.ID.String()),
					slog.String("error", err.Error()))
			}
		})
	}

	if app.mailer != nil {
		app.background(func() {
			if err := app.mailer.SendOrderConfirmation(order); err != nil {
				app.logger.Error("send order confirmation",
					slog.String("order", order.ID.String()),
					slog.String("error", err.Error()))
			}
		})
	}
}

// listOrdersHandler lists orders for the dashboard, newest first.
func (app *app) listOrdersHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	v := validator.New()

	filter := data.OrderFilter{
		Filter: app.readFilters(query, "-order_date", 20, orderSortSafeList, v),
	}

	start := app.getSingleQueryParameter(query, "start_date", "")
	end := app.getSingleQueryParameter(query, "end_date", "")
	if start != "" || end != "" {
		rng := app.readDateRange(start, end, 0, v)
		filter.Range = &rng
	}

	if !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	orders, metadata, err := app.models.Orders.GetAll(r.Context(), filter)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"orders": orders, "metadata": metadata}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// orderStatsHandler counts orders overall and over the last day, week and month.
func (app *app) orderStatsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := app.models.Orders.Stats(r.Context(), time.Now())
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"stats": stats}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// updateOrderStatusHandler moves an order between processing and completed.
func (app *app) updateOrderStatusHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readUUIDParam(r)
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}

	var payload struct {
		Status string `json:"status"`
	}

	err = app.readJSON(w, r, &payload)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	v := validator.New()
	if data.ValidateStatus(v, payload.Status); !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	err = app.models.Orders.UpdateStatus(r.Context(), id, payload.Status)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	app.logger.Info("order status changed",
		slog.String("order", id.String()),
		slog.String("status", payload.Status),
		slog.String("operator", app.contextGetOperator(r)))

	err = app.writeJSON(w, http.StatusOK, envelope{"order": envelope{"id": id, "status": payload.Status}}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// deleteOrderHandler removes an order.
func (app *app) deleteOrderHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readUUIDParam(r)
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}

	err = app.models.Orders.Delete(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "order successfully deleted"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
