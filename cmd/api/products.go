// File: cmd/api/products.go
// Description: storefront and dashboard product handlers

package main

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/kubryk/vegetables-shop/internal/data"
	"github.com/kubryk/vegetables-shop/internal/validator"
	"github.com/shopspring/decimal"
)

// listProductsHandler serves the storefront catalog: active products, highest position first.
func (app *app) listProductsHandler(w http.ResponseWriter, r *http.Request) {
	products, err := app.catalog.All(r.Context())
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"products": data.ActiveOnly(products)}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// listAdminProductsHandler lists every product, searched by q and paginated.
func (app *app) listAdminProductsHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	v := validator.New()

	filter := app.readFilters(query, "position", 20, []string{"position"}, v)
	search := app.getSingleQueryParameter(query, "q", "")

	if !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	products, err := app.catalog.All(r.Context())
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	page := data.PaginateProducts(products, search, filter)
	env := envelope{
		"products":     page.Products,
		"total_count":  page.TotalCount,
		"active_count": page.ActiveCount,
		"total_pages":  page.TotalPages,
		"current_page": page.CurrentPage,
	}

	err = app.writeJSON(w, http.StatusOK, env, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// createProductHandler adds a product to the local catalog.
func (app *app) createProductHandler(w http.ResponseWriter, r *http.Request) {
	if !app.localCatalog() {
		app.editingDisabledResponse(w, r)
		return
	}

	var payload struct {
		ID                string          `json:"id"`
		Name              string          `json:"name"`
		Category          string          `json:"category"`
		Unit              string          `json:"unit"`
		NetWeight         float64         `json:"net_weight"`
		UnitPerCardboard  float64         `json:"unit_per_cardboard"`
		PricePerUnit      decimal.Decimal `json:"price_per_unit"`
		PricePerCardboard decimal.Decimal `json:"price_per_cardboard"`
		Currency          string          `json:"currency"`
		Image             string          `json:"image"`
		AggregationType   string          `json:"aggregation_type"`
		Active            *bool           `json:"active"`
	}

	err := app.readJSON(w, r, &payload)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	product := &data.Product{
		ID:                strings.TrimSpace(payload.ID),
		Name:              strings.TrimSpace(payload.Name),
		Category:          strings.TrimSpace(payload.Category),
		Unit:              payload.Unit,
		NetWeight:         payload.NetWeight,
		UnitPerCardboard:  payload.UnitPerCardboard,
		PricePerUnit:      payload.PricePerUnit,
		PricePerCardboard: payload.PricePerCardboard,
		Currency:          strings.ToUpper(payload.Currency),
		Image:             payload.Image,
		AggregationType:   payload.AggregationType,
		Active:            true,
	}
	if product.Unit == "" {
		product.Unit = data.UnitKg
	}
	if product.Currency == "" {
		product.Currency = data.DefaultCurrency
	}
	if payload.Active != nil {
		product.Active = *payload.Active
	}

	v := validator.New()
	if data.ValidateProduct(v, product); !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	err = app.models.Products.Insert(r.Context(), product)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrDuplicateID):
			v.AddError("id", "a product with this id already exists")
			app.failedValidationResponse(w, r, v.Errors)
		case errors.Is(err, data.ErrInvalidData):
			app.badRequestResponse(w, r, err)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	headers := make(http.Header)
	headers.Set("Location", fmt.Sprintf("/v1/admin/products/%s", product.ID))

	err = app.writeJSON(w, http.StatusCreated, envelope{"product": product}, headers)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// updateProductHandler partially updates a product of the local catalog.
func (app *app) updateProductHandler(w http.ResponseWriter, r *http.Request) {
	if !app.localCatalog() {
		app.editingDisabledResponse(w, r)
		return
	}

	id, err := app.readIDParam(r)
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}

	product, err := app.models.Products.Get(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	var payload struct {
		Name              *string          `json:"name"`
		Category          *string          `json:"category"`
		Unit              *string          `json:"unit"`
		NetWeight         *float64         `json:"net_weight"`
		UnitPerCardboard  *float64         `json:"unit_per_cardboard"`
		PricePerUnit      *decimal.Decimal `json:"price_per_unit"`
		PricePerCardboard *decimal.Decimal `json:"price_per_cardboard"`
		Currency          *string          `json:"currency"`
		Image             *string          `json:"image"`
		AggregationType   *string          `json:"aggregation_type"`
		Active            *bool            `json:"active"`
	}

	err = app.readJSON(w, r, &payload)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if payload.Name != nil {
		product.Name = strings.TrimSpace(*payload.Name)
	}
	if payload.Category != nil {
		product.Category = strings.TrimSpace(*payload.Category)
	}
	if payload.Unit != nil {
		product.Unit = *payload.Unit
	}
	if payload.NetWeight != nil {
		product.NetWeight = *payload.NetWeight
	}
	if payload.UnitPerCardboard != nil {
		product.UnitPerCardboard = *payload.UnitPerCardboard
	}
	if payload.PricePerUnit != nil {
		product.PricePerUnit = *payload.PricePerUnit
	}
	if payload.PricePerCardboard != nil {
		product.PricePerCardboard = *payload.PricePerCardboard
	}
	if payload.Currency != nil {
		product.Currency = strings.ToUpper(*payload.Currency)
	}
	if payload.Image != nil {
		product.Image = *payload.Image
	}
	if payload.AggregationType != nil {
		product.AggregationType = *payload.AggregationType
	}
	if payload.Active != nil {
		product.Active = *payload.Active
	}

	v := validator.New()
	if data.ValidateProduct(v, product); !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	err = app.models.Products.Update(r.Context(), product)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"product": product}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// deleteProductHandler removes a product from the local catalog.
func (app *app) deleteProductHandler(w http.ResponseWriter, r *http.Request) {
	if !app.localCatalog() {
		app.editingDisabledResponse(w, r)
		return
	}

	id, err := app.readIDParam(r)
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}

	err = app.models.Products.Delete(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "product successfully deleted"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// updateProductMetadataHandler stores the operator's overlay for any product,
// including products that live in Fakturownia.
func (app *app) updateProductMetadataHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}

	var payload struct {
		Image           *string `json:"image"`
		AggregationType *string `json:"aggregation_type"`
		Position        *int    `json:"position"`
	}

	err = app.readJSON(w, r, &payload)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	md := &data.ProductMetadata{
		ID:              id,
		Image:           payload.Image,
		AggregationType: payload.AggregationType,
		Position:        payload.Position,
	}

	v := validator.New()
	if data.ValidateProductMetadata(v, md); !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	err = app.models.ProductMetadata.Upsert(r.Context(), md)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"metadata": md}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
