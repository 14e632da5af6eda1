// Filename: /cmd/api/routes.go
// Description: connects the routes with an api

package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

func (app *app) routes() http.Handler {
	router := httprouter.New()

	router.NotFound = http.HandlerFunc(app.notFoundResponse)
	router.MethodNotAllowed = http.HandlerFunc(app.methodNotAllowedResponse)

	router.HandlerFunc(http.MethodGet, "/v1/healthcheck", app.healthcheckHandler)

	// Storefront
	router.HandlerFunc(http.MethodGet, "/v1/products", app.listProductsHandler)
	router.HandlerFunc(http.MethodPost, "/v1/orders", app.createOrderHandler)

	// Dashboard products
	router.HandlerFunc(http.MethodGet, "/v1/admin/products", app.requireBasicAuth(app.listAdminProductsHandler))
	router.HandlerFunc(http.MethodPost, "/v1/admin/products", app.requireBasicAuth(app.createProductHandler))
	router.HandlerFunc(http.MethodPatch, "/v1/admin/products/:id", app.requireBasicAuth(app.updateProductHandler))
	router.HandlerFunc(http.MethodDelete, "/v1/admin/products/:id", app.requireBasicAuth(app.deleteProductHandler))
	router.HandlerFunc(http.MethodPatch, "/v1/admin/products/:id/metadata", app.requireBasicAuth(app.updateProductMetadataHandler))

	// Dashboard orders
	router.HandlerFunc(http.MethodGet, "/v1/admin/orders", app.requireBasicAuth(app.listOrdersHandler))
	router.HandlerFunc(http.MethodGet, "/v1/admin/orders/stats", app.requireBasicAuth(app.orderStatsHandler))
	router.HandlerFunc(http.MethodPatch, "/v1/admin/orders/:id/status", app.requireBasicAuth(app.updateOrderStatusHandler))
	router.HandlerFunc(http.MethodDelete, "/v1/admin/orders/:id", app.requireBasicAuth(app.deleteOrderHandler))

	// Reports
	router.HandlerFunc(http.MethodGet, "/v1/admin/aggregation", app.requireBasicAuth(app.aggregationHandler))
	router.HandlerFunc(http.MethodGet, "/v1/admin/exports", app.requireBasicAuth(app.listExportHistoryHandler))
	router.HandlerFunc(http.MethodPost, "/v1/admin/exports/sheets", app.requireBasicAuth(app.exportSheetsHandler))
	router.HandlerFunc(http.MethodGet, "/v1/admin/exports/xlsx", app.requireBasicAuth(app.exportXLSXHandler))
	router.HandlerFunc(http.MethodGet, "/v1/admin/sheets", app.requireBasicAuth(app.getSheetsInfoHandler))

	return app.recoverPanic(app.rateLimit(app.enableCORS(router)))
}
