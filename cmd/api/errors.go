package main

import (
	"fmt"
	"net/http"
)

// logs the error message along with the request method and URL
func (app *app) logError(r *http.Request, err error) {
	method := r.Method
	uri := r.URL.RequestURI()
	app.logger.Error(err.Error(), "method", method, "uri", uri)
}

// Sends an error response in JSON format
func (app *app) errorResponseJSON(w http.ResponseWriter, r *http.Request, status int, message any) {
	errorData := envelope{"error": message}
	err := app.writeJSON(w, status, errorData, nil)
	//  log the error if we encounter one while trying to write the response
	if err != nil {
		app.logError(r, err)
		w.WriteHeader(500)
	}
}

// error response for total server failure with a 500 status code
func (app *app) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logError(r, err)
	message := "the server encountered a problem and could not process your request"
	app.errorResponseJSON(w, r, http.StatusInternalServerError, message)
}

// send an error response if our client messes up with a 404
func (app *app) notFoundResponse(w http.ResponseWriter, r *http.Request) {
	// we only log server errors, not client errors
	message := "the requested resource could not be found"
	app.errorResponseJSON(w, r, http.StatusNotFound, message)
}

// send an error response if our client messes up with a 405
func (app *app) methodNotAllowedResponse(w http.ResponseWriter, r *http.Request) {
	message := fmt.Sprintf("the %s method is not supported for this resource", r.Method)
	app.errorResponseJSON(w, r, http.StatusMethodNotAllowed, message)
}

// send an error response if our client messes up with a 400 (bad request)
func (app *app) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.errorResponseJSON(w, r, http.StatusBadRequest, err.Error())
}

// error response for failed validation checks with a 422 status code
func (app *app) failedValidationResponse(w http.ResponseWriter, r *http.Request, errors map[string]string) {
	app.errorResponseJSON(w, r, http.StatusUnprocessableEntity, errors)
}

// For rate limit exceeded errors with a 429 status code
func (app *app) rateLimitExceededResponse(w http.ResponseWriter, r *http.Request) {
	message := "rate limit exceeded"
	app.errorResponseJSON(w, r, http.StatusTooManyRequests, message)
}

// 409 for product writes while the catalog lives in Fakturownia
func (app *app) editingDisabledResponse(w http.ResponseWriter, r *http.Request) {
	message := "products are managed in Fakturownia"
	app.errorResponseJSON(w, r, http.StatusConflict, message)
}

// 401 with a Basic-Auth challenge
func (app *app) invalidCredentialsResponse(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("WWW-Authenticate", `Basic realm="dashboard", charset="UTF-8"`)
	message := "invalid authentication credentials"
	app.errorResponseJSON(w, r, http.StatusUnauthorized, message)
}

// 503 for integrations that were not configured at start-up
func (app *app) notConfiguredResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.errorResponseJSON(w, r, http.StatusServiceUnavailable, err.Error())
}

// 502 when an upstream service fails
func (app *app) upstreamErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logError(r, err)
	message := "an upstream service failed to process the request"
	app.errorResponseJSON(w, r, http.StatusBadGateway, message)
}
