// File: cmd/api/context.go
package main

import (
	"context"
	"net/http"
)

type contextKey string

const operatorContextKey = contextKey("operator")

// contextSetOperator adds the authenticated dashboard user to the request context.
func (app *app) contextSetOperator(r *http.Request, operator string) *http.Request {
	ctx := context.WithValue(r.Context(), operatorContextKey, operator)
	return r.WithContext(ctx)
}

// contextGetOperator retrieves the dashboard user from the request context.
func (app *app) contextGetOperator(r *http.Request) string {
	operator, ok := r.Context().Value(operatorContextKey).(string)
	if !ok {
		panic("missing operator value in context")
	}
	return operator
}
