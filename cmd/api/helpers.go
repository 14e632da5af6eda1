package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	"github.com/kubryk/vegetables-shop/internal/data"
	"github.com/kubryk/vegetables-shop/internal/validator"
)

// creating an envelope type
type envelope map[string]any

func (app *app) writeJSON(w http.ResponseWriter, status int, data envelope, headers http.Header) error {
	// encodes data into json format by using indenting for better readability
	jsResponse, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		return err
	}

	jsResponse = append(jsResponse, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_, err = w.Write(jsResponse)
	if err != nil {
		return err
	}

	return nil
}

func (app *app) readJSON(w http.ResponseWriter, r *http.Request, dest any) error {
	// limit the size of the request body to 256000 bytes
	maxBytes := 256_000
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	// our decoder will check for unknown fields
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dest)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError
		var maxBytesError *http.MaxBytesError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("the body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("the body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("the body contains the incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("the body contains the incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("the body must not be empty")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("body contains unknown key %s", fieldName)
		case errors.As(err, &maxBytesError):
			return fmt.Errorf("the body must not be larger than %d bytes", maxBytesError.Limit)
		case errors.As(err, &invalidUnmarshalError):
			panic(err)
		default:
			return err
		}
	}

	// call decode again to check if there is only a single json value in the body
	err = dec.Decode(&struct{}{})
	if !errors.Is(err, io.EOF) {
		return errors.New("the body must only contain a single JSON value")
	}

	return nil
}

// readIDParam reads a product id from the url. Product ids are opaque strings.
func (app *app) readIDParam(r *http.Request) (string, error) {
	params := httprouter.ParamsFromContext(r.Context())

	id := strings.TrimSpace(params.ByName("id"))
	if id == "" {
		return "", data.ErrInvalidID
	}
	return id, nil
}

// readUUIDParam reads an order id from the url.
func (app *app) readUUIDParam(r *http.Request) (uuid.UUID, error) {
	params := httprouter.ParamsFromContext(r.Context())

	id, err := uuid.Parse(params.ByName("id"))
	if err != nil {
		return uuid.Nil, data.ErrInvalidID
	}
	return id, nil
}

// get single string query parameter
func (app *app) getSingleQueryParameter(queryParameters url.Values, key string, defaultValue string) string {
	result := queryParameters.Get(key)
	if result == "" {
		return defaultValue
	}
	return result
}

// this method can cause a validation error if the parameter is not an integer
func (app *app) getSingleIntQueryParameter(queryParameters url.Values, key string, defaultValue int64, v *validator.Validator) int64 {
	result := queryParameters.Get(key)
	if result == "" {
		return defaultValue
	}

	intResult, err := strconv.ParseInt(result, 10, 64)
	if err != nil {
		v.AddError(key, "must be an integer value")
		return defaultValue
	}
	return intResult
}

// readFilters reads page, page_size and sort into a validated filter.
func (app *app) readFilters(queryParameters url.Values, defaultSort string, defaultPageSize int64, safeList []string, v *validator.Validator) data.Filter {
	filter := data.Filter{
		Page:         app.getSingleIntQueryParameter(queryParameters, "page", 1, v),
		PageSize:     app.getSingleIntQueryParameter(queryParameters, "page_size", defaultPageSize, v),
		SortBy:       app.getSingleQueryParameter(queryParameters, "sort", defaultSort),
		SortSafeList: safeList,
	}
	data.ValidateFilters(v, filter)
	return filter
}

// readDateRange reads start_date and end_date. When both are missing the
// last defaultDays days are used. A range error is reported on the validator.
func (app *app) readDateRange(start, end string, defaultDays int, v *validator.Validator) data.DateRange {
	if start == "" && end == "" {
		return data.LastDays(time.Now(), defaultDays)
	}

	v.Check(start != "", "start_date", "must be provided")
	v.Check(end != "", "end_date", "must be provided")
	if !v.Valid() {
		return data.DateRange{}
	}

	rng, err := data.ParseDateRange(start, end)
	switch {
	case errors.Is(err, data.ErrInvalidRange):
		v.AddError("end_date", err.Error())
	case err != nil:
		v.AddError("date", err.Error())
	}
	return rng
}

// background runs fn outside the request, recovering any panic.
func (app *app) background(fn func()) {
	app.wg.Add(1)

	go func() {
		defer app.wg.Done()
		defer func() {
			if err := recover(); err != nil {
				app.logger.Error(fmt.Sprintf("%v", err))
			}
		}()
		fn()
	}()
}
