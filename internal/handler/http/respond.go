// Package http exposes the storefront's cart and checkout APIs over HTTP.
package http

import (
	"encoding/json"
	"errors"
	"net/http"

	apperrors "github.com/renovamx/storefront/pkg/errors"
	"github.com/renovamx/storefront/pkg/validator"
)

// envelope is the uniform response shape: exactly one of data or error.
type envelope struct {
	Data  any        `json:"data,omitempty"`
	Error *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func respondData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Data: data})
}

func respondError(w http.ResponseWriter, err error, fields map[string]string) {
	body := &errorBody{
		Code:    "INTERNAL_ERROR",
		Message: "an internal error occurred",
		Fields:  fields,
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		body.Code = appErr.Code
		body.Message = appErr.Message
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apperrors.HTTPStatus(err))
	_ = json.NewEncoder(w).Encode(envelope{Error: body})
}

func decodeBody(r *http.Request, target any) error {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		return apperrors.InvalidInput("invalid request body")
	}
	return nil
}

// decodeValidated decodes and runs the struct's validate tags, mapping a
// validation failure onto the error envelope's fields.
func decodeValidated(r *http.Request, target any) (map[string]string, error) {
	if err := validator.DecodeAndValidate(r, target); err != nil {
		var verr *validator.ValidationError
		if errors.As(err, &verr) {
			return verr.Fields(), apperrors.InvalidInput(verr.Error())
		}
		return nil, apperrors.InvalidInput("invalid request body")
	}
	return nil, nil
}
