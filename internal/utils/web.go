package utils

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/waap-dev/waap/internal/errors"
	"github.com/waap-dev/waap/internal/logger"
)

// WriteErrorAndStatusCode maps service errors onto HTTP responses. Typed
// errors from the taxonomy carry their own status; everything else is a 500.
func WriteErrorAndStatusCode(w http.ResponseWriter, err error) {
	if e, ok := err.(*errors.ErrorWithStatusCode); ok {
		http.Error(w, err.Error(), e.StatusCode)
		return
	}
	switch err {
	case errors.ErrTokenNotFound, errors.ErrTokenExpired, errors.ErrTokenAlreadyUsed, errors.ErrTokenPurposeMismatch:
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case errors.ErrUnauthorizedDomain:
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}
	if errors.Is[*errors.ValidationError](err) || errors.Is[*errors.InvalidTransition](err) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if errors.Is[*errors.NotFoundError](err) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	// default error is 500
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

func DecodeValidate(r io.ReadCloser, body any) error {
	if err := json.NewDecoder(r).Decode(body); err != nil {
		logger.Log.Error("failed to decode request body", "error", err)
		return &errors.ErrorWithStatusCode{Message: "Body is invalid json", StatusCode: 400}
	}
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(body); err != nil {
		logger.Log.Error("request body validation failed", "error", err)
		return &errors.ErrorWithStatusCode{Message: "Required fields missing", StatusCode: 400}
	}
	return nil
}

func Decode(r io.ReadCloser, body any) error {
	if err := json.NewDecoder(r).Decode(body); err != nil {
		logger.Log.Error("failed to decode request body", "error", err)
		return &errors.ErrorWithStatusCode{Message: "Body is invalid json", StatusCode: 400}
	}
	return nil
}
