// Package faults defines the error taxonomy shared by all services.
// Every failure a service returns wraps one of these sentinels so that
// the transport layer can map it to a status code with errors.Is.
package faults

import (
	"errors"
	"net/http"
)

var (
	ErrValidation     = errors.New("invalid input")
	ErrConflict       = errors.New("entity already exists")
	ErrNotFound       = errors.New("entity not found")
	ErrForbidden      = errors.New("operation not allowed")
	ErrDocumentFormat = errors.New("unreadable document format")
	ErrCodec          = errors.New("payload decode failed")
)

// HTTPStatus maps a service error to its transport status. Unrecognized
// errors are treated as internal failures.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrDocumentFormat):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrCodec):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
