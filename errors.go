package webfiles

import (
	"errors"
	"net/http"
)

// Error taxonomy shared by the validator, executor and dispatcher.
var (
	ErrBadRequest    = errors.New("missing required parameter")
	ErrForbidden     = errors.New("path escapes base directory")
	ErrNotFound      = errors.New("file not found")
	ErrIO            = errors.New("filesystem failure")
	ErrRouteNotFound = errors.New("route not found")
)

// StatusCode maps an error from any layer to its HTTP status.
// Unclassified errors, including context cancellation, map to 500.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrRouteNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
