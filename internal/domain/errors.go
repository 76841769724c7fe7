// Package domain holds the error taxonomy shared by repositories, handlers
// and the publication worker. Handlers map these onto HTTP status codes;
// the worker logs them per item without aborting a sweep.
package domain

import (
	"errors"
	"net/http"
)

var (
	// ErrAuthenticationRequired: no resolvable actor for an operation
	// that needs one.
	ErrAuthenticationRequired = errors.New("authentication required")
	// ErrAuthorizationDenied: actor authenticated but not permitted.
	ErrAuthorizationDenied = errors.New("not authorized")
	// ErrNotFound: referenced entity absent.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState: operation not valid for the entity's current
	// lifecycle state.
	ErrInvalidState = errors.New("invalid state")
	// ErrValidation: malformed input.
	ErrValidation = errors.New("invalid input")
)

// HTTPStatus maps a domain error to its HTTP status code. Unrecognized
// errors map to 500.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrAuthenticationRequired):
		return http.StatusUnauthorized
	case errors.Is(err, ErrAuthorizationDenied):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
