package api

import (
	"errors"
	"net/http"

	"fundtrack/internal/domain"
)

// httpStatusFromDomainError maps domain errors to HTTP status codes.
// ConcurrentModification maps to 409 like other conflicts; the caller is
// expected to re-fetch and retry rather than treat it as bad input.
func httpStatusFromDomainError(err error) int {
	var notFound *domain.NotFoundError
	var accessDenied *domain.AccessDeniedError
	var validation *domain.ValidationError
	var conflict *domain.ConflictError
	var invariant *domain.InvariantViolationError
	var concurrent *domain.ConcurrentModificationError

	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &accessDenied):
		return http.StatusForbidden
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &conflict):
		return http.StatusConflict
	case errors.As(err, &invariant):
		return http.StatusConflict
	case errors.As(err, &concurrent):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
