package api

import (
	"errors"
	"net/http"

	"permtier/internal/domain"
)

// httpStatusFromDomainError maps domain errors to HTTP status codes.
// Consistency conflicts surface as 422 since they describe semantically
// unprocessable reference sets rather than resource version races.
func httpStatusFromDomainError(err error) int {
	var notFound *domain.NotFoundError
	var accessDenied *domain.AccessDeniedError
	var validation *domain.ValidationError
	var conflict *domain.ConflictError

	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &accessDenied):
		return http.StatusForbidden
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &conflict):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
