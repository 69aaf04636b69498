package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/logbook/logbook-service/internal/core/domain"
)

type errorClass struct {
	target error
	status int
	label  string
}

// errorClasses maps known domain errors to HTTP codes and metric labels.
// Order matters only for errors wrapping more than one sentinel.
var errorClasses = []errorClass{
	{domain.ErrValidation, http.StatusBadRequest, "validation"},
	{domain.ErrInvalidAction, http.StatusBadRequest, "invalid_action"},
	{domain.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{domain.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated"},
	{domain.ErrAccessDenied, http.StatusForbidden, "access_denied"},
	{domain.ErrNotFound, http.StatusNotFound, "not_found"},
	{domain.ErrDuplicateAccount, http.StatusConflict, "duplicate_account"},
	{domain.ErrLockTimeout, http.StatusConflict, "busy"},
}

// ResolveError maps err to a status code, a client-safe message and a metric
// label. Unknown errors become a generic 500 so internals never leak.
func ResolveError(err error) (status int, message, label string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message), "http"
	}

	for _, ec := range errorClasses {
		if !errors.Is(err, ec.target) {
			continue
		}
		// validation messages carry the offending fields
		if ec.target == domain.ErrValidation {
			return ec.status, err.Error(), ec.label
		}
		return ec.status, ec.target.Error(), ec.label
	}

	return http.StatusInternalServerError, "internal server error", "internal"
}
