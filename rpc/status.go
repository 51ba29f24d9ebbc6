package rpc

import (
	"errors"
	"net/http"

	"github.com/woof-software/migrator-v2-sub003/migrate"
)

// migrateStatus maps engine failures onto HTTP status codes. Anything the
// caller could have fixed is a 4xx; settlement failures surface as 422 so
// clients can tell them apart from transport errors.
func migrateStatus(err error) int {
	switch {
	case errors.Is(err, migrate.ErrPaused):
		return http.StatusServiceUnavailable
	case errors.Is(err, migrate.ErrInvalidAdapter),
		errors.Is(err, migrate.ErrCometNotSupported):
		return http.StatusNotFound
	case errors.Is(err, migrate.ErrInvalidMigrationData),
		errors.Is(err, migrate.ErrInvalidFlashAmount):
		return http.StatusBadRequest
	default:
		return http.StatusUnprocessableEntity
	}
}

func adminStatus(err error) int {
	switch {
	case errors.Is(err, migrate.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, migrate.ErrAdapterNotAllowed),
		errors.Is(err, migrate.ErrCometNotConfigured):
		return http.StatusNotFound
	default:
		return http.StatusUnprocessableEntity
	}
}
