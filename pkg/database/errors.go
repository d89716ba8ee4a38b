package database

import (
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/lib/pq"
	"github.com/taxiwatch/taxiwatch-backend/pkg/errors"
)

// MapPQError converts a PostgreSQL error to an AppError with meaningful messages.
// Returns nil if the error is not a pq.Error.
func MapPQError(err error) *errors.AppError {
	var pqErr *pq.Error
	if !stderrors.As(err, &pqErr) {
		return nil
	}

	switch {
	// Unique constraint violation (23505)
	case pqErr.Code == "23505":
		return errors.Conflict("a record with these values already exists")

	// Not null violation (23502)
	case pqErr.Code == "23502":
		col := pqErr.Column
		if col == "" {
			col = "required field"
		}
		return errors.Validation(map[string]string{
			col: "must not be empty",
		})

	// Invalid JSON text (22P02) in the JSONB value column
	case pqErr.Code == "22P02":
		return errors.BadRequest("stored value is not valid JSON")

	// Undefined table (42P01): Migrate has not run
	case pqErr.Code == "42P01":
		appErr := errors.Wrap(err, "STORE_SCHEMA_MISSING", "report store schema is missing", http.StatusServiceUnavailable)
		appErr.MessageKey = "errors.store_unavailable"
		return appErr

	// Connection exceptions (class 08) and insufficient resources (class 53)
	case strings.HasPrefix(string(pqErr.Code), "08"), strings.HasPrefix(string(pqErr.Code), "53"):
		appErr := errors.Wrap(err, "STORE_UNAVAILABLE", "report store unavailable", http.StatusServiceUnavailable)
		appErr.MessageKey = "errors.store_unavailable"
		return appErr

	default:
		return nil
	}
}
