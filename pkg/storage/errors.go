package storage

import (
	"errors"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/google/uuid"
)

// ErrConflict is returned when a versioned write keeps losing to concurrent writers.
var ErrConflict = errors.New("concurrent modification, retry the operation")

// NotFound returns the typed error for a mutation that targets a missing id.
func NotFound(entity, id string) error {
	return httperror.NewHTTPErrorf(http.StatusNotFound, "%s %s does not exist", entity, id).
		AddMetaValue("entity", entity).
		AddMetaValue("id", id)
}

// IsNotFound reports whether err is a NotFound error.
func IsNotFound(err error) bool {
	return err != nil && httperror.IsHTTPError(err) && httperror.GetStatusCode(err) == http.StatusNotFound
}

// Conflict reports ErrConflict as a 409.
func Conflict(entity string) error {
	return httperror.NewHTTPError(http.StatusConflict, ErrConflict.Error()).AddMetaValue("entity", entity)
}

// NewID returns a fresh entity id.
func NewID() string {
	return uuid.NewString()
}

// ErrClearUnsupported is returned by Clear on stores that cannot be wiped.
var ErrClearUnsupported = httperror.NewHTTPError(http.StatusNotImplemented, "this data source cannot be cleared")
