package utils

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/pkg/models"
)

// BindRequest decodes the request into T and validates it.
func BindRequest[T any](c echo.Context) (T, error) {
	v, err := BindBody[T](c)
	if err != nil {
		return v, err
	}

	if err := models.Validate(v); err != nil {
		return v, err
	}

	return v, nil
}

// BindBody decodes the request into T without validating, for payloads that are completed
// from the route before they are checked.
func BindBody[T any](c echo.Context) (T, error) {
	var v T

	if err := c.Bind(&v); err != nil {
		return v, httperror.WrapError(http.StatusBadRequest, err)
	}

	return v, nil
}
