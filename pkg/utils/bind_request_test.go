package utils

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/models"
)

func newContext(body string) echo.Context {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return echo.New().NewContext(req, httptest.NewRecorder())
}

func TestBindRequest(t *testing.T) {
	input, err := BindRequest[models.CustomerInput](newContext(`{"name":"Ravi","email":"ravi@example.com"}`))
	require.NoError(t, err)
	assert.Equal(t, "Ravi", input.Name)
}

func TestBindRequestValidates(t *testing.T) {
	_, err := BindRequest[models.CustomerInput](newContext(`{"email":"not-an-email"}`))
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
}

func TestBindRequestRejectsMalformedJSON(t *testing.T) {
	_, err := BindBody[models.CustomerInput](newContext(`{"name":`))
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
}

func TestBindBodySkipsValidation(t *testing.T) {
	input, err := BindBody[models.LeadCallInput](newContext(`{"notes":"called back"}`))
	require.NoError(t, err)
	assert.Empty(t, input.LeadID)
}
