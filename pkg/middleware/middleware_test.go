package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appcontext "github.com/Ramsey-B/clover/pkg/context"
)

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

type identity struct {
	RequestID   string `json:"request_id"`
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	AccessToken string `json:"access_token"`
}

func whoAmI(c echo.Context) error {
	ctx := c.Request().Context()
	return c.JSON(http.StatusOK, identity{
		RequestID:   appcontext.GetRequestID(ctx),
		UserID:      appcontext.GetUserID(ctx),
		Email:       appcontext.GetEmail(ctx),
		AccessToken: appcontext.GetAccessToken(ctx),
	})
}

func newEcho(mw ...echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = Error(testLogger())
	e.Use(Context())
	e.Use(mw...)
	e.GET("/me", whoAmI)
	return e
}

func serve(e *echo.Echo, req *http.Request) (*httptest.ResponseRecorder, identity) {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	var got identity
	_ = json.Unmarshal(rec.Body.Bytes(), &got)
	return rec, got
}

func TestContextAssignsRequestID(t *testing.T) {
	e := newEcho()

	rec, got := serve(e, httptest.NewRequest(http.MethodGet, "/me", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, got.RequestID)
	assert.Equal(t, got.RequestID, rec.Header().Get(echo.HeaderXRequestID))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(echo.HeaderXRequestID, "req-42")
	_, got = serve(e, req)
	assert.Equal(t, "req-42", got.RequestID)
}

func TestHeaderAuth(t *testing.T) {
	e := newEcho(HeaderAuth())

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(HeaderUserID, "user-1")
	req.Header.Set(HeaderUserEmail, "owner@example.com")
	req.Header.Set(echo.HeaderAuthorization, "Bearer abc")
	_, got := serve(e, req)

	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, "owner@example.com", got.Email)
	assert.Equal(t, "abc", got.AccessToken)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(HeaderAccessToken, "explicit")
	req.Header.Set(echo.HeaderAuthorization, "Bearer ignored")
	_, got = serve(e, req)
	assert.Equal(t, "explicit", got.AccessToken)
}

type fakeVerifier struct {
	claims *UserClaims
	err    error
}

func (f fakeVerifier) Verify(_ context.Context, raw string) (*UserClaims, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.claims, nil
}

func TestAuthentication(t *testing.T) {
	e := newEcho(Authentication(testLogger(), fakeVerifier{claims: &UserClaims{Sub: "sub-1", Email: "admin@example.com"}}))

	rec, _ := serve(e, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer good")
	rec, got := serve(e, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "sub-1", got.UserID)
	assert.Equal(t, "admin@example.com", got.Email)
	assert.Equal(t, "good", got.AccessToken)
}

func TestAuthenticationRejectsInvalidToken(t *testing.T) {
	e := newEcho(Authentication(testLogger(), fakeVerifier{err: errors.New("expired")}))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer bad")
	rec, _ := serve(e, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "invalid token", body.Message)
}

func TestErrorRendersHTTPErrors(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = Error(testLogger())
	e.Use(Context())
	e.GET("/missing", func(c echo.Context) error {
		return httperror.NewHTTPError(http.StatusNotFound, "customer not found").AddMetaValue("id", "c1")
	})
	e.GET("/boom", func(c echo.Context) error {
		return errors.New("database exploded")
	})

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	req.Header.Set(echo.HeaderXRequestID, "req-7")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "req-7", body.RequestID)
	assert.Equal(t, "c1", body.Meta["id"])

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Internal Server Error", body.Message)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
