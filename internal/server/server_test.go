package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/config"
	"github.com/Ramsey-B/clover/pkg/health"
	"github.com/Ramsey-B/clover/pkg/kv"
	"github.com/Ramsey-B/clover/pkg/middleware"
	"github.com/Ramsey-B/clover/pkg/signer"
	"github.com/Ramsey-B/clover/pkg/storage/local"
)

type staticVerifier struct{}

func (staticVerifier) Verify(_ context.Context, raw string) (*middleware.UserClaims, error) {
	if raw != "good" {
		return nil, errors.New("bad token")
	}
	return &middleware.UserClaims{Sub: "user-1", Email: "user@example.com"}, nil
}

func newTestServer(t *testing.T, verifier middleware.TokenVerifier) http.Handler {
	t.Helper()

	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	store := kv.NewMemoryStore()
	objects := local.NewObjectStore(store, "test", signer.New("secret", time.Hour), "http://localhost:3000")
	backend := local.New(store, objects, local.Config{Prefix: "test"}, logger)

	checker := health.NewChecker("test")
	checker.AddCheck("store", backend.Ping, true)
	checker.SetReady(true)

	srv := New(Options{
		Config: &config.Config{
			AppName:        "clover",
			Port:           0,
			AllowOrigins:   []string{"*"},
			AllowMethods:   []string{http.MethodGet, http.MethodPost},
			MaxUploadBytes: 1024,
		},
		Logger:   logger,
		Store:    backend,
		Health:   checker,
		Files:    objects,
		Verifier: verifier,
	})
	return srv.Handler()
}

func get(handler http.Handler, target string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestOperationalRoutes(t *testing.T) {
	handler := newTestServer(t, nil)

	assert.Equal(t, http.StatusOK, get(handler, "/api/v1/health/live", nil).Code)
	assert.Equal(t, http.StatusOK, get(handler, "/api/v1/health/ready", nil).Code)

	rec := get(handler, "/api/v1/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"store"`)

	rec = get(handler, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestHeaderAuthWhenNoVerifier(t *testing.T) {
	handler := newTestServer(t, nil)

	rec := get(handler, "/api/v1/customers", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestBearerAuthentication(t *testing.T) {
	handler := newTestServer(t, staticVerifier{})

	assert.Equal(t, http.StatusUnauthorized, get(handler, "/api/v1/customers", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, get(handler, "/api/v1/customers", map[string]string{"Authorization": "Bearer bad"}).Code)
	assert.Equal(t, http.StatusOK, get(handler, "/api/v1/customers", map[string]string{"Authorization": "Bearer good"}).Code)

	assert.Equal(t, http.StatusOK, get(handler, "/api/v1/health/live", nil).Code)
}

func TestFilesBypassAuthentication(t *testing.T) {
	handler := newTestServer(t, staticVerifier{})

	rec := get(handler, "/api/v1/files/service_job/j/a.txt?token=forged", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestBodyLimit(t *testing.T) {
	handler := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/customers", strings.NewReader(`{"name":"`+strings.Repeat("a", 2048)+`"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	handler := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/customers", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
