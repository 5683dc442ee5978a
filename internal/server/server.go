// Package server assembles the echo server that exposes the storage contract over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/Ramsey-B/clover/config"
	"github.com/Ramsey-B/clover/internal/handlers"
	"github.com/Ramsey-B/clover/pkg/health"
	"github.com/Ramsey-B/clover/pkg/middleware"
	"github.com/Ramsey-B/clover/pkg/storage"
)

const apiPrefix = "/api/v1"

// Options are the dependencies the server is built from.
type Options struct {
	Config *config.Config
	Logger ectologger.Logger
	Store  storage.Store
	Health *health.Checker

	// Files serves signed blob links; nil when blobs live elsewhere.
	Files handlers.FileStore
	// Verifier checks bearer tokens; nil trusts identity headers instead.
	Verifier middleware.TokenVerifier
}

type Server struct {
	echo   *echo.Echo
	http   *http.Server
	logger ectologger.Logger
}

func New(opts Options) *Server {
	cfg := opts.Config

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.Error(opts.Logger)

	e.Use(echomiddleware.Recover())
	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(opts.Logger))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
			middleware.HeaderUserID,
			middleware.HeaderUserEmail,
			middleware.HeaderAccessToken,
		},
		ExposeHeaders: []string{echo.HeaderXRequestID},
	}))
	e.Use(echomiddleware.BodyLimit(strconv.Itoa(cfg.MaxUploadBytes)))

	opts.Health.RegisterRoutes(e)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	if opts.Files != nil {
		// signed links carry their own token
		handlers.NewFileHandler(opts.Files).RegisterRoutes(e.Group(apiPrefix))
	}

	api := e.Group(apiPrefix)
	if opts.Verifier != nil {
		api.Use(middleware.Authentication(opts.Logger, opts.Verifier))
	} else {
		api.Use(middleware.HeaderAuth())
	}
	handlers.RegisterRoutes(api, handlers.Handlers(opts.Store, opts.Logger)...)

	return &Server{
		echo: e,
		http: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			ReadTimeout:       time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second,
			WriteTimeout:      time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second,
			IdleTimeout:       time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second,
			ReadHeaderTimeout: time.Duration(cfg.ReadHeaderTimeoutSeconds) * time.Second,
			MaxHeaderBytes:    cfg.MaxHeaderBytes,
		},
		logger: opts.Logger,
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.WithField("addr", s.http.Addr).Info("HTTP server listening")

	if err := s.echo.StartServer(s.http); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.WithContext(ctx).Info("Shutting down HTTP server")
	return s.http.Shutdown(ctx)
}
