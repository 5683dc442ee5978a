package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/config"
	"github.com/Ramsey-B/clover/internal/server"
	"github.com/Ramsey-B/clover/pkg/events"
	"github.com/Ramsey-B/clover/pkg/health"
	"github.com/Ramsey-B/clover/pkg/kafka"
	"github.com/Ramsey-B/clover/pkg/logging"
	"github.com/Ramsey-B/clover/pkg/middleware"
	"github.com/Ramsey-B/clover/pkg/seed"
	"github.com/Ramsey-B/clover/pkg/startup"
	"github.com/Ramsey-B/clover/pkg/storage"
	"github.com/Ramsey-B/clover/pkg/storage/provider"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

var version = "dev"

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "clover: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, flush, err := logging.New(logging.Config{
		AppName: cfg.AppName,
		Level:   cfg.LogLevel,
		Pretty:  cfg.PrettyLogs,
	})
	if err != nil {
		return err
	}
	defer flush()

	shutdownTracing, err := tracing.Setup(ctx, cfg.AppName, cfg.OTLP())
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}

	if cfg.SigningSecretGenerated {
		logger.Warn("SIGNING_SECRET is not set, signed file URLs will not survive a restart")
	}

	app := &application{cfg: cfg, logger: logger, checker: health.NewChecker(version)}

	boot := startup.NewStartup(logger, cfg.StartupMaxAttempts)
	boot.AddDependency(&startup.Dependency{
		Name:    "events",
		OnStart: app.startEvents,
		OnStop:  app.stopEvents,
	})
	boot.AddDependency(&startup.Dependency{
		Name:     "store",
		Requires: []string{"events"},
		OnStart:  app.startStore,
		OnStop:   app.stopStore,
	})
	boot.AddDependency(&startup.Dependency{
		Name:     "seed",
		Requires: []string{"store"},
		OnStart:  app.seed,
	})
	boot.AddDependency(&startup.Dependency{
		Name:     "server",
		Requires: []string{"store", "seed"},
		OnStart:  app.startServer,
		OnStop:   app.stopServer,
	})

	if err := boot.Start(ctx); err != nil {
		logger.WithError(err).Error("Failed to start clover")
		stopAll(boot, shutdownTracing, logger)
		return err
	}

	app.checker.SetReady(true)
	logger.WithFields(map[string]any{
		"version":     version,
		"data_source": app.provider.Source(),
		"port":        cfg.Port,
	}).Info("clover started")

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-app.serverErr:
		if err != nil {
			logger.WithError(err).Error("HTTP server stopped unexpectedly")
		}
	}

	app.checker.SetReady(false)
	stopAll(boot, shutdownTracing, logger)
	return nil
}

func stopAll(boot *startup.Startup, shutdownTracing func(context.Context) error, logger ectologger.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := boot.Stop(ctx); err != nil {
		logger.WithError(err).Error("Failed to stop dependencies")
	}
	if err := shutdownTracing(ctx); err != nil {
		logger.WithError(err).Warn("Failed to flush traces")
	}
}

// application holds the handles built during startup.
type application struct {
	cfg     *config.Config
	logger  ectologger.Logger
	checker *health.Checker

	producer  *kafka.Producer
	publisher storage.Publisher
	provider  *provider.Provider
	server    *server.Server
	serverErr chan error
}

func (a *application) startEvents(context.Context) error {
	if !a.cfg.KafkaEnabled {
		a.logger.Info("Change events disabled")
		return nil
	}

	producer, err := kafka.NewProducer(a.cfg.Kafka(), a.logger)
	if err != nil {
		return err
	}
	a.producer = producer
	a.publisher = events.NewPublisher(producer, a.logger)
	a.checker.AddCheck("kafka", producer.Ping, false)
	return nil
}

func (a *application) stopEvents(context.Context) error {
	if a.producer == nil {
		return nil
	}
	return a.producer.Close()
}

func (a *application) startStore(ctx context.Context) error {
	p, err := provider.New(ctx, a.cfg, a.publisher, a.logger)
	if err != nil {
		return err
	}
	if err := p.Ping(ctx); err != nil {
		_ = p.Close()
		return fmt.Errorf("storage backend is unreachable: %w", err)
	}

	a.provider = p
	a.checker.AddCheck("store", p.Ping, true)
	if p.Redis != nil {
		a.checker.AddCheck("redis", p.Redis.Ping, true)
	}
	return nil
}

func (a *application) stopStore(context.Context) error {
	if a.provider == nil {
		return nil
	}
	return a.provider.Close()
}

func (a *application) seed(ctx context.Context) error {
	if !a.cfg.SeedOnStart {
		return nil
	}
	_, err := seed.NewSeeder(a.provider.Store, a.logger).Seed(ctx)
	return err
}

func (a *application) startServer(ctx context.Context) error {
	opts := server.Options{
		Config: a.cfg,
		Logger: a.logger,
		Store:  a.provider.Store,
		Health: a.checker,
	}
	if a.provider.Files != nil {
		opts.Files = a.provider.Files
	}
	if a.cfg.AuthEnabled {
		verifier, err := middleware.NewOIDCVerifier(ctx, a.cfg.AuthIssuerURL, a.cfg.AuthClientID)
		if err != nil {
			return err
		}
		opts.Verifier = verifier
	}

	a.server = server.New(opts)
	a.serverErr = make(chan error, 1)
	go func() {
		a.serverErr <- a.server.Start()
	}()
	return nil
}

func (a *application) stopServer(ctx context.Context) error {
	if a.server == nil {
		return nil
	}
	return a.server.Shutdown(ctx)
}
