// Package provider builds the one storage backend selected by configuration.
package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/config"
	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/kv"
	redisclient "github.com/Ramsey-B/clover/pkg/redis"
	"github.com/Ramsey-B/clover/pkg/signer"
	"github.com/Ramsey-B/clover/pkg/storage"
	"github.com/Ramsey-B/clover/pkg/storage/local"
	"github.com/Ramsey-B/clover/pkg/storage/postgres"
	"github.com/Ramsey-B/clover/pkg/storage/remote"
)

// Provider owns the selected backend and everything it was built from.
type Provider struct {
	// Store is the observed store handed to the rest of the process.
	Store storage.Store
	// Objects holds attachment blobs for Store.
	Objects storage.ObjectStore
	// Files serves locally held blobs; nil when blobs live upstream.
	Files *local.ObjectStore
	// Redis is set when a backend keeps data in Redis.
	Redis *redisclient.Client

	source  string
	closers []func() error
	logger  ectologger.Logger
}

// New builds the backend named by cfg.DataSource. Mutations are reported to publisher when it
// is not nil.
func New(ctx context.Context, cfg *config.Config, publisher storage.Publisher, logger ectologger.Logger) (*Provider, error) {
	p := &Provider{source: cfg.DataSource, logger: logger}

	var (
		store storage.Store
		err   error
	)
	switch cfg.DataSource {
	case config.DataSourceLocal, "":
		store, err = p.local(ctx, cfg)
	case config.DataSourceRemote:
		store = p.remote(cfg)
	case config.DataSourcePostgres:
		store, err = p.postgres(ctx, cfg)
	default:
		err = fmt.Errorf("unknown DATA_SOURCE %q", cfg.DataSource)
	}
	if err != nil {
		p.closeAll()
		return nil, err
	}

	p.Store = storage.Observe(store, storage.Hooks{
		Backend:   p.source,
		Publisher: publisher,
		Logger:    logger,
	})

	logger.WithFields(map[string]any{
		"data_source":  p.source,
		"local_driver": cfg.LocalDriver,
	}).Info("Storage backend ready")
	return p, nil
}

func (p *Provider) local(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	store, err := p.keyValue(ctx, cfg, cfg.LocalDriver)
	if err != nil {
		return nil, err
	}

	files := p.objectStore(cfg, store)
	backend := local.New(store, files, local.Config{
		Prefix:           cfg.LocalKeyPrefix,
		MaxWriteAttempts: cfg.LocalMaxWriteAttempts,
	}, p.logger)
	p.closers = append(p.closers, backend.Close)
	return backend, nil
}

func (p *Provider) remote(cfg *config.Config) storage.Store {
	backend := remote.New(remote.Config{
		URL:          cfg.RemoteURL,
		AnonKey:      cfg.RemoteAnonKey,
		Bucket:       cfg.RemoteBucket,
		SignedURLTTL: cfg.SignedURLTTL,
		Timeout:      cfg.RemoteTimeout,
	}, p.logger)
	p.Objects = backend.Objects()
	p.closers = append(p.closers, backend.Close)
	return backend
}

// postgres keeps rows in the database and blobs in Redis when configured, else on disk.
func (p *Provider) postgres(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	if cfg.DatabaseMigrationsEnabled {
		migrations := database.NewMigrationService(p.logger, cfg.Migrations())
		if err := migrations.MigratePostgres(cfg.Database()); err != nil {
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	db, err := database.Open(ctx, cfg.Database(), p.logger)
	if err != nil {
		return nil, err
	}

	driver := config.LocalDriverFile
	if cfg.RedisHost != "" {
		driver = config.LocalDriverRedis
	}
	store, err := p.keyValue(ctx, cfg, driver)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	p.closers = append(p.closers, store.Close)

	backend := postgres.New(db, p.objectStore(cfg, store), p.logger)
	p.closers = append(p.closers, backend.Close)
	return backend, nil
}

func (p *Provider) keyValue(ctx context.Context, cfg *config.Config, driver string) (kv.Store, error) {
	switch driver {
	case config.LocalDriverMemory:
		return kv.NewMemoryStore(), nil
	case config.LocalDriverFile, "":
		store, err := kv.NewFileStore(cfg.LocalDataDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open data dir %s: %w", cfg.LocalDataDir, err)
		}
		return store, nil
	case config.LocalDriverRedis:
		client := redisclient.NewClient(cfg.Redis(), p.logger)
		if err := client.Connect(ctx); err != nil {
			_ = client.Close()
			return nil, err
		}
		p.Redis = client
		return kv.NewRedisStore(client), nil
	default:
		return nil, fmt.Errorf("unknown LOCAL_DRIVER %q", driver)
	}
}

func (p *Provider) objectStore(cfg *config.Config, store kv.Store) *local.ObjectStore {
	files := local.NewObjectStore(store, cfg.LocalKeyPrefix, signer.New(cfg.SigningSecret, cfg.SignedURLTTL), cfg.PublicURL)
	p.Objects = files
	p.Files = files
	return files
}

// Source names the selected backend.
func (p *Provider) Source() string {
	return p.source
}

// Ping checks the backend.
func (p *Provider) Ping(ctx context.Context) error {
	return p.Store.Ping(ctx)
}

// Close releases the backend and its connections, last opened first.
func (p *Provider) Close() error {
	err := p.closeAll()
	if err != nil {
		p.logger.WithError(err).Error("Failed to close storage backend")
	}
	return err
}

func (p *Provider) closeAll() error {
	var errs []error
	for i := len(p.closers) - 1; i >= 0; i-- {
		if err := p.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	p.closers = nil
	return errors.Join(errs...)
}
