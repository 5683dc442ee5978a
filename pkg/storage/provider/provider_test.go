package provider

import (
	"context"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/config"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/storage"
)

type recordingPublisher struct {
	changes []storage.Change
}

func (r *recordingPublisher) Publish(_ context.Context, change storage.Change) error {
	r.changes = append(r.changes, change)
	return nil
}

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func baseConfig(t *testing.T) *config.Config {
	return &config.Config{
		DataSource:            config.DataSourceLocal,
		LocalDriver:           config.LocalDriverMemory,
		LocalDataDir:          t.TempDir(),
		LocalKeyPrefix:        "test",
		LocalMaxWriteAttempts: 3,
		SigningSecret:         "secret",
		SignedURLTTL:          time.Hour,
		PublicURL:             "http://localhost:3000",
		RemoteBucket:          "attachments",
		RemoteTimeout:         time.Second,
	}
}

func TestNewLocalMemory(t *testing.T) {
	ctx := context.Background()
	publisher := &recordingPublisher{}

	p, err := New(ctx, baseConfig(t), publisher, testLogger())
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, config.DataSourceLocal, p.Source())
	assert.NotNil(t, p.Files)
	assert.Nil(t, p.Redis)
	require.NoError(t, p.Ping(ctx))

	created, err := p.Store.Customers().Create(ctx, models.CustomerInput{Name: "Ravi"})
	require.NoError(t, err)

	require.Len(t, publisher.changes, 1)
	assert.Equal(t, storage.ActionCreated, publisher.changes[0].Action)
	assert.Equal(t, "customer", publisher.changes[0].Entity)
	assert.Equal(t, created.ID, publisher.changes[0].ID)

	_, ok := p.Store.(storage.Clearer)
	assert.True(t, ok)
}

func TestNewLocalFilePersists(t *testing.T) {
	ctx := context.Background()
	cfg := baseConfig(t)
	cfg.LocalDriver = config.LocalDriverFile

	first, err := New(ctx, cfg, nil, testLogger())
	require.NoError(t, err)
	created, err := first.Store.Products().Create(ctx, models.ProductInput{Name: "Dash cam"})
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := New(ctx, cfg, nil, testLogger())
	require.NoError(t, err)
	defer second.Close()

	got, err := second.Store.Products().Get(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Dash cam", got.Name)
}

func TestNewRemote(t *testing.T) {
	cfg := baseConfig(t)
	cfg.DataSource = config.DataSourceRemote
	cfg.RemoteURL = "http://127.0.0.1:1"
	cfg.RemoteAnonKey = "anon"

	p, err := New(context.Background(), cfg, nil, testLogger())
	require.NoError(t, err)
	defer p.Close()

	assert.Nil(t, p.Files)
	assert.NotNil(t, p.Objects)
	_, ok := p.Store.(storage.Clearer)
	assert.True(t, ok, "the observed store always offers Clear")
}

func TestNewRejectsUnknownSource(t *testing.T) {
	cfg := baseConfig(t)
	cfg.DataSource = "mongo"

	_, err := New(context.Background(), cfg, nil, testLogger())
	assert.Error(t, err)
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	cfg := baseConfig(t)
	cfg.LocalDriver = "etcd"

	_, err := New(context.Background(), cfg, nil, testLogger())
	assert.Error(t, err)
}
