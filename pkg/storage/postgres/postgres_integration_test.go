//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	appcontext "github.com/Ramsey-B/clover/pkg/context"
	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/kv"
	"github.com/Ramsey-B/clover/pkg/signer"
	"github.com/Ramsey-B/clover/pkg/storage"
	"github.com/Ramsey-B/clover/pkg/storage/local"
	"github.com/Ramsey-B/clover/pkg/storage/storagetest"
)

var truncate = `TRUNCATE customers, leads, lead_calls, call_followups, service_jobs, service_job_comments,
	requirements, requirement_comments, quotes, quote_items, products, installers, invoices, payments,
	attachments, admin_allowlist`

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func startPostgres(t *testing.T) database.Config {
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:15-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "clover",
				"POSTGRES_PASSWORD": "clover",
				"POSTGRES_DB":       "clover",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	cfg := database.Config{
		Host:     host,
		Port:     port.Port(),
		UserName: "clover",
		Password: "clover",
		Name:     "clover",
	}

	migrations := database.NewMigrationService(testLogger(), &database.MigrationConfig{MigrationFolderPath: "../../../db/pg"})
	require.NoError(t, migrations.MigratePostgres(cfg))
	return cfg
}

func TestBackend(t *testing.T) {
	ctx := context.Background()
	cfg := startPostgres(t)

	db, err := database.Open(ctx, cfg, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	newStore := func(t *testing.T) storage.Store {
		_, err := db.ExecContext(ctx, truncate)
		require.NoError(t, err)

		objects := local.NewObjectStore(kv.NewMemoryStore(), "test", signer.New("test-secret", time.Hour), "http://localhost:8080")
		return New(db, objects, testLogger())
	}

	storagetest.Run(t, newStore, storagetest.Options{})

	t.Run("admin allowlist", func(t *testing.T) {
		backend := newStore(t).(*Backend)
		_, err := db.ExecContext(ctx, "INSERT INTO admin_allowlist (email) VALUES ($1)", "owner@example.com")
		require.NoError(t, err)

		admin, err := backend.IsAdmin(appcontext.SetEmail(ctx, "Owner@Example.com"))
		require.NoError(t, err)
		assert.True(t, admin)

		admin, err = backend.IsAdmin(appcontext.SetEmail(ctx, "someone@example.com"))
		require.NoError(t, err)
		assert.False(t, admin)

		admin, err = backend.IsAdmin(ctx)
		require.NoError(t, err)
		assert.False(t, admin)
	})

	t.Run("migrations are idempotent", func(t *testing.T) {
		migrations := database.NewMigrationService(testLogger(), &database.MigrationConfig{MigrationFolderPath: "../../../db/pg"})
		assert.NoError(t, migrations.MigratePostgres(cfg))
	})
}
