//go:build integration

package kv

import (
	"context"
	"fmt"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	redisclient "github.com/Ramsey-B/clover/pkg/redis"
)

func TestRedisStore(t *testing.T) {
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)

	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})

	db := 0
	runStoreTests(t, func(t *testing.T) Store {
		db++
		client := redisclient.NewClient(redisclient.Config{Host: host, Port: port.Int(), DB: db}, logger)
		require.NoError(t, client.Connect(ctx), fmt.Sprintf("redis db %d", db))
		t.Cleanup(func() { _ = client.Close() })
		return NewRedisStore(client)
	})
}
