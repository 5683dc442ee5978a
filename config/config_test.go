package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "clover", cfg.AppName)
	assert.Equal(t, DataSourceLocal, cfg.DataSource)
	assert.Equal(t, LocalDriverFile, cfg.LocalDriver)
	assert.Equal(t, "rs-car-accessories", cfg.LocalKeyPrefix)
	assert.Equal(t, time.Hour, cfg.SignedURLTTL)
	assert.Equal(t, []string{"*"}, cfg.AllowOrigins)
	assert.Equal(t, "attachments", cfg.RemoteBucket)
}

func TestLoadReadsDotEnv(t *testing.T) {
	file := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(file, []byte("DATA_SOURCE=remote\nREMOTE_URL=https://project.example.co\nREMOTE_ANON_KEY=anon\nSIGNED_URL_TTL=15m\n"), 0o600))
	t.Cleanup(func() {
		for _, key := range []string{"DATA_SOURCE", "REMOTE_URL", "REMOTE_ANON_KEY", "SIGNED_URL_TTL"} {
			_ = os.Unsetenv(key)
		}
	})

	cfg, err := Load(file)
	require.NoError(t, err)
	assert.Equal(t, DataSourceRemote, cfg.DataSource)
	assert.Equal(t, "https://project.example.co", cfg.RemoteURL)
	assert.Equal(t, 15*time.Minute, cfg.SignedURLTTL)
}

func TestLoadOverridesNumbersAndLists(t *testing.T) {
	t.Setenv("HTTP_SERVER_MAX_UPLOAD_BYTES", "2048")
	t.Setenv("DB_MIGRATION_VERSION", "3")
	t.Setenv("HTTP_SERVER_ALLOW_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, 2048, cfg.MaxUploadBytes)
	assert.Equal(t, uint(3), cfg.Migrations().Version)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowOrigins)
}

func TestLoadSigningSecret(t *testing.T) {
	t.Run("generated when unset", func(t *testing.T) {
		t.Setenv("SIGNING_SECRET", "")

		first, err := Load(filepath.Join(t.TempDir(), "missing.env"))
		require.NoError(t, err)
		second, err := Load(filepath.Join(t.TempDir(), "missing.env"))
		require.NoError(t, err)

		assert.True(t, first.SigningSecretGenerated)
		assert.Len(t, first.SigningSecret, 64)
		assert.NotEqual(t, first.SigningSecret, second.SigningSecret)
	})

	t.Run("configured value is kept", func(t *testing.T) {
		t.Setenv("SIGNING_SECRET", "s3cret")

		cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
		require.NoError(t, err)
		assert.Equal(t, "s3cret", cfg.SigningSecret)
		assert.False(t, cfg.SigningSecretGenerated)
	})
}

func TestLoadNormalizesDataSource(t *testing.T) {
	t.Setenv("DATA_SOURCE", " Local ")
	t.Setenv("LOCAL_DRIVER", "MEMORY")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, DataSourceLocal, cfg.DataSource)
	assert.Equal(t, LocalDriverMemory, cfg.LocalDriver)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{DataSource: DataSourceLocal, LocalDriver: LocalDriverMemory}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "local memory", mutate: func(c *Config) {}},
		{name: "unknown source", mutate: func(c *Config) { c.DataSource = "firebase" }, wantErr: "unknown DATA_SOURCE"},
		{name: "unknown driver", mutate: func(c *Config) { c.LocalDriver = "sqlite" }, wantErr: "unknown LOCAL_DRIVER"},
		{name: "redis driver without host", mutate: func(c *Config) { c.LocalDriver = LocalDriverRedis }, wantErr: "REDIS_HOST"},
		{name: "remote without url", mutate: func(c *Config) {
			c.DataSource = DataSourceRemote
			c.RemoteAnonKey = "anon"
		}, wantErr: "REMOTE_URL"},
		{name: "remote without key", mutate: func(c *Config) {
			c.DataSource = DataSourceRemote
			c.RemoteURL = "https://project.example.co"
		}, wantErr: "REMOTE_ANON_KEY"},
		{name: "remote", mutate: func(c *Config) {
			c.DataSource = DataSourceRemote
			c.RemoteURL = "https://project.example.co"
			c.RemoteAnonKey = "anon"
		}},
		{name: "postgres without host", mutate: func(c *Config) { c.DataSource = DataSourcePostgres }, wantErr: "DB_HOST"},
		{name: "auth without issuer", mutate: func(c *Config) { c.AuthEnabled = true }, wantErr: "AUTH_ISSUER_URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
