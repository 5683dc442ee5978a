package database

import (
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigDSN(t *testing.T) {
	dsn := Config{Host: "db", Port: "5432", UserName: "clover", Password: "p@ss word", Name: "clover"}.DSN()

	parsed, err := url.Parse(dsn)
	require.NoError(t, err)
	assert.Equal(t, "postgres", parsed.Scheme)
	assert.Equal(t, "db:5432", parsed.Host)
	assert.Equal(t, "/clover", parsed.Path)
	password, _ := parsed.User.Password()
	assert.Equal(t, "p@ss word", password)
	assert.Equal(t, "disable", parsed.Query().Get("sslmode"))
	assert.Equal(t, "UTC", parsed.Query().Get("timezone"))

	dsn = Config{Host: "db", Port: "5432", Name: "clover", SSLMode: "require"}.DSN()
	parsed, err = url.Parse(dsn)
	require.NoError(t, err)
	assert.Equal(t, "require", parsed.Query().Get("sslmode"))
}

func TestGetLatestVersion(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"000001_init.up.sql", "000001_init.down.sql", "000003_more.up.sql", "000002_other.up.sql", "README.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("--"), 0o600))
	}

	latest, err := getLatestVersion(dir)
	require.NoError(t, err)
	assert.Equal(t, 3, latest)

	_, err = getLatestVersion(t.TempDir())
	assert.Error(t, err)
}

func TestSelectBuilderUsesPostgresPlaceholders(t *testing.T) {
	sb := NewSelectBuilder()
	sb.Select("id").From("customers").Where(sb.Equal("id", "c-1"), sb.In("status", Args([]string{"a", "b"})...))

	query, args := sb.Build()
	assert.Equal(t, "SELECT id FROM customers WHERE id = $1 AND status IN ($2, $3)", query)
	assert.Equal(t, []any{"c-1", "a", "b"}, args)
}
