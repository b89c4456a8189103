package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8000", cfg.Server.Addr())
	assert.Equal(t, "ABCDEFGHIJK", cfg.Webhook.SecretKey)
	assert.Equal(t, "local", cfg.Files.Backend)
	assert.Equal(t, ".files", cfg.Files.RootPath)
	assert.Equal(t, "jvserve.db", cfg.Storage.DatabasePath)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  host: 127.0.0.1
  port: 9100
auth:
  base_url: http://auth.internal:8000
  action_api_key: file-key
files:
  backend: s3
  s3:
    bucket: agent-files
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9100", cfg.Server.Addr())
	assert.Equal(t, "http://auth.internal:8000", cfg.Auth.BaseURL)
	assert.Equal(t, "file-key", cfg.Auth.ActionAPIKey)
	assert.Equal(t, "s3", cfg.Files.Backend)
	assert.Equal(t, "agent-files", cfg.Files.S3.Bucket)
	// Untouched keys keep their defaults.
	assert.Equal(t, "ABCDEFGHIJK", cfg.Webhook.SecretKey)
}

func TestEnvOverridesWinOverYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("auth:\n  email: from-file@x.com\n"), 0o644))

	t.Setenv("JIVAS_USER", "ops@example.com")
	t.Setenv("JIVAS_PASSWORD", "hunter2")
	t.Setenv("JIVAS_WEBHOOK_SECRET_KEY", "ZXYSECRET")
	t.Setenv("JIVAS_FILE_INTERFACE", "s3")
	t.Setenv("JIVAS_S3_BUCKET_NAME", "env-bucket")
	t.Setenv("JIVAS_DATABASE_PATH", "/var/lib/jvserve/anchors.db")
	t.Setenv("JIVAS_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "ops@example.com", cfg.Auth.Email)
	assert.Equal(t, "hunter2", cfg.Auth.Password)
	assert.Equal(t, "ZXYSECRET", cfg.Webhook.SecretKey)
	assert.Equal(t, "s3", cfg.Files.Backend)
	assert.Equal(t, "env-bucket", cfg.Files.S3.Bucket)
	assert.Equal(t, "/var/lib/jvserve/anchors.db", cfg.Storage.DatabasePath)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
