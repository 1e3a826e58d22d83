package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9090"
storage:
  catalog_path: /var/lib/shapeseek/catalog.db
  blobs:
    backend: s3
    bucket: shapeseek-models
    prefix: prod/
    region: eu-central-1
index:
  codec: lz4
  flush_interval: 1m
logging:
  format: json
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, int64(100<<20), cfg.Server.MaxUploadBytes)
	assert.Equal(t, "/var/lib/shapeseek/catalog.db", cfg.Storage.CatalogPath)
	assert.Equal(t, "s3", cfg.Storage.Blobs.Backend)
	assert.Equal(t, "shapeseek-models", cfg.Storage.Blobs.Bucket)
	assert.Equal(t, "lz4", cfg.Index.Codec)
	assert.Equal(t, time.Minute, cfg.Index.FlushInterval)
	assert.Equal(t, 20, cfg.Index.SearchLimit)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoadUnknownField(t *testing.T) {
	path := writeConfig(t, "server:\n  adress: \":8080\"\n")
	_, err := Load(path)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		errMsg string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:   "empty addr",
			mutate: func(c *Config) { c.Server.Addr = "" },
			errMsg: "server.addr",
		},
		{
			name:   "unknown backend",
			mutate: func(c *Config) { c.Storage.Blobs.Backend = "ftp" },
			errMsg: "unknown blob backend",
		},
		{
			name: "minio without endpoint",
			mutate: func(c *Config) {
				c.Storage.Blobs.Backend = "minio"
				c.Storage.Blobs.Bucket = "models"
			},
			errMsg: "endpoint required",
		},
		{
			name: "s3 without bucket",
			mutate: func(c *Config) {
				c.Storage.Blobs.Backend = "s3"
			},
			errMsg: "bucket required",
		},
		{
			name:   "unknown codec",
			mutate: func(c *Config) { c.Index.Codec = "gzip" },
			errMsg: "unknown snapshot codec",
		},
		{
			name:   "zero search limit",
			mutate: func(c *Config) { c.Index.SearchLimit = 0 },
			errMsg: "search_limit",
		},
		{
			name:   "unknown log level",
			mutate: func(c *Config) { c.Logging.Level = "verbose" },
			errMsg: "unknown log level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
