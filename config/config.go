// Package config loads the daemon configuration from a YAML file and
// applies defaults for anything left unset.
package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the full daemon configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Index   IndexConfig   `yaml:"index"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr           string `yaml:"addr"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
}

// StorageConfig configures the catalog database and the model blob store.
type StorageConfig struct {
	CatalogPath string     `yaml:"catalog_path"`
	Blobs       BlobConfig `yaml:"blobs"`
}

// BlobConfig selects and configures the blob store backend. Backend is one
// of "local", "minio" or "s3".
type BlobConfig struct {
	Backend string `yaml:"backend"`

	// Local backend.
	Dir string `yaml:"dir"`

	// MinIO backend.
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`

	// Shared by the minio and s3 backends.
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`

	// S3 backend.
	Region string `yaml:"region"`
}

// IndexConfig configures snapshots and search behavior.
type IndexConfig struct {
	SnapshotPath  string        `yaml:"snapshot_path"`
	Codec         string        `yaml:"codec"`
	SearchLimit   int           `yaml:"search_limit"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	ExtractorSeed int64         `yaml:"extractor_seed"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns a configuration suitable for local development.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           ":8080",
			MaxUploadBytes: 100 << 20,
		},
		Storage: StorageConfig{
			CatalogPath: "data/catalog.db",
			Blobs: BlobConfig{
				Backend: "local",
				Dir:     "data/blobs",
			},
		},
		Index: IndexConfig{
			SnapshotPath:  "data/index.snapshot",
			Codec:         "zstd",
			SearchLimit:   20,
			FlushInterval: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a YAML configuration file, overlays it on the defaults and
// validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the daemon cannot run with.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("config: server.addr must not be empty")
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("config: server.max_upload_bytes must be positive")
	}
	if c.Storage.CatalogPath == "" {
		return fmt.Errorf("config: storage.catalog_path must not be empty")
	}

	switch c.Storage.Blobs.Backend {
	case "local":
		if c.Storage.Blobs.Dir == "" {
			return fmt.Errorf("config: storage.blobs.dir required for the local backend")
		}
	case "minio":
		if c.Storage.Blobs.Endpoint == "" {
			return fmt.Errorf("config: storage.blobs.endpoint required for the minio backend")
		}
		if c.Storage.Blobs.Bucket == "" {
			return fmt.Errorf("config: storage.blobs.bucket required for the minio backend")
		}
	case "s3":
		if c.Storage.Blobs.Bucket == "" {
			return fmt.Errorf("config: storage.blobs.bucket required for the s3 backend")
		}
	default:
		return fmt.Errorf("config: unknown blob backend %q", c.Storage.Blobs.Backend)
	}

	switch c.Index.Codec {
	case "none", "zstd", "lz4":
	default:
		return fmt.Errorf("config: unknown snapshot codec %q", c.Index.Codec)
	}
	if c.Index.SearchLimit <= 0 {
		return fmt.Errorf("config: index.search_limit must be positive")
	}
	if c.Index.FlushInterval < 0 {
		return fmt.Errorf("config: index.flush_interval must not be negative")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("config: unknown log format %q", c.Logging.Format)
	}
	return nil
}
