// Command shapeseekd runs the shape retrieval HTTP service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/shapeseek/shapeseek"
	"github.com/shapeseek/shapeseek/blobstore"
	minioblob "github.com/shapeseek/shapeseek/blobstore/minio"
	s3blob "github.com/shapeseek/shapeseek/blobstore/s3"
	"github.com/shapeseek/shapeseek/catalog"
	"github.com/shapeseek/shapeseek/config"
	"github.com/shapeseek/shapeseek/descriptor"
	"github.com/shapeseek/shapeseek/httpapi"
	"github.com/shapeseek/shapeseek/persistence"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "shapeseekd: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	logger, err := newLogger(cfg.Logging)
	if err != nil {
		return err
	}

	cat, err := catalog.OpenSQLite(cfg.Storage.CatalogPath)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}

	blobs, err := newBlobStore(cfg.Storage.Blobs)
	if err != nil {
		_ = cat.Close()
		return fmt.Errorf("open blob store: %w", err)
	}

	codec, err := codecByName(cfg.Index.Codec)
	if err != nil {
		_ = cat.Close()
		return err
	}

	opts := []shapeseek.Option{
		shapeseek.WithLogger(logger),
		shapeseek.WithMetricsCollector(httpapi.PrometheusCollector{}),
		shapeseek.WithSnapshotPath(cfg.Index.SnapshotPath),
		shapeseek.WithSnapshotCodec(codec),
		shapeseek.WithSearchLimit(cfg.Index.SearchLimit),
		shapeseek.WithFlushInterval(cfg.Index.FlushInterval),
	}
	if cfg.Index.ExtractorSeed != 0 {
		opts = append(opts, shapeseek.WithExtractorOptions(descriptor.WithSeed(cfg.Index.ExtractorSeed)))
	}

	manager, err := shapeseek.New(cat, blobs, opts...)
	if err != nil {
		_ = cat.Close()
		return fmt.Errorf("create manager: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := manager.Initialize(ctx); err != nil {
		_ = manager.Close()
		return fmt.Errorf("initialize: %w", err)
	}

	handler := httpapi.NewHandler(manager, func(o *httpapi.HandlerOptions) {
		o.Logger = logger
		o.MaxUploadBytes = cfg.Server.MaxUploadBytes
	})
	server := httpapi.NewServer(cfg.Server.Addr, handler)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", slog.String("addr", cfg.Server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		_ = manager.Close()
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown", slog.Any("error", err))
	}
	if err := manager.Close(); err != nil {
		return fmt.Errorf("close manager: %w", err)
	}
	return nil
}

func newLogger(cfg config.LoggingConfig) (*shapeseek.Logger, error) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, fmt.Errorf("unknown log level %q", cfg.Level)
	}

	if cfg.Format == "json" {
		return shapeseek.NewJSONLogger(level), nil
	}
	return shapeseek.NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})), nil
}

func newBlobStore(cfg config.BlobConfig) (blobstore.Store, error) {
	switch cfg.Backend {
	case "local":
		return blobstore.NewLocal(cfg.Dir)
	case "minio":
		client, err := minio.New(cfg.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
			Secure: cfg.UseSSL,
		})
		if err != nil {
			return nil, err
		}
		return minioblob.New(client, cfg.Bucket, cfg.Prefix), nil
	case "s3":
		return s3blob.NewFromDefaultConfig(context.Background(), cfg.Bucket, cfg.Prefix, cfg.Region)
	default:
		return nil, fmt.Errorf("unknown blob backend %q", cfg.Backend)
	}
}

func codecByName(name string) (persistence.Codec, error) {
	switch name {
	case "none":
		return persistence.CodecNone, nil
	case "zstd":
		return persistence.CodecZstd, nil
	case "lz4":
		return persistence.CodecLZ4, nil
	default:
		return nil, fmt.Errorf("unknown snapshot codec %q", name)
	}
}
