//	@title			Picbed API
//	@version		1.0
//	@description	Base64 image upload service backed by an object bucket.
//
//	@host		localhost:8080
//	@BasePath	/

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/picbed/service/internal/config"
	"github.com/picbed/service/internal/metrics"
	"github.com/picbed/service/internal/storage"
	"github.com/picbed/service/internal/tracing"
	"github.com/picbed/service/internal/upload"

	_ "github.com/picbed/service/docs/swagger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, tracing.Options{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		SampleRatio: cfg.Tracing.SampleRatio,
		ServiceName: cfg.Tracing.ServiceName,
	})
	if err != nil {
		logger.Error("tracing init failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	m := metrics.New()

	backend, err := newStore(ctx, cfg.Storage)
	if err != nil {
		logger.Error("object storage init failed",
			slog.String("driver", cfg.Storage.Driver),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}
	store := storage.Instrument(backend, metrics.NewStorageMetrics(m.Registry()))

	uploads := upload.NewHandler(store, upload.Options{
		BaseURL:        cfg.PublicURL,
		MaxBodyBytes:   cfg.MaxBodyBytes,
		StrictBase64:   cfg.StrictBase64,
		SanitizeErrors: cfg.SanitizeErrors,
		VerifyContent:  cfg.VerifyContent,
		Logger:         logger.With(slog.String("component", "upload")),
		Metrics:        metrics.NewUploadMetrics(m.Registry()),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(cfg, logger, m, uploads),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			slog.String("addr", srv.Addr),
			slog.String("env", cfg.AppEnv),
			slog.String("storage", cfg.Storage.Driver),
			slog.String("public_url", cfg.PublicURL),
		)
		if cfg.SwaggerEnabled {
			logger.Info("swagger UI available", slog.String("url", "http://localhost:"+cfg.Port+"/swagger/"))
		}
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down gracefully")
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", slog.String("error", err.Error()))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("tracing shutdown failed", slog.String("error", err.Error()))
	}

	logger.Info("server stopped")
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

// newStore builds the backend named by sc.Driver.
func newStore(ctx context.Context, sc config.StorageConfig) (storage.Store, error) {
	switch sc.Driver {
	case config.DriverMinio:
		return storage.NewMinioStore(ctx, storage.MinioOptions{
			Endpoint:     sc.Endpoint,
			AccessKey:    sc.AccessKey,
			SecretKey:    sc.SecretKey,
			Bucket:       sc.Bucket,
			UseSSL:       sc.UseSSL,
			EnsureBucket: sc.EnsureBucket,
		})
	case config.DriverS3:
		return storage.NewS3Store(ctx, storage.S3Options{
			Bucket:    sc.Bucket,
			Region:    sc.Region,
			Endpoint:  sc.Endpoint,
			AccessKey: sc.AccessKey,
			SecretKey: sc.SecretKey,
		})
	case config.DriverFS:
		return storage.NewLocalFS(sc.Dir)
	case config.DriverMemory:
		return storage.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", sc.Driver)
	}
}
