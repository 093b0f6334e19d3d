package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/time/rate"

	"github.com/vbonduro/clientes/internal/config"
	"github.com/vbonduro/clientes/internal/db"
	"github.com/vbonduro/clientes/internal/logging"
	"github.com/vbonduro/clientes/internal/metrics"
	"github.com/vbonduro/clientes/internal/photostore"
	"github.com/vbonduro/clientes/internal/photostore/local"
	s3store "github.com/vbonduro/clientes/internal/photostore/s3"
	"github.com/vbonduro/clientes/internal/service"
	"github.com/vbonduro/clientes/internal/store"
	"github.com/vbonduro/clientes/internal/web"
)

type command string

const (
	commandServe       command = "serve"
	commandMigrate     command = "migrate"
	commandHealthcheck command = "healthcheck"
)

// parseCommand returns the subcommand in args, defaulting to serve.
func parseCommand(args []string) command {
	if len(args) == 0 {
		return commandServe
	}
	switch command(args[0]) {
	case commandMigrate:
		return commandMigrate
	case commandHealthcheck:
		return commandHealthcheck
	default:
		return commandServe
	}
}

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Fatalf("failed to load .env: %v", err)
	}
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	cmd := parseCommand(os.Args[1:])
	if cmd == commandHealthcheck {
		if err := runHealthcheck(cfg.ListenAddr); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFile, cfg.LogFormat)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer cleanup()

	switch cmd {
	case commandMigrate:
		err = runMigrate(cfg, logger)
	default:
		err = runServe(cfg, logger)
	}
	if err != nil {
		logger.Error("command failed", "command", cmd, "error", err)
		cleanup()
		os.Exit(1)
	}
}

func runServe(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	photos, err := newPhotoStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize photo store: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(reg)

	customerStore := store.NewCustomerStore(database)
	customerService := service.NewCustomerService(customerStore, photos, collector, logger)
	server := web.NewServer(customerService, customerStore, web.Options{
		AllowedOrigin:  cfg.AllowedOrigin,
		MaxUploadSize:  cfg.MaxUploadSize,
		RateLimit:      rate.Limit(cfg.RateLimitRPS),
		RateBurst:      cfg.RateLimitBurst,
		Metrics:        collector,
		MetricsHandler: metrics.Handler(reg),
	}, logger)

	if err := server.ListenAndServe(ctx, cfg.ListenAddr); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

func newPhotoStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (photostore.PhotoStore, error) {
	switch cfg.PhotoBackend {
	case config.PhotoBackendS3:
		logger.Info("using s3 photo backend", "bucket", cfg.S3.Bucket, "prefix", cfg.S3.Prefix)
		return s3store.New(ctx, s3store.Config{
			Bucket:          cfg.S3.Bucket,
			Prefix:          cfg.S3.Prefix,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
		}, logger)
	default:
		logger.Info("using local photo backend", "path", cfg.PhotoPath)
		return local.NewLocalPhotoStore(cfg.PhotoPath)
	}
}

func runMigrate(cfg *config.Config, logger *slog.Logger) error {
	logger.Info("running database migrations", "driver", cfg.DBDriver)

	database, err := db.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	defer func() { _ = database.Close() }()

	version, dirty, err := db.Version(database)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	logger.Info("database migrations completed", "version", version, "dirty", dirty)
	return nil
}

func runHealthcheck(listenAddr string) error {
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(healthURL(listenAddr))
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}
	return nil
}

// healthURL turns a listen address into a URL reachable from the same host.
func healthURL(listenAddr string) string {
	host, port, err := net.SplitHostPort(listenAddr)
	if err != nil {
		host, port = "", "8080"
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port) + "/health"
}
