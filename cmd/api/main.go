package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/IgorGrieder/encurtador-links/internal/config"
	"github.com/IgorGrieder/encurtador-links/internal/infrastructure/logger"
	"github.com/IgorGrieder/encurtador-links/internal/infrastructure/telemetry"
	"github.com/IgorGrieder/encurtador-links/internal/processing/links"
	"github.com/IgorGrieder/encurtador-links/internal/storage/backend"
	httpTransport "github.com/IgorGrieder/encurtador-links/internal/transport/http"
)

const startupTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.App.Env, cfg.App.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("name", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("env", cfg.App.Env),
		zap.String("backend", cfg.Storage.Backend),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Error("Application stopped with error", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

// run wires the service and blocks until ctx is cancelled or the listener fails.
func run(ctx context.Context, cfg *config.Config) error {
	startCtx, cancelStart := context.WithTimeout(ctx, startupTimeout)
	defer cancelStart()

	shutdownTracer := initTracing(startCtx, cfg)

	store, err := backend.Open(startCtx, cfg)
	if err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}
	defer store.Close()

	deps, err := initDependencies(startCtx, cfg)
	if err != nil {
		return fmt.Errorf("initialize dependencies: %w", err)
	}
	defer deps.Close()

	svcOpts := []links.Option{links.WithCallTimeout(cfg.Storage.Timeout)}
	if deps.publisher != nil {
		svcOpts = append(svcOpts, links.WithPublisher(deps.publisher))
	}
	linkSvc := links.NewService(store.Repo, links.NewHashCodeGenerator(cfg.Shortener.CodeLength), svcOpts...)

	var sweeper *links.Sweeper
	if cfg.Sweeper.Enabled {
		sweeper = links.NewSweeper(store.Repo, deps.sweeperOptions(cfg))
		sweeper.Start()
		logger.Info("Expiration sweeper started",
			zap.Duration("interval", cfg.Sweeper.Interval),
			zap.Bool("locked", deps.lock != nil),
		)
	}

	routerOpts := httpTransport.DefaultRouterOptions()
	if store.Pinger != nil {
		routerOpts.Pinger = store.Pinger
	}

	server := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Server.Port),
		Handler:           httpTransport.NewRouterWithOptions(cfg, linkSvc, routerOpts),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Server starting",
			zap.String("address", net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)),
			zap.String("base_url", cfg.Shortener.BaseURL),
		)
		serveErr <- server.ListenAndServe()
	}()

	var runErr error
	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		logger.Info("Shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}
	if sweeper != nil {
		if err := sweeper.Shutdown(shutdownCtx); err != nil {
			logger.Error("Sweeper shutdown error", zap.Error(err))
		}
	}
	if shutdownTracer != nil {
		if err := shutdownTracer(shutdownCtx); err != nil {
			logger.Warn("Tracer shutdown error", zap.Error(err))
		}
	}

	return runErr
}

// initTracing returns nil when tracing is disabled or the exporter cannot be built.
func initTracing(ctx context.Context, cfg *config.Config) func(context.Context) error {
	if !cfg.OTel.Enabled {
		return nil
	}

	shutdown, err := telemetry.InitTracer(ctx, telemetry.Config{
		Endpoint:    cfg.OTel.Endpoint,
		ServiceName: cfg.App.Name,
		Version:     cfg.App.Version,
		Env:         cfg.App.Env,
	})
	if err != nil {
		logger.Warn("Failed to initialize tracer, continuing without tracing", zap.Error(err))
		return nil
	}

	logger.Info("OpenTelemetry tracer initialized", zap.String("endpoint", cfg.OTel.Endpoint))
	return shutdown
}
