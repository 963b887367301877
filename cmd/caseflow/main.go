package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"golang.org/x/time/rate"

	"github.com/rom8726/caseflow"
	"github.com/rom8726/caseflow/api"
	"github.com/rom8726/caseflow/plugins/api/cleanup"
	"github.com/rom8726/caseflow/plugins/engine/audit"
	"github.com/rom8726/caseflow/plugins/engine/metrics"
	"github.com/rom8726/caseflow/plugins/engine/notifications"
	rate_limiter "github.com/rom8726/caseflow/plugins/engine/rate-limiter"
	"github.com/rom8726/caseflow/plugins/engine/telemetry"
	"github.com/rom8726/caseflow/plugins/engine/validate"
)

func main() {
	configPath := flag.String("config", os.Getenv("CASEFLOW_CONFIG"), "path to YAML config file")
	flag.Parse()

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Log)
	log.Logger = logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("caseflow stopped with error")
	}
}

func newLogger(cfg LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.Pretty {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stderr)
	}

	return logger.Level(level).With().Timestamp().Str("service", "caseflow").Logger()
}

func run(ctx context.Context, cfg *Config, logger zerolog.Logger) error {
	store, closeStore, err := openStore(ctx, cfg.Store, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer closeStore()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	pluginManager, shutdownTracing, err := buildPlugins(ctx, cfg, registry, logger)
	if err != nil {
		return err
	}
	defer shutdownTracing()

	engine := caseflow.NewEngine(
		caseflow.WithEngineLogger(logger),
		caseflow.WithEngineStore(store),
		caseflow.WithEnginePluginManager(pluginManager),
		caseflow.WithEngineMaxParallelSteps(cfg.Engine.MaxParallelSteps),
		caseflow.WithEngineRetention(cfg.Engine.Retention),
		caseflow.WithEngineCleanupInterval(cfg.Engine.CleanupInterval),
	)

	registerBuiltinHandlers(engine)

	if cfg.Templates.Path != "" {
		templates, err := caseflow.LoadTemplatesFile(cfg.Templates.Path)
		if err != nil {
			return err
		}
		for _, tpl := range templates {
			if err := engine.RegisterTemplate(tpl); err != nil {
				return err
			}
		}
		logger.Info().Int("templates", len(templates)).Str("path", cfg.Templates.Path).Msg("templates loaded")
	}

	server := api.NewServer(engine,
		api.WithLogger(logger),
		api.WithHistory(store),
		api.WithMonitor(caseflow.NewStoreMonitor(store)),
		api.WithPlugins(cleanup.New(store)),
	)

	mux := server.Mux()
	mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.Server.Addr).Msg("http server started")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			_ = engine.Shutdown(cfg.Server.ShutdownTimeout)

			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http server shutdown")
	}

	if err := engine.Shutdown(cfg.Server.ShutdownTimeout); err != nil {
		logger.Error().Err(err).Msg("engine shutdown")
	}

	logger.Info().Msg("caseflow stopped")

	return nil
}

// buildPlugins wires the engine plugins. The returned func flushes traces.
func buildPlugins(
	ctx context.Context,
	cfg *Config,
	registry prometheus.Registerer,
	logger zerolog.Logger,
) (*caseflow.PluginManager, func(), error) {
	pluginManager := caseflow.NewPluginManager()

	pluginManager.Register(metrics.New(metrics.NewPrometheusCollector(registry)))
	pluginManager.Register(audit.New(audit.NewZerologWriter(logger)))
	pluginManager.Register(notifications.New(notifications.NewLogChannel(logger)))

	validation := validate.New()
	validation.AddRule("sleep", validate.RequireParams("duration"))
	pluginManager.Register(validation)

	if cfg.RateLimit.PerSecond > 0 {
		var opts []rate_limiter.Option
		if cfg.RateLimit.Wait {
			opts = append(opts, rate_limiter.WithWait())
		}
		pluginManager.Register(rate_limiter.New(rate.Limit(cfg.RateLimit.PerSecond), cfg.RateLimit.Burst, opts...))
	}

	if cfg.Telemetry.Endpoint == "" {
		return pluginManager, func() {}, nil
	}

	exporterOpts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Telemetry.Endpoint)}
	if cfg.Telemetry.Insecure {
		exporterOpts = append(exporterOpts, otlptracehttp.WithInsecure())
	}

	exporter, err := otlptracehttp.New(ctx, exporterOpts...)
	if err != nil {
		return nil, nil, fmt.Errorf("create trace exporter: %w", err)
	}

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", cfg.Telemetry.ServiceName),
		)),
	)
	otel.SetTracerProvider(tracerProvider)

	pluginManager.Register(telemetry.New(tracerProvider.Tracer("caseflow")))

	shutdown := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("tracer provider shutdown")
		}
	}

	return pluginManager, shutdown, nil
}
