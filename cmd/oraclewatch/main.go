// Package main is the entry point for the Oracle Watch arbitrage monitor.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/nmoretto/oraclewatch/business/arbitrage"
	arbitrageDI "github.com/nmoretto/oraclewatch/business/arbitrage/di"
	"github.com/nmoretto/oraclewatch/business/pricing"
	pricingDomain "github.com/nmoretto/oraclewatch/business/pricing/domain"
	"github.com/nmoretto/oraclewatch/internal/apm"
	"github.com/nmoretto/oraclewatch/internal/config"
	"github.com/nmoretto/oraclewatch/internal/health"
	"github.com/nmoretto/oraclewatch/internal/logger"
	"github.com/nmoretto/oraclewatch/internal/metrics"
	"github.com/nmoretto/oraclewatch/internal/monolith"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("oraclewatch %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(os.Stderr, "received shutdown signal: %v\n", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(os.Stderr, logger.ParseLevel(cfg.App.LogLevel), cfg.App.Name, nil)
	log.Info(ctx, "starting oracle watch",
		"version", version,
		"environment", cfg.App.Environment,
	)

	var traceProvider apm.TraceProvider
	if cfg.Telemetry.Enabled {
		if cfg.Telemetry.ServiceName != "" {
			os.Setenv("OTEL_SERVICE_NAME", cfg.Telemetry.ServiceName)
		}
		if cfg.Telemetry.OTLPEndpoint != "" {
			os.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Telemetry.OTLPEndpoint)
		}

		traceProvider, err = apm.NewTraceProvider(
			cfg.Telemetry.ServiceName, traceProviderFromConfig(cfg))
		if err != nil {
			return fmt.Errorf("failed to init tracing: %w", err)
		}
		log.Info(ctx, "tracing initialized", "provider", cfg.Telemetry.TraceProvider)

		if _, err := metrics.NewMetricProvider(ctx,
			metrics.WithServiceName(cfg.Telemetry.ServiceName),
			metrics.WithProviderConfig(metrics.NewPrometheusConfig()),
		); err != nil {
			return fmt.Errorf("failed to init metrics: %w", err)
		}

		port := cfg.Telemetry.PrometheusPort
		if port == 0 {
			port = 9090
		}
		go func() {
			if err := metrics.ServePrometheusMetrics(metrics.WithPort(strconv.Itoa(port))); err != nil {
				log.Warn(ctx, "metrics server stopped", "error", err)
			}
		}()
		log.Info(ctx, "prometheus metrics server started", "port", port)
	}
	defer func() {
		if traceProvider != nil {
			_ = traceProvider.Stop()
		}
	}()

	healthServer := health.NewServer(cfg.App.HealthPort, version)
	if err := healthServer.Start(); err != nil {
		log.Warn(ctx, "failed to start health server", "error", err)
	} else {
		log.Info(ctx, "health server started", "port", cfg.App.HealthPort)
	}
	defer healthServer.Stop(ctx)

	mono, err := monolith.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create monolith: %w", err)
	}
	defer mono.Close()

	// dependency order: pricing provides the sources the engine compares
	modules := []monolith.Module{
		&pricing.Module{},
		&arbitrage.Module{},
	}

	if err := mono.RegisterModules(modules...); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}

	engine := arbitrageDI.GetEngine(mono.Services())
	healthServer.RegisterCheck("snapshots", func(_ context.Context) (bool, string) {
		for _, a := range cfg.Monitor.Assets {
			if !engine.IsSnapshotFresh(pricingDomain.Asset(a), 3*cfg.Monitor.PollInterval) {
				return false, fmt.Sprintf("no fresh snapshot for %s", a)
			}
		}
		return true, ""
	})

	if err := mono.StartModules(ctx, modules...); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}

	log.Info(ctx, "all modules started, watching for opportunities")

	<-ctx.Done()

	log.Info(ctx, "shutting down")
	if err := arbitrageDI.GetWatcher(mono.Services()).Stop(); err != nil {
		log.Error(ctx, "error stopping watcher", "error", err)
	}

	return nil
}

func traceProviderFromConfig(cfg *config.Config) apm.Provider {
	switch cfg.Telemetry.TraceProvider {
	case "zipkin":
		return apm.ZipkinProvider
	case "otlp":
		return apm.OTLPProvider
	case "console":
		return apm.ConsoleProvider
	default:
		return apm.EmptyProvider
	}
}
