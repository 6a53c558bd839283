// Package main is the entry point for the Nexus node dashboard.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/fd1az/nexus-dashboard/business/blockchain"
	blockchainDI "github.com/fd1az/nexus-dashboard/business/blockchain/di"
	"github.com/fd1az/nexus-dashboard/business/realtime"
	"github.com/fd1az/nexus-dashboard/business/realtime/app"
	realtimeDI "github.com/fd1az/nexus-dashboard/business/realtime/di"
	"github.com/fd1az/nexus-dashboard/business/realtime/infra/console"
	"github.com/fd1az/nexus-dashboard/internal/apm"
	"github.com/fd1az/nexus-dashboard/internal/config"
	"github.com/fd1az/nexus-dashboard/internal/health"
	"github.com/fd1az/nexus-dashboard/internal/logger"
	"github.com/fd1az/nexus-dashboard/internal/metrics"
	"github.com/fd1az/nexus-dashboard/internal/monolith"
	"github.com/fd1az/nexus-dashboard/pkg/ui"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	// Parse flags
	configPath := flag.String("config", "", "Path to configuration file")
	cliMode := flag.Bool("cli", false, "Run in CLI mode with logs (no TUI)")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("nexus-dashboard %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	// TUI is the default, CLI is for debugging
	tuiMode := !*cliMode

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		if !tuiMode {
			fmt.Fprintf(os.Stderr, "received shutdown signal: %v\n", sig)
		}
		cancel()
	}()

	if err := run(ctx, *configPath, tuiMode); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, tuiMode bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.App.TUIMode = tuiMode

	// Only log to stderr in CLI mode
	logLevel := logger.ParseLevel(cfg.App.LogLevel)
	var log *logger.Logger
	if tuiMode {
		log = logger.New(io.Discard, logLevel, cfg.App.Name, nil)
	} else {
		log = logger.New(os.Stderr, logLevel, cfg.App.Name, nil)
		log.Info(ctx, "starting Nexus dashboard",
			"version", version,
			"environment", cfg.App.Environment,
			"ws_url", cfg.Node.WebSocketURL,
		)
	}

	traceProvider, err := setupTelemetry(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer traceProvider.Stop()

	var healthServer *health.Server
	if cfg.Health.Enabled {
		healthServer = health.NewServer(cfg.Health.Port, version, log)
		if err := healthServer.Start(); err != nil {
			log.Warn(ctx, "failed to start health server", "error", err)
		} else {
			log.Info(ctx, "health server started", "port", cfg.Health.Port)
		}
		defer healthServer.Stop(context.Background())
	}

	mono, err := monolith.New(cfg, log, healthServer)
	if err != nil {
		return fmt.Errorf("failed to create monolith: %w", err)
	}
	defer mono.Close()

	// Define modules in dependency order
	modules := []monolith.Module{
		&blockchain.Module{}, // Subscribes the store before the client connects
		&realtime.Module{},   // Connects to the node
	}

	if err := mono.RegisterModules(modules...); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}

	client := realtimeDI.GetClient(mono.Services())
	feed := realtimeDI.GetNotifications(mono.Services())
	mono.OnClose(client.Close)

	if tuiMode {
		startFunc := func() error {
			if err := mono.StartModules(ctx, modules...); err != nil {
				return fmt.Errorf("failed to start modules: %w", err)
			}
			return nil
		}
		store := blockchainDI.GetStore(mono.Services())
		model := ui.New(client, store, cfg.Realtime.MaxReconnectAttempts)
		return runTUI(ctx, model, feed, startFunc)
	}

	if err := mono.StartModules(ctx, modules...); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}
	return runCLI(ctx, client, feed, log)
}

func setupTelemetry(ctx context.Context, cfg *config.Config, log *logger.Logger) (apm.TraceProvider, error) {
	if !cfg.Telemetry.Enabled {
		return apm.NewTraceProvider(cfg.Telemetry.ServiceName, apm.WithProvider(apm.EmptyProvider, apm.ExporterConfig{}, log))
	}

	exporter := apm.ExporterConfig{
		Endpoint: cfg.Telemetry.OTLPEndpoint,
		Headers:  cfg.Telemetry.OTLPHeaders,
	}
	provider := apm.ParseProvider(cfg.Telemetry.TraceProvider)
	traceProvider, err := apm.NewTraceProvider(cfg.Telemetry.ServiceName, apm.WithProvider(provider, exporter, log))
	if err != nil {
		return nil, fmt.Errorf("failed to init tracing: %w", err)
	}
	log.Info(ctx, "tracing initialized", "provider", provider, "endpoint", cfg.Telemetry.OTLPEndpoint)

	metricOpts := []metrics.OptionFn{
		metrics.WithServiceName(cfg.Telemetry.ServiceName),
		metrics.WithProviderConfig(metrics.ProviderCfg{Provider: metrics.PrometheusProvider}),
	}
	if cfg.Telemetry.OTLPEndpoint != "" {
		metricOpts = append(metricOpts, metrics.WithProviderConfig(
			metrics.NewOtelCollectorConfig(cfg.Telemetry.OTLPEndpoint, nil, true),
		))
	}
	if _, err := metrics.NewMetricProvider(metricOpts...); err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	port := cfg.Telemetry.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go metrics.ServePrometheusMetrics(ctx, log, metrics.WithPort(strconv.Itoa(port)))

	return traceProvider, nil
}

func runCLI(ctx context.Context, client *app.Client, feed *app.NotificationFeed, log *logger.Logger) error {
	log.Info(ctx, "all modules started, streaming node events")

	reporter := console.NewReporter(10 * time.Second)
	if err := reporter.Run(ctx, feed, client); err != nil {
		return fmt.Errorf("reporter stopped: %w", err)
	}

	log.Info(ctx, "shutting down")
	return nil
}

func runTUI(ctx context.Context, model ui.Model, feed *app.NotificationFeed, startFunc func() error) error {
	// Quitting the TUI stops the modules too
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer model.Close()

	startSignal := make(chan struct{}, 1)
	ui.OnStartModules = func() {
		select {
		case startSignal <- struct{}{}:
		default:
		}
	}

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	ui.Program = p

	// Forward client notifications into the program
	notes := make(chan app.Notification, 32)
	sub := feed.Subscribe(notes)
	defer sub.Unsubscribe()
	go func() {
		for {
			select {
			case n := <-notes:
				ui.Send(ui.NotificationMsg{Notification: n})
			case <-sub.Err():
				return
			}
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		// Wait for welcome screen to complete
		select {
		case <-startSignal:
		case <-ctx.Done():
			errCh <- nil
			return
		}

		if err := startFunc(); err != nil {
			ui.Send(ui.ErrorMsg{Error: err})
			errCh <- err
			return
		}
		ui.Send(ui.ModulesStartedMsg{})
		errCh <- nil
	}()

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}
