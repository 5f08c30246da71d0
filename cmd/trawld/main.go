// Package main implements the trawld resource configuration daemon.
// It keeps a mutable table of named text values, loads them from
// preprocessed config files, and serves queries, mutations, and change
// events over NATS.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/sandptel/trawl/config"
	"github.com/sandptel/trawl/health"
	"github.com/sandptel/trawl/metric"
	"github.com/sandptel/trawl/natsclient"
	"github.com/sandptel/trawl/service"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "trawld"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("Daemon failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run() error {
	cliCfg, logger, shouldExit, err := initializeCLI()
	if shouldExit || err != nil {
		return err
	}

	cfg, err := initializeConfiguration(cliCfg)
	if err != nil {
		return err
	}

	if cliCfg.Validate {
		slog.Info("Configuration is valid")
		return nil
	}

	ctx := context.Background()

	metricsRegistry := metric.NewMetricsRegistry()
	monitor := health.NewMonitor()

	natsClient, err := createNATSClient(cfg, logger, metricsRegistry.CoreMetrics())
	if err != nil {
		return err
	}
	defer func() { _ = natsClient.Close(ctx) }()

	if err := connectToNATS(ctx, natsClient); err != nil {
		return err
	}

	svc, err := service.NewResourceService(cfg, natsClient,
		service.WithMetrics(metricsRegistry.CoreMetrics()),
		service.WithServiceLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("create resource service: %w", err)
	}

	return runWithSignalHandling(ctx, cfg, svc, natsClient, metricsRegistry, monitor, cliCfg.ShutdownTimeout)
}

// initializeCLI parses flags and sets up logging
func initializeCLI() (*CLIConfig, *slog.Logger, bool, error) {
	cliCfg := parseFlags()
	if err := validateFlags(cliCfg); err != nil {
		return nil, nil, false, fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil, nil, true, nil
	}

	if cliCfg.ShowHelp {
		printDetailedHelp()
		return nil, nil, true, nil
	}

	logger := setupLogger(cliCfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)

	slog.Info("Starting trawld (resource configuration daemon)",
		"version", Version,
		"build_time", BuildTime,
		"config_path", cliCfg.ConfigPath)

	return cliCfg, logger, false, nil
}

// initializeConfiguration loads configuration and folds CLI overrides in
func initializeConfiguration(cliCfg *CLIConfig) (*config.Config, error) {
	loader := config.NewLoader()
	if cliCfg.ConfigPath != "" {
		loader.AddLayer(cliCfg.ConfigPath)
	}

	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	// CLI flags win over file and environment
	if cliCfg.LoadFile != "" {
		cfg.Bootstrap.File = cliCfg.LoadFile
		cfg.Bootstrap.Merge = cliCfg.Merge
	}
	if cliCfg.CppCommand != "" {
		cfg.Preprocessor.Command = cliCfg.CppCommand
	}
	if cliCfg.NoCpp {
		cfg.Preprocessor.Disabled = true
	}
	if cliCfg.NATSURL != "" {
		cfg.NATS.URL = cliCfg.NATSURL
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// createNATSClient builds the bus client from configuration
func createNATSClient(cfg *config.Config, logger *slog.Logger, metrics *metric.Metrics) (*natsclient.Client, error) {
	// Short random suffix keeps concurrent instances distinguishable
	// in server-side connection listings
	clientName := fmt.Sprintf("%s-%s", cfg.Service.Name, uuid.NewString()[:8])

	opts := []natsclient.ClientOption{
		natsclient.WithClientName(clientName),
		natsclient.WithLogger(logger),
		natsclient.WithMaxReconnects(cfg.NATS.MaxReconnects),
		natsclient.WithReconnectCallback(metrics.RecordNATSReconnect),
		natsclient.WithHealthChangeCallback(metrics.RecordNATSStatus),
	}
	if cfg.NATS.ReconnectWait > 0 {
		opts = append(opts, natsclient.WithReconnectWait(cfg.NATS.ReconnectWait))
	}
	if cfg.NATS.Username != "" {
		opts = append(opts, natsclient.WithCredentials(cfg.NATS.Username, cfg.NATS.Password))
	}
	if cfg.NATS.Token != "" {
		opts = append(opts, natsclient.WithToken(cfg.NATS.Token))
	}
	if cfg.NATS.TLS.Enabled {
		opts = append(opts, natsclient.WithTLS(cfg.NATS.TLS.CertFile, cfg.NATS.TLS.KeyFile, cfg.NATS.TLS.CAFile))
	}

	client, err := natsclient.NewClient(cfg.NATS.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("create NATS client: %w", err)
	}
	return client, nil
}

// connectToNATS establishes the connection and waits for it to be ready
func connectToNATS(ctx context.Context, natsClient *natsclient.Client) error {
	slog.Info("Connecting to NATS")
	if err := natsClient.Connect(ctx); err != nil {
		return fmt.Errorf("connect to NATS: %w", err)
	}

	connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := natsClient.WaitForConnection(connCtx); err != nil {
		return fmt.Errorf("NATS connection timeout: %w", err)
	}

	return nil
}

// runWithSignalHandling starts everything and blocks until shutdown
func runWithSignalHandling(
	ctx context.Context,
	cfg *config.Config,
	svc *service.ResourceService,
	natsClient *natsclient.Client,
	metricsRegistry *metric.MetricsRegistry,
	monitor *health.Monitor,
	shutdownTimeout time.Duration,
) error {
	signalCtx, signalCancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer signalCancel()

	if err := svc.Start(signalCtx); err != nil {
		return fmt.Errorf("start resource service: %w", err)
	}

	group, groupCtx := errgroup.WithContext(signalCtx)

	metricsServer := startMetricsServer(group, cfg, metricsRegistry)
	healthServer := startHealthServer(groupCtx, group, cfg, svc, natsClient, monitor, metricsRegistry.CoreMetrics())

	slog.Info("trawld started",
		"subject_prefix", cfg.Service.SubjectPrefix,
		"resources", svc.Store().Len())

	<-signalCtx.Done()
	slog.Info("Received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if metricsServer != nil {
		_ = metricsServer.Stop(shutdownCtx)
	}
	if healthServer != nil {
		_ = healthServer.Stop(shutdownCtx)
	}
	if err := svc.Stop(shutdownTimeout); err != nil {
		slog.Error("Error stopping service", "error", err)
	}

	if err := group.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	slog.Info("trawld shutdown complete")
	return nil
}

// startMetricsServer launches the Prometheus endpoint if configured
func startMetricsServer(group *errgroup.Group, cfg *config.Config, registry *metric.MetricsRegistry) *metric.Server {
	if cfg.Metrics.Port == 0 {
		return nil
	}

	server := metric.NewServer(cfg.Metrics.Port, cfg.Metrics.Path, registry)
	group.Go(server.Start)
	slog.Info("Metrics endpoint started", "address", server.Address(), "path", cfg.Metrics.Path)
	return server
}

// startHealthServer launches the health endpoint and the loop feeding it
func startHealthServer(
	ctx context.Context,
	group *errgroup.Group,
	cfg *config.Config,
	svc *service.ResourceService,
	natsClient *natsclient.Client,
	monitor *health.Monitor,
	metrics *metric.Metrics,
) *health.Server {
	if cfg.Health.Port == 0 {
		return nil
	}

	server := health.NewServer(cfg.Health.Port, appName, monitor)
	group.Go(server.Start)

	group.Go(func() error {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				monitor.Update("service", svc.Health())
				if natsClient.IsHealthy() {
					monitor.UpdateHealthy("bus", "connected")
					if rtt, err := natsClient.RTT(); err == nil {
						metrics.RecordNATSRTT(rtt)
					}
				} else {
					monitor.UpdateUnhealthy("bus", "not connected")
				}
			}
		}
	})

	slog.Info("Health endpoint started", "port", cfg.Health.Port)
	return server
}
