package app

import (
	"context"
	"fmt"
	"os"

	"github.com/open-metrics-mt-kit/ruler-informer/internal/client"
	"github.com/open-metrics-mt-kit/ruler-informer/internal/config"
	"github.com/open-metrics-mt-kit/ruler-informer/internal/reconciler"
	"github.com/open-metrics-mt-kit/ruler-informer/pkg/logging"
)

// Application bootstraps and runs ruler-informer.
//
// Initialization happens in two phases:
//  1. Bootstrap: load and validate configuration, initialize logging,
//     connect to the cluster and build the services
//  2. Execution: either serve (informer, dispatcher and metrics endpoint)
//     or sync a single rule group
//
// Example usage:
//
//	cfg := app.NewConfig("/etc/ruler-informer/config.yaml", false)
//	application, err := app.NewApplication(cfg)
//	if err != nil {
//	    return fmt.Errorf("failed to create application: %w", err)
//	}
//	return application.Run(ctx)
type Application struct {
	config   *Config
	services *Services
}

// NewApplication creates and initializes a new application instance.
//
// It returns an error if the configuration is invalid or the cluster is not
// reachable. The OpenMetricsRule CRD must be installed.
func NewApplication(cfg *Config) (*Application, error) {
	// Bootstrap logging until the configured level is known
	bootLevel := logging.LevelInfo
	if cfg.Debug {
		bootLevel = logging.LevelDebug
	}
	logging.InitForCLI(bootLevel, os.Stderr)

	settings, err := loadSettings(cfg)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to load configuration")
		return nil, err
	}
	cfg.Settings = settings

	level, _ := logging.ParseLevel(settings.Logging.Level)
	logging.Init(level, logging.Format(settings.Logging.Format), os.Stderr)

	restConfig, err := client.LoadRestConfig(settings.Kubernetes.Kubeconfig)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to load Kubernetes configuration")
		return nil, err
	}

	kc, err := client.NewKubernetesClient(restConfig)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to connect to the cluster")
		return nil, fmt.Errorf("failed to create kubernetes client: %w", err)
	}

	services, err := InitializeServices(settings, restConfig, kc)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to initialize services")
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return &Application{
		config:   cfg,
		services: services,
	}, nil
}

// loadSettings loads the configuration file, applies the overrides and
// validates the result.
func loadSettings(cfg *Config) (*config.Config, error) {
	settings, err := config.LoadConfig(cfg.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	for _, override := range cfg.Overrides {
		override(&settings)
	}
	if cfg.Debug {
		settings.Logging.Level = logging.LevelDebug.String()
	}

	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &settings, nil
}

// Run serves until ctx is cancelled or SIGINT/SIGTERM is received.
func (a *Application) Run(ctx context.Context) error {
	return runServer(ctx, a.config.Settings.Metrics.Address, a.services)
}

// Sync propagates a single rule group change and returns once it is done.
func (a *Application) Sync(ctx context.Context, req reconciler.ReconcileRequest) error {
	return SyncOnce(ctx, a.services.Syncer, req)
}
