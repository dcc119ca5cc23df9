package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/open-metrics-mt-kit/ruler-informer/internal/app"
	"github.com/open-metrics-mt-kit/ruler-informer/internal/config"
)

var (
	serveWatchNamespace string
	serveMetricsAddress string
	serveWorkers        int
)

// serveCmd runs the informer and the dispatcher until interrupted.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Watch OpenMetricsRules and propagate their rule groups to the Ruler",
	Long: `Starts an informer on OpenMetricsRule resources and a pool of workers that
push every rule group of every tenant to the Ruler and record it back into the
cluster.

Resources already stamped with status.rulerUpdated are skipped. Deleting a
resource, or removing a group or tenant from it, removes the group from the
Ruler.

Metrics and a health check are served on --metrics-address (/metrics,
/healthz, /statuses). SIGINT and SIGTERM trigger a graceful shutdown.

Configuration:
  Values are read from --config first, then overridden by flags that are set
  explicitly. The Ruler URL has no default.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

// runServe is the main entry point for the serve command
func runServe(cmd *cobra.Command, args []string) error {
	cfg := app.NewConfig(configPath, debug, append(sharedOverrides(cmd), serveOverrides(cmd)...)...)

	application, err := app.NewApplication(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return application.Run(ctx)
}

func serveOverrides(cmd *cobra.Command) []app.Override {
	var overrides []app.Override
	flags := cmd.Flags()

	if flags.Changed("watch-namespace") {
		overrides = append(overrides, func(c *config.Config) { c.Kubernetes.Namespace = serveWatchNamespace })
	}
	if flags.Changed("metrics-address") {
		overrides = append(overrides, func(c *config.Config) { c.Metrics.Address = serveMetricsAddress })
	}
	if flags.Changed("workers") {
		overrides = append(overrides, func(c *config.Config) { c.Reconciler.Workers = serveWorkers })
	}
	return overrides
}

// init registers the serve command and its flags with the root command.
func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveWatchNamespace, "watch-namespace", "", "Namespace to watch (empty watches all namespaces)")
	serveCmd.Flags().StringVar(&serveMetricsAddress, "metrics-address", config.DefaultMetricsAddress, "Address of the metrics and health endpoint")
	serveCmd.Flags().IntVar(&serveWorkers, "workers", config.DefaultWorkers, "Number of concurrent reconcile workers")
}
