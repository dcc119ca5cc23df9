package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/open-metrics-mt-kit/ruler-informer/internal/client"
	"github.com/open-metrics-mt-kit/ruler-informer/internal/config"
	"github.com/open-metrics-mt-kit/ruler-informer/internal/formatting"
	"github.com/open-metrics-mt-kit/ruler-informer/internal/reconciler"
	"github.com/open-metrics-mt-kit/ruler-informer/pkg/logging"
)

// newListCmd creates the command that prints OpenMetricsRules.
func newListCmd() *cobra.Command {
	var (
		namespace string
		output    string
		noColor   bool
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List OpenMetricsRules with their tenants, groups and Ruler state",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := formatting.ParseOutputFormat(output)
			if err != nil {
				return err
			}

			level := logging.LevelWarn
			if debug {
				level = logging.LevelDebug
			}
			logging.InitForCLI(level, os.Stderr)

			settings, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			for _, override := range sharedOverrides(cmd) {
				override(&settings)
			}

			restConfig, err := client.LoadRestConfig(settings.Kubernetes.Kubeconfig)
			if err != nil {
				return err
			}
			kc, err := client.NewKubernetesClient(restConfig)
			if err != nil {
				return fmt.Errorf("failed to create kubernetes client: %w", err)
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return runList(ctx, cmd.OutOrStdout(), kc, namespace, formatting.Options{Format: format, Color: !noColor})
		},
	}

	cmd.Flags().StringVarP(&namespace, "namespace", "n", "", "Namespace to list (empty lists all namespaces)")
	cmd.Flags().StringVarP(&output, "output", "o", string(formatting.FormatTable), "Output format: table, json or yaml")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored table output")

	return cmd
}

func runList(ctx context.Context, w io.Writer, discovery reconciler.ResourceDiscovery, namespace string, options formatting.Options) error {
	rules, err := discovery.ListOpenMetricsRules(ctx, namespace)
	if err != nil {
		return err
	}
	return formatting.NewFormatter(options).FormatRules(w, rules)
}
