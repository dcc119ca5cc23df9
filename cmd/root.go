package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/open-metrics-mt-kit/ruler-informer/internal/app"
	"github.com/open-metrics-mt-kit/ruler-informer/internal/config"
	"github.com/open-metrics-mt-kit/ruler-informer/internal/ruler"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	// Running the command again may succeed.
	ExitCodeError = 1
	// ExitCodeRejected indicates the Ruler rejected the request. Retrying
	// the same input will not help.
	ExitCodeRejected = 2
)

// Flags shared by every command that talks to the Ruler and the cluster.
var (
	configPath    string
	debug         bool
	rulerURL      string
	kubeconfig    string
	mergeStrategy string
	logFormat     string
)

// rootCmd represents the base command for the ruler-informer application.
var rootCmd = &cobra.Command{
	Use:   "ruler-informer",
	Short: "Keep a multi-tenant Ruler and OpenMetricsRule resources in sync",
	Long: `ruler-informer watches OpenMetricsRule resources and propagates every rule
group to the per-tenant Ruler HTTP API. The authoritative group membership is
recorded back into the OpenMetricsRule with a server-side apply that stamps
status.rulerUpdated.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
	SilenceUsage: true,
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
// This function is called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "ruler-informer version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode determines the appropriate exit code based on the error type.
// This provides semantic exit codes for scripting and automation.
func getExitCode(err error) int {
	if err == nil {
		return ExitCodeSuccess
	}
	if ruler.IsUnexpectedStatus(err) {
		return ExitCodeRejected
	}
	return ExitCodeError
}

// sharedOverrides returns the configuration overrides for the persistent
// flags the user actually set.
func sharedOverrides(cmd *cobra.Command) []app.Override {
	var overrides []app.Override
	flags := cmd.Flags()

	if flags.Changed("ruler-url") {
		overrides = append(overrides, func(c *config.Config) { c.Ruler.URL = rulerURL })
	}
	if flags.Changed("kubeconfig") {
		overrides = append(overrides, func(c *config.Config) { c.Kubernetes.Kubeconfig = kubeconfig })
	}
	if flags.Changed("merge-strategy") {
		overrides = append(overrides, func(c *config.Config) { c.Reconciler.MergeStrategy = mergeStrategy })
	}
	if flags.Changed("log-format") {
		overrides = append(overrides, func(c *config.Config) { c.Logging.Format = logFormat })
	}
	return overrides
}

// init is a special Go function that is executed when the package is initialized.
// It is used here to add subcommands and persistent flags to the root command.
func init() {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSyncCmd())
	rootCmd.AddCommand(newListCmd())

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Path to the YAML configuration file")
	flags.BoolVar(&debug, "debug", false, "Enable debug logging")
	flags.StringVar(&rulerURL, "ruler-url", "", "Base URL of the Ruler API (overrides ruler.url)")
	flags.StringVar(&kubeconfig, "kubeconfig", "", "Path to a kubeconfig file (overrides kubernetes.kubeconfig)")
	flags.StringVar(&mergeStrategy, "merge-strategy", "", "How a group is merged into an existing resource: replace or insert")
	flags.StringVar(&logFormat, "log-format", "", "Log output format: text or json")
}
