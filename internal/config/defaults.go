package config

import (
	"time"

	"github.com/open-metrics-mt-kit/ruler-informer/internal/rules"
)

const (
	DefaultRulerTimeout     = 30 * time.Second
	DefaultWorkers          = 2
	DefaultMaxRetries       = 5
	DefaultInitialBackoff   = time.Second
	DefaultMaxBackoff       = 5 * time.Minute
	DefaultReconcileTimeout = 30 * time.Second
	DefaultConflictRetries  = 5
	DefaultMetricsAddress   = ":8080"
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "text"
)

// GetDefaultConfig returns the default configuration. The Ruler URL has no
// default and must be configured.
func GetDefaultConfig() Config {
	return Config{
		Ruler: RulerConfig{
			Timeout: DefaultRulerTimeout,
		},
		Reconciler: ReconcilerConfig{
			Workers:          DefaultWorkers,
			MaxRetries:       DefaultMaxRetries,
			InitialBackoff:   DefaultInitialBackoff,
			MaxBackoff:       DefaultMaxBackoff,
			ReconcileTimeout: DefaultReconcileTimeout,
			ConflictRetries:  DefaultConflictRetries,
			MergeStrategy:    string(rules.MergeReplace),
		},
		Metrics: MetricsConfig{
			Address: DefaultMetricsAddress,
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
