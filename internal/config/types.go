package config

import "time"

// Config is the top-level configuration structure for ruler-informer.
type Config struct {
	Ruler      RulerConfig      `yaml:"ruler"`
	Kubernetes KubernetesConfig `yaml:"kubernetes"`
	Reconciler ReconcilerConfig `yaml:"reconciler"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// RulerConfig defines how to reach the Ruler HTTP API.
type RulerConfig struct {
	URL     string        `yaml:"url"`               // Base URL, e.g. http://ruler.monitoring:8080
	Timeout time.Duration `yaml:"timeout,omitempty"` // Per-request timeout (default: 30s)
}

// KubernetesConfig defines cluster access.
type KubernetesConfig struct {
	Namespace  string `yaml:"namespace,omitempty"`  // Namespace to watch, empty watches all namespaces
	Kubeconfig string `yaml:"kubeconfig,omitempty"` // Path to a kubeconfig, empty uses in-cluster or KUBECONFIG
}

// ReconcilerConfig tunes the dispatcher and the engine.
type ReconcilerConfig struct {
	Workers          int           `yaml:"workers,omitempty"`
	MaxRetries       int           `yaml:"maxRetries,omitempty"`
	InitialBackoff   time.Duration `yaml:"initialBackoff,omitempty"`
	MaxBackoff       time.Duration `yaml:"maxBackoff,omitempty"`
	ReconcileTimeout time.Duration `yaml:"reconcileTimeout,omitempty"`
	ConflictRetries  int           `yaml:"conflictRetries,omitempty"` // Attempts of discover-merge-apply on conflict
	MergeStrategy    string        `yaml:"mergeStrategy,omitempty"`   // "replace" (default) or "insert"
}

// MetricsConfig defines the metrics and health endpoint.
type MetricsConfig struct {
	Address string `yaml:"address,omitempty"` // Listen address, empty disables the endpoint
}

// LoggingConfig defines log output.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`  // debug, info, warn, error
	Format string `yaml:"format,omitempty"` // text or json
}
