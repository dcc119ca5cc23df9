// Package config loads and validates the ruler-informer configuration.
//
// Configuration comes from a single YAML file layered over built-in
// defaults; command-line flags override individual values afterwards.
// Validate reports every problem at once as ValidationErrors.
//
// # Example
//
//	ruler:
//	  url: http://ruler.monitoring.svc:8080
//	  timeout: 30s
//	kubernetes:
//	  namespace: monitoring
//	reconciler:
//	  workers: 4
//	  maxRetries: 5
//	  initialBackoff: 1s
//	  maxBackoff: 5m
//	  reconcileTimeout: 30s
//	  conflictRetries: 5
//	  mergeStrategy: replace
//	metrics:
//	  address: ":8080"
//	logging:
//	  level: info
//	  format: json
//
// Unknown keys are rejected so that typos do not silently fall back to
// defaults.
package config
