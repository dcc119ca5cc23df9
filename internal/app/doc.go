// Package app provides application bootstrap and lifecycle management for
// ruler-informer.
//
// # Components
//
//   - Bootstrap (bootstrap.go): loads the YAML configuration, applies
//     command line overrides, validates, initializes logging and connects
//     to the cluster.
//   - Services (services.go): wires the Ruler client, the reconciliation
//     engine, the syncer, the OpenMetricsRule informer and the dispatcher,
//     all sharing one Prometheus registry.
//   - Server (server.go): runs the dispatcher next to an HTTP endpoint and
//     shuts both down on SIGINT or SIGTERM.
//
// # HTTP Endpoint
//
// The server listens on metrics.address and exposes:
//
//   - /metrics: Prometheus metrics, including Go and process collectors
//   - /healthz: 200 while the dispatcher runs, 503 otherwise
//   - /statuses: JSON list of the reconciliation status of every rule group
//
// # One-shot Sync
//
// Application.Sync pushes or removes a single rule group and, for upserts,
// merges it into the cluster, without the dispatcher's retries. Errors say
// whether a retry can help.
//
// # Usage Example
//
//	cfg := app.NewConfig(configPath, debug, func(c *config.Config) {
//	    c.Kubernetes.Namespace = "monitoring"
//	})
//	application, err := app.NewApplication(cfg)
//	if err != nil {
//	    return err
//	}
//	return application.Run(ctx)
package app
