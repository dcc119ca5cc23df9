// Package reconciler keeps the Ruler and the cluster's OpenMetricsRule
// resources in step.
//
// # Architecture
//
// The package is layered bottom-up:
//
//   - StatusPatcher: stamps status.rulerUpdated and applies a resource
//   - Engine: discovers the resources of a namespace, finds the one that
//     already holds an incoming group for the tenant (or synthesizes one),
//     merges and hands it to the StatusPatcher; conflicts restart from
//     discovery
//   - RuleGroupSyncer: one change event, i.e. push or remove on the Ruler
//     plus the Engine for upserts, classified into a ReconcileResult
//   - Manager: work queue deduplicated by tenant/namespace/group, worker
//     pool, per-request timeout, exponential backoff and terminal failure
//   - KubernetesDetector: informer on OpenMetricsRule that turns unstamped
//     resources into per-(tenant, group) change events
//
// # Usage
//
//	metrics, _ := reconciler.NewMetrics(prometheus.DefaultRegisterer)
//	engine := reconciler.NewEngine(kc, reconciler.NewStatusPatcher(kc, kc))
//	syncer := reconciler.NewRuleGroupSyncer(rulerClient, engine)
//	detector := reconciler.NewKubernetesDetector(restConfig, namespace, metrics)
//	manager := reconciler.NewManager(cfg, syncer, detector, metrics)
//	if err := manager.Start(ctx); err != nil {
//	    return fmt.Errorf("failed to start reconciliation: %w", err)
//	}
//	defer manager.Stop()
//
// # Error handling
//
// An unexpected Ruler status (anything but 202) is fatal for the event: the
// request is marked Failed and never retried, and the process keeps running.
// Transport, discovery and apply failures are retried with backoff up to
// MaxRetries.
package reconciler
