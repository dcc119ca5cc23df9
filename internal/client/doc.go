// Package client provides cluster access to OpenMetricsRule resources.
//
// KubernetesClient wraps a controller-runtime client with the scheme the
// rest of the module needs and adds the three operations reconciliation
// relies on:
//
//   - ListOpenMetricsRules: namespace-scoped discovery, in API order
//   - ApplyOpenMetricsRule: forced server-side apply with the
//     "openmetricsrule" field manager, spec and status in one body
//   - CreateEvent: a Kubernetes Event on the reconciled resource
//
// The apply body is built from scratch on every call so that fields owned by
// other managers are never claimed. When the incoming resource carries a
// resourceVersion it is sent along as a precondition, which turns a
// concurrent write into a Conflict the caller can retry.
//
// # Usage
//
//	cfg, err := client.LoadRestConfig("")
//	if err != nil {
//	    return err
//	}
//	kc, err := client.NewKubernetesClient(cfg)
//	if err != nil {
//	    return err
//	}
//	rules, err := kc.ListOpenMetricsRules(ctx, "monitoring")
//
// Tests build the client from a fake with NewKubernetesClientFromClient; the
// clienttest subpackage provides a fake that emulates server-side apply.
package client
