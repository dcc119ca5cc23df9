// Package v1alpha1 contains API Schema definitions for the openmetrics v1alpha1 API group.
//
// # API Group: monitoring.openmetrics-mt.io/v1alpha1
//
// ## OpenMetricsRule
//
// OpenMetricsRule declares which Prometheus rule groups apply to which tenants
// of the multi-tenant Ruler. The informer keeps the Ruler's per-tenant rule
// store and these resources in step: groups authored here are pushed to the
// Ruler, and groups propagated to the Ruler are recorded back here with
// status.rulerUpdated set.
//
// Example:
//
//	apiVersion: monitoring.openmetrics-mt.io/v1alpha1
//	kind: OpenMetricsRule
//	metadata:
//	  name: om-mt-k-ruler-src-latency-p99
//	  namespace: monitoring
//	spec:
//	  tenants: ["team-a"]
//	  description: open-metrics-multi-tenancy-kit-sourced-rule
//	  groups:
//	    - name: latency_p99
//	      rules:
//	        - alert: HighLatency
//	          expr: histogram_quantile(0.99, rate(http_request_duration_seconds_bucket[5m])) > 1
//	          for: 10m
//	status:
//	  rulerUpdated: true
//
// +kubebuilder:object:generate=true
// +groupName=monitoring.openmetrics-mt.io
package v1alpha1
