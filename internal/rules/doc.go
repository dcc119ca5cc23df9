// Package rules holds the pure helpers the reconciler uses on rule groups:
// locating a group by name, deriving the name of a synthesized
// OpenMetricsRule, and merging an incoming group into an existing sequence.
package rules
