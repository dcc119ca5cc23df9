package rules

import "strings"

const (
	// ResourceNamePrefix prefixes every OpenMetricsRule synthesized from a
	// Ruler-sourced group.
	ResourceNamePrefix = "om-mt-k-ruler-src-"

	// DefaultDescription is the description of synthesized resources.
	DefaultDescription = "open-metrics-multi-tenancy-kit-sourced-rule"
)

// ResourceNameForGroup derives the resource name for a group that has no
// existing OpenMetricsRule. Underscores are not valid in object names and
// become hyphens.
func ResourceNameForGroup(groupName string) string {
	return ResourceNamePrefix + strings.ReplaceAll(groupName, "_", "-")
}
