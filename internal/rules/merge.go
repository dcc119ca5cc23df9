package rules

import (
	"fmt"
	"slices"

	monitoringv1 "github.com/prometheus-operator/prometheus-operator/pkg/apis/monitoring/v1"
)

// MergeStrategy selects how a matched group is merged into a sequence.
type MergeStrategy string

const (
	// MergeReplace overwrites the matched entry with the incoming group.
	MergeReplace MergeStrategy = "replace"

	// MergeInsert inserts the incoming group in front of the matched entry
	// and keeps the old one. This reproduces the behaviour of earlier
	// informer releases, which leaves two groups with the same name.
	MergeInsert MergeStrategy = "insert"
)

// ParseMergeStrategy validates a configured strategy. Empty means replace.
func ParseMergeStrategy(s string) (MergeStrategy, error) {
	switch MergeStrategy(s) {
	case "", MergeReplace:
		return MergeReplace, nil
	case MergeInsert:
		return MergeInsert, nil
	default:
		return "", fmt.Errorf("unknown merge strategy %q (want %q or %q)", s, MergeReplace, MergeInsert)
	}
}

// MergeGroup returns a new sequence with group merged at idx. The input
// slice is not modified. idx must be a valid position in groups.
func MergeGroup(groups []monitoringv1.RuleGroup, idx int, group monitoringv1.RuleGroup, strategy MergeStrategy) []monitoringv1.RuleGroup {
	merged := slices.Clone(groups)
	if strategy == MergeInsert {
		return slices.Insert(merged, idx, group)
	}
	merged[idx] = group
	return merged
}
