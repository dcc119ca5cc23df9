package rules

import (
	monitoringv1 "github.com/prometheus-operator/prometheus-operator/pkg/apis/monitoring/v1"
)

// UnsetIndex marks an IndexedGroup without a secondary index.
const UnsetIndex = -1

// IndexedGroup pairs a rule group with a secondary index the matcher may
// report back to the caller.
type IndexedGroup struct {
	Group monitoringv1.RuleGroup
	Index int
}

// GroupMatcher locates a group by name in an indexed list. It returns the
// position of the match, the matched group and its secondary index. A miss
// is reported as (-1, nil, nil).
type GroupMatcher func(groups []IndexedGroup, name string) (int, *monitoringv1.RuleGroup, *int)

// IndexGroups wraps groups, in order, with an unset secondary index.
func IndexGroups(groups []monitoringv1.RuleGroup) []IndexedGroup {
	indexed := make([]IndexedGroup, 0, len(groups))
	for _, g := range groups {
		indexed = append(indexed, IndexedGroup{Group: g, Index: UnsetIndex})
	}
	return indexed
}

// FindGroupNamed returns the first group whose name equals name.
func FindGroupNamed(groups []IndexedGroup, name string) (int, *monitoringv1.RuleGroup, *int) {
	for i := range groups {
		if groups[i].Group.Name != name {
			continue
		}
		var secondary *int
		if groups[i].Index != UnsetIndex {
			idx := groups[i].Index
			secondary = &idx
		}
		return i, &groups[i].Group, secondary
	}
	return -1, nil, nil
}
