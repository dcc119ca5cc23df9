// Package formatting renders OpenMetricsRules for the command line as a
// table, JSON or YAML.
package formatting

import (
	"fmt"
	"io"
	"sort"

	"github.com/open-metrics-mt-kit/ruler-informer/pkg/apis/openmetrics/v1alpha1"
)

// OutputFormat represents the desired output format
type OutputFormat string

const (
	FormatTable OutputFormat = "table" // Rich table output
	FormatJSON  OutputFormat = "json"  // JSON output
	FormatYAML  OutputFormat = "yaml"  // YAML output
)

// ParseOutputFormat converts a flag value to an OutputFormat. Empty means
// table.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case "", FormatTable:
		return FormatTable, nil
	case FormatJSON, FormatYAML:
		return OutputFormat(s), nil
	default:
		return "", fmt.Errorf("unknown output format %q (want table, json or yaml)", s)
	}
}

// Options configures the formatter behavior
type Options struct {
	Format OutputFormat
	Color  bool // Enable colored table headers
}

// Formatter writes a list of OpenMetricsRules to w.
type Formatter interface {
	FormatRules(w io.Writer, rules []v1alpha1.OpenMetricsRule) error
}

// NewFormatter creates the formatter for options.Format
func NewFormatter(options Options) Formatter {
	switch options.Format {
	case FormatJSON:
		return NewJSONFormatter(options)
	case FormatYAML:
		return NewYAMLFormatter(options)
	default:
		return NewTableFormatter(options)
	}
}

// asList wraps rules in a typed list sorted by namespace and name.
func asList(rules []v1alpha1.OpenMetricsRule) *v1alpha1.OpenMetricsRuleList {
	list := &v1alpha1.OpenMetricsRuleList{Items: sortedRules(rules)}
	list.APIVersion = v1alpha1.GroupVersion.String()
	list.Kind = v1alpha1.OpenMetricsRuleKind + "List"
	return list
}

func sortedRules(rules []v1alpha1.OpenMetricsRule) []v1alpha1.OpenMetricsRule {
	sorted := make([]v1alpha1.OpenMetricsRule, len(rules))
	copy(sorted, rules)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Namespace != sorted[j].Namespace {
			return sorted[i].Namespace < sorted[j].Namespace
		}
		return sorted[i].Name < sorted[j].Name
	})
	return sorted
}
