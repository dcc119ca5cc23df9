package formatting

import (
	"fmt"
	"io"

	"sigs.k8s.io/yaml"

	"github.com/open-metrics-mt-kit/ruler-informer/pkg/apis/openmetrics/v1alpha1"
)

// YAMLFormatter provides YAML output formatting, in the shape kubectl
// prints lists
type YAMLFormatter struct {
	options Options
}

// NewYAMLFormatter creates a new YAML formatter
func NewYAMLFormatter(options Options) Formatter {
	return &YAMLFormatter{
		options: options,
	}
}

// FormatRules writes the rules as an OpenMetricsRuleList document.
func (f *YAMLFormatter) FormatRules(w io.Writer, rules []v1alpha1.OpenMetricsRule) error {
	out, err := yaml.Marshal(asList(rules))
	if err != nil {
		return fmt.Errorf("failed to encode OpenMetricsRules as YAML: %w", err)
	}
	_, err = w.Write(out)
	return err
}
