package formatting

import (
	"fmt"
	"io"

	"github.com/open-metrics-mt-kit/ruler-informer/pkg/apis/openmetrics/v1alpha1"
)

// JSONFormatter provides structured JSON output formatting
type JSONFormatter struct {
	options Options
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter(options Options) Formatter {
	return &JSONFormatter{
		options: options,
	}
}

// FormatRules writes the rules as an indented OpenMetricsRuleList.
func (f *JSONFormatter) FormatRules(w io.Writer, rules []v1alpha1.OpenMetricsRule) error {
	_, err := fmt.Fprintln(w, PrettyJSON(asList(rules)))
	return err
}
