package formatting

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/open-metrics-mt-kit/ruler-informer/pkg/apis/openmetrics/v1alpha1"
	pkgstrings "github.com/open-metrics-mt-kit/ruler-informer/pkg/strings"
)

// descriptionMaxLen caps the description column.
const descriptionMaxLen = 60

// TableFormatter provides rich table output formatting
type TableFormatter struct {
	options Options
}

// NewTableFormatter creates a new table formatter
func NewTableFormatter(options Options) Formatter {
	return &TableFormatter{
		options: options,
	}
}

// FormatRules writes one row per resource with its tenants, groups, rule
// count and whether the Ruler has been updated.
func (f *TableFormatter) FormatRules(w io.Writer, rules []v1alpha1.OpenMetricsRule) error {
	if len(rules) == 0 {
		_, err := fmt.Fprintln(w, f.colorize(text.FgYellow, "No OpenMetricsRules found"))
		return err
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)

	headers := table.Row{}
	for _, h := range []string{"NAMESPACE", "NAME", "TENANTS", "GROUPS", "RULES", "RULER UPDATED", "DESCRIPTION"} {
		headers = append(headers, f.colorize(text.FgHiCyan, h))
	}
	t.AppendHeader(headers)

	for _, rule := range sortedRules(rules) {
		groups := make([]string, 0, len(rule.Spec.Groups))
		ruleCount := 0
		for _, g := range rule.Spec.Groups {
			groups = append(groups, g.Name)
			ruleCount += len(g.Rules)
		}

		t.AppendRow(table.Row{
			rule.Namespace,
			rule.Name,
			strings.Join(rule.Spec.Tenants, ","),
			strings.Join(groups, ","),
			ruleCount,
			f.updated(rule.Status.RulerUpdated),
			pkgstrings.Truncate(rule.Spec.Description, descriptionMaxLen),
		})
	}

	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func (f *TableFormatter) updated(v bool) string {
	s := strconv.FormatBool(v)
	if v {
		return f.colorize(text.FgGreen, s)
	}
	return f.colorize(text.FgYellow, s)
}

func (f *TableFormatter) colorize(c text.Color, s string) string {
	if !f.options.Color {
		return s
	}
	return c.Sprint(s)
}
