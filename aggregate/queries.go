package aggregate

import (
	"fmt"
	"strings"

	"github.com/kaz/kaltstart/telemetry"
)

const (
	ViewBar   = "bar"
	ViewTable = "table"
)

// The Insights equivalent of ParseTargetName: pkg_method is everything before
// the last underscore, mem_cfg the numeric suffix.
const parseTarget = `parse function_name /^(?<pkg_method>.+_[^_]+)_(?<mem_cfg>\d+)$/`

type Query struct {
	Title string
	View  string
	Text  string
}

// Queries returns the dashboard queries: one per init-duration statistic and
// the per-module p95 table.
func Queries(columns Columns) []*Query {
	var queries []*Query
	for _, stat := range []struct{ label, expr string }{
		{"p99", fmt.Sprintf("pct(@initDuration, %d) as p99_init_duration", InitPercentile)},
		{"max", "max(@initDuration) as max_init_duration"},
		{"avg", "avg(@initDuration) as avg_init_duration"},
		{"min", "min(@initDuration) as min_init_duration"},
	} {
		queries = append(queries, &Query{
			Title: "Cold Start Durations " + stat.label,
			View:  ViewBar,
			Text: strings.Join([]string{
				"filter @type = 'REPORT' and ispresent(@initDuration)",
				"parse @log '/aws/lambda/*' as function_name",
				"stats " + stat.expr + " by function_name",
				"sort function_name asc",
			}, "\n| "),
		})
	}

	return append(queries, &Query{
		Title: "Module load times",
		View:  ViewTable,
		Text:  moduleCostQuery(columns),
	})
}

func moduleCostQuery(columns Columns) string {
	all := columns.All()

	pcts := make([]string, 0, len(all))
	floors := make([]string, 0, len(all))
	for _, col := range all {
		pcts = append(pcts, fmt.Sprintf("pct(timings.%v, %d) / 1000 as %v", col, ModulePercentile, col))
		floors = append(floors, fmt.Sprintf("floor(%v) as %v_ms", col, col))
	}

	var b strings.Builder
	fmt.Fprintln(&b, "fields @timestamp, @message, @logStream, @log")
	fmt.Fprintf(&b, "| filter msg = '%v'\n", telemetry.ModuleTimingsMessage)
	fmt.Fprintln(&b, "| parse @log '/aws/lambda/*' as function_name")
	fmt.Fprintln(&b, "| "+parseTarget)
	fmt.Fprintln(&b, "| stats")
	fmt.Fprintln(&b, strings.Join(pcts, ",\n"))
	fmt.Fprintf(&b, ", (%v) as total_ms\n", strings.Join(all, " + "))
	fmt.Fprintln(&b, "by pkg_method, mem_cfg, bin(1h) as hour")
	fmt.Fprintf(&b, "| display pkg_method, mem_cfg, hour, %v, total_ms\n", strings.Join(floors, ", "))
	fmt.Fprint(&b, "| sort pkg_method asc, mem_cfg asc, hour asc")
	return b.String()
}
