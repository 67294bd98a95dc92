package aggregate

import (
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
)

func DrawInitDurations(w io.Writer, rows []*InitDurationRow) {
	output := tablewriter.NewWriter(w)
	output.SetHeader([]string{"function", "count", "p99 (ms)", "max (ms)", "avg (ms)", "min (ms)"})
	for _, r := range rows {
		output.Append([]string{
			r.Function,
			strconv.Itoa(r.Count),
			formatMs(r.P99),
			formatMs(r.Max),
			formatMs(r.Avg),
			formatMs(r.Min),
		})
	}
	output.Render()
}

func DrawModuleCosts(w io.Writer, rows []*ModuleCostRow, columns Columns) {
	all := columns.All()

	header := []string{"strategy", "memory", "hour", "count"}
	for _, col := range all {
		header = append(header, col+" (ms)")
	}
	header = append(header, "total (ms)")

	output := tablewriter.NewWriter(w)
	output.SetHeader(header)
	for _, r := range rows {
		line := []string{r.Strategy, strconv.Itoa(r.Memory), r.Hour.Format(time.RFC3339), strconv.Itoa(r.Count)}
		for _, col := range all {
			if v, ok := r.Costs[col]; ok {
				line = append(line, formatMs(v))
			} else {
				line = append(line, "-")
			}
		}
		output.Append(append(line, formatMs(r.Total)))
	}
	output.Render()
}

// DrawResults draws rows returned by Run. Columns are the union of all row
// keys in name order.
func DrawResults(w io.Writer, rows []map[string]string) {
	seen := map[string]bool{}
	var header []string
	for _, r := range rows {
		for k := range r {
			if !seen[k] {
				seen[k] = true
				header = append(header, k)
			}
		}
	}
	sort.Strings(header)

	output := tablewriter.NewWriter(w)
	output.SetHeader(header)
	for _, r := range rows {
		line := make([]string, len(header))
		for i, k := range header {
			line[i] = r[k]
		}
		output.Append(line)
	}
	output.Render()
}

func formatMs(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
