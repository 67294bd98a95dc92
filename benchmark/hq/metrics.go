package hq

import (
	"fmt"
	"io"

	"github.com/kaz/kaltstart/benchmark/worker"
)

// Oneshot prints the per-target dispatch counts and the overall dispatch rate.
func Oneshot(w io.Writer, reports []*worker.Report) {
	for _, r := range reports {
		fmt.Fprintf(w, "%-48v issued %7d  failed %7d\n", r.Target, r.Issued, r.Failed)
	}

	issued, failed, elapsed := worker.Totals(reports)
	fmt.Fprintf(w, "Targets   : %9d\n", len(reports))
	fmt.Fprintf(w, "Failed    : %9d\n", failed)
	fmt.Fprintf(w, "Succeeded : %9d\n", issued-failed)

	qps := 0.0
	if elapsed > 0 {
		qps = float64(issued) / elapsed.Seconds()
	}
	fmt.Fprintf(w, "QPS       : %9.0f\n", qps)
}
