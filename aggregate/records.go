package aggregate

import (
	"time"
)

type (
	// ReportRecord is one platform REPORT line that carried an init duration,
	// i.e. one cold start.
	ReportRecord struct {
		Function       string
		Timestamp      time.Time
		InitDurationMs float64
	}

	// ImportRecord is one module_timings line: every module load cost of one
	// cold start, in microseconds.
	ImportRecord struct {
		Function  string
		Timestamp time.Time
		Timings   map[string]float64
	}

	Records struct {
		Reports []*ReportRecord
		Imports []*ImportRecord
	}

	Window struct {
		Start time.Time
		End   time.Time
	}
)

// Contains reports whether t lies in [Start, End). A zero bound is open.
func (w Window) Contains(t time.Time) bool {
	if !w.Start.IsZero() && t.Before(w.Start) {
		return false
	}
	if !w.End.IsZero() && !t.Before(w.End) {
		return false
	}
	return true
}

func (r *Records) Add(rec interface{}) bool {
	switch v := rec.(type) {
	case *ReportRecord:
		r.Reports = append(r.Reports, v)
	case *ImportRecord:
		r.Imports = append(r.Imports, v)
	default:
		return false
	}
	return true
}

func (r *Records) Len() int {
	return len(r.Reports) + len(r.Imports)
}
