package aggregate

import (
	"bytes"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
)

func TestDrawInitDurations(t *testing.T) {
	c := qt.New(t)

	var buf bytes.Buffer
	DrawInitDurations(&buf, []*InitDurationRow{{Function: "perf_zip_go1_1024", Count: 3, P99: 12.5, Max: 13, Avg: 10, Min: 7.25}})

	c.Assert(buf.String(), qt.Contains, "perf_zip_go1_1024")
	c.Assert(buf.String(), qt.Contains, "12.500")
	c.Assert(buf.String(), qt.Contains, "7.250")
}

func TestDrawModuleCosts(t *testing.T) {
	c := qt.New(t)

	var buf bytes.Buffer
	DrawModuleCosts(&buf, []*ModuleCostRow{{
		Strategy: "perf_zip_go1",
		Memory:   1769,
		Hour:     time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		Count:    2,
		Costs:    map[string]float64{"gota": 2},
		Total:    2,
	}}, Columns{Modules: []string{"gota", "parquet"}})

	out := buf.String()
	c.Assert(out, qt.Contains, "2024-03-01T10:00:00Z")
	c.Assert(out, qt.Contains, "2.000")
	c.Assert(out, qt.Contains, " - ")
}

func TestDrawResults(t *testing.T) {
	c := qt.New(t)

	var buf bytes.Buffer
	DrawResults(&buf, []map[string]string{{"b": "2", "a": "1"}, {"c": "3"}})

	out := buf.String()
	c.Assert(out, qt.Matches, `(?s).*A.*B.*C.*`)
	c.Assert(out, qt.Contains, "3")
}
