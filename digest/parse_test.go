package digest

import (
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/kaz/kaltstart/aggregate"
)

var at = time.Date(2024, 3, 1, 10, 15, 0, 0, time.UTC)

func TestParseLineReport(t *testing.T) {
	c := qt.New(t)

	line := "REPORT RequestId: 8f5e\tDuration: 812.20 ms\tBilled Duration: 813 ms\tMemory Size: 1769 MB\tMax Memory Used: 180 MB\tInit Duration: 456.78 ms\t\n"
	rec, err := ParseLine("perf_zip_go1_1769", at, line)
	c.Assert(err, qt.IsNil)
	c.Assert(rec, qt.DeepEquals, &aggregate.ReportRecord{Function: "perf_zip_go1_1769", Timestamp: at, InitDurationMs: 456.78})
}

func TestParseLineWarmReport(t *testing.T) {
	c := qt.New(t)

	rec, err := ParseLine("perf_zip_go1_1769", at, "REPORT RequestId: 8f5e\tDuration: 12.20 ms\tBilled Duration: 13 ms")
	c.Assert(err, qt.IsNil)
	c.Assert(rec, qt.IsNil)
}

func TestParseLineModuleTimings(t *testing.T) {
	c := qt.New(t)

	line := `{"level":"info","msg":"module_timings","service":"perf_zip_go1_1769","time":"2024-03-01T10:15:01.5Z","timings":{"gota":1500.5,"parquet":3000,"sdk_init_time":800}}`
	rec, err := ParseLine("perf_zip_go1_1769", at, line)
	c.Assert(err, qt.IsNil)
	c.Assert(rec, qt.DeepEquals, &aggregate.ImportRecord{
		Function:  "perf_zip_go1_1769",
		Timestamp: time.Date(2024, 3, 1, 10, 15, 1, 500000000, time.UTC),
		Timings:   map[string]float64{"gota": 1500.5, "parquet": 3000, "sdk_init_time": 800},
	})
}

func TestParseLineIgnored(t *testing.T) {
	c := qt.New(t)

	for _, line := range []string{
		"START RequestId: 8f5e Version: $LATEST",
		`{"level":"info","msg":"DataFrame","service":"x"}`,
		`{"level":"info","msg":"module_timings"}`,
		"",
	} {
		rec, err := ParseLine("perf_zip_go1_1769", at, line)
		c.Assert(err, qt.IsNil, qt.Commentf(line))
		c.Assert(rec, qt.IsNil, qt.Commentf(line))
	}
}

func TestParseLineBrokenJSON(t *testing.T) {
	c := qt.New(t)

	_, err := ParseLine("perf_zip_go1_1769", at, `{"msg":"module_timings","timings":`)
	c.Assert(err, qt.ErrorMatches, "json.Unmarshal failed: .*")
}
