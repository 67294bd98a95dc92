package telemetry

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/kaz/kaltstart/imports"
)

func decodeLines(c *qt.C, buf *bytes.Buffer) []map[string]interface{} {
	lines := []map[string]interface{}{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		rec := map[string]interface{}{}
		c.Assert(json.Unmarshal([]byte(line), &rec), qt.IsNil)
		lines = append(lines, rec)
	}
	return lines
}

func TestModuleTimingsRecord(t *testing.T) {
	c := qt.New(t)

	buf := &bytes.Buffer{}
	sink := New(buf, "ns", "perf_zip_go1_1024")

	timings := imports.NewTimings()
	timings.Set("parquet", 1200)
	timings.Set("sdk_init_time", 300)
	sink.ModuleTimings(timings)

	lines := decodeLines(c, buf)
	c.Assert(lines, qt.HasLen, 1)
	c.Assert(lines[0]["msg"], qt.Equals, ModuleTimingsMessage)
	c.Assert(lines[0]["service"], qt.Equals, "perf_zip_go1_1024")
	c.Assert(lines[0]["timings"], qt.DeepEquals, map[string]interface{}{
		"parquet":       1200.0,
		"sdk_init_time": 300.0,
	})
}

func TestPutMetricsEmbeddedFormat(t *testing.T) {
	c := qt.New(t)

	buf := &bytes.Buffer{}
	sink := New(buf, "LambdaDatasciPerfStack", "svc")
	sink.now = func() time.Time { return time.Unix(1700000000, 0) }

	timings := imports.NewTimings()
	timings.Set("pyarrow.parquet", 42)
	sink.PutMetrics(ModuleMetrics(timings), map[string]string{"service": "svc", "function_name": "fn"})

	lines := decodeLines(c, buf)
	c.Assert(lines, qt.HasLen, 1)
	rec := lines[0]
	c.Assert(rec["module_load_pyarrow_parquet"], qt.Equals, 42.0)
	c.Assert(rec["function_name"], qt.Equals, "fn")

	meta := rec["_aws"].(map[string]interface{})
	c.Assert(meta["Timestamp"], qt.Equals, 1700000000000.0)
	directive := meta["CloudWatchMetrics"].([]interface{})[0].(map[string]interface{})
	c.Assert(directive["Namespace"], qt.Equals, "LambdaDatasciPerfStack")
	c.Assert(directive["Dimensions"], qt.DeepEquals, []interface{}{[]interface{}{"function_name", "service"}})
	c.Assert(directive["Metrics"], qt.DeepEquals, []interface{}{
		map[string]interface{}{"Name": "module_load_pyarrow_parquet", "Unit": UnitMicroseconds},
	})
}

func TestPutMetricsEmpty(t *testing.T) {
	c := qt.New(t)

	buf := &bytes.Buffer{}
	New(buf, "ns", "svc").PutMetrics(nil, nil)
	c.Assert(buf.Len(), qt.Equals, 0)
}
