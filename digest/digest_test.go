package digest

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/kaz/kaltstart/aggregate"
	"github.com/kaz/kaltstart/benchmark"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v2"
)

func testRecords() *aggregate.Records {
	records := &aggregate.Records{}
	for i := 0; i < 4; i++ {
		records.Add(&aggregate.ReportRecord{
			Function:       "perf_zip_go1_1769",
			Timestamp:      at.Add(time.Duration(i) * time.Minute),
			InitDurationMs: 100,
		})
		records.Add(&aggregate.ImportRecord{
			Function:  "perf_zip_go1_1769",
			Timestamp: at.Add(time.Duration(i) * time.Minute),
			Timings:   map[string]float64{"gota": 2000, "sdk_init_time": 500},
		})
	}
	return records
}

func runApp(c *qt.C, args ...string) (string, error) {
	for _, name := range []string{"KALTSTART_MYSQL", "KALTSTART_CONFIG", "KALTSTART_PREFIX"} {
		c.Unsetenv(name)
	}

	var out bytes.Buffer
	app := &cli.App{
		Name:           "kaltstart",
		Writer:         &out,
		ExitErrHandler: func(*cli.Context, error) {},
		Commands: []*cli.Command{{
			Name:   "digest",
			Action: Action,
			Flags:  append(benchmark.Flags(), Flags()...),
		}},
	}
	err := app.Run(append([]string{"kaltstart", "digest"}, args...))
	return out.String(), err
}

func TestSummarize(t *testing.T) {
	c := qt.New(t)

	digest, err := Summarize(testRecords(), aggregate.Window{}, aggregate.Columns{Modules: []string{"gota"}, Fixed: []string{"sdk_init_time"}})
	c.Assert(err, qt.IsNil)
	c.Assert(digest.InitDurations, qt.HasLen, 1)
	c.Assert(digest.InitDurations[0].Count, qt.Equals, 4)
	c.Assert(digest.ModuleCosts, qt.HasLen, 1)
	c.Assert(digest.ModuleCosts[0].Total, qt.Equals, 2.5)
}

func TestSummarizeMalformedName(t *testing.T) {
	c := qt.New(t)

	records := &aggregate.Records{}
	records.Add(&aggregate.ReportRecord{Function: "perf_oops", Timestamp: at})
	_, err := Summarize(records, aggregate.Window{}, aggregate.Columns{})
	c.Assert(err, qt.ErrorMatches, `aggregate.InitDurations failed: ParseTargetName failed: target "perf_oops": memory suffix "oops" is not numeric`)
}

func TestActionFromArchive(t *testing.T) {
	c := qt.New(t)

	dir := c.TempDir()
	input := filepath.Join(dir, "in.lz4")
	output := filepath.Join(dir, "out.lz4")
	c.Assert(WriteArchive(input, testRecords()), qt.IsNil)

	out, err := runApp(c, "--input", input, "--output", output, "--format", "yaml")
	c.Assert(err, qt.IsNil)

	var decoded struct {
		InitDurations []struct {
			Function string  `yaml:"function"`
			Count    int     `yaml:"count"`
			P99      float64 `yaml:"p99_ms"`
		} `yaml:"init_durations"`
		ModuleCosts []struct {
			Strategy string  `yaml:"strategy"`
			Memory   int     `yaml:"memory"`
			Total    float64 `yaml:"total_ms"`
		} `yaml:"module_costs"`
	}
	c.Assert(yaml.Unmarshal([]byte(out), &decoded), qt.IsNil)
	c.Assert(decoded.InitDurations, qt.HasLen, 1)
	c.Assert(decoded.InitDurations[0].Function, qt.Equals, "perf_zip_go1_1769")
	c.Assert(decoded.InitDurations[0].Count, qt.Equals, 4)
	c.Assert(decoded.InitDurations[0].P99, qt.Equals, 100.0)
	c.Assert(decoded.ModuleCosts, qt.HasLen, 1)
	c.Assert(decoded.ModuleCosts[0].Strategy, qt.Equals, "perf_zip_go1")
	c.Assert(decoded.ModuleCosts[0].Memory, qt.Equals, 1769)
	c.Assert(decoded.ModuleCosts[0].Total, qt.Equals, 2.5)

	src, err := NewArchiveSource(output)
	c.Assert(err, qt.IsNil)
	copied, err := Collect(src)
	c.Assert(err, qt.IsNil)
	c.Assert(copied.Len(), qt.Equals, 8)
}

func TestActionTable(t *testing.T) {
	c := qt.New(t)

	input := filepath.Join(c.TempDir(), "in.lz4")
	c.Assert(WriteArchive(input, testRecords()), qt.IsNil)

	out, err := runApp(c, "--input", input)
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Contains, "Cold start init durations")
	c.Assert(out, qt.Contains, "perf_zip_go1_1769")
	c.Assert(out, qt.Contains, "Module load times")
}

func TestActionUsageErrors(t *testing.T) {
	c := qt.New(t)

	_, err := runApp(c, "--format", "csv")
	c.Assert(err, qt.ErrorMatches, `unknown format "csv"`)
	c.Assert(err.(cli.ExitCoder).ExitCode(), qt.Equals, 2)

	_, err = runApp(c, "--from-mysql")
	c.Assert(err, qt.ErrorMatches, "--from-mysql needs a --mysql store")
}
