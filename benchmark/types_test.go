package benchmark

import (
	"io/ioutil"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"
)

func writeConfig(c *qt.C, body string) string {
	path := filepath.Join(c.Mkdir(), "kaltstart.yaml")
	c.Assert(ioutil.WriteFile(path, []byte(body), 0644), qt.IsNil)
	return path
}

func TestReadConfigDefaults(t *testing.T) {
	c := qt.New(t)

	conf, err := ReadConfig("")
	c.Assert(err, qt.IsNil)
	c.Assert(conf, qt.DeepEquals, DefaultConfig())
	c.Assert(conf.Validate(), qt.IsNil)
}

func TestReadConfigOverlaysFile(t *testing.T) {
	c := qt.New(t)

	path := writeConfig(c, `
prefix: bench_
invoke:
  concurrency: 4
  rate: 0
aggregate:
  modules: [parquet]
`)
	conf, err := ReadConfig(path)
	c.Assert(err, qt.IsNil)
	c.Assert(conf.Prefix, qt.Equals, "bench_")
	c.Assert(conf.Invoke.Concurrency, qt.Equals, 4)
	c.Assert(conf.Invoke.Rate, qt.Equals, 0.0)
	c.Assert(conf.Invoke.Burst, qt.Equals, 1)
	c.Assert(conf.ForcerKey, qt.Equals, "COLD_START_FORCER")
	c.Assert(conf.Aggregate.Modules, qt.DeepEquals, []string{"parquet"})
	c.Assert(conf.Filter().Prefix, qt.Equals, "bench_")
}

func TestReadConfigRejectsInvalid(t *testing.T) {
	c := qt.New(t)

	_, err := ReadConfig(writeConfig(c, "invoke:\n  concurrency: 0\n"))
	c.Assert(err, qt.ErrorMatches, "Validate failed: invoke.concurrency must be at least 1, got 0")

	_, err = ReadConfig(writeConfig(c, "queue:\n  batch_size: 11\n"))
	c.Assert(err, qt.ErrorMatches, "Validate failed: queue.batch_size must be within 1..10, got 11")

	_, err = ReadConfig(filepath.Join(c.Mkdir(), "missing.yaml"))
	c.Assert(err, qt.ErrorMatches, "os.Open failed: .*")
}
