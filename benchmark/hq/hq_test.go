package hq

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	qt "github.com/frankban/quicktest"
	"github.com/kaz/kaltstart/benchmark"
	"github.com/kaz/kaltstart/controlplane"
	"github.com/kaz/kaltstart/controlplane/cptest"
	"github.com/urfave/cli/v2"
)

type harness struct {
	client *cptest.Client
	out    bytes.Buffer
	errOut bytes.Buffer
}

func newHarness(c *qt.C, names ...string) *harness {
	for _, name := range []string{"KALTSTART_CONFIG", "KALTSTART_PREFIX", "AWS_REGION"} {
		c.Unsetenv(name)
	}

	h := &harness{client: cptest.NewClient(names...)}
	c.Patch(&newClient, func(aws.Config) controlplane.Client { return h.client })
	c.Patch(&loadAWS, func(context.Context, *benchmark.Config) (aws.Config, error) { return aws.Config{}, nil })
	return h
}

func (h *harness) run(args ...string) error {
	app := &cli.App{
		Name:           "kaltstart",
		Writer:         &h.out,
		ErrWriter:      &h.errOut,
		Commands:       Commands(),
		ExitErrHandler: func(*cli.Context, error) {},
	}
	return app.Run(append([]string{"kaltstart"}, args...))
}

func TestEnsureCold(t *testing.T) {
	c := qt.New(t)
	h := newHarness(c, "perf_zip_go1_1024", "perf_measure_go1_1024", "other")
	h.client.UpdateErr["perf_zip_go1_1024"] = errors.New("conflict")

	c.Assert(h.run("ensure-cold"), qt.IsNil)
	c.Assert(h.client.Updates("perf_measure_go1_1024"), qt.Equals, 1)
	c.Assert(h.client.Updates("other"), qt.Equals, 0)
	c.Assert(h.out.String(), qt.Contains, "perf_measure_go1_1024 updated with map[COLD_START_FORCER:")
}

func TestEnsureColdDiscoveryFailure(t *testing.T) {
	c := qt.New(t)
	h := newHarness(c, "perf_a_go1_1024")
	h.client.ListErr = errors.New("denied")

	err := h.run("ensure-cold")
	c.Assert(err, qt.ErrorMatches, "Forcer.Force failed: .*denied")
}

func TestInvoke(t *testing.T) {
	c := qt.New(t)
	h := newHarness(c, "perf_a", "perf_b", "perf_measure_c")

	c.Assert(h.run("invoke", "--progress=false", "--rate", "0", "5"), qt.IsNil)
	c.Assert(h.client.Invocations(), qt.DeepEquals, map[string]int{"perf_a": 5, "perf_b": 5})
	c.Assert(h.out.String(), qt.Contains, "Succeeded :        10")
}

func TestInvokeUsage(t *testing.T) {
	c := qt.New(t)

	for _, args := range [][]string{
		{"invoke"},
		{"invoke", "five"},
		{"invoke", "--", "-1"},
		{"invoke", "1", "2"},
	} {
		h := newHarness(c, "perf_a")
		err := h.run(args...)
		c.Assert(err, qt.ErrorMatches, "<count> must be a non-negative integer", qt.Commentf("%v", args))
		c.Assert(err.(cli.ExitCoder).ExitCode(), qt.Equals, 2)
		c.Assert(h.errOut.String(), qt.Equals, "Usage: kaltstart invoke <count>\n")
		c.Assert(h.client.Invocations(), qt.HasLen, 0)
	}
}

func TestSendMessagesUsage(t *testing.T) {
	c := qt.New(t)
	h := newHarness(c)

	err := h.run("send-messages", "lots")
	c.Assert(err.(cli.ExitCoder).ExitCode(), qt.Equals, 2)
	c.Assert(h.errOut.String(), qt.Equals, "Usage: kaltstart send-messages <count>\n")
}

func TestQueriesPrint(t *testing.T) {
	c := qt.New(t)
	h := newHarness(c)

	c.Assert(h.run("queries"), qt.IsNil)
	c.Assert(h.out.String(), qt.Contains, "# Cold Start Durations p99 (bar)")
	c.Assert(h.out.String(), qt.Contains, "pct(timings.parquet, 95) / 1000 as parquet")
	c.Assert(h.out.String(), qt.Contains, "pct(timings.sdk_init_time, 95) / 1000 as sdk_init_time")
}
