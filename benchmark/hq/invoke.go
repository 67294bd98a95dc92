package hq

import (
	"fmt"

	"github.com/kaz/kaltstart/benchmark/worker"
	"github.com/urfave/cli/v2"
)

func InvokeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:  "concurrency",
			Usage: "in-flight dispatches per target (default from config)",
		},
		&cli.Float64Flag{
			Name:  "rate",
			Usage: "dispatches per second per target, 0 for unlimited (default from config)",
		},
		&cli.IntFlag{
			Name:  "burst",
			Usage: "token bucket burst per target (default from config)",
		},
		&cli.StringFlag{
			Name:  "payload",
			Usage: "JSON payload of every invocation (default from config)",
		},
		&cli.BoolFlag{
			Name:  "progress",
			Usage: "show per-target progress bars",
			Value: true,
		},
	}
}

func ActionInvoke(context *cli.Context) error {
	count, err := countArg(context, "invoke")
	if err != nil {
		return err
	}

	s, err := readConfig(context)
	if err != nil {
		return fmt.Errorf("readConfig failed: %w", err)
	}
	defer s.cancel()

	invoke := s.conf.Invoke
	if context.IsSet("concurrency") {
		invoke.Concurrency = context.Int("concurrency")
	}
	if context.IsSet("rate") {
		invoke.Rate = context.Float64("rate")
	}
	if context.IsSet("burst") {
		invoke.Burst = context.Int("burst")
	}
	if context.IsSet("payload") {
		invoke.Payload = context.String("payload")
	}

	generator := worker.NewGenerator(newClient(s.aws), s.conf.Filter(), worker.Options{
		Count:       count,
		Concurrency: invoke.Concurrency,
		Rate:        worker.Limit(invoke.Rate),
		Burst:       invoke.Burst,
		Payload:     []byte(invoke.Payload),
		Progress:    context.Bool("progress"),
	})

	reports, err := generator.InvokeAll(s.ctx)
	if err != nil {
		return fmt.Errorf("Generator.InvokeAll failed: %w", err)
	}

	Oneshot(context.App.Writer, reports)
	return nil
}
