// Package hq holds the operator-facing commands: it wires configuration,
// AWS clients and interrupt handling to the benchmark packages.
package hq

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/kaz/kaltstart/aggregate"
	"github.com/kaz/kaltstart/benchmark"
	"github.com/kaz/kaltstart/benchmark/queue"
	"github.com/kaz/kaltstart/controlplane"
	"github.com/urfave/cli/v2"
)

// Client constructors, replaced in tests.
var (
	newClient = func(cfg aws.Config) controlplane.Client {
		return controlplane.NewLambdaClient(cfg)
	}
	newQueueAPI = func(cfg aws.Config) queue.API {
		return sqs.NewFromConfig(cfg)
	}
	newInsightsAPI = func(cfg aws.Config) aggregate.InsightsAPI {
		return cloudwatchlogs.NewFromConfig(cfg)
	}
	loadAWS = func(ctx context.Context, conf *benchmark.Config) (aws.Config, error) {
		return conf.AWS(ctx)
	}
)

type (
	session struct {
		conf   *benchmark.Config
		aws    aws.Config
		ctx    context.Context
		cancel context.CancelFunc
	}
)

// readConfig loads the configuration and AWS credentials and returns a
// context cancelled on interrupt. Callers must call cancel.
func readConfig(cliCtx *cli.Context) (*session, error) {
	conf, err := benchmark.ConfigFromContext(cliCtx)
	if err != nil {
		return nil, fmt.Errorf("benchmark.ConfigFromContext failed: %w", err)
	}

	ctx, cancel := signal.NotifyContext(cliCtx.Context, os.Interrupt)

	cfg, err := loadAWS(ctx, conf)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("loadAWS failed: %w", err)
	}

	return &session{conf: conf, aws: cfg, ctx: ctx, cancel: cancel}, nil
}

// countArg parses the single <count> argument of name. Anything else is a
// usage error with exit code 2.
func countArg(cliCtx *cli.Context, name string) (int, error) {
	usage := func() error {
		fmt.Fprintf(cliCtx.App.ErrWriter, "Usage: %v %v <count>\n", cliCtx.App.Name, name)
		return cli.Exit("<count> must be a non-negative integer", 2)
	}

	if cliCtx.NArg() != 1 {
		return 0, usage()
	}
	count, err := strconv.Atoi(cliCtx.Args().First())
	if err != nil || count < 0 {
		return 0, usage()
	}
	return count, nil
}
