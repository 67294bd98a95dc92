package hq

import (
	"github.com/kaz/kaltstart/benchmark"
	"github.com/kaz/kaltstart/digest"
	"github.com/urfave/cli/v2"
)

func Commands() []*cli.Command {
	withCommon := func(flags ...cli.Flag) []cli.Flag {
		return append(benchmark.Flags(), flags...)
	}

	return []*cli.Command{
		{
			Name:   "ensure-cold",
			Usage:  "force every target into a cold state",
			Action: ActionEnsureCold,
			Flags:  withCommon(),
		},
		{
			Name:      "invoke",
			Usage:     "dispatch <count> asynchronous invocations to every target",
			ArgsUsage: "<count>",
			Action:    ActionInvoke,
			Flags:     withCommon(InvokeFlags()...),
		},
		{
			Name:      "send-messages",
			Usage:     "enqueue <count> messages for the queue-triggered target",
			ArgsUsage: "<count>",
			Action:    ActionSendMessages,
			Flags:     withCommon(),
		},
		{
			Name:   "digest",
			Usage:  "collect cold-start records and print their aggregation",
			Action: digest.Action,
			Flags:  withCommon(digest.Flags()...),
		},
		{
			Name:   "queries",
			Usage:  "print (or run) the dashboard Logs Insights queries",
			Action: ActionQueries,
			Flags:  withCommon(QueriesFlags()...),
		},
	}
}
