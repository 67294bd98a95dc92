package hq

import (
	"fmt"

	"github.com/kaz/kaltstart/aggregate"
	"github.com/kaz/kaltstart/controlplane"
	"github.com/kaz/kaltstart/digest"
	"github.com/urfave/cli/v2"
)

func QueriesFlags() []cli.Flag {
	return append(digest.WindowFlags(), &cli.BoolFlag{
		Name:  "run",
		Usage: "run every query against the targets' log groups and print the results",
	})
}

func ActionQueries(context *cli.Context) error {
	s, err := readConfig(context)
	if err != nil {
		return fmt.Errorf("readConfig failed: %w", err)
	}
	defer s.cancel()

	columns := aggregate.Columns{Modules: s.conf.Aggregate.Modules, Fixed: s.conf.Aggregate.FixedCosts}
	queries := aggregate.Queries(columns)
	out := context.App.Writer

	if !context.Bool("run") {
		for _, q := range queries {
			fmt.Fprintf(out, "# %v (%v)\n%v\n\n", q.Title, q.View, q.Text)
		}
		return nil
	}

	targets, err := controlplane.Discover(s.ctx, newClient(s.aws), s.conf.Filter())
	if err != nil {
		return fmt.Errorf("controlplane.Discover failed: %w", err)
	}
	groups := make([]string, 0, len(targets))
	for _, name := range controlplane.Names(targets) {
		groups = append(groups, s.conf.Aggregate.LogGroupPrefix+name)
	}

	api := newInsightsAPI(s.aws)
	window := digest.WindowFromContext(context)
	for _, q := range queries {
		rows, err := aggregate.Run(s.ctx, api, q, groups, window)
		if err != nil {
			return fmt.Errorf("aggregate.Run failed: %w", err)
		}
		fmt.Fprintf(out, "# %v\n", q.Title)
		aggregate.DrawResults(out, rows)
		fmt.Fprintln(out)
	}
	return nil
}
