// Package digest collects the raw cold-start records (platform REPORT lines
// and module_timings lines) and prints their aggregation.
package digest

import (
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/kaz/kaltstart/aggregate"
	"github.com/kaz/kaltstart/benchmark"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v2"
)

const (
	FormatTable = "table"
	FormatYAML  = "yaml"
)

type (
	Digest struct {
		InitDurations []*aggregate.InitDurationRow `yaml:"init_durations"`
		ModuleCosts   []*aggregate.ModuleCostRow   `yaml:"module_costs"`
	}
)

func WindowFlags() []cli.Flag {
	return []cli.Flag{
		&cli.DurationFlag{
			Name:  "since",
			Usage: "aggregate the last `DURATION` (ignored when --start is given)",
		},
		&cli.TimestampFlag{
			Name:   "start",
			Usage:  "inclusive window start (RFC3339)",
			Layout: time.RFC3339,
		},
		&cli.TimestampFlag{
			Name:   "end",
			Usage:  "exclusive window end (RFC3339)",
			Layout: time.RFC3339,
		},
	}
}

func WindowFromContext(context *cli.Context) aggregate.Window {
	window := aggregate.Window{}
	if t := context.Timestamp("start"); t != nil {
		window.Start = *t
	}
	if t := context.Timestamp("end"); t != nil {
		window.End = *t
	}
	if window.Start.IsZero() && context.Duration("since") > 0 {
		end := window.End
		if end.IsZero() {
			end = time.Now()
		}
		window.Start = end.Add(-context.Duration("since"))
	}
	return window
}

func Flags() []cli.Flag {
	return append(WindowFlags(),
		&cli.StringFlag{
			Name:  "input",
			Usage: "read records from an archive instead of CloudWatch Logs",
		},
		&cli.StringFlag{
			Name:  "output",
			Usage: "write the collected records to an archive",
		},
		&cli.StringFlag{
			Name:    "mysql",
			Usage:   "DSN of a record store; collected records are saved there",
			EnvVars: []string{"KALTSTART_MYSQL"},
		},
		&cli.BoolFlag{
			Name:  "from-mysql",
			Usage: "read records from the --mysql store instead of collecting them",
		},
		&cli.StringFlag{
			Name:  "format",
			Usage: "table or yaml",
			Value: FormatTable,
		},
	)
}

func Action(context *cli.Context) error {
	conf, err := benchmark.ConfigFromContext(context)
	if err != nil {
		return fmt.Errorf("benchmark.ConfigFromContext failed: %w", err)
	}
	if context.IsSet("mysql") {
		conf.Aggregate.MySQL = context.String("mysql")
	}

	format := context.String("format")
	if format != FormatTable && format != FormatYAML {
		return cli.Exit(fmt.Sprintf("unknown format %q", format), 2)
	}

	window := WindowFromContext(context)

	var store *aggregate.Records
	var mysqlStore *MySQLStore
	if conf.Aggregate.MySQL != "" {
		mysqlStore, err = OpenMySQLStore(context.Context, conf.Aggregate.MySQL)
		if err != nil {
			return fmt.Errorf("OpenMySQLStore failed: %w", err)
		}
		defer mysqlStore.Close()
	}

	var rs RecordSource
	switch {
	case context.String("input") != "":
		rs, err = NewArchiveSource(context.String("input"))
		if err != nil {
			return fmt.Errorf("NewArchiveSource failed: %w", err)
		}
	case context.Bool("from-mysql"):
		if mysqlStore == nil {
			return cli.Exit("--from-mysql needs a --mysql store", 2)
		}
		rs = mysqlStore.Source(context.Context, window)
	default:
		cfg, err := conf.AWS(context.Context)
		if err != nil {
			return fmt.Errorf("conf.AWS failed: %w", err)
		}
		rs = NewLogsSource(context.Context, cloudwatchlogs.NewFromConfig(cfg), conf.Aggregate.LogGroupPrefix, conf.Prefix, window)
	}

	store, err = Collect(rs)
	if err != nil {
		return fmt.Errorf("Collect failed: %w", err)
	}
	log.Infof("collected %d cold starts and %d module timing records", len(store.Reports), len(store.Imports))

	if path := context.String("output"); path != "" {
		if err := WriteArchive(path, store); err != nil {
			return fmt.Errorf("WriteArchive failed: %w", err)
		}
	}
	if mysqlStore != nil && !context.Bool("from-mysql") {
		if err := mysqlStore.Save(context.Context, store); err != nil {
			return fmt.Errorf("MySQLStore.Save failed: %w", err)
		}
	}

	columns := aggregate.Columns{Modules: conf.Aggregate.Modules, Fixed: conf.Aggregate.FixedCosts}
	digest, err := Summarize(store, window, columns)
	if err != nil {
		return fmt.Errorf("Summarize failed: %w", err)
	}
	return Write(context.App.Writer, digest, columns, format)
}

func Summarize(records *aggregate.Records, window aggregate.Window, columns aggregate.Columns) (*Digest, error) {
	inits, err := aggregate.InitDurations(records.Reports, window)
	if err != nil {
		return nil, fmt.Errorf("aggregate.InitDurations failed: %w", err)
	}
	costs, err := aggregate.ModuleCosts(records.Imports, window, columns)
	if err != nil {
		return nil, fmt.Errorf("aggregate.ModuleCosts failed: %w", err)
	}
	return &Digest{InitDurations: inits, ModuleCosts: costs}, nil
}

func Write(out io.Writer, digest *Digest, columns aggregate.Columns, format string) error {
	if format == FormatYAML {
		if err := yaml.NewEncoder(out).Encode(digest); err != nil {
			return fmt.Errorf("yaml.Encoder.Encode failed: %w", err)
		}
		return nil
	}

	fmt.Fprintln(out, "Cold start init durations")
	aggregate.DrawInitDurations(out, digest.InitDurations)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Module load times")
	aggregate.DrawModuleCosts(out, digest.ModuleCosts, columns)
	return nil
}
