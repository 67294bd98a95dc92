package main

import (
	"fmt"
	"os"

	"github.com/kaz/kaltstart/benchmark/hq"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var (
	Version = "dev"
)

func main() {
	log.SetOutput(os.Stderr)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	app := &cli.App{
		Name:     "kaltstart",
		Usage:    "cold-start benchmark harness for serverless functions",
		Version:  Version,
		Commands: hq.Commands(),
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "log at debug level",
			},
		},
		Before: func(context *cli.Context) error {
			if context.Bool("debug") {
				log.SetLevel(log.DebugLevel)
			}
			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
