package benchmark

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/urfave/cli/v2"
)

// Flags are shared by every command; when set they override the file.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "YAML file decoded over the defaults",
			EnvVars: []string{"KALTSTART_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "region",
			Usage:   "AWS region of the targets",
			EnvVars: []string{"AWS_REGION"},
		},
		&cli.StringFlag{
			Name:    "prefix",
			Usage:   "target name prefix",
			EnvVars: []string{"KALTSTART_PREFIX"},
		},
	}
}

func ConfigFromContext(context *cli.Context) (*Config, error) {
	conf, err := ReadConfig(context.String("config"))
	if err != nil {
		return nil, fmt.Errorf("ReadConfig failed: %w", err)
	}

	if context.IsSet("region") {
		conf.Region = context.String("region")
	}
	if context.IsSet("prefix") {
		conf.Prefix = context.String("prefix")
	}

	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("Validate failed: %w", err)
	}
	return conf, nil
}

func (c *Config) AWS(ctx context.Context) (aws.Config, error) {
	var opts []func(*config.LoadOptions) error
	if c.Region != "" {
		opts = append(opts, config.WithRegion(c.Region))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("config.LoadDefaultConfig failed: %w", err)
	}
	return cfg, nil
}
