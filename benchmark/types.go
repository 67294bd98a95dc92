package benchmark

import (
	"fmt"
	"os"

	"github.com/kaz/kaltstart/controlplane"
	"gopkg.in/yaml.v2"
)

type (
	Config struct {
		Region            string `yaml:"region"`
		Prefix            string `yaml:"prefix"`
		MeasurementMarker string `yaml:"measurement_marker"`
		ForcerKey         string `yaml:"forcer_key"`

		Invoke    InvokeConfig    `yaml:"invoke"`
		Queue     QueueConfig     `yaml:"queue"`
		Aggregate AggregateConfig `yaml:"aggregate"`
	}

	InvokeConfig struct {
		Concurrency int     `yaml:"concurrency"`
		Rate        float64 `yaml:"rate"`
		Burst       int     `yaml:"burst"`
		Payload     string  `yaml:"payload"`
	}

	QueueConfig struct {
		NameContains string `yaml:"name_contains"`
		BatchSize    int    `yaml:"batch_size"`
		Body         string `yaml:"body"`
	}

	AggregateConfig struct {
		LogGroupPrefix string   `yaml:"log_group_prefix"`
		Modules        []string `yaml:"modules"`
		FixedCosts     []string `yaml:"fixed_costs"`
		MySQL          string   `yaml:"mysql"`
	}
)

func DefaultConfig() *Config {
	return &Config{
		Prefix:            controlplane.DefaultPrefix,
		MeasurementMarker: controlplane.DefaultMeasurementMarker,
		ForcerKey:         "COLD_START_FORCER",
		Invoke: InvokeConfig{
			Concurrency: 1,
			Rate:        20,
			Burst:       1,
			Payload:     "{}",
		},
		Queue: QueueConfig{
			NameContains: "LambdaDatasciPerfQueue",
			BatchSize:    10,
			Body:         "Hello",
		},
		Aggregate: AggregateConfig{
			LogGroupPrefix: "/aws/lambda/",
			Modules:        []string{"base64", "json", "time", "gonum", "gota", "parquet"},
			FixedCosts:     []string{"telemetry_init_time", "sdk_init_time"},
		},
	}
}

// ReadConfig decodes the YAML file at path over the defaults. An empty path
// yields the defaults.
func ReadConfig(path string) (*Config, error) {
	conf := DefaultConfig()
	if path == "" {
		return conf, nil
	}

	configFile, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("os.Open failed: %w", err)
	}
	defer configFile.Close()

	if err := yaml.NewDecoder(configFile).Decode(conf); err != nil {
		return nil, fmt.Errorf("yaml.NewDecoder.Decode failed: %w", err)
	}
	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("Validate failed: %w", err)
	}
	return conf, nil
}

func (c *Config) Validate() error {
	if c.Prefix == "" {
		return fmt.Errorf("prefix must not be empty")
	}
	if c.ForcerKey == "" {
		return fmt.Errorf("forcer_key must not be empty")
	}
	if c.Invoke.Concurrency < 1 {
		return fmt.Errorf("invoke.concurrency must be at least 1, got %d", c.Invoke.Concurrency)
	}
	if c.Invoke.Rate < 0 {
		return fmt.Errorf("invoke.rate must not be negative, got %v", c.Invoke.Rate)
	}
	if c.Queue.BatchSize < 1 || c.Queue.BatchSize > 10 {
		return fmt.Errorf("queue.batch_size must be within 1..10, got %d", c.Queue.BatchSize)
	}
	return nil
}

func (c *Config) Filter() controlplane.Filter {
	return controlplane.Filter{Prefix: c.Prefix, MeasurementMarker: c.MeasurementMarker}
}
