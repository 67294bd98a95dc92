// Package coldstart forces benchmark targets into a cold state by writing a
// never-seen value into one configuration key of every target, which makes
// the platform discard any warmed execution context.
package coldstart

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/kaz/kaltstart/controlplane"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultKey = "COLD_START_FORCER"
)

type (
	Forcer struct {
		client  controlplane.Client
		filter  controlplane.Filter
		key     string
		stamper *Stamper
		out     io.Writer
	}

	Result struct {
		Target        string
		Configuration map[string]string
		Err           error
	}
)

func NewForcer(client controlplane.Client, filter controlplane.Filter, key string, out io.Writer) *Forcer {
	if key == "" {
		key = DefaultKey
	}
	return &Forcer{
		client:  client,
		filter:  filter,
		key:     key,
		stamper: NewStamper(time.Now),
		out:     out,
	}
}

// Merge returns a copy of conf with key set to value; every other key is kept.
func Merge(conf map[string]string, key, value string) map[string]string {
	merged := make(map[string]string, len(conf)+1)
	for k, v := range conf {
		merged[k] = v
	}
	merged[key] = value
	return merged
}

// Force updates every target matching the filter, measurement-only ones
// included. A listing failure aborts the run; a failure on one target is
// recorded in its Result and the remaining targets are still updated.
func (f *Forcer) Force(ctx context.Context) ([]*Result, error) {
	targets, err := controlplane.Discover(ctx, f.client, f.filter)
	if err != nil {
		return nil, fmt.Errorf("controlplane.Discover failed: %w", err)
	}

	value := f.stamper.Next()

	results := []*Result{}
	for _, target := range targets {
		res := &Result{Target: target.Name}
		results = append(results, res)

		conf, err := f.client.Configuration(ctx, target.Name)
		if err != nil {
			res.Err = fmt.Errorf("client.Configuration failed: %w", err)
			log.WithField("target", target.Name).Warnf("reading configuration failed: %v", err)
			continue
		}

		res.Configuration = Merge(conf, f.key, value)
		if err := f.client.UpdateConfiguration(ctx, target.Name, res.Configuration); err != nil {
			res.Err = fmt.Errorf("client.UpdateConfiguration failed: %w", err)
			log.WithField("target", target.Name).Warnf("updating configuration failed: %v", err)
			continue
		}

		fmt.Fprintf(f.out, "%v updated with %v\n", target.Name, res.Configuration)
	}

	return results, nil
}

func Failed(results []*Result) []*Result {
	ret := []*Result{}
	for _, r := range results {
		if r.Err != nil {
			ret = append(ret, r)
		}
	}
	return ret
}
