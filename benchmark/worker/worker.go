// Package worker drives invocation load: one worker per invokable target,
// each issuing an exact number of fire-and-forget dispatches through its own
// token bucket.
package worker

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/kaz/kaltstart/controlplane"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

type (
	Options struct {
		Count       int
		Concurrency int
		Rate        rate.Limit
		Burst       int
		Payload     []byte
		Progress    bool
	}

	Report struct {
		Target string
		Issued int64
		Failed int64
		Start  time.Time
		Finish time.Time
	}

	Generator struct {
		client controlplane.Client
		filter controlplane.Filter
		opts   Options
	}

	job struct {
		parent  *Generator
		target  *controlplane.Target
		ptr     int64
		limiter *rate.Limiter
		bar     *pb.ProgressBar
		report  *Report
	}
)

// Limit converts a per-second rate to a limiter rate; zero or less means unlimited.
func Limit(perSecond float64) rate.Limit {
	if perSecond <= 0 || math.IsInf(perSecond, 1) {
		return rate.Inf
	}
	return rate.Limit(perSecond)
}

func NewGenerator(client controlplane.Client, filter controlplane.Filter, opts Options) *Generator {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.Burst < 1 {
		opts.Burst = 1
	}
	if opts.Rate == 0 {
		opts.Rate = rate.Inf
	}
	if opts.Payload == nil {
		opts.Payload = []byte("{}")
	}
	return &Generator{client: client, filter: filter, opts: opts}
}

// InvokeAll dispatches Count invocations to every invokable target and waits
// for all workers. Reports come back in discovery order.
func (g *Generator) InvokeAll(ctx context.Context) ([]*Report, error) {
	if g.opts.Count < 0 {
		return nil, fmt.Errorf("invocation count must not be negative, got %d", g.opts.Count)
	}

	discovered, err := controlplane.Discover(ctx, g.client, g.filter)
	if err != nil {
		return nil, fmt.Errorf("controlplane.Discover failed: %w", err)
	}
	targets := controlplane.Invokable(discovered)

	jobs := make([]*job, len(targets))
	bars := make([]*pb.ProgressBar, len(targets))
	for i, target := range targets {
		bars[i] = pb.Full.New(g.opts.Count).Set("prefix", target.Name+" ")
		jobs[i] = &job{
			parent:  g,
			target:  target,
			limiter: rate.NewLimiter(g.opts.Rate, g.opts.Burst),
			bar:     bars[i],
			report:  &Report{Target: target.Name},
		}
	}

	var pool *pb.Pool
	if g.opts.Progress && len(bars) > 0 {
		if pool, err = pb.StartPool(bars...); err != nil {
			log.Warnf("pb.StartPool failed, continuing without progress bars: %v", err)
			pool = nil
		}
	}

	broadcast(jobs, func(j *job) { j.run(ctx) })

	if pool != nil {
		if err := pool.Stop(); err != nil {
			log.Warnf("pool.Stop failed: %v", err)
		}
	}

	reports := make([]*Report, len(jobs))
	for i, j := range jobs {
		reports[i] = j.report
	}
	return reports, nil
}

func broadcast(jobs []*job, action func(*job)) {
	wg := &sync.WaitGroup{}
	for _, j := range jobs {
		wg.Add(1)
		go func(j *job) {
			defer wg.Done()
			action(j)
		}(j)
	}
	wg.Wait()
}

func (j *job) run(ctx context.Context) {
	j.report.Start = time.Now()

	wg := &sync.WaitGroup{}
	for i := 0; i < j.parent.opts.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j.process(ctx)
		}()
	}
	wg.Wait()

	j.report.Finish = time.Now()
	if j.parent.opts.Progress {
		j.bar.Finish()
	}
}

func (j *job) process(ctx context.Context) {
	count := int64(j.parent.opts.Count)
	for {
		if ctx.Err() != nil {
			return
		}
		if atomic.AddInt64(&j.ptr, 1) > count {
			return
		}
		if err := j.limiter.Wait(ctx); err != nil {
			return
		}

		atomic.AddInt64(&j.report.Issued, 1)
		if err := j.parent.client.InvokeAsync(ctx, j.target.Name, j.parent.opts.Payload); err != nil {
			atomic.AddInt64(&j.report.Failed, 1)
			log.WithField("target", j.target.Name).Warnf("dispatch failed: %v", err)
		}
		j.bar.Increment()
	}
}

// Totals sums issued and failed dispatches over all reports and returns the
// span between the earliest start and the latest finish.
func Totals(reports []*Report) (issued, failed int64, elapsed time.Duration) {
	var start, finish time.Time
	for _, r := range reports {
		issued += r.Issued
		failed += r.Failed

		if start.IsZero() || r.Start.Before(start) {
			start = r.Start
		}
		if finish.IsZero() || r.Finish.After(finish) {
			finish = r.Finish
		}
	}
	return issued, failed, finish.Sub(start)
}
