// Package controlplane talks to the remote management API that owns the
// benchmark targets: listing them page by page, reading and replacing their
// configuration, and dispatching fire-and-forget invocations.
package controlplane

import (
	"context"
	"fmt"
	"strings"
)

const (
	DefaultPrefix            = "perf_"
	DefaultMeasurementMarker = "_measure_"
)

type (
	Target struct {
		Name          string
		Configuration map[string]string
		Invokable     bool
	}

	Page struct {
		Targets    []*Target
		NextMarker string
	}

	Lister interface {
		ListPage(ctx context.Context, marker string) (*Page, error)
	}
	Configurator interface {
		Configuration(ctx context.Context, name string) (map[string]string, error)
		UpdateConfiguration(ctx context.Context, name string, conf map[string]string) error
	}
	Invoker interface {
		InvokeAsync(ctx context.Context, name string, payload []byte) error
	}

	Client interface {
		Lister
		Configurator
		Invoker
	}

	// Filter selects benchmark targets by name convention.
	Filter struct {
		Prefix            string
		MeasurementMarker string
	}
)

func DefaultFilter() Filter {
	return Filter{Prefix: DefaultPrefix, MeasurementMarker: DefaultMeasurementMarker}
}

func (f Filter) IsMeasurement(name string) bool {
	return f.MeasurementMarker != "" && strings.Contains(name, f.MeasurementMarker)
}

// ListAll drains every page. Targets without a name are dropped and a name
// seen on an earlier page is never returned twice.
func ListAll(ctx context.Context, l Lister) ([]*Target, error) {
	targets := []*Target{}
	seen := map[string]bool{}
	seenMarkers := map[string]bool{}

	marker := ""
	for {
		page, err := l.ListPage(ctx, marker)
		if err != nil {
			return nil, fmt.Errorf("ListPage failed: %w", err)
		}

		for _, t := range page.Targets {
			if t == nil || t.Name == "" || seen[t.Name] {
				continue
			}
			seen[t.Name] = true
			targets = append(targets, t)
		}

		if page.NextMarker == "" {
			return targets, nil
		}
		if seenMarkers[page.NextMarker] {
			return nil, fmt.Errorf("pagination loop at marker %q", page.NextMarker)
		}
		seenMarkers[page.NextMarker] = true
		marker = page.NextMarker
	}
}

// Discover lists every target matching the filter's prefix and flags the
// measurement-only ones as not invokable.
func Discover(ctx context.Context, l Lister, f Filter) ([]*Target, error) {
	all, err := ListAll(ctx, l)
	if err != nil {
		return nil, fmt.Errorf("ListAll failed: %w", err)
	}

	targets := []*Target{}
	for _, t := range all {
		if !strings.HasPrefix(t.Name, f.Prefix) {
			continue
		}
		t.Invokable = !f.IsMeasurement(t.Name)
		targets = append(targets, t)
	}
	return targets, nil
}

func Invokable(targets []*Target) []*Target {
	ret := []*Target{}
	for _, t := range targets {
		if t.Invokable {
			ret = append(ret, t)
		}
	}
	return ret
}

func Names(targets []*Target) []string {
	names := make([]string, len(targets))
	for i, t := range targets {
		names[i] = t.Name
	}
	return names
}
