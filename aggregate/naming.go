// Package aggregate reduces raw per-invocation records into the statistics the
// benchmark dashboards show, and defines the equivalent Logs Insights queries.
//
// Every grouping is keyed by the target naming convention
// {strategy}_{runtime}_{memory}: the memory tier is the numeric suffix after
// the last underscore, and everything before it is the packaging-strategy key,
// whose last underscore-separated token is the runtime version. For example
// perf_zip_layers_Python39_1769 yields strategy perf_zip_layers_Python39,
// runtime Python39 and memory 1769.
package aggregate

import (
	"fmt"
	"strconv"
	"strings"
)

type Group struct {
	Strategy string
	Runtime  string
	Memory   int
}

func ParseTargetName(name string) (*Group, error) {
	i := strings.LastIndex(name, "_")
	if i <= 0 || i == len(name)-1 {
		return nil, fmt.Errorf("target %q does not end in _<memory>", name)
	}

	strategy, suffix := name[:i], name[i+1:]
	for _, r := range suffix {
		if r < '0' || r > '9' {
			return nil, fmt.Errorf("target %q: memory suffix %q is not numeric", name, suffix)
		}
	}
	memory, err := strconv.Atoi(suffix)
	if err != nil || memory <= 0 {
		return nil, fmt.Errorf("target %q: invalid memory suffix %q", name, suffix)
	}

	j := strings.LastIndex(strategy, "_")
	if j <= 0 || j == len(strategy)-1 {
		return nil, fmt.Errorf("target %q has no runtime segment before the memory suffix", name)
	}

	return &Group{Strategy: strategy, Runtime: strategy[j+1:], Memory: memory}, nil
}

func (g *Group) String() string {
	return fmt.Sprintf("%v_%d", g.Strategy, g.Memory)
}
