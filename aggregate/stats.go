package aggregate

import (
	"fmt"
	"sort"
	"time"

	"github.com/montanaflynn/stats"
)

const (
	InitPercentile   = 99
	ModulePercentile = 95
)

type (
	InitDurationRow struct {
		Function string  `yaml:"function"`
		Count    int     `yaml:"count"`
		P99      float64 `yaml:"p99_ms"`
		Max      float64 `yaml:"max_ms"`
		Avg      float64 `yaml:"avg_ms"`
		Min      float64 `yaml:"min_ms"`
	}

	ModuleCostRow struct {
		Strategy string    `yaml:"strategy"`
		Memory   int       `yaml:"memory"`
		Hour     time.Time `yaml:"hour"`
		Count    int       `yaml:"count"`
		// Costs holds the p95 of every column, in milliseconds. Columns
		// without a single sample in the group are absent.
		Costs map[string]float64 `yaml:"costs"`
		Total float64            `yaml:"total_ms"`
	}

	// Columns are the timing keys reduced by ModuleCosts: one per module
	// plus the fixed init costs that are not module loads.
	Columns struct {
		Modules []string
		Fixed   []string
	}

	costKey struct {
		strategy string
		memory   int
		hour     time.Time
	}
)

func (c Columns) All() []string {
	all := make([]string, 0, len(c.Modules)+len(c.Fixed))
	all = append(all, c.Modules...)
	return append(all, c.Fixed...)
}

// InitDurations reduces the cold-start REPORT records inside window to one row
// per function, ordered by name.
func InitDurations(reports []*ReportRecord, window Window) ([]*InitDurationRow, error) {
	byFunction := map[string]stats.Float64Data{}
	for _, r := range reports {
		if !window.Contains(r.Timestamp) {
			continue
		}
		if _, err := ParseTargetName(r.Function); err != nil {
			return nil, fmt.Errorf("ParseTargetName failed: %w", err)
		}
		byFunction[r.Function] = append(byFunction[r.Function], r.InitDurationMs)
	}

	rows := make([]*InitDurationRow, 0, len(byFunction))
	for name, data := range byFunction {
		row := &InitDurationRow{Function: name, Count: len(data)}

		var err error
		if row.P99, err = stats.Percentile(data, InitPercentile); err != nil {
			return nil, fmt.Errorf("stats.Percentile failed: %w", err)
		}
		if row.Max, err = stats.Max(data); err != nil {
			return nil, fmt.Errorf("stats.Max failed: %w", err)
		}
		if row.Avg, err = stats.Mean(data); err != nil {
			return nil, fmt.Errorf("stats.Mean failed: %w", err)
		}
		if row.Min, err = stats.Min(data); err != nil {
			return nil, fmt.Errorf("stats.Min failed: %w", err)
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].Function < rows[j].Function })
	return rows, nil
}

// ModuleCosts reduces the module_timings records inside window to one row per
// (strategy, memory, hour). Timings are recorded in microseconds and reported
// in milliseconds.
func ModuleCosts(imports []*ImportRecord, window Window, columns Columns) ([]*ModuleCostRow, error) {
	all := columns.All()
	samples := map[costKey]map[string]stats.Float64Data{}
	counts := map[costKey]int{}

	for _, r := range imports {
		if !window.Contains(r.Timestamp) {
			continue
		}
		group, err := ParseTargetName(r.Function)
		if err != nil {
			return nil, fmt.Errorf("ParseTargetName failed: %w", err)
		}

		key := costKey{group.Strategy, group.Memory, r.Timestamp.UTC().Truncate(time.Hour)}
		if samples[key] == nil {
			samples[key] = map[string]stats.Float64Data{}
		}
		counts[key]++
		for _, col := range all {
			if v, ok := r.Timings[col]; ok {
				samples[key][col] = append(samples[key][col], v/1000)
			}
		}
	}

	rows := make([]*ModuleCostRow, 0, len(samples))
	for key, byColumn := range samples {
		row := &ModuleCostRow{
			Strategy: key.strategy,
			Memory:   key.memory,
			Hour:     key.hour,
			Count:    counts[key],
			Costs:    map[string]float64{},
		}
		for _, col := range all {
			data, ok := byColumn[col]
			if !ok {
				continue
			}
			p, err := stats.Percentile(data, ModulePercentile)
			if err != nil {
				return nil, fmt.Errorf("stats.Percentile failed: %w", err)
			}
			row.Costs[col] = p
			row.Total += p
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Strategy != b.Strategy {
			return a.Strategy < b.Strategy
		}
		if a.Memory != b.Memory {
			return a.Memory < b.Memory
		}
		return a.Hour.Before(b.Hour)
	})
	return rows, nil
}
