package digest

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/kaz/kaltstart/aggregate"
	"github.com/kaz/kaltstart/telemetry"
)

var initDurationPattern = regexp.MustCompile(`Init Duration: ([0-9.]+) ms`)

type timingsLine struct {
	Msg     string             `json:"msg"`
	Time    string             `json:"time"`
	Timings map[string]float64 `json:"timings"`
}

// ParseLine turns one log event of function into a record. It returns nil for
// lines that carry neither an init duration nor module timings.
func ParseLine(function string, at time.Time, line string) (interface{}, error) {
	line = strings.TrimSpace(line)

	switch {
	case strings.HasPrefix(line, "REPORT "):
		m := initDurationPattern.FindStringSubmatch(line)
		if m == nil {
			return nil, nil
		}
		ms, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return nil, fmt.Errorf("strconv.ParseFloat failed: %w", err)
		}
		return &aggregate.ReportRecord{Function: function, Timestamp: at, InitDurationMs: ms}, nil

	case strings.HasPrefix(line, "{") && strings.Contains(line, telemetry.ModuleTimingsMessage):
		parsed := &timingsLine{}
		if err := json.Unmarshal([]byte(line), parsed); err != nil {
			return nil, fmt.Errorf("json.Unmarshal failed: %w", err)
		}
		if parsed.Msg != telemetry.ModuleTimingsMessage || len(parsed.Timings) == 0 {
			return nil, nil
		}
		if t, err := time.Parse(time.RFC3339Nano, parsed.Time); err == nil {
			at = t
		}
		return &aggregate.ImportRecord{Function: function, Timestamp: at, Timings: parsed.Timings}, nil
	}

	return nil, nil
}
