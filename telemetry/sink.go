// Package telemetry writes the structured records the workload reports:
// JSON log lines (queried back by dotted key path, e.g. timings.parquet) and
// embedded-metric-format lines that the platform turns into metrics.
package telemetry

import (
	"io"
	"sort"
	"strings"
	"time"

	"github.com/kaz/kaltstart/imports"
	log "github.com/sirupsen/logrus"
)

const (
	UnitMicroseconds = "Microseconds"
	UnitCount        = "Count"

	ModuleTimingsMessage = "module_timings"
	ColdStartMetric      = "ColdStart"
)

type (
	Sink struct {
		logger    *log.Logger
		namespace string
		service   string
		now       func() time.Time
	}

	Metric struct {
		Name  string
		Unit  string
		Value float64
	}

	emfMetadata struct {
		Timestamp         int64          `json:"Timestamp"`
		CloudWatchMetrics []emfDirective `json:"CloudWatchMetrics"`
	}
	emfDirective struct {
		Namespace  string          `json:"Namespace"`
		Dimensions [][]string      `json:"Dimensions"`
		Metrics    []emfDefinition `json:"Metrics"`
	}
	emfDefinition struct {
		Name string `json:"Name"`
		Unit string `json:"Unit"`
	}
)

func New(w io.Writer, namespace, service string) *Sink {
	logger := log.New()
	logger.SetOutput(w)
	logger.SetFormatter(&log.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	logger.SetLevel(log.InfoLevel)

	return &Sink{logger: logger, namespace: namespace, service: service, now: time.Now}
}

func (s *Sink) Entry() *log.Entry {
	return s.logger.WithField("service", s.service)
}

// ModuleTimings emits the single per-cold-start record carrying every timing.
func (s *Sink) ModuleTimings(timings *imports.Timings) {
	s.Entry().WithField("timings", timings).Info(ModuleTimingsMessage)
}

// PutMetrics emits one embedded-metric-format record holding all metrics,
// dimensioned by the given key/value pairs.
func (s *Sink) PutMetrics(metrics []Metric, dimensions map[string]string) {
	if len(metrics) == 0 {
		return
	}

	keys := make([]string, 0, len(dimensions))
	for k := range dimensions {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	directive := emfDirective{Namespace: s.namespace, Dimensions: [][]string{keys}}
	fields := log.Fields{}
	for _, k := range keys {
		fields[k] = dimensions[k]
	}
	for _, m := range metrics {
		directive.Metrics = append(directive.Metrics, emfDefinition{Name: m.Name, Unit: m.Unit})
		fields[m.Name] = m.Value
	}
	fields["_aws"] = emfMetadata{
		Timestamp:         s.now().UnixNano() / int64(time.Millisecond),
		CloudWatchMetrics: []emfDirective{directive},
	}

	s.logger.WithFields(fields).Info("metrics")
}

// Metrics turns every timing into a microsecond metric named by name(id).
func Metrics(timings *imports.Timings, name func(id string) string) []Metric {
	metrics := []Metric{}
	for _, id := range timings.Keys() {
		v, _ := timings.Get(id)
		metrics = append(metrics, Metric{Name: name(id), Unit: UnitMicroseconds, Value: v})
	}
	return metrics
}

func ModuleMetrics(timings *imports.Timings) []Metric {
	return Metrics(timings, ModuleMetricName)
}

// BareMetricName names a metric after the module id itself.
func BareMetricName(id string) string {
	return id
}

func ModuleMetricName(id string) string {
	return "module_load_" + strings.NewReplacer(".", "_", "/", "_").Replace(id)
}
