package workload

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"runtime"

	"github.com/go-gota/gota/dataframe"
	"github.com/kaz/kaltstart/imports"
	"github.com/kaz/kaltstart/telemetry"
)

// Measurement is the measurement-only function: it never processes data and
// answers every invocation with the load timings of its own process.
type Measurement struct {
	mods    *modules
	timings *imports.Timings
	sink    *telemetry.Sink
	service string
}

func InitializeMeasurement(registry *imports.Registry, w io.Writer, namespace, service string) (*Measurement, error) {
	rec := imports.NewRecorder(registry)
	mods, err := loadModules(rec)
	if err != nil {
		return nil, fmt.Errorf("loadModules failed: %w", err)
	}

	return &Measurement{
		mods:    mods,
		timings: rec.Timings(),
		sink:    telemetry.New(w, namespace, service),
		service: service,
	}, nil
}

func (m *Measurement) Handle(_ context.Context, _ json.RawMessage) (map[string]float64, error) {
	m.sink.Entry().WithField("version", runtime.Version()).Info("Go version")

	// touch every handle so the dependencies are actually usable
	if df := dataframe.LoadStructs([]Order{{}}); df.Err != nil {
		return nil, fmt.Errorf("dataframe.LoadStructs failed: %w", df.Err)
	}
	m.sink.Entry().WithField("schema", m.mods.schema.String()).Debug("parquet schema")
	m.mods.encoding.EncodeToString(nil)

	m.sink.PutMetrics(telemetry.Metrics(m.timings, telemetry.BareMetricName), map[string]string{"service": m.service})
	m.sink.Entry().WithField("measurements", m.timings).Info("measurements")

	return m.timings.Map(), nil
}
