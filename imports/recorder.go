package imports

import (
	"fmt"

	"github.com/kaz/kaltstart/timing"
)

type (
	Recorder struct {
		registry *Registry
		timings  *Timings
	}
)

func NewRecorder(registry *Registry) *Recorder {
	return &Recorder{registry: registry, timings: NewTimings()}
}

func (r *Recorder) Record(id string, load Loader) (interface{}, error) {
	var (
		handle interface{}
		err    error
	)
	rec := timing.Measure(id, func() {
		handle, err = r.registry.Acquire(id, load)
	})
	if err != nil {
		return nil, fmt.Errorf("loading %v failed: %w", id, err)
	}

	r.timings.Set(rec.Operation, rec.ElapsedMicros)
	return handle, nil
}

func (r *Recorder) Timings() *Timings {
	return r.timings
}
