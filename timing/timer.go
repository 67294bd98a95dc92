// Package timing brackets an operation and reports how long it took in
// microseconds. Durations are always taken from the monotonic reading carried
// by time.Now, never from wall-clock differences.
package timing

import (
	"math"
	"sync"
	"sync/atomic"
	"time"
)

type (
	Timer struct {
		start   time.Time
		once    sync.Once
		elapsed uint64 // float64 bits
	}

	Record struct {
		Operation     string
		ElapsedMicros float64
	}
)

func Start() *Timer {
	return &Timer{start: time.Now()}
}

// Stop fixes the elapsed time on the first call; later calls return the same value.
func (t *Timer) Stop() float64 {
	t.once.Do(func() {
		atomic.StoreUint64(&t.elapsed, math.Float64bits(micros(time.Since(t.start))))
	})
	return t.Elapsed()
}

// Elapsed returns the value fixed by Stop, or 0 while the timer is still
// running. It is safe to call concurrently with Stop.
func (t *Timer) Elapsed() float64 {
	return math.Float64frombits(atomic.LoadUint64(&t.elapsed))
}

// Measure runs fn and returns its timing. The timer is stopped on the way out
// even if fn panics, so a panicking operation still has exactly one value.
func Measure(operation string, fn func()) (rec Record) {
	t := Start()
	defer func() {
		rec = Record{Operation: operation, ElapsedMicros: t.Stop()}
	}()
	fn()
	return
}

func micros(d time.Duration) float64 {
	if d < 0 {
		return 0
	}
	return float64(d.Nanoseconds()) / 1000
}
