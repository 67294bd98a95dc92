package coldstart

import (
	"sync"
	"time"
)

// Stamper hands out timestamp-derived values that never repeat within the
// process, even if two are requested within the same clock tick.
type Stamper struct {
	mu   sync.Mutex
	now  func() time.Time
	last time.Time
}

func NewStamper(now func() time.Time) *Stamper {
	return &Stamper{now: now}
}

func (s *Stamper) Next() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.now().UTC()
	if !t.After(s.last) {
		t = s.last.Add(time.Nanosecond)
	}
	s.last = t
	return t.Format(time.RFC3339Nano)
}
