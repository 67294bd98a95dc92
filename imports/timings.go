package imports

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Timings maps an identifier to microseconds and remembers insertion order,
// which reflects the order dependencies were loaded in.
type Timings struct {
	keys   []string
	values map[string]float64
}

func NewTimings() *Timings {
	return &Timings{values: map[string]float64{}}
}

func (t *Timings) Set(id string, micros float64) {
	if _, ok := t.values[id]; !ok {
		t.keys = append(t.keys, id)
	}
	t.values[id] = micros
}

func (t *Timings) Get(id string) (float64, bool) {
	v, ok := t.values[id]
	return v, ok
}

func (t *Timings) Len() int {
	return len(t.keys)
}

func (t *Timings) Keys() []string {
	return append([]string{}, t.keys...)
}

func (t *Timings) Map() map[string]float64 {
	m := make(map[string]float64, len(t.values))
	for k, v := range t.values {
		m[k] = v
	}
	return m
}

// Merge returns a new Timings holding t followed by the entries of other.
func (t *Timings) Merge(other *Timings) *Timings {
	merged := NewTimings()
	for _, k := range t.keys {
		merged.Set(k, t.values[k])
	}
	for _, k := range other.keys {
		merged.Set(k, other.values[k])
	}
	return merged
}

func (t *Timings) MarshalJSON() ([]byte, error) {
	buf := &bytes.Buffer{}
	buf.WriteByte('{')
	for i, k := range t.keys {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := json.Marshal(k)
		if err != nil {
			return nil, fmt.Errorf("json.Marshal failed: %w", err)
		}
		val, err := json.Marshal(t.values[k])
		if err != nil {
			return nil, fmt.Errorf("json.Marshal failed: %w", err)
		}

		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
