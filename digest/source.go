package digest

import (
	"context"

	"github.com/kaz/kaltstart/aggregate"
)

type (
	// RecordSource streams *aggregate.ReportRecord and *aggregate.ImportRecord
	// values. The channel is closed when the source is exhausted; Close then
	// reports the first error the source hit.
	RecordSource interface {
		Records() chan interface{}
		Close() error
	}
)

// Collect drains src.
func Collect(src RecordSource) (*aggregate.Records, error) {
	records := &aggregate.Records{}
	for rec := range src.Records() {
		records.Add(rec)
	}
	if err := src.Close(); err != nil {
		return records, err
	}
	return records, nil
}

// send hands rec to the reader unless ctx ends first.
func send(ctx context.Context, ch chan interface{}, rec interface{}) error {
	select {
	case ch <- rec:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
