package digest

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/kaz/kaltstart/aggregate"
	"github.com/kaz/kaltstart/benchmark/msg"
)

type (
	ArchiveSource struct {
		file *os.File
		err  error
		done chan struct{}
	}
)

func NewArchiveSource(path string) (RecordSource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("os.Open failed: %w", err)
	}

	return &ArchiveSource{file: file}, nil
}

func (as *ArchiveSource) Records() chan interface{} {
	reader := msg.NewReader(as.file)
	as.done = make(chan struct{})

	ch := make(chan interface{})
	go func() {
		defer close(as.done)
		defer close(ch)

		for {
			rec, err := reader.Receive()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				as.err = fmt.Errorf("msg.Reader.Receive failed: %w", err)
				return
			}
			ch <- rec
		}
	}()

	return ch
}

func (as *ArchiveSource) Close() error {
	if as.done != nil {
		<-as.done
	}
	if err := as.file.Close(); err != nil && as.err == nil {
		return fmt.Errorf("os.File.Close failed: %w", err)
	}
	return as.err
}

// WriteArchive stores records at path, all reports ahead of all imports.
func WriteArchive(path string, records *aggregate.Records) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("os.Create failed: %w", err)
	}
	defer file.Close()

	w := msg.NewWriter(file)
	for _, r := range records.Reports {
		if err := w.Send(r); err != nil {
			return fmt.Errorf("msg.Writer.Send failed: %w", err)
		}
	}
	for _, r := range records.Imports {
		if err := w.Send(r); err != nil {
			return fmt.Errorf("msg.Writer.Send failed: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("msg.Writer.Close failed: %w", err)
	}
	return file.Close()
}
