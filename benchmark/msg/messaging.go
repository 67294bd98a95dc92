// Package msg frames records as typed msgpack messages. An archive is a
// sequence of frames inside one lz4 stream.
package msg

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/kaz/kaltstart/aggregate"
	"github.com/pierrec/lz4"
	"github.com/vmihailenco/msgpack"
)

type (
	MessageType byte

	Writer struct {
		zw *lz4.Writer
	}
	Reader struct {
		zr *lz4.Reader
	}
)

const (
	typeUnknown MessageType = iota
	typeReport
	typeImport
)

const maxBodySize = 16 << 20

func Send(w io.Writer, body interface{}) error {
	var typ MessageType

	switch body.(type) {
	case *aggregate.ReportRecord:
		typ = typeReport
	case *aggregate.ImportRecord:
		typ = typeImport
	default:
		return fmt.Errorf("unexpected type: %#v", body)
	}

	data, err := msgpack.Marshal(body)
	if err != nil {
		return fmt.Errorf("msgpack.Marshal failed: %w", err)
	}

	header := make([]byte, 5)
	header[0] = byte(typ)
	binary.BigEndian.PutUint32(header[1:], uint32(len(data)))

	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("writer.Write failed: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writer.Write failed: %w", err)
	}
	return nil
}

// Receive reads one frame. It returns an error wrapping io.EOF when r is
// exhausted exactly at a frame boundary.
func Receive(r io.Reader) (interface{}, error) {
	header := make([]byte, 5)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("io.ReadFull failed: %w", err)
	}

	var body interface{}
	switch MessageType(header[0]) {
	case typeReport:
		body = &aggregate.ReportRecord{}
	case typeImport:
		body = &aggregate.ImportRecord{}
	default:
		return nil, fmt.Errorf("unexpected type: %#v", header[0])
	}

	size := binary.BigEndian.Uint32(header[1:])
	if size > maxBodySize {
		return nil, fmt.Errorf("frame too large: %d bytes", size)
	}

	data := make([]byte, size)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("io.ReadFull failed: %w", err)
	}
	if err := msgpack.Unmarshal(data, body); err != nil {
		return nil, fmt.Errorf("msgpack.Unmarshal failed: %w", err)
	}
	return body, nil
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{zw: lz4.NewWriter(w)}
}

func (w *Writer) Send(body interface{}) error {
	return Send(w.zw, body)
}

// Close flushes the lz4 stream; it does not close the underlying writer.
func (w *Writer) Close() error {
	if err := w.zw.Close(); err != nil {
		return fmt.Errorf("lz4.Writer.Close failed: %w", err)
	}
	return nil
}

func NewReader(r io.Reader) *Reader {
	return &Reader{zr: lz4.NewReader(r)}
}

func (r *Reader) Receive() (interface{}, error) {
	return Receive(r.zr)
}
