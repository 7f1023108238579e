package protocol

import (
	"bufio"
	"io"
	"sync/atomic"

	"github.com/ajitpratap0/tap-typo/pkg/errors"
	jsonpool "github.com/ajitpratap0/tap-typo/pkg/json"
)

// Writer is the sink for the message stream.
type Writer interface {
	WriteSchema(stream string, schema *Schema, keyProperties, bookmarkProperties []string) error
	WriteRecord(stream string, record Record) error
	WriteState(state *State) error
}

// flusher is implemented by sinks that buffer internally, such as
// compressors.
type flusher interface {
	Flush() error
}

// JSONWriter writes one JSON message per line and flushes after every
// message, so each STATE is visible to the consumer as soon as it is written.
// When the underlying writer buffers too, it is flushed as well.
type JSONWriter struct {
	out      *bufio.Writer
	sink     flusher
	messages int64
}

// NewJSONWriter creates a writer on w.
func NewJSONWriter(w io.Writer) *JSONWriter {
	sink, _ := w.(flusher)
	return &JSONWriter{out: bufio.NewWriterSize(w, 64*1024), sink: sink}
}

// WriteSchema writes a SCHEMA message.
func (w *JSONWriter) WriteSchema(stream string, schema *Schema, keyProperties, bookmarkProperties []string) error {
	if keyProperties == nil {
		keyProperties = []string{}
	}
	return w.write(SchemaMessage{
		Type:               MessageTypeSchema,
		Stream:             stream,
		Schema:             schema,
		KeyProperties:      keyProperties,
		BookmarkProperties: bookmarkProperties,
	})
}

// WriteRecord writes a RECORD message.
func (w *JSONWriter) WriteRecord(stream string, record Record) error {
	return w.write(RecordMessage{
		Type:   MessageTypeRecord,
		Stream: stream,
		Record: record,
	})
}

// WriteState writes a STATE message.
func (w *JSONWriter) WriteState(state *State) error {
	if state == nil {
		state = NewState()
	}
	return w.write(StateMessage{
		Type:  MessageTypeState,
		Value: state,
	})
}

// Messages returns the number of messages written so far.
func (w *JSONWriter) Messages() int64 {
	return atomic.LoadInt64(&w.messages)
}

func (w *JSONWriter) write(msg interface{}) error {
	buf, err := jsonpool.MarshalToBuffer(msg)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeData, "failed to encode message")
	}
	defer jsonpool.PutBuffer(buf)

	if _, err := w.out.Write(buf.Bytes()); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write message")
	}
	if err := w.out.Flush(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to flush message")
	}
	if w.sink != nil {
		if err := w.sink.Flush(); err != nil {
			return errors.Wrap(err, errors.ErrorTypeFile, "failed to flush output")
		}
	}
	atomic.AddInt64(&w.messages, 1)
	return nil
}
