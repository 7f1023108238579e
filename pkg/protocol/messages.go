// Package protocol defines the message stream the tap writes: SCHEMA, RECORD
// and STATE envelopes, one JSON object per line, together with the catalog
// and state documents exchanged with the orchestrator.
//
// Ordering within a stream is always
//
//	STATE (snapshot), SCHEMA, RECORD, STATE, RECORD, STATE, ...
//
// so that the last STATE read by a consumer is a safe resume point.
package protocol

import (
	"bufio"
	"io"

	"github.com/ajitpratap0/tap-typo/pkg/errors"
	jsonpool "github.com/ajitpratap0/tap-typo/pkg/json"
)

// MessageType identifies a message envelope.
type MessageType string

const (
	MessageTypeSchema MessageType = "SCHEMA"
	MessageTypeRecord MessageType = "RECORD"
	MessageTypeState  MessageType = "STATE"
)

// Record is one record payload as emitted on the stream.
type Record = map[string]interface{}

// SchemaMessage announces the schema of a stream before any of its records.
type SchemaMessage struct {
	Type               MessageType `json:"type"`
	Stream             string      `json:"stream"`
	Schema             *Schema     `json:"schema"`
	KeyProperties      []string    `json:"key_properties"`
	BookmarkProperties []string    `json:"bookmark_properties,omitempty"`
}

// RecordMessage carries a single record.
type RecordMessage struct {
	Type   MessageType `json:"type"`
	Stream string      `json:"stream"`
	Record Record      `json:"record"`
}

// StateMessage carries a full bookmark snapshot.
type StateMessage struct {
	Type  MessageType `json:"type"`
	Value *State      `json:"value"`
}

// Message is the decoded form of any envelope. It is used when reading a
// stream back, e.g. by tests and by tools that replay tap output.
type Message struct {
	Type               MessageType         `json:"type"`
	Stream             string              `json:"stream,omitempty"`
	Record             Record              `json:"record,omitempty"`
	Schema             jsonpool.RawMessage `json:"schema,omitempty"`
	KeyProperties      []string            `json:"key_properties,omitempty"`
	BookmarkProperties []string            `json:"bookmark_properties,omitempty"`
	Value              *State              `json:"value,omitempty"`
}

// ReadMessages decodes every line of r as a Message.
func ReadMessages(r io.Reader) ([]Message, error) {
	var messages []Message

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		data := scanner.Bytes()
		if len(data) == 0 {
			continue
		}
		var msg Message
		if err := jsonpool.UnmarshalNumber(data, &msg); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to decode message").
				WithDetail("line", line)
		}
		messages = append(messages, msg)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to read messages")
	}

	return messages, nil
}
