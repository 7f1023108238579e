package protocol

import (
	"bytes"
	"os"

	"github.com/ajitpratap0/tap-typo/pkg/errors"
	jsonpool "github.com/ajitpratap0/tap-typo/pkg/json"
)

// State is the persisted resume position of every stream:
//
//	{"bookmarks": {"<stream id>": {"<property>": <id>}}}
//
// An empty state encodes as {}.
type State struct {
	Bookmarks map[string]map[string]int64 `json:"bookmarks,omitempty"`
}

// NewState returns an empty state.
func NewState() *State {
	return &State{}
}

// Clone returns a deep copy of s. Cloning a nil state yields an empty one.
func (s *State) Clone() *State {
	out := NewState()
	if s == nil || len(s.Bookmarks) == 0 {
		return out
	}
	out.Bookmarks = make(map[string]map[string]int64, len(s.Bookmarks))
	for stream, marks := range s.Bookmarks {
		copied := make(map[string]int64, len(marks))
		for k, v := range marks {
			copied[k] = v
		}
		out.Bookmarks[stream] = copied
	}
	return out
}

// Bookmark returns the bookmark value for stream and property.
func (s *State) Bookmark(stream, property string) (int64, bool) {
	if s == nil {
		return 0, false
	}
	marks, ok := s.Bookmarks[stream]
	if !ok {
		return 0, false
	}
	v, ok := marks[property]
	return v, ok
}

// SetBookmark records value for stream and property.
func (s *State) SetBookmark(stream, property string, value int64) {
	if s.Bookmarks == nil {
		s.Bookmarks = make(map[string]map[string]int64)
	}
	marks, ok := s.Bookmarks[stream]
	if !ok {
		marks = make(map[string]int64)
		s.Bookmarks[stream] = marks
	}
	marks[property] = value
}

// ReadState loads a state file. An empty path yields an empty state.
func ReadState(path string) (*State, error) {
	if path == "" {
		return NewState(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to read state file").
			WithDetail("path", path)
	}
	return ParseState(data)
}

// ParseState decodes a state document. Blank input yields an empty state.
func ParseState(data []byte) (*State, error) {
	state := NewState()
	if len(bytes.TrimSpace(data)) == 0 {
		return state, nil
	}
	if err := jsonpool.Unmarshal(data, state); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to decode state")
	}
	return state, nil
}
