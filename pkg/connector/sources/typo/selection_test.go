package typo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/tap-typo/pkg/protocol"
)

func selectionStream(id string, md map[string]interface{}) *protocol.Stream {
	return &protocol.Stream{
		TapStreamID: id,
		Metadata:    []protocol.MetadataEntry{{Breadcrumb: []string{}, Metadata: md}},
	}
}

func TestIsSelected(t *testing.T) {
	tests := []struct {
		name string
		md   map[string]interface{}
		want bool
	}{
		{name: "selected", md: map[string]interface{}{"selected": true}, want: true},
		{name: "explicitly deselected", md: map[string]interface{}{"selected": false, "selected-by-default": true}, want: false},
		{name: "selected by default", md: map[string]interface{}{"selected-by-default": true}, want: true},
		{name: "not selected by default", md: map[string]interface{}{"selected-by-default": false}, want: false},
		{name: "selected wins over default", md: map[string]interface{}{"selected": true, "selected-by-default": false}, want: true},
		{name: "no selection metadata", md: map[string]interface{}{}, want: false},
		{name: "non-boolean selected", md: map[string]interface{}{"selected": "yes", "selected-by-default": true}, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSelected(selectionStream("s", tt.md)))
		})
	}
}

func TestIsSelectedWithoutStreamMetadata(t *testing.T) {
	assert.False(t, IsSelected(&protocol.Stream{TapStreamID: "bare"}))
}

func TestSelectedStreamsKeepsCatalogOrder(t *testing.T) {
	catalog := &protocol.Catalog{Streams: []*protocol.Stream{
		selectionStream("c", map[string]interface{}{"selected": true}),
		selectionStream("a", map[string]interface{}{"selected": false}),
		selectionStream("b", map[string]interface{}{"selected-by-default": true}),
	}}

	selected := SelectedStreams(catalog)
	require.Len(t, selected, 2)
	assert.Equal(t, "c", selected[0].TapStreamID)
	assert.Equal(t, "b", selected[1].TapStreamID)

	assert.Empty(t, SelectedStreams(nil))
	assert.Empty(t, SelectedStreams(&protocol.Catalog{}))
}

func TestSelectedStreamsFromParsedCatalog(t *testing.T) {
	catalog, err := protocol.ParseCatalog([]byte(`{"streams": [
		{"stream": "x", "tap_stream_id": "x", "schema": {"type": "object", "properties": {}},
		 "metadata": [{"breadcrumb": [], "metadata": {"selected": true}}], "key_properties": []},
		{"stream": "y", "tap_stream_id": "y", "schema": {"type": "object", "properties": {}},
		 "metadata": [{"breadcrumb": [], "metadata": {"selected-by-default": false}}], "key_properties": []}
	]}`))
	require.NoError(t, err)

	selected := SelectedStreams(catalog)
	require.Len(t, selected, 1)
	assert.Equal(t, "x", selected[0].TapStreamID)
}

func TestResolveConfiguredStream(t *testing.T) {
	catalog := &protocol.Catalog{Streams: []*protocol.Stream{
		selectionStream(mockDatasetStream, nil),
		selectionStream(mockAuditStream, nil),
	}}

	tests := []struct {
		name    string
		dataset string
		auditID int64
		want    string
		found   bool
	}{
		{name: "dataset", dataset: mockDataset, want: mockDatasetStream, found: true},
		{name: "audit", dataset: mockDataset, auditID: mockAuditID, want: mockAuditStream, found: true},
		{name: "unknown audit", dataset: mockDataset, auditID: 999},
		{name: "unknown dataset", dataset: "other"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stream, ok := ResolveConfiguredStream(catalog, mockRepository, tt.dataset, tt.auditID)
			assert.Equal(t, tt.found, ok)
			if tt.found {
				assert.Equal(t, tt.want, stream.TapStreamID)
			}
		})
	}
}
