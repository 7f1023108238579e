package typo

import (
	"github.com/ajitpratap0/tap-typo/pkg/protocol"
)

// IsSelected reports whether a catalog stream should be synced: selected is
// true, or selected is not an explicit false and selected-by-default is true.
func IsSelected(stream *protocol.Stream) bool {
	md := stream.StreamMetadata()
	if selected, ok := protocol.MetadataBool(md, protocol.MetadataSelected); ok {
		return selected
	}
	byDefault, _ := protocol.MetadataBool(md, protocol.MetadataSelectedByDefault)
	return byDefault
}

// SelectedStreams returns the selected streams of catalog in catalog order.
func SelectedStreams(catalog *protocol.Catalog) []*protocol.Stream {
	if catalog == nil {
		return nil
	}
	var selected []*protocol.Stream
	for _, stream := range catalog.Streams {
		if IsSelected(stream) {
			selected = append(selected, stream)
		}
	}
	return selected
}

// ResolveConfiguredStream finds the stream addressed by a configured
// repository, dataset and optional audit id.
func ResolveConfiguredStream(catalog *protocol.Catalog, repository, dataset string, auditID int64) (*protocol.Stream, bool) {
	return catalog.Find(StreamID(repository, dataset, auditID))
}
