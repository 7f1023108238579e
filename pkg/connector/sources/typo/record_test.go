package typo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/tap-typo/pkg/errors"
	"github.com/ajitpratap0/tap-typo/pkg/protocol"
)

func TestEnrichRecord(t *testing.T) {
	tests := []struct {
		name   string
		remote RemoteRecord
		want   protocol.Record
	}{
		{
			name:   "clean record",
			remote: RemoteRecord{ID: 7, Record: map[string]interface{}{"date": "today", "typo": "tap"}},
			want: protocol.Record{
				"date":           "today",
				"typo":           "tap",
				ResultProperty:   ResultOK,
				RecordIDProperty: int64(7),
			},
		},
		{
			name:   "record with errors",
			remote: RemoteRecord{ID: 8, HasErrors: true, Record: map[string]interface{}{"typo": "tpa"}},
			want: protocol.Record{
				"typo":           "tpa",
				ResultProperty:   ResultError,
				RecordIDProperty: int64(8),
			},
		},
		{
			name:   "empty payload",
			remote: RemoteRecord{ID: 9},
			want: protocol.Record{
				ResultProperty:   ResultOK,
				RecordIDProperty: int64(9),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EnrichRecord(tt.remote, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEnrichRecordLeavesInputUntouched(t *testing.T) {
	payload := map[string]interface{}{"created": "2020-01-27 00:20:35"}
	remote := RemoteRecord{ID: 1, Record: payload}

	got, err := EnrichRecord(remote, map[string]string{"created": "%Y-%m-%d %H:%M:%S"})
	require.NoError(t, err)

	assert.Equal(t, "2020-01-27T00:20:35Z", got["created"])
	assert.Equal(t, map[string]interface{}{"created": "2020-01-27 00:20:35"}, payload)
}

func TestEnrichRecordDatetimes(t *testing.T) {
	tests := []struct {
		name    string
		value   interface{}
		format  string
		want    interface{}
		wantErr bool
	}{
		{name: "date and time", value: "2020-01-27 00:20:35", format: "%Y-%m-%d %H:%M:%S", want: "2020-01-27T00:20:35Z"},
		{name: "date only", value: "27/01/2020", format: "%d/%m/%Y", want: "2020-01-27T00:00:00Z"},
		{name: "null value is kept", value: nil, format: "%Y-%m-%d", want: nil},
		{name: "malformed value", value: "not a date", format: "%Y-%m-%d", wantErr: true},
		{name: "non-string value", value: 20200127, format: "%Y%m%d", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remote := RemoteRecord{ID: 42, Record: map[string]interface{}{"created": tt.value}}
			got, err := EnrichRecord(remote, map[string]string{"created": tt.format})
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsType(err, errors.ErrorTypeData))
				assert.Equal(t, "created", errors.DetailsOf(err)["field"])
				assert.Equal(t, int64(42), errors.DetailsOf(err)["record_id"])
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got["created"])
		})
	}
}

func TestEnrichRecordIgnoresMissingDatetimeField(t *testing.T) {
	got, err := EnrichRecord(RemoteRecord{ID: 3, Record: map[string]interface{}{"other": "x"}},
		map[string]string{"created": "%Y-%m-%d"})
	require.NoError(t, err)
	assert.NotContains(t, got, "created")
	assert.Equal(t, "x", got["other"])
}
