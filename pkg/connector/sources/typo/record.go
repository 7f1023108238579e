package typo

import (
	"fmt"
	"time"

	"github.com/itchyny/timefmt-go"

	"github.com/ajitpratap0/tap-typo/pkg/errors"
	"github.com/ajitpratap0/tap-typo/pkg/protocol"
)

// EnrichRecord turns a remote record into its wire form: a copy of the
// payload plus the result and record id properties. Fields listed in
// datetimeFormats are parsed with their remote strftime format and
// rewritten as RFC 3339. The input is not modified.
func EnrichRecord(remote RemoteRecord, datetimeFormats map[string]string) (protocol.Record, error) {
	record := make(protocol.Record, len(remote.Record)+2)
	for k, v := range remote.Record {
		record[k] = v
	}

	for field, format := range datetimeFormats {
		value, present := record[field]
		if !present || value == nil {
			continue
		}
		formatted, err := reformatDatetime(value, format)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, fmt.Sprintf("record %d: field %q is not a valid datetime", remote.ID, field)).
				WithDetail("field", field).
				WithDetail("format", format).
				WithDetail("record_id", remote.ID)
		}
		record[field] = formatted
	}

	if remote.HasErrors {
		record[ResultProperty] = ResultError
	} else {
		record[ResultProperty] = ResultOK
	}
	record[RecordIDProperty] = remote.ID

	return record, nil
}

func reformatDatetime(value interface{}, format string) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("expected a string, got %T", value)
	}
	t, err := timefmt.Parse(s, format)
	if err != nil {
		return "", err
	}
	return t.Format(time.RFC3339), nil
}
