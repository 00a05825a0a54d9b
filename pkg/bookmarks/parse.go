package bookmarks

import (
	"strings"
)

// Event is one decoded bookmark in playback order
type Event struct {
	Name        string
	Label       Label
	TimestampMS int64
}

// ParseBookmarks decodes the VLC bookmark option value
// {name=<label>,time=<timestamp>},{name=<label>,time=<timestamp>},...
// A malformed entry aborts decoding.
func ParseBookmarks(blob string) ([]Event, error) {
	blob = strings.TrimSpace(blob)
	if blob == "" {
		return nil, nil
	}

	records := strings.Split(blob, "},")
	events := make([]Event, 0, len(records))
	for _, record := range records {
		body := strings.TrimPrefix(record, "{")
		body = strings.TrimSuffix(body, "}")

		rest, ok := strings.CutPrefix(body, "name=")
		if !ok {
			return nil, &MalformedRecordError{Record: record}
		}
		name, t, ok := strings.Cut(rest, ",time=")
		if !ok || name == "" {
			return nil, &MalformedRecordError{Record: record}
		}

		ms, err := ParseTimestamp(t)
		if err != nil {
			return nil, err
		}
		label, err := ParseName(name)
		if err != nil {
			return nil, err
		}

		events = append(events, Event{Name: name, Label: label, TimestampMS: ms})
	}

	return events, nil
}
