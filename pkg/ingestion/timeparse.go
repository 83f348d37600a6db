package ingestion

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"
)

var errBadTimestamp = errors.New("unparseable timestamp")

// Device firmware is inconsistent about timestamp encoding, so three formats
// are accepted: ISO-8601 with offset, SQL datetime (assumed UTC), and Unix
// epoch seconds (number or numeric string). Results are normalized to UTC and
// truncated to whole seconds, which is also the dedup resolution.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
}

func parseTimestamp(raw json.RawMessage) (time.Time, error) {
	if len(raw) == 0 {
		return time.Time{}, errBadTimestamp
	}

	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return time.Time{}, errBadTimestamp
	}

	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return time.Time{}, errBadTimestamp
		}
		return parseTimestampString(strings.TrimSpace(s))
	}

	epoch, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return time.Time{}, errBadTimestamp
	}
	return epochToTime(epoch)
}

func parseTimestampString(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, errBadTimestamp
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return normalize(t), nil
		}
	}
	if epoch, err := strconv.ParseFloat(s, 64); err == nil {
		return epochToTime(epoch)
	}
	return time.Time{}, errBadTimestamp
}

func epochToTime(epoch float64) (time.Time, error) {
	// Reject obviously bogus clocks (before 2000-01-01 or past year ~5000).
	if epoch < 946684800 || epoch > 1e11 {
		return time.Time{}, errBadTimestamp
	}
	return normalize(time.Unix(int64(epoch), 0)), nil
}

func normalize(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}
