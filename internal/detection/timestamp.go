package detection

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// timeLayouts are the formatted timestamp shapes observed in capture
// stores, tried in order. Layouts without a zone parse as UTC.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	time.DateTime,
}

var errNoTimestamp = errors.New("no timestamp")

// NormalizeTime converts the timestamp representations capture stores
// produce, numeric epoch seconds or a formatted date-time string, into
// a single UTC time.Time. Every later pipeline stage compares and sorts
// on the result, so mixed representations never survive past this
// point.
//
// Non-positive epoch values are rejected: scanners write 0 when a
// device never reported a time, and such rows cannot be ordered.
func NormalizeTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, errNoTimestamp
	case time.Time:
		return t.UTC(), nil
	case int:
		return epochToTime(float64(t))
	case int64:
		return epochToTime(float64(t))
	case float64:
		return epochToTime(t)
	case []byte:
		return parseTimeString(string(t))
	case string:
		return parseTimeString(t)
	default:
		return time.Time{}, fmt.Errorf("unsupported timestamp type %T", v)
	}
}

func epochToTime(sec float64) (time.Time, error) {
	if sec <= 0 || math.IsNaN(sec) || math.IsInf(sec, 0) {
		return time.Time{}, fmt.Errorf("epoch value %v out of range", sec)
	}

	whole, frac := math.Modf(sec)
	return time.Unix(int64(whole), int64(frac*float64(time.Second))).UTC(), nil
}

func parseTimeString(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errNoTimestamp
	}

	// Numeric strings are epoch seconds that arrived as text.
	if sec, err := strconv.ParseFloat(s, 64); err == nil {
		return epochToTime(sec)
	}

	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
