package models

import (
	"fmt"
	"time"
)

// TimeLayout is the storage format for every timestamp column. It is
// fixed-width UTC so string comparison orders values chronologically.
const TimeLayout = "2006-01-02 15:04:05.000"

var acceptedLayouts = []string{
	TimeLayout,
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
}

// FormatTime renders t in TimeLayout (UTC).
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime accepts TimeLayout as well as second-precision and RFC 3339
// forms a peer may send. Zone-less values are taken as UTC.
func ParseTime(s string) (time.Time, error) {
	for _, layout := range acceptedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// NormalizeTime re-renders s in TimeLayout.
func NormalizeTime(s string) (string, error) {
	t, err := ParseTime(s)
	if err != nil {
		return "", err
	}
	return FormatTime(t), nil
}
