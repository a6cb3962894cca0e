package utils

import (
	"time"

	"github.com/araddon/dateparse"
)

// SinceLayout is the wire format of the since query parameter.
const SinceLayout = "2006-01-02T15:04:05.999999Z"

// TimeParser accepts any common timestamp form. Values without a zone are UTC.
func TimeParser(datestr string) (time.Time, error) {
	t, err := dateparse.ParseIn(datestr, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// ParseSince parses the strict since format, with or without fractional seconds.
func ParseSince(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func FormatSince(t time.Time) string {
	return t.UTC().Format(SinceLayout)
}
