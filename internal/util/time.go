package util

import "time"

// UnixMillis converts t to milliseconds since the epoch; the zero time maps to 0.
func UnixMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

// FromUnixMillis is the inverse of UnixMillis, returning UTC times.
func FromUnixMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

// Elapsed returns the time since start rounded to the millisecond.
func Elapsed(start time.Time) time.Duration {
	return time.Since(start).Round(time.Millisecond)
}
