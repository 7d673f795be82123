// Package timeutil canonicalizes the many timestamp shapes the
// backend emits (epoch seconds/millis, bare datetime, ISO-8601) and
// handles timeframe grid arithmetic.
package timeutil

import (
	"regexp"
	"time"
)

// Timeframe bucket widths in seconds.
var tfSeconds = map[string]int64{
	"1m":  60,
	"5m":  300,
	"15m": 900,
	"1h":  3600,
	"4h":  14400,
	"1d":  86400,
}

// TimeframeSeconds returns the bucket width of a timeframe token.
// Unknown tokens fall back to 60s, matching the feed's minimum grid.
func TimeframeSeconds(tf string) int64 {
	if s, ok := tfSeconds[tf]; ok {
		return s
	}
	return 60
}

// KnownTimeframe reports whether tf is one of the supported tokens.
func KnownTimeframe(tf string) bool {
	_, ok := tfSeconds[tf]
	return ok
}

// FloorToBar snaps an epoch-seconds instant down to its bar open.
func FloorToBar(sec, barSec int64) int64 {
	if barSec <= 0 {
		return sec
	}
	return sec / barSec * barSec
}

const epochMillisCutoff = 1e12 // below this a numeric value is seconds

var (
	bareDatetime = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})[ T](\d{2}:\d{2}:\d{2})$`)
	digits10     = regexp.MustCompile(`^\d{10}$`)
	digits13     = regexp.MustCompile(`^\d{13}$`)
	hasZone      = regexp.MustCompile(`[zZ]$|[+-]\d{2}:\d{2}$`)
)

// ParseTimestamp converts any of the backend's timestamp shapes to a
// UTC instant. Numbers below 1e12 are epoch seconds, above are
// millis; "YYYY-MM-DD HH:MM:SS" and zone-less ISO strings are taken
// as UTC. ok=false means unparseable; callers decide between "use
// now" and "skip".
func ParseTimestamp(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		if t.IsZero() {
			return time.Time{}, false
		}
		return t.UTC(), true
	case int:
		return fromEpoch(float64(t))
	case int64:
		return fromEpoch(float64(t))
	case float64:
		return fromEpoch(t)
	case string:
		return parseString(t)
	default:
		return time.Time{}, false
	}
}

func fromEpoch(v float64) (time.Time, bool) {
	if v <= 0 {
		return time.Time{}, false
	}
	ms := int64(v)
	if v < epochMillisCutoff {
		ms = int64(v * 1000)
	}
	return time.UnixMilli(ms).UTC(), true
}

func parseString(s string) (time.Time, bool) {
	s = trim(s)
	if s == "" {
		return time.Time{}, false
	}
	if m := bareDatetime.FindStringSubmatch(s); m != nil {
		t, err := time.Parse(time.RFC3339, m[1]+"T"+m[2]+"Z")
		if err != nil {
			return time.Time{}, false
		}
		return t.UTC(), true
	}
	if digits10.MatchString(s) {
		return parseString(s + "000")
	}
	if digits13.MatchString(s) {
		var ms int64
		for _, r := range s {
			ms = ms*10 + int64(r-'0')
		}
		return time.UnixMilli(ms).UTC(), true
	}
	// ISO-8601; assume UTC when no zone marker is present.
	candidate := s
	if !hasZone.MatchString(s) {
		candidate = s + "Z"
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, candidate); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func trim(s string) string {
	start, end := 0, len(s)
	for start < end && (s[start] == ' ' || s[start] == '\t') {
		start++
	}
	for end > start && (s[end-1] == ' ' || s[end-1] == '\t') {
		end--
	}
	return s[start:end]
}

// SnapToGrid returns the latest grid time that is <= the given
// instant (seconds or millis accepted). With an empty grid it floors
// to the bar width instead, like the chart does before data arrives.
func SnapToGrid(ts int64, grid []int64, barSec int64) int64 {
	sec := ts
	if ts >= epochMillisCutoff {
		sec = ts / 1000
	}
	if len(grid) == 0 {
		return FloorToBar(sec, barSec)
	}
	lo, hi := 0, len(grid)
	for lo < hi {
		mid := (lo + hi) / 2
		if grid[mid] <= sec {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo == 0 {
		return grid[0]
	}
	return grid[lo-1]
}
