// Package handshake turns a peer's latest-handshake field into a connectivity verdict.
package handshake

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

type Format int

const (
	FormatNone Format = iota
	FormatElapsed
	FormatTimestamp
	FormatUnrecognized
)

func (f Format) String() string {
	switch f {
	case FormatNone:
		return "none"
	case FormatElapsed:
		return "elapsed"
	case FormatTimestamp:
		return "timestamp"
	default:
		return "unrecognized"
	}
}

// "0:02:15", "12:00:01.5", "1 day, 3:04:05"
var elapsedRe = regexp.MustCompile(`^(?:(\d+) days?, )?(\d+):([0-5]\d):([0-5]\d)(?:\.\d+)?$`)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// Future timestamps within clockSkew count as a handshake that just
// happened; anything further ahead is not trusted.
const clockSkew = time.Minute

const maxSeconds = math.MaxInt64 / int64(time.Second)

var (
	upStatuses   = map[string]bool{"running": true, "connected": true, "active": true}
	downStatuses = map[string]bool{"stopped": true, "disconnected": true, "inactive": true}
)

// IsConnected reports whether a peer counts as connected. The status field,
// when it is one of the known values, overrides the handshake age.
func IsConnected(hs, status string, timeout time.Duration, now time.Time) bool {
	byAge := false
	if age, f := Age(hs, now); f == FormatElapsed || f == FormatTimestamp {
		byAge = age < timeout
	}

	st := strings.ToLower(strings.TrimSpace(status))
	switch {
	case upStatuses[st]:
		return true
	case downStatuses[st]:
		return false
	}
	return byAge
}

// Classify reports which format hs is in without computing an age.
func Classify(hs string) Format {
	hs = strings.TrimSpace(hs)
	switch {
	case isSentinel(hs):
		return FormatNone
	case elapsedRe.MatchString(hs):
		return FormatElapsed
	}
	if _, ok := parseTimestamp(hs); ok {
		return FormatTimestamp
	}
	return FormatUnrecognized
}

// Age returns how long ago the handshake happened. The age is only
// meaningful for FormatElapsed and FormatTimestamp and is never negative;
// elapsed values too large for a time.Duration saturate.
func Age(hs string, now time.Time) (time.Duration, Format) {
	hs = strings.TrimSpace(hs)
	if isSentinel(hs) {
		return 0, FormatNone
	}

	if d, ok := parseElapsed(hs); ok {
		return d, FormatElapsed
	}
	if ts, ok := parseTimestamp(hs); ok {
		age := now.Sub(ts)
		switch {
		case age >= 0:
			return age, FormatTimestamp
		case -age <= clockSkew:
			return 0, FormatTimestamp
		}
	}
	return 0, FormatUnrecognized
}

func isSentinel(hs string) bool {
	switch strings.ToLower(hs) {
	case "", "no handshake", "n/a":
		return true
	}
	return false
}

func parseElapsed(s string) (time.Duration, bool) {
	m := elapsedRe.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	var days, hours, mins, secs int64
	var err error
	if m[1] != "" {
		if days, err = strconv.ParseInt(m[1], 10, 64); err != nil {
			return math.MaxInt64, true // more digits than int64 holds
		}
	}
	if hours, err = strconv.ParseInt(m[2], 10, 64); err != nil {
		return math.MaxInt64, true
	}
	mins, _ = strconv.ParseInt(m[3], 10, 64)
	secs, _ = strconv.ParseInt(m[4], 10, 64)

	if days > maxSeconds/86400 || hours > maxSeconds/3600 {
		return math.MaxInt64, true
	}
	total := days*86400 + hours*3600 + mins*60 + secs
	if total > maxSeconds {
		return math.MaxInt64, true
	}
	return time.Duration(total) * time.Second, true
}

func parseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		// Layouts without a zone are local wall-clock time.
		if ts, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
