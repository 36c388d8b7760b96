// Package timeutil parses the compact look-back windows accepted by the
// outbox listing, such as "3d" or "1w2d6h".
package timeutil

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
)

const (
	day  = 24 * time.Hour
	week = 7 * day
)

var units = map[string]time.Duration{
	"s": time.Second, "sec": time.Second, "second": time.Second, "seconds": time.Second,
	"m": time.Minute, "min": time.Minute, "minute": time.Minute, "minutes": time.Minute,
	"h": time.Hour, "hr": time.Hour, "hour": time.Hour, "hours": time.Hour,
	"d": day, "day": day, "days": day,
	"w": week, "wk": week, "week": week, "weeks": week,
}

// ErrEmptyWindow is returned for a window that adds up to nothing.
var ErrEmptyWindow = errors.New("timeutil: window must be greater than zero")

// ParseWindow reads a sequence of <number><unit> segments and sums them.
func ParseWindow(input string) (time.Duration, error) {
	rest := strings.ToLower(strings.TrimSpace(input))
	var total time.Duration
	for rest != "" {
		digits := strings.IndexFunc(rest, func(r rune) bool { return !unicode.IsDigit(r) })
		switch {
		case digits == 0:
			return 0, fmt.Errorf("timeutil: expected a number at %q", rest)
		case digits < 0:
			return 0, fmt.Errorf("timeutil: missing unit after %q", rest)
		}
		n, err := strconv.ParseInt(rest[:digits], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("timeutil: %q: %w", rest[:digits], err)
		}
		rest = strings.TrimLeft(rest[digits:], " ")

		end := strings.IndexFunc(rest, func(r rune) bool { return !unicode.IsLetter(r) })
		if end < 0 {
			end = len(rest)
		}
		unit, ok := units[rest[:end]]
		if !ok {
			return 0, fmt.Errorf("timeutil: unknown unit %q", rest[:end])
		}
		total += time.Duration(n) * unit
		rest = strings.TrimLeft(rest[end:], " ")
	}
	if total <= 0 {
		return 0, ErrEmptyWindow
	}
	return total, nil
}

// FormatWindow is the compact form of d, largest unit first.
func FormatWindow(d time.Duration) string {
	var b strings.Builder
	for _, u := range []struct {
		label string
		size  time.Duration
	}{{"w", week}, {"d", day}, {"h", time.Hour}, {"m", time.Minute}, {"s", time.Second}} {
		if n := d / u.size; n > 0 {
			fmt.Fprintf(&b, "%d%s", n, u.label)
			d -= n * u.size
		}
	}
	if b.Len() == 0 {
		return "0s"
	}
	return b.String()
}
