// Package timeparse converts raw per-band timestamp strings into sortable
// instants. Metadata carries strptime-style patterns ("%Y-%m-%d"), which
// are translated to Go reference layouts before parsing.
package timeparse

import (
	"fmt"
	"strings"
	"time"

	"rastercube/internal/errors"
)

// Sentinel is the "no time" marker. It sorts before every real instant a
// raster can carry, so untimed bands always order first.
var Sentinel = time.Time{}

// IsSentinel reports whether t is the "no time" marker.
func IsSentinel(t time.Time) bool {
	return t.IsZero()
}

// fallbackLayouts is the fixed ordered list tried when no explicit pattern
// was declared for a band.
var fallbackLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006",
}

// strptime directives supported in band time patterns.
var directives = map[byte]string{
	'Y': "2006",
	'm': "01",
	'd': "02",
	'H': "15",
	'M': "04",
	'S': "05",
	'j': "002",
	'y': "06",
}

// Layout translates a strptime-style pattern into a Go reference layout.
func Layout(pattern string) (string, error) {
	var b strings.Builder
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		if c != '%' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(pattern) {
			return "", errors.TimeParse("time pattern ends with a bare %")
		}
		if pattern[i] == '%' {
			b.WriteByte('%')
			continue
		}
		layout, ok := directives[pattern[i]]
		if !ok {
			return "", errors.TimeParse("unsupported time directive %" + string(pattern[i]))
		}
		b.WriteString(layout)
	}
	return b.String(), nil
}

// ParseExplicit parses raw with the one declared pattern. A mismatch is a
// violated metadata contract and returns a TIME_PARSE error.
func ParseExplicit(raw, pattern string) (time.Time, error) {
	layout, err := Layout(pattern)
	if err != nil {
		return Sentinel, err
	}
	t, err := time.Parse(layout, raw)
	if err != nil {
		return Sentinel, errors.TimeParse(fmt.Sprintf("time %q does not match pattern %q", raw, pattern))
	}
	return t, nil
}

// ParseFallback tries the fixed layout list in order. It never fails: an
// absent or unparseable raw string yields the sentinel.
func ParseFallback(raw string) time.Time {
	if raw == "" {
		return Sentinel
	}
	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return Sentinel
}
