// Package temporal normalizes the heterogeneous date and time strings
// found in source tables into a single comparable instant.
//
// The tables inconsistently provide either one combined timestamp
// column or separate date/time columns, in three date encodings, so
// resolution runs through three independent fallback tiers (see
// EventInstant). A row where no date can be determined at all yields
// the invalid instant, a sentinel every consumer must handle; it never
// surfaces as an error.
package temporal

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Instant is a normalized point in time. The zero Instant is the
// invalid sentinel ("no date could be determined").
type Instant struct {
	Time  time.Time
	Valid bool
}

// Invalid returns the invalid-instant sentinel.
func Invalid() Instant { return Instant{} }

// At wraps a concrete time as a valid instant.
func At(t time.Time) Instant { return Instant{Time: t, Valid: true} }

// Before reports whether i is strictly before t. The invalid instant
// is before nothing.
func (i Instant) Before(t time.Time) bool {
	return i.Valid && i.Time.Before(t)
}

// Less orders instants ascending. The invalid instant sorts after
// every valid one, so unknown dates sink to the end of the timeline
// instead of crashing the sort.
func Less(a, b Instant) bool {
	switch {
	case !a.Valid:
		return false
	case !b.Valid:
		return true
	default:
		return a.Time.Before(b.Time)
	}
}

var (
	compactDateRe = regexp.MustCompile(`^\d{8}$`)
	isoDateRe     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	slashDateRe   = regexp.MustCompile(`(\d{1,2})/(\d{1,2})/(\d{4})`)
	clockTimeRe   = regexp.MustCompile(`^\d{1,2}:\d{2}$`)
	meridiemRe    = regexp.MustCompile(`(?i)(\d{1,2})(?::(\d{2}))?\s*(am|pm)`)
)

// ParseDate normalizes a date string to YYYY-MM-DD. Three literal
// shapes are recognized: 8-digit YYYYMMDD, ISO YYYY-MM-DD, and
// slash-delimited M/D/YYYY. Anything else passes through unchanged.
func ParseDate(date string) string {
	cleaned := strings.TrimSpace(date)
	if cleaned == "" {
		return ""
	}
	if compactDateRe.MatchString(cleaned) {
		return cleaned[0:4] + "-" + cleaned[4:6] + "-" + cleaned[6:8]
	}
	if isoDateRe.MatchString(cleaned) {
		return cleaned
	}
	if m := slashDateRe.FindStringSubmatch(cleaned); m != nil {
		return m[3] + "-" + pad2(m[1]) + "-" + pad2(m[2])
	}
	return cleaned
}

// pad2 left-pads a day or month component to two digits.
func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

// ParseTime normalizes a time string to 24-hour HH:MM. A bare H:MM is
// passed through as-is; 12-hour forms with an am/pm suffix (minutes
// optional, default :00) are converted, with 12am mapping to hour 00
// and 12pm staying 12. Anything else passes through unchanged.
func ParseTime(t string) string {
	cleaned := strings.TrimSpace(t)
	if cleaned == "" {
		return ""
	}
	if clockTimeRe.MatchString(cleaned) {
		return cleaned
	}
	m := meridiemRe.FindStringSubmatch(cleaned)
	if m == nil {
		return cleaned
	}
	hour, _ := strconv.Atoi(m[1])
	minutes := m[2]
	if minutes == "" {
		minutes = "00"
	}
	meridiem := strings.ToLower(m[3])
	if meridiem == "pm" && hour < 12 {
		hour += 12
	}
	if meridiem == "am" && hour == 12 {
		hour = 0
	}
	return fmt.Sprintf("%02d:%s", hour, minutes)
}

// combined timestamp layouts accepted by tier 1, most specific first.
var datetimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"1/2/2006 15:04",
	"1/2/2006 3:04 PM",
	"2006-01-02",
}

// ParseStamp parses a combined date-time string against the accepted
// layouts in loc. It backs tier 1 of EventInstant.
func ParseStamp(s string, loc *time.Location) Instant {
	s = strings.TrimSpace(s)
	if s == "" {
		return Invalid()
	}
	for _, layout := range datetimeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return At(t)
		}
	}
	return Invalid()
}

// Resolve determines the effective instant for a row from its field
// values, first success wins:
//
//  1. an explicit combined date-time field;
//  2. normalized date + normalized time (local noon when the time
//     column is absent);
//  3. the normalized date alone.
//
// With no resolvable date the invalid instant is returned.
func Resolve(datetime, date, tm string, loc *time.Location) Instant {
	if datetime != "" {
		if inst := ParseStamp(datetime, loc); inst.Valid {
			return inst
		}
	}

	normDate := ParseDate(date)
	if normDate == "" {
		return Invalid()
	}
	normTime := ParseTime(tm)
	if normTime == "" {
		normTime = "12:00"
	}

	if t, err := time.ParseInLocation("2006-01-02T15:04", normDate+"T"+normTime, loc); err == nil {
		return At(t)
	}
	// Malformed time column: fall back to the date alone.
	if t, err := time.ParseInLocation("2006-01-02", normDate, loc); err == nil {
		return At(t)
	}
	return Invalid()
}

// FormatDate renders a valid instant as e.g. "Sat, Jun 15, 2024"; the
// invalid instant renders as the fixed placeholder.
func FormatDate(i Instant) string {
	if !i.Valid {
		return "Date TBD"
	}
	return i.Time.Format("Mon, Jan 2, 2006")
}

// FormatTime renders a valid instant as e.g. "2:30 PM"; the invalid
// instant renders as the fixed placeholder.
func FormatTime(i Instant) string {
	if !i.Valid {
		return "Time TBD"
	}
	return i.Time.Format("3:04 PM")
}

// DateKey renders a valid instant as a local-calendar YYYYMMDD string
// for building file-path keys, and "" for the invalid instant.
func DateKey(i Instant) string {
	if !i.Valid {
		return ""
	}
	return i.Time.Format("20060102")
}
