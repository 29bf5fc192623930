// Package ical exports the assembled timeline as an iCalendar feed so
// subscription clients can follow the same events the page shows.
package ical

import (
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"

	"civicline/internal/timeline"
)

// defaultDuration is assumed for events, which carry no end time in
// the source tables.
const defaultDuration = time.Hour

// Feed serializes the units with a resolvable instant into a VCALENDAR.
// Units with the invalid instant are skipped; a calendar entry without
// a start time is meaningless to clients.
func Feed(units []*timeline.Unit, name string) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//civicline//timeline//EN")
	if name != "" {
		cal.SetName(name)
		cal.SetXWRCalName(name)
	}

	now := time.Now().UTC()
	for i, u := range units {
		if !u.Instant.Valid {
			continue
		}

		uid := u.EventID
		if uid == "" {
			uid = fmt.Sprintf("unit-%d", i)
		}
		if u.GroupID != "" {
			uid = u.GroupID + "-" + uid
		}

		ev := cal.AddEvent(uid)
		ev.SetDtStampTime(now)
		ev.SetStartAt(u.Instant.Time)
		ev.SetEndAt(u.Instant.Time.Add(defaultDuration))
		ev.SetSummary(u.Title)
		if u.Location != "" && u.Location != "Location TBD" {
			ev.SetLocation(u.Location)
		}
		if desc := description(u); desc != "" {
			ev.SetDescription(desc)
		}
		if u.URL != "" {
			ev.SetURL(u.URL)
		}
	}
	return cal.Serialize()
}

// description combines the group summary and source link.
func description(u *timeline.Unit) string {
	desc := ""
	if u.GroupSummary != "" && u.GroupSummary != "No group summary available." {
		desc = u.GroupName + ": " + u.GroupSummary
	}
	if u.URL != "" {
		if desc != "" {
			desc += "\n"
		}
		desc += u.URL
	}
	return desc
}
