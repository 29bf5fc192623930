// Package schema declares the acceptable column-name aliases for each
// logical field of each source table, and typed accessors that resolve
// them through the tabular key resolver.
//
// Alias lists are ordered by priority. They are the single place where
// column spellings are known; nothing else in the system enumerates a
// record's own columns.
package schema

import (
	"strings"

	"civicline/internal/tabular"
)

// Event table fields.
var (
	EventIDKeys       = []string{"event_id", "id", "eventid"}
	EventGroupKeys    = []string{"group_id", "groupid"}
	EventTitleKeys    = []string{"title", "name", "event_name"}
	EventTypeKeys     = []string{"type", "event_type", "category"}
	EventDateKeys     = []string{"date", "event_date", "start_date"}
	EventTimeKeys     = []string{"time", "event_time", "start_time"}
	EventStampKeys    = []string{"start_datetime", "datetime", "start_date_time", "date_time"}
	EventLocationKeys = []string{"location", "venue", "address"}
	EventURLKeys      = []string{"source_url", "url", "link"}
	EventRecurKeys    = []string{"rrule", "recurrence", "repeat"}
)

// Group table fields.
var (
	GroupIDKeys      = []string{"group_id", "id", "groupid"}
	GroupNameKeys    = []string{"name", "group", "title"}
	GroupSummaryKeys = []string{"summary_text", "summary", "description", "about", "mission"}
)

// Action table fields.
var (
	ActionIDKeys    = []string{"action_id", "id"}
	ActionEventKeys = []string{"event_id", "eventid"}
	ActionGroupKeys = []string{"group_id", "groupid"}
	ActionTypeKeys  = []string{"action_type_id", "type_id"}
	ActionLabelKeys = []string{"action", "title", "name", "description"}
	ActionTitleKeys = []string{"event_title", "event_name", "title"}
	ActionURLKeys   = []string{"source_url", "url", "link"}
)

// Action-type table fields.
var (
	ActionTypeIDKeys    = []string{"action_type_id", "id", "typeid"}
	ActionTypeLabelKeys = []string{"label", "name", "title"}
	ActionTypeDescKeys  = []string{"description", "summary"}
)

// Media table fields.
var (
	MediaEventKeys = []string{"event_id", "eventid"}
	MediaGroupKeys = []string{"group_id", "groupid"}
	MediaTitleKeys = []string{"title", "name", "caption"}
	MediaURLKeys   = []string{"url", "link", "media_url", "video_url"}
)

func EventID(r tabular.Record) string    { return r.Preferred(EventIDKeys...) }
func EventGroup(r tabular.Record) string { return r.Preferred(EventGroupKeys...) }
func EventURL(r tabular.Record) string   { return r.Preferred(EventURLKeys...) }
func EventRecur(r tabular.Record) string { return r.Preferred(EventRecurKeys...) }

// EventTitle falls back to a generic label so a unit never renders a
// blank heading.
func EventTitle(r tabular.Record) string {
	if t := r.Preferred(EventTitleKeys...); t != "" {
		return t
	}
	return "Event"
}

// EventLocation prefers an explicit location column, then a
// "City, State" composite, then the fixed placeholder.
func EventLocation(r tabular.Record) string {
	if direct := r.Preferred(EventLocationKeys...); direct != "" {
		return direct
	}
	parts := make([]string, 0, 2)
	if city := r.Get("city"); city != "" {
		parts = append(parts, city)
	}
	if state := r.Get("state"); state != "" {
		parts = append(parts, state)
	}
	if len(parts) > 0 {
		return strings.Join(parts, ", ")
	}
	return "Location TBD"
}

func GroupID(r tabular.Record) string { return r.Preferred(GroupIDKeys...) }

func GroupName(r tabular.Record) string {
	if n := r.Preferred(GroupNameKeys...); n != "" {
		return n
	}
	return "Group"
}

// GroupSummary returns the placeholder both for a zero record (event
// without a resolvable group) and for a group with no summary column.
func GroupSummary(r tabular.Record) string {
	if r.IsZero() {
		return "No group summary available."
	}
	if s := r.Preferred(GroupSummaryKeys...); s != "" {
		return s
	}
	return "No group summary available."
}

func ActionID(r tabular.Record) string     { return r.Preferred(ActionIDKeys...) }
func ActionEvent(r tabular.Record) string  { return r.Preferred(ActionEventKeys...) }
func ActionGroup(r tabular.Record) string  { return r.Preferred(ActionGroupKeys...) }
func ActionTypeID(r tabular.Record) string { return r.Preferred(ActionTypeKeys...) }
func ActionTitle(r tabular.Record) string  { return r.Preferred(ActionTitleKeys...) }
func ActionURL(r tabular.Record) string    { return r.Preferred(ActionURLKeys...) }

func ActionLabel(r tabular.Record) string {
	if l := r.Preferred(ActionLabelKeys...); l != "" {
		return l
	}
	return "Public action"
}

func MediaEvent(r tabular.Record) string { return r.Preferred(MediaEventKeys...) }
func MediaGroup(r tabular.Record) string { return r.Preferred(MediaGroupKeys...) }
func MediaURL(r tabular.Record) string   { return r.Preferred(MediaURLKeys...) }

func MediaTitle(r tabular.Record) string {
	if t := r.Preferred(MediaTitleKeys...); t != "" {
		return t
	}
	return "Media"
}
